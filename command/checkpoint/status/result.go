package status

import (
	"bytes"
	"fmt"

	"github.com/syncpoint-network/syncpoint/checkpoint"
	"github.com/syncpoint-network/syncpoint/command/helper"
	"github.com/syncpoint-network/syncpoint/types"
)

type CheckpointStatusResult struct {
	checkpoint.Status

	Tip       types.Hash `json:"tip"`
	TipHeight uint64     `json:"tipHeight"`
}

func hashOrNone(h types.Hash) string {
	if h.IsZero() {
		return ""
	}

	return h.String()
}

func (r *CheckpointStatusResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("\n[CHECKPOINT STATUS]\n")
	buffer.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Checkpoint|%s", hashOrNone(r.Current)),
		fmt.Sprintf("Checkpoint height|%d", r.CurrentHeight),
		fmt.Sprintf("Pending|%s", hashOrNone(r.Pending)),
		fmt.Sprintf("Last invalid|%s", hashOrNone(r.LastInvalid)),
		fmt.Sprintf("Master public key|%s", r.MasterPubKey),
		fmt.Sprintf("Tip|%s", r.Tip),
		fmt.Sprintf("Tip height|%d", r.TipHeight),
	}))
	buffer.WriteString("\n")

	return buffer.String()
}
