package init

import (
	"bytes"
	"fmt"

	"github.com/syncpoint-network/syncpoint/command/helper"
)

type SecretsInitResult struct {
	MasterPubKey string `json:"master_pub_key"`
	NodeID       string `json:"node_id"`
}

func (r *SecretsInitResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("\n[SECRETS INIT]\n")
	buffer.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Checkpoint master public key|%s", r.MasterPubKey),
		fmt.Sprintf("Node ID|%s", r.NodeID),
	}))
	buffer.WriteString("\n")

	return buffer.String()
}
