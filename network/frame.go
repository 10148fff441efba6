package network

import (
	"io"

	"github.com/libp2p/go-msgio"
)

// MaxFrameSize bounds a single length-prefixed frame
const MaxFrameSize = 4 << 20

// WriteFrame writes a varint length-prefixed frame
func WriteFrame(w io.Writer, data []byte) error {
	return msgio.NewVarintWriter(w).WriteMsg(data)
}

// ReadFrame reads a varint length-prefixed frame of at most MaxFrameSize bytes
func ReadFrame(r io.Reader) ([]byte, error) {
	return msgio.NewVarintReaderSize(r, MaxFrameSize).ReadMsg()
}
