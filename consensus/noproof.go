package consensus

import "github.com/syncpoint-network/syncpoint/types"

// NoProof is a consensus that only checks the parent links of the headers.
// The proof-of-work itself is verified by the chain-state engine
type NoProof struct{}

// NoProofFactory creates the NoProof consensus
func NoProofFactory(_ *Params) (Consensus, error) {
	return &NoProof{}, nil
}

// VerifyHeader verifies the header is correct
func (n *NoProof) VerifyHeader(parent *types.Header, header *types.Header) error {
	return VerifyLinkage(parent, header)
}

func (n *NoProof) Start() error {
	return nil
}

// Close closes the connection
func (n *NoProof) Close() error {
	return nil
}
