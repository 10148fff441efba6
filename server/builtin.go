package server

import (
	blockstorage "github.com/syncpoint-network/syncpoint/blockchain/storage"
	blockboltdb "github.com/syncpoint-network/syncpoint/blockchain/storage/boltdb"
	"github.com/syncpoint-network/syncpoint/blockchain/storage/leveldb"
	blockmemory "github.com/syncpoint-network/syncpoint/blockchain/storage/memory"
	cpstorage "github.com/syncpoint-network/syncpoint/checkpoint/storage"
	cpboltdb "github.com/syncpoint-network/syncpoint/checkpoint/storage/boltdb"
	"github.com/syncpoint-network/syncpoint/checkpoint/storage/file"
	cpmemory "github.com/syncpoint-network/syncpoint/checkpoint/storage/memory"
	"github.com/syncpoint-network/syncpoint/consensus"
	consensusDev "github.com/syncpoint-network/syncpoint/consensus/dev"
)

type ConsensusType string

const (
	DevConsensus     ConsensusType = "dev"
	NoProofConsensus ConsensusType = "noproof"
)

var consensusBackends = map[ConsensusType]consensus.Factory{
	DevConsensus:     consensusDev.Factory,
	NoProofConsensus: consensus.NoProofFactory,
}

const (
	LevelDBBackend = "leveldb"
	BoltDBBackend  = "boltdb"
	MemoryBackend  = "memory"
	FileBackend    = "file"
)

// blockIndexBackends are the header stores
var blockIndexBackends = map[string]blockstorage.Factory{
	LevelDBBackend: leveldb.Factory,
	BoltDBBackend:  blockboltdb.Factory,
	MemoryBackend:  blockmemory.Factory,
}

// checkpointBackends are the sync checkpoint stores
var checkpointBackends = map[string]cpstorage.Factory{
	FileBackend:   file.Factory,
	BoltDBBackend: cpboltdb.Factory,
	MemoryBackend: cpmemory.Factory,
}

func ConsensusSupported(value string) bool {
	_, ok := consensusBackends[ConsensusType(value)]

	return ok
}

func BlockIndexBackendSupported(value string) bool {
	_, ok := blockIndexBackends[value]

	return ok
}

func CheckpointBackendSupported(value string) bool {
	_, ok := checkpointBackends[value]

	return ok
}
