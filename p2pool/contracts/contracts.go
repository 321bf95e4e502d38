// Package contracts names the external collaborators the coordinator
// drives but does not implement: the RandomX hasher, the side-chain
// replica and its peer gossip layer, the miner-facing stratum server,
// the block-template builder, the mempool store, and the daemon RPC
// client. The coordinator only ever talks to the narrow interfaces
// below, never to concrete types, so it can be instantiated and tested
// without any of them wired up to real infrastructure.
package contracts

import (
	"context"

	"github.com/Cm157cc/p2pool/monero/client"
	"github.com/Cm157cc/p2pool/types"
)

// Hasher computes RandomX proof-of-work hashes and manages the dataset
// swap that happens whenever the active seed hash rotates. Swapping is
// expected to happen asynchronously relative to the caller.
type Hasher interface {
	Hash(seed, data []byte) (types.Hash, error)
	SetSeed(seed types.Hash)
}

// SideChain is the pool's own gossip-replicated chain of shares. The
// coordinator only needs to ask it whether a main-chain block belongs to
// this pool and what network it is configured for; it never reaches back
// into the coordinator directly (no Coordinator-typed field), breaking
// the SideChain -> Coordinator -> SideChain cycle present in the source.
type SideChain interface {
	Network() Network
	OwnsBlock(sideTemplateId types.Hash) bool
	HandleMainChainObservation(height uint64, id types.Hash)
}

// Network identifies which of the daemon's reported network flags a
// SideChain was configured for, used to validate GET_INFO's response.
type Network int

const (
	NetworkMainnet Network = iota
	NetworkTestnet
	NetworkStagenet
)

// P2PServer relays side-chain blocks to and from other pool nodes. Like
// SideChain it is handed only the narrow surface the coordinator calls;
// it never holds a reference back to the coordinator.
type P2PServer interface {
	Broadcast(blob []byte)
	Close() error
}

// StratumServer delivers assembled block templates to connected miners
// and reports the hashrate/miner-count figures the telemetry layer needs.
type StratumServer interface {
	OnBlock(template BlockTemplateHandle)
	MinerCount() int
	HashRate() uint64
	Close() error
}

// BlockTemplateHandle is the opaque, versioned handle StratumServer and
// the P2P layer pass back to the coordinator when a share is found.
type BlockTemplateHandle struct {
	TemplateId uint32
	Blob       []byte
	// NonceOffset/ExtraNonceOffset are byte offsets into Blob where the
	// 4-byte little-endian nonce and extra_nonce fields live; submit-block
	// hex splicing writes into these offsets in the hex rendering.
	NonceOffset      int
	ExtraNonceOffset int
}

// BlockTemplate assembles candidate main-chain blocks from the latest
// MinerData and mempool contents.
type BlockTemplate interface {
	Update(minerData any, mempool any, wallet string) (BlockTemplateHandle, error)
	Get(templateId uint32) (BlockTemplateHandle, bool)
}

// Mempool is the thread-safe transaction-backlog store the coordinator
// feeds tx-seen events and full mempool refreshes into.
type Mempool interface {
	Add(id types.Hash, weight, fee uint64)
	ReplaceAll(entries []TxMempoolEntry)
}

// TxMempoolEntry is the minimal shape Mempool.ReplaceAll needs; defined
// here rather than imported from p2pool/mempool to keep this package
// free of a dependency on a concrete implementation.
type TxMempoolEntry struct {
	Id     types.Hash
	Weight uint64
	Fee    uint64
}

// RpcClient is the subset of monero/client.Client the coordinator's
// bootstrap state machine and submit path call through. Expressed as an
// interface so tests can inject a fake daemon.
type RpcClient interface {
	GetInfo(ctx context.Context) (*client.GetInfoResult, error)
	GetVersion(ctx context.Context) (*client.GetVersionResult, error)
	GetMinerData(ctx context.Context) (*client.GetMinerDataResult, error)
	GetBlockHeaderByHeight(ctx context.Context, height uint64) (*client.GetBlockHeaderByHeightResult, error)
	GetBlockHeadersRange(ctx context.Context, startHeight, endHeight uint64) (*client.GetBlockHeadersRangeResult, error)
	SubmitBlock(ctx context.Context, blobHex string) (*client.SubmitBlockResult, error)
}
