package coordinator

import (
	"time"

	"github.com/Cm157cc/p2pool/types"
)

// TxMempoolData is one daemon mempool entry as carried by both the
// get_miner_data RPC response and the json-full-txpool_add ZMQ topic.
// Rejected by the dispatcher when Weight or Fee is zero.
type TxMempoolData struct {
	Id       types.Hash
	BlobSize uint64
	Weight   uint64
	Fee      uint64
}

// MinerData is the daemon's "what to mine next" snapshot. It is
// snapshot-replaced wholesale on every refresh, never mutated in place.
type MinerData struct {
	MajorVersion          uint8
	Height                uint64
	PrevId                types.Hash
	SeedHash              types.Hash
	MedianWeight          uint64
	AlreadyGeneratedCoins uint64
	Difficulty            types.Difficulty
	TxBacklog             []TxMempoolData

	// MedianTimestamp is filled locally from the main-chain index, not
	// supplied by the daemon.
	MedianTimestamp uint64
	TimeReceived    time.Time
}

// SubmitBlockData is the most recent submission request: either an
// internal template handle or an externally-relayed blob. Mutually
// exclusive per I4 — validate enforces it.
type SubmitBlockData struct {
	TemplateId   uint32
	Nonce        uint32
	ExtraNonce   uint32
	ExternalBlob []byte
}

func (s SubmitBlockData) isExternal() bool {
	return len(s.ExternalBlob) > 0
}

// validate enforces I4: external_blob empty XOR (template_id==0 &&
// nonce==0 && extra_nonce==0).
func (s SubmitBlockData) validate() bool {
	externalEmpty := !s.isExternal()
	internalZero := s.TemplateId == 0 && s.Nonce == 0 && s.ExtraNonce == 0
	return externalEmpty != internalZero
}
