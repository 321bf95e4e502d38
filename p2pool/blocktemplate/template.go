// Package blocktemplate assembles candidate main-chain blocks: a coinbase
// transaction paying the configured wallet, a mempool-selected transaction
// set, and the nonce/extra_nonce byte offsets the stratum server splices
// share submissions into. It implements contracts.BlockTemplate.
package blocktemplate

import (
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Cm157cc/p2pool/monero"
	"github.com/Cm157cc/p2pool/monero/address"
	"github.com/Cm157cc/p2pool/monero/block"
	"github.com/Cm157cc/p2pool/monero/transaction"
	"github.com/Cm157cc/p2pool/p2pool/contracts"
	"github.com/Cm157cc/p2pool/p2pool/mempool"
	"github.com/Cm157cc/p2pool/types"
	"github.com/Cm157cc/p2pool/utils"
)

// MinerData is the subset of fields the builder reads off the coordinator's
// domain type; kept as a plain struct rather than importing the coordinator
// package, which would create an import cycle.
type MinerData struct {
	Height                uint64
	PrevId                types.Hash
	MedianWeight          uint64
	AlreadyGeneratedCoins uint64
	MedianTimestamp       uint64
}

// entry is one built, immutable template indexed by TemplateId.
type entry struct {
	handle contracts.BlockTemplateHandle
	block  *block.Block
}

// Builder keeps the most recently assigned template ids reachable so late
// share submissions against a template that was superseded a few rounds
// ago still resolve.
type Builder struct {
	keyCache *address.DerivationCache

	lock    sync.RWMutex
	entries map[uint32]entry
	nextId  atomic.Uint32

	// nonceSeed drives the extra_nonce tag: xorshifted forward on every
	// build so consecutive templates never hand out the same starting
	// range for the stratum server to carve extra_nonce space out of.
	nonceSeed atomic.Uint64
}

// NewBuilder constructs a Builder that shares keyCache with the coordinator,
// so onBlockFound's cache invalidation also applies to in-flight templates.
func NewBuilder(keyCache *address.DerivationCache) *Builder {
	b := &Builder{keyCache: keyCache, entries: make(map[uint32]entry)}
	b.nonceSeed.Store(uint64(time.Now().UnixNano()))
	return b
}

// nextExtraNonceSeed advances the xorshift generator and returns its next
// 4-byte little-endian value.
func (b *Builder) nextExtraNonceSeed() [4]byte {
	next := utils.XorShift64Star(b.nonceSeed.Load())
	b.nonceSeed.Store(next)
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], uint32(next))
	return out
}

// Update builds a new template from the latest miner data and mempool
// contents and registers it under a freshly allocated template id.
func (b *Builder) Update(minerDataAny any, mempoolAny any, wallet string) (contracts.BlockTemplateHandle, error) {
	md, ok := minerDataAny.(MinerData)
	if !ok {
		return contracts.BlockTemplateHandle{}, errors.New("blocktemplate: unexpected miner data type")
	}
	pool, _ := mempoolAny.(mempool.Mempool)

	addr := address.FromBase58(wallet)
	if addr == nil {
		return contracts.BlockTemplateHandle{}, errors.New("blocktemplate: invalid wallet address")
	}

	blk, err := b.buildBlock(addr, md, pool)
	if err != nil {
		return contracts.BlockTemplateHandle{}, err
	}

	blob, err := blk.MarshalBinary()
	if err != nil {
		return contracts.BlockTemplateHandle{}, err
	}

	nonceOffset, extraNonceOffset, err := offsetsFor(blk)
	if err != nil {
		return contracts.BlockTemplateHandle{}, err
	}

	id := b.nextId.Add(1)
	handle := contracts.BlockTemplateHandle{
		TemplateId:       id,
		Blob:             blob,
		NonceOffset:      nonceOffset,
		ExtraNonceOffset: extraNonceOffset,
	}

	b.lock.Lock()
	b.entries[id] = entry{handle: handle, block: blk}
	// Templates accumulate one per update and are never pruned in proportion
	// to uptime; the stratum server only ever holds the latest few ids live,
	// so bound the map instead of growing it forever.
	if len(b.entries) > 64 {
		oldest := id
		for k := range b.entries {
			if k < oldest {
				oldest = k
			}
		}
		delete(b.entries, oldest)
	}
	b.lock.Unlock()

	return handle, nil
}

func (b *Builder) Get(templateId uint32) (contracts.BlockTemplateHandle, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	e, ok := b.entries[templateId]
	return e.handle, ok
}

// buildBlock assembles the coinbase transaction: a single output paying
// the wallet's primary address, a tx_extra carrying the transaction public
// key and a rolling extra_nonce tag, and the miner_tx reward computed from
// the picked mempool set's fees.
func (b *Builder) buildBlock(addr *address.Address, md MinerData, pool mempool.Mempool) (*block.Block, error) {
	txKeyScalar, txPubKeyPoint := b.keyCache.GetDeterministicTransactionKey(addr, md.PrevId)

	var txKeyBytes types.Hash
	copy(txKeyBytes[:], txKeyScalar.Bytes())
	ephemeralKey := b.keyCache.GetEphemeralPublicKey(addr, txKeyBytes, 0)

	baseReward := monero.BaseReward(md.AlreadyGeneratedCoins)
	picked := pool.Pick(baseReward, 0, md.MedianWeight)
	_, fees := picked.WeightAndFees()
	reward := mempool.GetBlockReward(baseReward, md.MedianWeight, fees, picked.Weight())

	output := &transaction.Output{
		Index:  0,
		Reward: reward,
		Type:   transaction.TxOutToKey,
	}
	copy(output.EphemeralPublicKey[:], ephemeralKey[:])

	extraNonceSeed := b.nextExtraNonceSeed()
	pubKeyTag := transaction.ExtraTag{Tag: transaction.TxExtraTagPubKey, Data: txPubKeyPoint.Bytes()}
	nonceTag := transaction.ExtraTag{Tag: transaction.TxExtraTagNonce, VarIntLength: transaction.TxExtraTemplateNonceSize, Data: extraNonceSeed[:]}

	coinbase := &transaction.CoinbaseTransaction{
		Version:    2,
		UnlockTime: md.Height + monero.MinerRewardUnlockTime,
		InputCount: 1,
		InputType:  transaction.TxInGen,
		GenHeight:  md.Height,
		Outputs:    transaction.Outputs{output},
		Extra:      transaction.ExtraTags{pubKeyTag, nonceTag},
	}

	txHashes := make([]types.Hash, 0, len(picked))
	for _, e := range picked {
		txHashes = append(txHashes, e.Id)
	}

	return &block.Block{
		MajorVersion: monero.HardForkSupportedVersion,
		MinorVersion: monero.HardForkSupportedVersion,
		Timestamp:    md.MedianTimestamp + 1,
		PreviousId:   md.PrevId,
		Coinbase:     coinbase,
		Transactions: txHashes,
	}, nil
}

// offsetsFor computes NonceOffset/ExtraNonceOffset without re-parsing the
// marshaled blob: every field ahead of the two variable-length nonces is
// serialized independently here so its length is known exactly.
func offsetsFor(blk *block.Block) (nonceOffset, extraNonceOffset int, err error) {
	off := 1 + 1 // major, minor
	off += varintLen(blk.Timestamp)
	nonceOffset = off + types.HashSize
	off = nonceOffset + 4 // block.Nonce

	c := blk.Coinbase
	off += 1 // version
	off += varintLen(c.UnlockTime)
	off += 1 // input count
	off += 1 // input type
	off += varintLen(c.GenHeight)

	outputsBlob, err := c.Outputs.MarshalBinary()
	if err != nil {
		return 0, 0, err
	}
	off += len(outputsBlob)

	extraBlob, err := c.Extra.MarshalBinary()
	if err != nil {
		return 0, 0, err
	}
	off += varintLen(uint64(len(extraBlob)))

	pubKeyTagBytes, err := c.Extra[0].MarshalBinary()
	if err != nil {
		return 0, 0, err
	}
	nonceTagBytes, err := c.Extra[1].MarshalBinary()
	if err != nil {
		return 0, 0, err
	}
	extraNonceOffset = off + len(pubKeyTagBytes) + (len(nonceTagBytes) - len(c.Extra[1].Data))

	return nonceOffset, extraNonceOffset, nil
}

func varintLen(v uint64) int {
	return len(binary.AppendUvarint(nil, v))
}
