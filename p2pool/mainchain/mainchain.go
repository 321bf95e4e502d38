// Package mainchain maintains the coordinator's view of the main chain: a
// bounded height/hash index, the RandomX seed-hash epoch lookup, and the
// rolling median timestamp used to validate new block templates.
package mainchain

import (
	"log"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Cm157cc/p2pool/monero/randomx"
	"github.com/Cm157cc/p2pool/types"
	"github.com/Cm157cc/p2pool/utils"
	"github.com/dolthub/swiss"
)

// TimestampWindow is the number of most-recent blocks used to compute the
// median timestamp. Intentionally even so the median is the average of the
// two central entries.
const TimestampWindow = 60

// BlockHeadersRequired is the trailing window of headers the coordinator
// keeps indexed at steady state, plus three retained seed heights.
const BlockHeadersRequired = 720

// ChainMain is a main-chain header snapshot. Zero Timestamp/Reward means
// "unknown from a partial update" (see Index.Upsert* below).
type ChainMain struct {
	Height     uint64
	Id         types.Hash
	PrevId     types.Hash
	Timestamp  uint64
	Reward     uint64
	Difficulty types.Difficulty
}

// Index is the reader-writer-locked by-height/by-hash main-chain index (C1).
// Readers (template orchestrator, telemetry, side-chain background tasks)
// never block each other; writers serialize and hold the lock for the
// duration of a batch update so I1 holds atomically.
type Index struct {
	lock sync.RWMutex

	highest  uint64
	byHeight *swiss.Map[uint64, *ChainMain]
	byHash   *swiss.Map[types.Hash, *ChainMain]

	medianTimestamp atomic.Uint64
}

func NewIndex() *Index {
	return &Index{
		byHeight: swiss.NewMap[uint64, *ChainMain](BlockHeadersRequired + 3),
		byHash:   swiss.NewMap[types.Hash, *ChainMain](BlockHeadersRequired + 3),
	}
}

// SeedHeight returns the RandomX seed height active at h: for h > 64 it is
// (h-65) rounded down to a 2048-block boundary, otherwise 0.
func (idx *Index) SeedHeight(h uint64) uint64 {
	return randomx.SeedHeight(h)
}

// GetSeed resolves the block id of the seed height active at h.
func (idx *Index) GetSeed(h uint64) (types.Hash, bool) {
	seedHeight := randomx.SeedHeight(h)
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	if e, ok := idx.byHeight.Get(seedHeight); ok {
		return e.Id, true
	}
	return types.ZeroHash, false
}

func (idx *Index) HeaderByHash(id types.Hash) (ChainMain, bool) {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	if e, ok := idx.byHash.Get(id); ok {
		return *e, true
	}
	return ChainMain{}, false
}

func (idx *Index) HeaderByHeight(h uint64) (ChainMain, bool) {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	if e, ok := idx.byHeight.Get(h); ok {
		return *e, true
	}
	return ChainMain{}, false
}

func (idx *Index) DifficultyAt(h uint64) (types.Difficulty, bool) {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	if e, ok := idx.byHeight.Get(h); ok {
		return e.Difficulty, true
	}
	return types.ZeroDifficulty, false
}

// Timestamps returns the TimestampWindow most-recent timestamps by height,
// height-descending, or false if fewer than TimestampWindow+1 entries exist
// (I3).
func (idx *Index) Timestamps() (out [TimestampWindow]uint64, ok bool) {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	return idx.timestampsLocked()
}

func (idx *Index) timestampsLocked() (out [TimestampWindow]uint64, ok bool) {
	if idx.byHeight.Count() <= TimestampWindow {
		return out, false
	}
	for i := 0; i < TimestampWindow; i++ {
		h, found := idx.byHeight.Get(idx.highest - uint64(i))
		if !found {
			return out, false
		}
		out[i] = h.Timestamp
	}
	return out, true
}

// MedianTimestamp returns the last computed median, or 0 if not enough
// entries have ever been indexed.
func (idx *Index) MedianTimestamp() uint64 {
	return idx.medianTimestamp.Load()
}

// updateMedianTimestampLocked recomputes the median. Offset by one block
// relative to the canonical chain median: the coordinator receives miner
// data for a block before its final form exists in the index.
func (idx *Index) updateMedianTimestampLocked() {
	timestamps, ok := idx.timestampsLocked()
	if !ok {
		idx.medianTimestamp.Store(0)
		return
	}
	// Only the two central elements matter, so select rather than fully sort.
	// After the first pass every entry above TimestampWindow/2 is >= it, so
	// the upper central element is the smallest of those entries.
	utils.NthElementSlice(timestamps[:], TimestampWindow/2)
	utils.NthElementSlice(timestamps[TimestampWindow/2+1:], 0)
	ts := (timestamps[TimestampWindow/2] + timestamps[TimestampWindow/2+1]) / 2
	idx.medianTimestamp.Store(ts)
}

func (idx *Index) insertLocked(h ChainMain) {
	entry := h
	idx.byHeight.Put(h.Height, &entry)
	idx.byHash.Put(h.Id, &entry)
	if h.Height > idx.highest {
		idx.highest = h.Height
	}
}

// InsertHeaderBatch inserts a full header (from RPC) atomically with
// respect to readers: the whole batch is applied under one write-lock
// acquisition so I1 never observes a partial batch.
func (idx *Index) InsertHeaderBatch(headers []ChainMain) {
	idx.lock.Lock()
	defer idx.lock.Unlock()
	for _, h := range headers {
		idx.insertLocked(h)
	}
	idx.updateMedianTimestampLocked()
}

func (idx *Index) InsertHeader(h ChainMain) {
	idx.lock.Lock()
	defer idx.lock.Unlock()
	idx.insertLocked(h)
	idx.updateMedianTimestampLocked()
	log.Printf("[mainchain] new header: height=%d id=%s timestamp=%d reward=%s", h.Height, h.Id, h.Timestamp, utils.XMRUnits(h.Reward))
}

// UpsertTipPush applies a ChainMain tip-push event (ZMQ json-minimal-chain_main):
// height/timestamp/reward are authoritative, but a pre-existing id for that
// height (e.g. inserted earlier by UpsertMinerData) is copied back into data
// so callers log the id the index actually carries, per spec semantics.
func (idx *Index) UpsertTipPush(data ChainMain) ChainMain {
	idx.lock.Lock()
	defer idx.lock.Unlock()
	if existing, ok := idx.byHeight.Get(data.Height); ok {
		data.Id = existing.Id
	}
	idx.insertLocked(data)
	idx.updateMedianTimestampLocked()
	return data
}

// UpsertMinerData applies the MinerData event's main-chain-index step: record
// difficulty at height, and height/prev_id at height-1, merging into any
// pre-existing entries rather than overwriting them outright.
func (idx *Index) UpsertMinerData(height uint64, prevId types.Hash, difficulty types.Difficulty) {
	idx.lock.Lock()
	defer idx.lock.Unlock()

	if existing, ok := idx.byHeight.Get(height); ok {
		existing.Difficulty = difficulty
	} else {
		idx.insertLocked(ChainMain{Height: height, Difficulty: difficulty})
	}

	if existing, ok := idx.byHeight.Get(height - 1); ok {
		existing.Id = prevId
		idx.byHash.Put(prevId, existing)
	} else {
		idx.insertLocked(ChainMain{Height: height - 1, Id: prevId})
	}

	idx.cleanupLocked(height)
	idx.updateMedianTimestampLocked()
}

// Cleanup prunes entries older than BlockHeadersRequired blocks behind tip,
// retaining the three most recent RandomX seed heights (I2). No-op when
// tip < BlockHeadersRequired.
func (idx *Index) Cleanup(tip uint64) {
	idx.lock.Lock()
	defer idx.lock.Unlock()
	idx.cleanupLocked(tip)
}

func (idx *Index) cleanupLocked(tip uint64) {
	if tip < BlockHeadersRequired {
		return
	}

	seedHeight := randomx.SeedHeight(tip)
	keep := [3]uint64{seedHeight, seedHeight - randomx.SeedHashEpochBlocks, seedHeight - 2*randomx.SeedHashEpochBlocks}

	idx.byHeight.Iter(func(h uint64, v *ChainMain) (stop bool) {
		if h+BlockHeadersRequired >= tip {
			return false
		}
		if !slices.Contains(keep[:], h) {
			idx.byHash.Delete(v.Id)
			idx.byHeight.Delete(h)
		}
		return false
	})
}

// MissingHeights enumerates heights in (tip-BlockHeadersRequired, tip] that
// either aren't indexed yet or carry a zero difficulty (as a height indexed
// only through UpsertMinerData's prev_id step or a tip push does).
func (idx *Index) MissingHeights(tip uint64) []uint64 {
	idx.lock.RLock()
	defer idx.lock.RUnlock()

	var out []uint64
	for h := tip; h > 0 && h+BlockHeadersRequired > tip; h-- {
		d, ok := idx.byHeight.Get(h)
		if !ok || d.Difficulty.IsZero() {
			out = append(out, h)
		}
	}
	return out
}

func (idx *Index) Len() int {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	return idx.byHeight.Count()
}

func (idx *Index) Highest() uint64 {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	return idx.highest
}
