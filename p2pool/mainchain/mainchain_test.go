package mainchain

import (
	"testing"

	"github.com/Cm157cc/p2pool/types"
	"github.com/stretchr/testify/require"
)

func TestSeedHeightBoundaries(t *testing.T) {
	idx := NewIndex()
	require.EqualValues(t, 0, idx.SeedHeight(0))
	require.EqualValues(t, 0, idx.SeedHeight(64))
	require.EqualValues(t, 0, idx.SeedHeight(65))

	h := idx.SeedHeight(3000)
	require.Zero(t, h%2048)
	require.Less(t, h+64, uint64(3000))
}

func TestInsertHeaderBatchInvariantI1(t *testing.T) {
	idx := NewIndex()
	var batch []ChainMain
	for h := uint64(1); h <= 10; h++ {
		batch = append(batch, ChainMain{Height: h, Id: types.Hash{byte(h)}, Timestamp: h * 10})
	}
	idx.InsertHeaderBatch(batch)

	for _, h := range batch {
		byHeight, ok := idx.HeaderByHeight(h.Height)
		require.True(t, ok)
		require.Equal(t, h.Id, byHeight.Id)

		byHash, ok := idx.HeaderByHash(h.Id)
		require.True(t, ok)
		require.Equal(t, h.Height, byHash.Height)
	}
}

func TestTimestampsRequiresFullWindow(t *testing.T) {
	idx := NewIndex()
	var batch []ChainMain
	for h := uint64(1); h <= TimestampWindow; h++ {
		batch = append(batch, ChainMain{Height: h, Id: types.Hash{byte(h)}, Timestamp: h})
	}
	idx.InsertHeaderBatch(batch)
	require.Zero(t, idx.MedianTimestamp(), "I3: exactly TimestampWindow entries is not enough")

	idx.InsertHeader(ChainMain{Height: TimestampWindow + 1, Id: types.Hash{0xff}, Timestamp: TimestampWindow + 1})
	require.NotZero(t, idx.MedianTimestamp())
}

func TestCleanupRetainsSeedHeightsAndRecentWindow(t *testing.T) {
	idx := NewIndex()
	const tip = uint64(10000)

	seedHeight := idx.SeedHeight(tip)
	retained := []uint64{seedHeight, seedHeight - 2048, seedHeight - 4096}

	var batch []ChainMain
	for _, h := range retained {
		batch = append(batch, ChainMain{Height: h, Id: types.Hash{byte(h)}})
	}
	batch = append(batch, ChainMain{Height: 1, Id: types.Hash{1}})
	batch = append(batch, ChainMain{Height: tip - 100, Id: types.Hash{2}})
	idx.InsertHeaderBatch(batch)

	idx.Cleanup(tip)

	for _, h := range retained {
		_, ok := idx.HeaderByHeight(h)
		require.True(t, ok, "seed height %d must survive cleanup", h)
	}
	_, ok := idx.HeaderByHeight(1)
	require.False(t, ok, "height far outside window and not a seed height must be pruned")

	_, ok = idx.HeaderByHeight(tip - 100)
	require.True(t, ok, "height within BlockHeadersRequired of tip must survive")
}

func TestCleanupNoopBelowBlockHeadersRequired(t *testing.T) {
	idx := NewIndex()
	idx.InsertHeader(ChainMain{Height: 1, Id: types.Hash{1}})
	idx.Cleanup(BlockHeadersRequired - 1)

	_, ok := idx.HeaderByHeight(1)
	require.True(t, ok)
}

func TestUpsertTipPushPreservesExistingId(t *testing.T) {
	idx := NewIndex()
	idx.UpsertMinerData(100, types.Hash{0xAA}, types.DifficultyFrom64(5))

	merged := idx.UpsertTipPush(ChainMain{Height: 99, Timestamp: 123, Reward: 456})
	require.Equal(t, types.Hash{0xAA}, merged.Id, "pre-existing id copied back for logging")

	header, ok := idx.HeaderByHeight(99)
	require.True(t, ok)
	require.EqualValues(t, 123, header.Timestamp)
	require.EqualValues(t, 456, header.Reward)
}

func TestMissingHeights(t *testing.T) {
	idx := NewIndex()
	idx.InsertHeader(ChainMain{Height: 500, Difficulty: types.DifficultyFrom64(1)})

	missing := idx.MissingHeights(500)
	require.Contains(t, missing, uint64(499))
	require.NotContains(t, missing, uint64(500))
}
