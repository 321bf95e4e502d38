package randomx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeedHeightsPairsCurrentWithPriorEpoch(t *testing.T) {
	height := uint64(3_000_000)
	seedHeight, prevSeedHeight := SeedHeights(height)

	require.Equal(t, SeedHeight(height), seedHeight)
	require.Equal(t, seedHeight-SeedHashEpochBlocks, prevSeedHeight,
		"prevSeedHeight must be one full epoch behind seedHeight, not shifted forward by the lag")
	require.Less(t, prevSeedHeight, seedHeight)
}

func TestSeedHeightsFloorsAtZeroNearGenesis(t *testing.T) {
	_, prevSeedHeight := SeedHeights(100)
	require.EqualValues(t, 0, prevSeedHeight)
}
