package randomx

// SeedHeights returns the current seed-epoch height active at height and
// the one before it, the pair the bootstrap header backfill fetches so the
// hasher can be primed with its "previous seed" ahead of the next epoch
// rotation.
func SeedHeights(height uint64) (seedHeight, prevSeedHeight uint64) {
	seedHeight = SeedHeight(height)
	if seedHeight > SeedHashEpochBlocks {
		prevSeedHeight = seedHeight - SeedHashEpochBlocks
	}
	return
}

func SeedHeight(height uint64) uint64 {
	if height <= SeedHashEpochLag {
		return 0
	}

	return (height - SeedHashEpochLag - 1) & (^uint64(SeedHashEpochBlocks - 1))
}

const (
	SeedHashEpochLag    = 64
	SeedHashEpochBlocks = 2048
)
