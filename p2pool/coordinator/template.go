package coordinator

import (
	"strconv"

	"github.com/Cm157cc/p2pool/p2pool/blocktemplate"
	"github.com/Cm157cc/p2pool/p2pool/mempool"
	"github.com/Cm157cc/p2pool/p2pool/telemetry"
	"github.com/Cm157cc/p2pool/types"
	"github.com/Cm157cc/p2pool/utils"
)

// mempoolSnapshotter is the optional read-side capability a wired-in
// contracts.Mempool may satisfy. The coordinator only needs the narrow
// write surface (Add/ReplaceAll) to feed events in; when building a
// template it additionally needs a fee-sorted snapshot, which this
// capability check exposes without widening the contracts.Mempool
// interface every fake in a test needs to implement.
type mempoolSnapshotter interface {
	Snapshot() mempool.Mempool
}

// cumulativeHasher is the optional capability a wired-in StratumServer may
// satisfy to report the running total of hashes it has accepted shares for.
// contracts.StratumServer deliberately omits it: only pool/stats,
// global/stats_mod and onBlockFound's ledger record need it, and a share-accounting server that doesn't
// track a lifetime total (e.g. a stub used in tests) shouldn't have to grow
// one just to satisfy the interface.
type cumulativeHasher interface {
	TotalHashes() types.Difficulty
}

// updateTemplate is C5, the serial template update orchestrator. It only
// ever runs on the loop thread, reached via templateWake, which coalesces
// any number of triggering events (a MinerData refresh, an
// UpdateBlockTemplateAsync request) into a single rebuild — two concurrent rebuilds could hand
// miners inconsistent templates and waste hasher dataset swaps.
func (c *Coordinator) updateTemplate() {
	md := c.minerData.Load()
	if md == nil || c.template == nil {
		return
	}

	if c.updateSeed.CompareAndSwap(true, false) && c.hasher != nil {
		// The hasher owns its own dataset-swap scheduling; informing it is
		// fire-and-forget from the loop thread's perspective.
		go c.hasher.SetSeed(md.SeedHash)
	}

	var pool mempool.Mempool
	if snap, ok := c.mempool.(mempoolSnapshotter); ok {
		pool = snap.Snapshot()
	}

	btMinerData := blocktemplate.MinerData{
		Height:                md.Height,
		PrevId:                md.PrevId,
		MedianWeight:          md.MedianWeight,
		AlreadyGeneratedCoins: md.AlreadyGeneratedCoins,
		MedianTimestamp:       md.MedianTimestamp,
	}

	handle, err := c.template.Update(btMinerData, pool, c.wallet.ToBase58())
	if err != nil {
		utils.Errorf("[template] update failed: %s", err)
		return
	}

	if c.stratum != nil {
		c.stratum.OnBlock(handle)
	}

	c.publishPoolStats()
}

// publishNetworkStats is C4's ChainMain step 4: recompute the tip snapshot
// external dashboards poll for current network difficulty/height/reward.
func (c *Coordinator) publishNetworkStats() {
	if !c.telemetry.Enabled() {
		return
	}
	md := c.minerData.Load()
	if md == nil {
		return
	}
	tip, ok := c.mainChain.HeaderByHeight(md.Height - 1)
	if !ok {
		return
	}
	c.telemetry.Publish("network/stats", telemetry.NetworkStats{
		Difficulty: tip.Difficulty,
		Hash:       tip.Id.String(),
		Height:     tip.Height,
		Reward:     tip.Reward,
		Timestamp:  tip.Timestamp,
	})
}

// publishPoolStats is C5's final step: publish the hashrate/miner-count
// figures StratumServer reports alongside the found-blocks summary.
func (c *Coordinator) publishPoolStats() {
	if !c.telemetry.Enabled() {
		return
	}

	var hashRate uint64
	var miners int
	var totalHashes types.Difficulty
	if c.stratum != nil {
		hashRate = c.stratum.HashRate()
		miners = c.stratum.MinerCount()
		if th, ok := c.stratum.(cumulativeHasher); ok {
			totalHashes = th.TotalHashes()
		}
	}
	utils.Debugf("[template] pool stats: hashrate=%sH/s miners=%d", utils.SiUnits(float64(hashRate), 2), miners)

	last := c.ledger.Last(1)
	var lastFoundTime int64
	var lastFoundHeight uint64
	if len(last) > 0 {
		lastFoundTime = last[0].Timestamp
		lastFoundHeight = last[0].Height
	}

	var lastFoundTotal types.Difficulty
	if len(last) > 0 {
		lastFoundTotal = last[0].TotalHashes
	}
	roundHashes := totalHashes.SubWrap(lastFoundTotal)

	c.telemetry.Publish("pool/stats", telemetry.PoolStats{
		PoolList: []string{"pplns"},
		PoolStatistics: telemetry.PoolStatistics{
			HashRate:           hashRate,
			Miners:             miners,
			TotalHashes:        totalHashes.StringNumeric(),
			LastBlockFoundTime: lastFoundTime,
			LastBlockFound:     lastFoundHeight,
			TotalBlocksFound:   c.ledger.Len(),
			PoolLuck:           c.poolLuck(roundHashes),
		},
	})

	c.publishGlobalStatsMod(hashRate, miners, lastFoundHeight, roundHashes.Lo)
}

// poolLuck estimates the odds, as a percentage, that the pool would have
// already found a block given the hashes it has contributed this round,
// scaled against current network difficulty.
func (c *Coordinator) poolLuck(roundHashes types.Difficulty) float64 {
	md := c.minerData.Load()
	if md == nil {
		return 0
	}
	tip, ok := c.mainChain.HeaderByHeight(md.Height - 1)
	if !ok || tip.Difficulty.IsZero() {
		return 0
	}
	effort := float64(roundHashes.Lo) / float64(tip.Difficulty.Lo) * 100
	return utils.ProbabilityEffort(effort) * 100
}

// publishGlobalStatsMod fans the same figures out under the legacy
// global/stats_mod shape some dashboards still poll. roundHashes is
// total_hashes.lo - last_block_total_hashes.lo, the hashes contributed
// since the pool's last found block.
func (c *Coordinator) publishGlobalStatsMod(hashRate uint64, miners int, lastFoundHeight, roundHashes uint64) {
	md := c.minerData.Load()
	var networkHeight uint64
	if md != nil {
		networkHeight = md.Height
	}

	lastFound := "never"
	if lastFoundHeight != 0 {
		lastFound = strconv.FormatUint(lastFoundHeight, 10)
	}

	var ports []telemetry.GlobalStatsPort
	if c.stratumPort != 0 {
		ports = []telemetry.GlobalStatsPort{{Port: c.stratumPort}}
	}

	c.telemetry.Publish("global/stats_mod", telemetry.GlobalStatsMod{
		Config: telemetry.GlobalStatsConfig{
			Ports:               ports,
			Fee:                 0,
			MinPaymentThreshold: 400000000,
		},
		NetworkHeight:  networkHeight,
		LastBlockFound: lastFound,
		Miners:         miners,
		HashRate:       hashRate,
		RoundHashes:    roundHashes,
	})
}
