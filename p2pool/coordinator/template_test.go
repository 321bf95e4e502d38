package coordinator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Cm157cc/p2pool/monero/address"
	"github.com/Cm157cc/p2pool/p2pool/contracts"
	"github.com/Cm157cc/p2pool/p2pool/ledger"
	"github.com/Cm157cc/p2pool/p2pool/mainchain"
	"github.com/Cm157cc/p2pool/p2pool/telemetry"
	"github.com/Cm157cc/p2pool/types"
	"github.com/Cm157cc/p2pool/utils"
	"github.com/stretchr/testify/require"
)

// fakeStratum reports a fixed lifetime hash total, exercising the optional
// cumulativeHasher capability without widening contracts.StratumServer.
type fakeStratum struct {
	hashRate    uint64
	miners      int
	totalHashes types.Difficulty
}

func (f *fakeStratum) OnBlock(contracts.BlockTemplateHandle) {}
func (f *fakeStratum) MinerCount() int                       { return f.miners }
func (f *fakeStratum) HashRate() uint64                      { return f.hashRate }
func (f *fakeStratum) Close() error                          { return nil }
func (f *fakeStratum) TotalHashes() types.Difficulty         { return f.totalHashes }

func newTestCoordinator(t *testing.T, stratum contracts.StratumServer) (*Coordinator, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := ledger.New("")
	require.NoError(t, err)
	return &Coordinator{
		mainChain:     mainchain.NewIndex(),
		foundBlockIds: utils.NewCircularBuffer[types.Hash](10),
		ledger:        l,
		telemetry:     telemetry.New(dir),
		stratum:       stratum,
		keyCache:      address.NewDerivationCache(),
	}, dir
}

func readSnapshot(t *testing.T, dir, name string, out any) {
	t.Helper()
	buf, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(buf, out))
}

func TestPublishPoolStatsReportsCumulativeHasherTotal(t *testing.T) {
	stratum := &fakeStratum{hashRate: 5000, miners: 3, totalHashes: types.DifficultyFrom64(1_000_000)}
	c, dir := newTestCoordinator(t, stratum)

	c.publishPoolStats()

	var stats telemetry.PoolStats
	readSnapshot(t, dir, "pool/stats", &stats)
	require.Equal(t, uint64(5000), stats.PoolStatistics.HashRate)
	require.Equal(t, 3, stats.PoolStatistics.Miners)
	require.Equal(t, types.DifficultyFrom64(1_000_000).StringNumeric(), stats.PoolStatistics.TotalHashes)
}

func TestPublishGlobalStatsModComputesRoundHashesSinceLastBlock(t *testing.T) {
	stratum := &fakeStratum{hashRate: 5000, miners: 3, totalHashes: types.DifficultyFrom64(1_000_500)}
	c, dir := newTestCoordinator(t, stratum)

	c.ledger.Append(ledger.Entry{
		Timestamp:   1,
		Height:      100,
		Id:          types.Hash{1},
		TotalHashes: types.DifficultyFrom64(1_000_000),
	})

	c.publishPoolStats()

	var mod telemetry.GlobalStatsMod
	readSnapshot(t, dir, "global/stats_mod", &mod)
	require.EqualValues(t, 500, mod.RoundHashes, "roundHashes = total_hashes.lo - last_block_total_hashes.lo")
	require.Equal(t, "100", mod.LastBlockFound)
}

func TestPublishGlobalStatsModReportsNeverWithoutFoundBlocks(t *testing.T) {
	c, dir := newTestCoordinator(t, &fakeStratum{})
	c.publishPoolStats()

	var mod telemetry.GlobalStatsMod
	readSnapshot(t, dir, "global/stats_mod", &mod)
	require.Equal(t, "never", mod.LastBlockFound)
}

func TestPublishPoolStatsComputesLuckFromRoundEffort(t *testing.T) {
	stratum := &fakeStratum{totalHashes: types.DifficultyFrom64(500_000)}
	c, dir := newTestCoordinator(t, stratum)

	c.mainChain.InsertHeader(mainchain.ChainMain{
		Height:     999,
		Id:         types.Hash{9},
		Difficulty: types.DifficultyFrom64(1_000_000),
	})
	md := MinerData{Height: 1000}
	c.minerData.Store(&md)

	c.publishPoolStats()

	var stats telemetry.PoolStats
	readSnapshot(t, dir, "pool/stats", &stats)
	require.Greater(t, stats.PoolStatistics.PoolLuck, 0.0)
	require.Less(t, stats.PoolStatistics.PoolLuck, 100.0)
}

func TestPublishPoolStatsLuckIsZeroWithoutMinerData(t *testing.T) {
	c, dir := newTestCoordinator(t, &fakeStratum{})

	c.publishPoolStats()

	var stats telemetry.PoolStats
	readSnapshot(t, dir, "pool/stats", &stats)
	require.Equal(t, 0.0, stats.PoolStatistics.PoolLuck)
}

func TestOnBlockFoundRecordsCumulativeTotalFromStratum(t *testing.T) {
	stratum := &fakeStratum{totalHashes: types.DifficultyFrom64(42)}
	c, _ := newTestCoordinator(t, stratum)

	entry := c.mainChain.UpsertTipPush(mainchain.ChainMain{
		Height:     10,
		Id:         types.Hash{2},
		Difficulty: types.DifficultyFrom64(300_000_000),
	})

	c.onBlockFound(&entry)

	last := c.ledger.Last(1)
	require.Len(t, last, 1)
	require.Equal(t, types.DifficultyFrom64(42), last[0].TotalHashes)
}

func TestOnBlockFoundIgnoresRedeliveredNotification(t *testing.T) {
	c, _ := newTestCoordinator(t, &fakeStratum{})

	entry := c.mainChain.UpsertTipPush(mainchain.ChainMain{
		Height:     10,
		Id:         types.Hash{3},
		Difficulty: types.DifficultyFrom64(1),
	})

	c.onBlockFound(&entry)
	c.onBlockFound(&entry)

	require.Equal(t, 1, c.ledger.Len(), "a redelivered ZMQ notification must not double-append the ledger")
}
