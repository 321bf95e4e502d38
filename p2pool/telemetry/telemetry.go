// Package telemetry publishes the coordinator's network/pool-statistics
// snapshots as JSON files an external dashboard polls. Every write goes
// through a temp-file-plus-rename so a reader never observes a partial
// file, and publishing is a no-op when no directory is configured.
package telemetry

import (
	"os"
	"path/filepath"

	"github.com/Cm157cc/p2pool/types"
	"github.com/Cm157cc/p2pool/utils"
)

type Publisher struct {
	dir string
}

// New returns a Publisher writing under dir. An empty dir disables
// publishing entirely.
func New(dir string) *Publisher {
	return &Publisher{dir: dir}
}

func (p *Publisher) Enabled() bool {
	return p.dir != ""
}

// Publish atomically writes val, marshaled as JSON, to name under the
// publisher's directory. A write failure is logged and otherwise
// ignored: telemetry is best-effort sideband, never load-bearing.
func (p *Publisher) Publish(name string, val any) {
	if !p.Enabled() {
		return
	}

	buf, err := utils.MarshalJSONIndent(val, "  ")
	if err != nil {
		utils.Errorf("[telemetry] marshal %s: %s", name, err)
		return
	}

	target := filepath.Join(p.dir, name)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		utils.Errorf("[telemetry] mkdir for %s: %s", name, err)
		return
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".tmp-*")
	if err != nil {
		utils.Errorf("[telemetry] create temp for %s: %s", name, err)
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		utils.Errorf("[telemetry] write %s: %s", name, err)
		return
	}
	if err := tmp.Close(); err != nil {
		utils.Errorf("[telemetry] close %s: %s", name, err)
		return
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		utils.Errorf("[telemetry] rename into %s: %s", name, err)
	}
}

// NetworkStats is the network/stats snapshot.
type NetworkStats struct {
	Difficulty types.Difficulty `json:"difficulty"`
	Hash       string           `json:"hash"`
	Height     uint64           `json:"height"`
	Reward     uint64           `json:"reward"`
	Timestamp  uint64           `json:"timestamp"`
}

// PoolStatistics is the nested payload of pool/stats.
type PoolStatistics struct {
	HashRate          uint64 `json:"hashRate"`
	Miners            int    `json:"miners"`
	TotalHashes       string `json:"totalHashes"`
	LastBlockFoundTime int64 `json:"lastBlockFoundTime"`
	LastBlockFound    uint64 `json:"lastBlockFound"`
	TotalBlocksFound  int    `json:"totalBlocksFound"`
	// PoolLuck is the Poisson probability, as a percentage, of finding at
	// least one block given the pool's effort spent on the current round.
	PoolLuck float64 `json:"poolLuck"`
}

// PoolStats is the pool/stats snapshot.
type PoolStats struct {
	PoolList       []string       `json:"pool_list"`
	PoolStatistics PoolStatistics `json:"pool_statistics"`
}

// PoolBlock is one entry of the pool/blocks snapshot array.
type PoolBlock struct {
	Height      uint64 `json:"height"`
	Hash        string `json:"hash"`
	Difficulty  string `json:"difficulty"`
	TotalHashes string `json:"totalHashes"`
	Timestamp   int64  `json:"ts"`
}

// GlobalStatsConfig is the config sub-object of global/stats_mod.
type GlobalStatsConfig struct {
	Ports               []GlobalStatsPort `json:"ports"`
	Fee                 float64           `json:"fee"`
	MinPaymentThreshold uint64            `json:"minPaymentThreshold"`
}

type GlobalStatsPort struct {
	Port int    `json:"port"`
	Tls  bool   `json:"tls"`
}

// GlobalStatsMod is the global/stats_mod snapshot.
type GlobalStatsMod struct {
	Config        GlobalStatsConfig `json:"config"`
	NetworkHeight uint64            `json:"network_height"`
	LastBlockFound string           `json:"lastblockfound"`
	Miners        int               `json:"miners"`
	HashRate      uint64            `json:"hashrate"`
	RoundHashes   uint64            `json:"roundHashes"`
}
