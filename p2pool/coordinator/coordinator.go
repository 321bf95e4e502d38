// Package coordinator is the single-writer event-driven orchestrator that
// ties the main-chain index, the daemon RPC driver, the ZMQ ingest
// adapter, and the block-template update pipeline into one event loop.
// Every public entry point callable off the loop goroutine mutates only
// its own dedicated lock (mempool, main-chain index, pending-submit) and
// then signals a coalescing wake; nothing else touches loop-owned state
// from another goroutine.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Cm157cc/p2pool/monero/address"
	"github.com/Cm157cc/p2pool/monero/client/zmq"
	"github.com/Cm157cc/p2pool/p2pool/contracts"
	"github.com/Cm157cc/p2pool/p2pool/ledger"
	"github.com/Cm157cc/p2pool/p2pool/mainchain"
	"github.com/Cm157cc/p2pool/p2pool/telemetry"
	"github.com/Cm157cc/p2pool/types"
	"github.com/Cm157cc/p2pool/utils"
)

// Config is everything a Coordinator needs constructed and injected by
// its caller; nothing here reaches back into process-wide globals, so a
// Coordinator can be instantiated directly in tests.
type Config struct {
	Rpc       contracts.RpcClient
	Hasher    contracts.Hasher
	Template  contracts.BlockTemplate
	Stratum   contracts.StratumServer
	P2P       contracts.P2PServer
	SideChain contracts.SideChain
	Mempool   contracts.Mempool

	Ledger    *ledger.Ledger
	Telemetry *telemetry.Publisher

	// Wallet is the base58 payout address; an ephemeral coinbase key is
	// derived from it deterministically per block (see p2pool/crypto).
	Wallet string

	ZMQEndpoint string

	// StratumPort is reported verbatim in global/stats_mod's config.ports;
	// it has no effect on how StratumServer itself is wired.
	StratumPort int
}

type Coordinator struct {
	rpc       contracts.RpcClient
	hasher    contracts.Hasher
	template  contracts.BlockTemplate
	stratum   contracts.StratumServer
	p2p       contracts.P2PServer
	sideChain contracts.SideChain
	mempool   contracts.Mempool

	ledger    *ledger.Ledger
	telemetry *telemetry.Publisher
	wallet    *address.Address
	keyCache  *address.DerivationCache

	mainChain *mainchain.Index

	// foundBlockIds dedupes minimal_chain_main notifications: a daemon
	// resends recent tip history to a freshly (re)subscribed ZMQ client,
	// which would otherwise double-append a just-found block to the ledger.
	foundBlockIds *utils.CircularBuffer[types.Hash]

	minerData atomic.Pointer[MinerData]

	submitLock    sync.Mutex
	pendingSubmit SubmitBlockData
	hasPending    bool

	zmqLastActive atomic.Int64
	started       atomic.Bool

	updateSeed atomic.Bool

	stratumPort int

	templateWake *wake
	submitWake   *wake
	stopWake     *wake

	zmqEndpoint string
	zmqClient   *zmq.Client

	// wg tracks in-flight RPC/header-backfill goroutines so teardown can
	// drain them after closing the ZMQ reader and before closing the
	// stratum and P2P servers.
	wg sync.WaitGroup
}

// New validates cfg and constructs a Coordinator. It fails fast if the
// wallet address does not parse, per C7 startup step 2.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Rpc == nil {
		return nil, errors.New("coordinator: Rpc is required")
	}
	addr := address.FromBase58(cfg.Wallet)
	if addr == nil {
		return nil, fmt.Errorf("coordinator: invalid wallet address %q", cfg.Wallet)
	}

	l := cfg.Ledger
	if l == nil {
		var err error
		if l, err = ledger.New(""); err != nil {
			return nil, err
		}
	}
	tel := cfg.Telemetry
	if tel == nil {
		tel = telemetry.New("")
	}

	return &Coordinator{
		rpc:           cfg.Rpc,
		hasher:        cfg.Hasher,
		template:      cfg.Template,
		stratum:       cfg.Stratum,
		p2p:           cfg.P2P,
		sideChain:     cfg.SideChain,
		mempool:       cfg.Mempool,
		ledger:        l,
		telemetry:     tel,
		wallet:        addr,
		keyCache:      address.NewDerivationCache(),
		mainChain:     mainchain.NewIndex(),
		foundBlockIds: utils.NewCircularBuffer[types.Hash](10),
		templateWake:  newWake(),
		submitWake:    newWake(),
		stopWake:      newWake(),
		zmqEndpoint:   cfg.ZMQEndpoint,
		stratumPort:   cfg.StratumPort,
	}, nil
}

func (c *Coordinator) MainChain() *mainchain.Index { return c.mainChain }

// KeyCache exposes the coordinator's coinbase-key derivation cache so a
// BlockTemplate implementation constructed after New (which needs the
// cache to share onBlockFound's invalidation) can be wired in via
// SetTemplate before Run starts.
func (c *Coordinator) KeyCache() *address.DerivationCache { return c.keyCache }

// SetTemplate wires the block-template builder in. Only safe to call
// before Run starts the event loop.
func (c *Coordinator) SetTemplate(t contracts.BlockTemplate) { c.template = t }

// SetStratum wires the miner-facing stratum server in. Only safe to call
// before Run starts the event loop.
func (c *Coordinator) SetStratum(s contracts.StratumServer) { c.stratum = s }

// SetP2P wires the peer gossip server in. Only safe to call before Run
// starts the event loop.
func (c *Coordinator) SetP2P(p contracts.P2PServer) { c.p2p = p }

// SetSideChain wires the side-chain replica in. Only safe to call before
// Run starts the event loop.
func (c *Coordinator) SetSideChain(s contracts.SideChain) { c.sideChain = s }

// SetHasher wires the RandomX hasher in. Only safe to call before Run
// starts the event loop.
func (c *Coordinator) SetHasher(h contracts.Hasher) { c.hasher = h }

// statsPublishInterval is how often pool/global telemetry is refreshed
// independent of new blocks or template rebuilds.
const statsPublishInterval = 15 * time.Second

// Run starts the bootstrap state machine on its own goroutine and runs
// the event loop on the calling goroutine until Stop is called or ctx is
// cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.ledger.Load(); err != nil {
		utils.Errorf("[coordinator] found-blocks ledger load failed (continuing in-memory only): %s", err)
	}
	c.publishFoundBlocks()

	bootCtx, cancelBoot := context.WithCancel(ctx)
	defer cancelBoot()
	go c.bootstrap(bootCtx)

	// Pool/global stats drift even without a new template (hashrate decays
	// as old shares roll out of the window), so they're refreshed on a
	// fixed tick independent of the template/submit wakes.
	statsTick := utils.ContextTick(ctx, statsPublishInterval)

	for {
		select {
		case <-ctx.Done():
			return c.teardown()
		case <-c.stopWake.C():
			return c.teardown()
		case <-c.templateWake.C():
			c.updateTemplate()
		case <-c.submitWake.C():
			c.dispatchSubmit(ctx)
		case <-statsTick:
			c.publishPoolStats()
		}
	}
}

// Stop requests the event loop to exit. Safe to call from any goroutine.
func (c *Coordinator) Stop() {
	c.stopWake.Signal()
}

func (c *Coordinator) teardown() error {
	if c.zmqClient != nil {
		_ = c.zmqClient.Close()
	}
	c.wg.Wait()
	if c.stratum != nil {
		_ = c.stratum.Close()
	}
	if c.p2p != nil {
		_ = c.p2p.Close()
	}
	return c.ledger.Close()
}

// SubmitBlockAsync is the off-loop entry point StratumServer/P2PServer
// call when a share or a foreign block needs to be sent to the daemon.
// It never mutates loop-owned state directly: it stores the request
// under submitLock and signals the coalescing wake. At most one pending
// request survives between drains; a later call overwrites an earlier
// undrained one (latest-wins, per §5's ordering guarantee).
func (c *Coordinator) SubmitBlockAsync(data SubmitBlockData) {
	if !data.validate() {
		utils.Errorf("[coordinator] rejecting malformed submit-block request (I4 violated)")
		return
	}
	c.submitLock.Lock()
	c.pendingSubmit = data
	c.hasPending = true
	c.submitLock.Unlock()
	c.submitWake.Signal()
}

// UpdateBlockTemplateAsync requests a template rebuild without an
// associated event; used by debug/manual triggers.
func (c *Coordinator) UpdateBlockTemplateAsync() {
	c.templateWake.Signal()
}

func (c *Coordinator) touchZmqLastActive() {
	c.zmqLastActive.Store(time.Now().Unix())
}

// ZmqLastActive reports the unix time of the last handled ZMQ event, for
// an external stall watchdog to poll.
func (c *Coordinator) ZmqLastActive() int64 {
	return c.zmqLastActive.Load()
}

func (c *Coordinator) publishFoundBlocks() {
	if !c.telemetry.Enabled() {
		return
	}
	last := c.ledger.Last(51)
	blocks := make([]telemetry.PoolBlock, 0, len(last))
	for _, e := range last {
		blocks = append(blocks, telemetry.PoolBlock{
			Height:      e.Height,
			Hash:        e.Id.String(),
			Difficulty:  e.BlockDifficulty.StringNumeric(),
			TotalHashes: e.TotalHashes.StringNumeric(),
			Timestamp:   e.Timestamp,
		})
	}
	c.telemetry.Publish("pool/blocks", blocks)
}

// onBlockFound is C6's on_block_found: invalidates seed-derived key
// caches and records the block, both in the ledger and in telemetry. A
// ZMQ resubscribe can redeliver a minimal_chain_main notification for a
// block already recorded; data's id is checked against the recent-finds
// ring buffer so that redelivery doesn't double-append the ledger.
func (c *Coordinator) onBlockFound(data *mainchain.ChainMain) {
	if data != nil {
		if slices.Contains(c.foundBlockIds.Slice(), data.Id) {
			return
		}
		c.foundBlockIds.Push(data.Id)
	}

	c.keyCache.Clear()

	if data != nil {
		if diff, ok := c.mainChain.DifficultyAt(data.Height); ok {
			total := types.ZeroDifficulty
			if th, ok := c.stratum.(cumulativeHasher); ok {
				total = th.TotalHashes()
			}
			c.ledger.Append(ledger.Entry{
				Timestamp:       time.Now().Unix(),
				Height:          data.Height,
				Id:              data.Id,
				BlockDifficulty: diff,
				TotalHashes:     total,
			})
		}
	}

	c.publishFoundBlocks()
}
