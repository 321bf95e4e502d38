package coordinator

import (
	"context"
	"os"
	"time"

	"github.com/Cm157cc/p2pool/monero/client"
	"github.com/Cm157cc/p2pool/monero/client/zmq"
	"github.com/Cm157cc/p2pool/monero/randomx"
	"github.com/Cm157cc/p2pool/p2pool/contracts"
	"github.com/Cm157cc/p2pool/p2pool/mainchain"
	"github.com/Cm157cc/p2pool/types"
	"github.com/Cm157cc/p2pool/utils"
)

// minRpcVersion is 3.8 encoded as major<<16|minor, the lowest daemon RPC
// version the coordinator speaks to.
const minRpcVersion = 0x00030008

type bootstrapState int

const (
	stateGetInfo bootstrapState = iota
	stateGetVersion
	stateGetMinerData
	stateDownloadHeaders
	stateSteady
)

const bootstrapRetryDelay = time.Second

// bootstrap drives the sequential daemon bootstrap state machine. Each
// step retries after bootstrapRetryDelay on transient failure; a fatal
// inconsistency (wrong network, incompatible RPC version) aborts the
// process rather than retrying forever.
func (c *Coordinator) bootstrap(ctx context.Context) {
	state := stateGetInfo
	for ctx.Err() == nil {
		switch state {
		case stateGetInfo:
			if c.stepGetInfo(ctx) {
				state = stateGetVersion
			}
		case stateGetVersion:
			if c.stepGetVersion(ctx) {
				state = stateGetMinerData
			}
		case stateGetMinerData:
			if c.stepGetMinerData(ctx) {
				state = stateDownloadHeaders
			}
		case stateDownloadHeaders:
			if c.stepDownloadHeaders(ctx) {
				state = stateSteady
			}
		case stateSteady:
			c.runZmq(ctx)
			return
		}
	}
}

// retry sleeps for bootstrapRetryDelay, returning early if ctx ends.
func (c *Coordinator) retry(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(bootstrapRetryDelay):
	}
}

func (c *Coordinator) stepGetInfo(ctx context.Context) bool {
	info, err := c.rpc.GetInfo(ctx)
	if err != nil {
		utils.Errorf("[bootstrap] get_info failed: %s", err)
		c.retry(ctx)
		return false
	}
	if info.BusySyncing || !info.Synchronized {
		utils.Logf("[bootstrap] daemon not yet synchronized, retrying")
		c.retry(ctx)
		return false
	}

	if c.sideChain != nil && !networkMatches(c.sideChain.Network(), info) {
		utils.Errorf("[bootstrap] daemon network does not match configured side chain network, aborting")
		os.Exit(1)
	}
	return true
}

func networkMatches(want contracts.Network, info *client.GetInfoResult) bool {
	switch want {
	case contracts.NetworkMainnet:
		return info.Mainnet
	case contracts.NetworkTestnet:
		return info.Testnet
	case contracts.NetworkStagenet:
		return info.Stagenet
	default:
		return false
	}
}

func (c *Coordinator) stepGetVersion(ctx context.Context) bool {
	version, err := c.rpc.GetVersion(ctx)
	if err != nil {
		utils.Errorf("[bootstrap] get_version failed: %s", err)
		c.retry(ctx)
		return false
	}
	if !version.VersionOk(minRpcVersion) {
		utils.Errorf("[bootstrap] incompatible daemon rpc version %#x, aborting", version.Version)
		os.Exit(1)
	}
	return true
}

func (c *Coordinator) stepGetMinerData(ctx context.Context) bool {
	data, err := c.rpc.GetMinerData(ctx)
	if err != nil {
		utils.Errorf("[bootstrap] get_miner_data failed: %s", err)
		c.retry(ctx)
		return false
	}

	c.handleMinerData(ctx, minerDataFromRPC(data))
	return true
}

// stepDownloadHeaders fetches the two seed-epoch headers the hasher needs
// plus a BlockHeadersRequired-sized window below the current tip, then
// flips the start-once flag that gates the stratum/P2P/ZMQ servers.
func (c *Coordinator) stepDownloadHeaders(ctx context.Context) bool {
	md := c.minerData.Load()
	if md == nil {
		c.retry(ctx)
		return false
	}

	seedHeight, prevSeedHeight := randomx.SeedHeights(md.Height)

	firstSeed, err := c.fetchHeader(ctx, seedHeight)
	if err != nil {
		utils.Errorf("[bootstrap] fetching seed header at %d failed: %s", seedHeight, err)
		c.retry(ctx)
		return false
	}
	if c.hasher != nil {
		c.hasher.SetSeed(firstSeed.Id)
	}

	// The previous epoch's header is only needed in the local index (for
	// median-timestamp and pruning purposes); contracts.Hasher tracks a
	// single active seed, so there is nothing further to hand it.
	if _, err := c.fetchHeader(ctx, prevSeedHeight); err != nil {
		utils.Errorf("[bootstrap] fetching previous seed header at %d failed: %s", prevSeedHeight, err)
		c.retry(ctx)
		return false
	}

	tip := md.Height
	low := uint64(0)
	if tip > mainchain.BlockHeadersRequired {
		low = tip - mainchain.BlockHeadersRequired
	}
	headers, err := c.rpc.GetBlockHeadersRange(ctx, low, tip-1)
	if err != nil {
		utils.Errorf("[bootstrap] get_block_headers_range failed: %s", err)
		c.retry(ctx)
		return false
	}

	batch := make([]mainchain.ChainMain, 0, len(headers.Headers))
	for _, h := range headers.Headers {
		batch = append(batch, chainMainFromHeader(h))
	}
	c.mainChain.InsertHeaderBatch(batch)
	c.mainChain.Cleanup(tip)

	if c.started.CompareAndSwap(false, true) {
		utils.Logf("[bootstrap] steady state reached at height %d, starting servers", tip)
	}
	return true
}

func (c *Coordinator) fetchHeader(ctx context.Context, height uint64) (mainchain.ChainMain, error) {
	result, err := c.rpc.GetBlockHeaderByHeight(ctx, height)
	if err != nil {
		return mainchain.ChainMain{}, err
	}
	entry := chainMainFromHeader(result.BlockHeader)
	c.mainChain.InsertHeader(entry)
	return entry, nil
}

func chainMainFromHeader(h client.BlockHeader) mainchain.ChainMain {
	id, _ := types.HashFromString(h.Hash)
	prevId, _ := types.HashFromString(h.PrevHash)
	return mainchain.ChainMain{
		Height:     h.Height,
		Id:         id,
		PrevId:     prevId,
		Timestamp:  h.Timestamp,
		Reward:     h.Reward,
		Difficulty: h.FullDifficulty(),
	}
}

// runZmq connects the ZMQ subscriber and blocks until ctx is cancelled or
// the listen loop errors out. A dropped connection degrades to whatever
// RPC-driven top-up the caller performs next; reconnection is left to
// process supervision, matching how the reference implementation treats
// a lost ZMQ socket as fatal to that run.
func (c *Coordinator) runZmq(ctx context.Context) {
	if c.zmqEndpoint == "" {
		utils.Logf("[zmq] no endpoint configured, running RPC-only")
		return
	}

	c.zmqClient = zmq.NewClient(c.zmqEndpoint, zmq.TopicFullTxPoolAdd, zmq.TopicMinimalChainMain, zmq.TopicFullMinerData)

	err := c.zmqClient.Listen(ctx,
		nil,
		func(txs []zmq.FullTxPoolAdd) {
			c.touchZmqLastActive()
			for i := range txs {
				c.handleFullTxPoolAdd(&txs[i])
			}
		},
		func(md *zmq.FullMinerData) {
			c.touchZmqLastActive()
			c.handleMinerData(ctx, minerDataFromZmq(md))
		},
		func(cm *zmq.MinimalChainMain) {
			c.touchZmqLastActive()
			c.handleMinimalChainMain(ctx, cm)
		},
		nil,
	)
	if err != nil {
		utils.Errorf("[zmq] listen loop ended: %s", err)
	}
}
