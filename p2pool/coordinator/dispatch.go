package coordinator

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/Cm157cc/p2pool/monero/client"
	"github.com/Cm157cc/p2pool/monero/client/zmq"
	"github.com/Cm157cc/p2pool/p2pool/contracts"
	"github.com/Cm157cc/p2pool/p2pool/mainchain"
	"github.com/Cm157cc/p2pool/types"
	"github.com/Cm157cc/p2pool/utils"
)

func minerDataFromRPC(r *client.GetMinerDataResult) MinerData {
	backlog := make([]TxMempoolData, 0, len(r.TxBacklog))
	for _, e := range r.TxBacklog {
		backlog = append(backlog, TxMempoolData{Id: e.Id, Weight: e.Weight, Fee: e.Fee})
	}
	return MinerData{
		MajorVersion:          r.MajorVersion,
		Height:                r.Height,
		PrevId:                r.PrevId,
		SeedHash:              r.SeedHash,
		MedianWeight:          r.MedianWeight,
		AlreadyGeneratedCoins: r.AlreadyGeneratedCoins,
		Difficulty:            r.Difficulty,
		TxBacklog:             backlog,
	}
}

func minerDataFromZmq(r *zmq.FullMinerData) MinerData {
	backlog := make([]TxMempoolData, 0, len(r.TxBacklog))
	for _, e := range r.TxBacklog {
		backlog = append(backlog, TxMempoolData{Id: e.Id, BlobSize: e.BlobSize, Weight: e.Weight, Fee: e.Fee})
	}
	return MinerData{
		MajorVersion:          r.MajorVersion,
		Height:                r.Height,
		PrevId:                r.PrevId,
		SeedHash:              r.SeedHash,
		MedianWeight:          r.MedianWeight,
		AlreadyGeneratedCoins: r.AlreadyGeneratedCoins,
		Difficulty:            r.Difficulty,
		TxBacklog:             backlog,
	}
}

// handleMinerData replaces the cached "what to mine next" snapshot, swaps
// the mempool backlog wholesale (the daemon's own view always wins over
// anything tracked incrementally from tx-seen events), and requests a
// template rebuild. The seed-rotation flag is set so the template
// orchestrator knows to ask the hasher to swap its dataset before using
// the new seed. Once servers have started, this is also the trigger point
// for topping up any header the index is still missing.
func (c *Coordinator) handleMinerData(ctx context.Context, md MinerData) {
	md.MedianTimestamp = c.mainChain.MedianTimestamp()
	md.TimeReceived = time.Now()

	prev := c.minerData.Swap(&md)
	if prev == nil || prev.SeedHash != md.SeedHash {
		c.updateSeed.Store(true)
	}

	c.mainChain.UpsertMinerData(md.Height, md.PrevId, md.Difficulty)

	if c.mempool != nil {
		entries := make([]contracts.TxMempoolEntry, 0, len(md.TxBacklog))
		for _, e := range md.TxBacklog {
			if e.Weight == 0 || e.Fee == 0 {
				continue
			}
			entries = append(entries, contracts.TxMempoolEntry{Id: e.Id, Weight: e.Weight, Fee: e.Fee})
		}
		c.mempool.ReplaceAll(entries)
	}

	c.templateWake.Signal()

	if c.started.Load() {
		c.backfillMissingHeaders(ctx)
	}
}

// handleFullTxPoolAdd is C4's TxSeen event: rejected outright if the
// daemon reports a zero weight or fee (a malformed entry that would
// corrupt reward-density sorting), otherwise inserted into the mempool.
// Per spec §9's open question, the debug-only "rebuild template on every
// tx" branch is not ported to production: a full mempool refresh only
// happens on the next MinerData snapshot.
func (c *Coordinator) handleFullTxPoolAdd(tx *zmq.FullTxPoolAdd) {
	if tx.Weight == 0 || tx.Fee == 0 {
		return
	}
	if c.mempool == nil {
		return
	}
	c.mempool.Add(tx.Id, tx.Weight, tx.Fee)
}

// handleMinimalChainMain processes a batch of newly announced main-chain
// blocks. Each one is pushed onto the local index and its median
// timestamp recomputed; only when the announcement carries a decodable
// side-chain id tag does it touch the side chain at all — either to
// announce a block found by this pool, or to hand the observation over
// for main-chain watching of a foreign-but-interesting block.
func (c *Coordinator) handleMinimalChainMain(ctx context.Context, cm *zmq.MinimalChainMain) {
	height := cm.FirstHeight
	prevId := cm.FirstPrevID
	for i, id := range cm.Ids {
		entry := c.mainChain.UpsertTipPush(mainchain.ChainMain{
			Height: height,
			Id:     id,
			PrevId: prevId,
		})

		var extra string
		if i < len(cm.Extra) {
			extra = cm.Extra[i]
		}
		if sideId, ok := decodeSideChainId(extra); ok {
			if c.sideChain != nil && c.sideChain.OwnsBlock(sideId) {
				utils.Logf("[dispatch] block found by this pool: height=%d id=%s", entry.Height, entry.Id)
				c.onBlockFound(&entry)
			} else if c.sideChain != nil {
				c.sideChain.HandleMainChainObservation(height, id)
			}
		}

		prevId = id
		height++
	}

	c.publishNetworkStats()
}

// decodeSideChainId extracts the trailing 32-byte hex side-chain id a
// coinbase tag may carry. Returns false if extra is empty, too short, or
// not valid hex — any of which means "no tag", not an error.
func decodeSideChainId(extra string) (types.Hash, bool) {
	if len(extra) < types.HashSize*2 {
		return types.ZeroHash, false
	}
	tail := extra[len(extra)-types.HashSize*2:]
	raw, err := hex.DecodeString(tail)
	if err != nil {
		return types.ZeroHash, false
	}
	var id types.Hash
	copy(id[:], raw)
	return id, true
}

// backfillMissingHeaders asks the daemon for any heights the index is
// missing below the tip, covering a gap left by a dropped ZMQ message.
func (c *Coordinator) backfillMissingHeaders(ctx context.Context) {
	missing := c.mainChain.MissingHeights(c.mainChain.Highest())
	if len(missing) == 0 {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for _, h := range missing {
			if _, err := c.fetchHeader(ctx, h); err != nil {
				utils.Errorf("[dispatch] backfilling header at %d failed: %s", h, err)
				return
			}
		}
	}()
}

// dispatchSubmit drains the latest coalesced submit-block request and
// forwards it to the daemon, splicing nonce/extra_nonce into the template
// blob for an internal submission or forwarding an external blob verbatim.
func (c *Coordinator) dispatchSubmit(ctx context.Context) {
	c.submitLock.Lock()
	data := c.pendingSubmit
	hasPending := c.hasPending
	c.hasPending = false
	c.submitLock.Unlock()

	if !hasPending {
		return
	}

	var blobHex string
	if data.isExternal() {
		blobHex = hex.EncodeToString(data.ExternalBlob)
	} else {
		handle, ok := c.template.Get(data.TemplateId)
		if !ok {
			utils.Errorf("[dispatch] submit-block: unknown template id %d", data.TemplateId)
			return
		}
		blob := spliceNonces(handle, data.Nonce, data.ExtraNonce)
		blobHex = hex.EncodeToString(blob)
	}

	external := data.isExternal()

	result, err := c.rpc.SubmitBlock(ctx, blobHex)
	if err != nil {
		// Three distinct failure shapes, each logged at a different severity
		// for an internal submission than for a P2P-relayed one. Never
		// retried; the template that produced this submission is already
		// stale.
		switch {
		case client.IsRPCError(err):
			// error-object response: error for our own submissions, warning
			// for a relayed one.
			if external {
				utils.Noticef("[dispatch] submit_block rejected (external): %s", err)
			} else {
				utils.Errorf("[dispatch] submit_block rejected: %s", err)
			}
		case client.IsDecodeError(err):
			// parse failure / non-recognized response: warning either way.
			utils.Noticef("[dispatch] submit_block response unparseable: %s", err)
		default:
			// transport failure: error for internal, warning for relayed.
			if external {
				utils.Noticef("[dispatch] submit_block failed (external): %s", err)
			} else {
				utils.Errorf("[dispatch] submit_block failed: %s", err)
			}
		}
		return
	}
	if result.Status != "OK" {
		utils.Noticef("[dispatch] submit_block: unrecognized response status %q", result.Status)
		return
	}

	utils.Logf("[dispatch] submit_block accepted")
}

// spliceNonces copies handle.Blob and overwrites the 4-byte little-endian
// nonce and extra_nonce fields at their recorded offsets, leaving the
// cached template untouched for any other in-flight submission against it.
func spliceNonces(handle contracts.BlockTemplateHandle, nonce, extraNonce uint32) []byte {
	blob := make([]byte, len(handle.Blob))
	copy(blob, handle.Blob)

	putUint32LE(blob, handle.NonceOffset, nonce)
	putUint32LE(blob, handle.ExtraNonceOffset, extraNonce)

	return blob
}

func putUint32LE(buf []byte, offset int, v uint32) {
	if offset < 0 || offset+4 > len(buf) {
		return
	}
	buf[offset] = byte(v)
	buf[offset+1] = byte(v >> 8)
	buf[offset+2] = byte(v >> 16)
	buf[offset+3] = byte(v >> 24)
}
