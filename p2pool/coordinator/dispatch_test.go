package coordinator

import (
	"bytes"
	"context"
	"encoding/hex"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Cm157cc/p2pool/monero/address"
	"github.com/Cm157cc/p2pool/monero/client"
	"github.com/Cm157cc/p2pool/monero/client/zmq"
	"github.com/Cm157cc/p2pool/p2pool/contracts"
	"github.com/Cm157cc/p2pool/p2pool/ledger"
	"github.com/Cm157cc/p2pool/p2pool/mainchain"
	"github.com/Cm157cc/p2pool/p2pool/mempool"
	"github.com/Cm157cc/p2pool/p2pool/telemetry"
	"github.com/Cm157cc/p2pool/types"
	"github.com/Cm157cc/p2pool/utils"
	"github.com/stretchr/testify/require"
)

func TestDecodeSideChainIdRequiresFullHexTag(t *testing.T) {
	var want types.Hash
	for i := range want {
		want[i] = byte(i)
	}
	tag := "de00ad" + hex.EncodeToString(want[:])

	id, ok := decodeSideChainId(tag)
	require.True(t, ok)
	require.Equal(t, want, id)

	_, ok = decodeSideChainId("")
	require.False(t, ok)

	_, ok = decodeSideChainId("00112233")
	require.False(t, ok, "too short to contain a full hash tag")

	_, ok = decodeSideChainId("zz" + hex.EncodeToString(want[:])[2:])
	require.False(t, ok, "invalid hex must not decode")
}

func TestHandleFullTxPoolAddRejectsZeroWeightOrFee(t *testing.T) {
	store := mempool.NewStore()
	c := &Coordinator{mempool: store}

	id := types.Hash{1}
	c.handleFullTxPoolAdd(&zmq.FullTxPoolAdd{Id: id, Weight: 0, Fee: 100})
	require.Equal(t, 0, store.Len(), "zero weight must be rejected")

	c.handleFullTxPoolAdd(&zmq.FullTxPoolAdd{Id: id, Weight: 100, Fee: 0})
	require.Equal(t, 0, store.Len(), "zero fee must be rejected")

	c.handleFullTxPoolAdd(&zmq.FullTxPoolAdd{Id: id, Weight: 100, Fee: 100})
	require.Equal(t, 1, store.Len())
}

func TestHandleMinerDataPrunesMainChainIndex(t *testing.T) {
	c := &Coordinator{
		mainChain:    mainchain.NewIndex(),
		templateWake: newWake(),
	}

	const heights = mainchain.BlockHeadersRequired + 500
	for h := uint64(1); h <= heights; h++ {
		var prevId types.Hash
		prevId[0] = byte(h - 1)
		c.handleMinerData(context.Background(), MinerData{
			Height: h,
			PrevId: prevId,
		})
	}

	require.LessOrEqual(t, c.mainChain.Len(), mainchain.BlockHeadersRequired+3,
		"UpsertMinerData's built-in cleanup pass must keep steady-state indexing bounded")
}

func TestSpliceNoncesWritesAtRecordedOffsets(t *testing.T) {
	handle := contracts.BlockTemplateHandle{
		Blob:             make([]byte, 12),
		NonceOffset:      2,
		ExtraNonceOffset: 7,
	}

	blob := spliceNonces(handle, 0x11223344, 0xaabbccdd)

	require.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, blob[2:6], "nonce must be spliced little-endian at NonceOffset")
	require.Equal(t, []byte{0xdd, 0xcc, 0xbb, 0xaa}, blob[7:11], "extra_nonce must be spliced little-endian at ExtraNonceOffset")
	require.Equal(t, make([]byte, 12), handle.Blob, "the cached template blob must not be mutated")
}

func TestSpliceNoncesIgnoresOutOfRangeOffsets(t *testing.T) {
	handle := contracts.BlockTemplateHandle{
		Blob:             make([]byte, 4),
		NonceOffset:      -1,
		ExtraNonceOffset: 2,
	}

	blob := spliceNonces(handle, 1, 0xffffffff)

	require.Equal(t, []byte{0, 0, 0, 0}, blob, "extra_nonce at offset 2 overruns a 4-byte blob and must be skipped")
}

// fakeSubmitTemplate hands back one fixed handle, enough for dispatchSubmit
// to look up an internal submission's template id.
type fakeSubmitTemplate struct {
	handle contracts.BlockTemplateHandle
}

func (f *fakeSubmitTemplate) Update(any, any, string) (contracts.BlockTemplateHandle, error) {
	return f.handle, nil
}

func (f *fakeSubmitTemplate) Get(templateId uint32) (contracts.BlockTemplateHandle, bool) {
	if templateId != f.handle.TemplateId {
		return contracts.BlockTemplateHandle{}, false
	}
	return f.handle, true
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func newDispatchSubmitCoordinator(t *testing.T, rpcAddr string) *Coordinator {
	t.Helper()
	l, err := ledger.New("")
	require.NoError(t, err)
	return &Coordinator{
		mainChain:     mainchain.NewIndex(),
		foundBlockIds: utils.NewCircularBuffer[types.Hash](10),
		ledger:        l,
		telemetry:     telemetry.New(t.TempDir()),
		stratum:       &fakeStratum{},
		keyCache:      address.NewDerivationCache(),
		rpc:           client.New(rpcAddr),
		template:      &fakeSubmitTemplate{handle: contracts.BlockTemplateHandle{TemplateId: 7, Blob: make([]byte, 8)}},
	}
}

// captureLog redirects the standard logger dispatchSubmit's severity helpers
// write through, restoring both the writer and the notice-level bit on
// cleanup.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	origOutput := log.Writer()
	origLevel := utils.GlobalLogLevel
	log.SetOutput(&buf)
	utils.GlobalLogLevel |= utils.LogLevelNotice
	t.Cleanup(func() {
		log.SetOutput(origOutput)
		utils.GlobalLogLevel = origLevel
	})
	return &buf
}

func TestDispatchSubmitClassifiesFailureSeverity(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		data    SubmitBlockData
		want    string
	}{
		{
			name:    "internal rpc error object logs at error severity",
			handler: jsonHandler(`{"jsonrpc":"2.0","id":"0","error":{"code":-7,"message":"boom"}}`),
			data:    SubmitBlockData{TemplateId: 7},
			want:    "submit_block rejected: ",
		},
		{
			name:    "external rpc error object is only a notice",
			handler: jsonHandler(`{"jsonrpc":"2.0","id":"0","error":{"code":-7,"message":"boom"}}`),
			data:    SubmitBlockData{ExternalBlob: []byte{0xde, 0xad}},
			want:    "submit_block rejected (external): ",
		},
		{
			name:    "malformed response body is a decode error, not a daemon rejection",
			handler: jsonHandler(`not json`),
			data:    SubmitBlockData{TemplateId: 7},
			want:    "submit_block response unparseable: ",
		},
		{
			name:    "unrecognized status is a notice regardless of audience",
			handler: jsonHandler(`{"jsonrpc":"2.0","id":"0","result":{"status":"BUSY"}}`),
			data:    SubmitBlockData{TemplateId: 7},
			want:    "unrecognized response status",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := newDispatchSubmitCoordinator(t, srv.URL)
			c.hasPending = true
			c.pendingSubmit = tc.data

			buf := captureLog(t)
			c.dispatchSubmit(context.Background())

			require.Contains(t, buf.String(), tc.want)
			require.Equal(t, 0, c.ledger.Len(), "a submit_block response is never itself a block-found event")
		})
	}
}

func TestDispatchSubmitTransportFailureSeverityByAudience(t *testing.T) {
	// Nothing listens on this address: httpClient.Do fails before any
	// response body exists, exercising the default (transport) branch.
	const deadAddr = "http://127.0.0.1:1"

	t.Run("internal submission logs at error severity", func(t *testing.T) {
		c := newDispatchSubmitCoordinator(t, deadAddr)
		c.hasPending = true
		c.pendingSubmit = SubmitBlockData{TemplateId: 7}

		buf := captureLog(t)
		c.dispatchSubmit(context.Background())

		require.Contains(t, buf.String(), "submit_block failed: ")
	})

	t.Run("external submission is only a notice", func(t *testing.T) {
		c := newDispatchSubmitCoordinator(t, deadAddr)
		c.hasPending = true
		c.pendingSubmit = SubmitBlockData{ExternalBlob: []byte{0xde, 0xad}}

		buf := captureLog(t)
		c.dispatchSubmit(context.Background())

		require.Contains(t, buf.String(), "submit_block failed (external): ")
	})
}

func TestDispatchSubmitAcceptedNeverAppendsLedger(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"jsonrpc":"2.0","id":"0","result":{"status":"OK"}}`))
	defer srv.Close()

	c := newDispatchSubmitCoordinator(t, srv.URL)
	c.hasPending = true
	c.pendingSubmit = SubmitBlockData{TemplateId: 7}

	c.dispatchSubmit(context.Background())

	require.Equal(t, 0, c.ledger.Len(),
		"an accepted submission is confirmed by the ChainMain handler, not by the submit_block response itself")
}

func TestDispatchSubmitUnknownTemplateIdIsANoOp(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"jsonrpc":"2.0","id":"0","result":{"status":"OK"}}`))
	defer srv.Close()

	c := newDispatchSubmitCoordinator(t, srv.URL)
	c.hasPending = true
	c.pendingSubmit = SubmitBlockData{TemplateId: 99}

	buf := captureLog(t)
	c.dispatchSubmit(context.Background())

	require.Contains(t, buf.String(), "unknown template id")
}

func TestDispatchSubmitSkipsWithoutPendingSubmission(t *testing.T) {
	c := newDispatchSubmitCoordinator(t, "http://127.0.0.1:1")
	c.dispatchSubmit(context.Background())
	require.Equal(t, 0, c.ledger.Len())
}
