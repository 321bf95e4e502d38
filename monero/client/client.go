// Package client is a minimal JSON-RPC-over-HTTP client for the daemon
// endpoints the coordinator's bootstrap state machine and block-template
// orchestrator need: get_info, get_version, get_miner_data, the two header
// lookups, and submit_block.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Cm157cc/p2pool/types"
	"github.com/Cm157cc/p2pool/utils"
	"github.com/goccy/go-json"
)

// Client talks to a single monerod restricted RPC endpoint.
type Client struct {
	address    string
	httpClient *http.Client
}

func New(address string) *Client {
	return &Client{
		address: address,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type rpcRequest struct {
	JsonRpc string `json:"jsonrpc"`
	Id      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsRPCError reports whether err is a daemon-returned {"error": ...} object,
// as opposed to a transport or decode failure. Callers use this to choose
// between the severities the submit-block error table distinguishes.
func IsRPCError(err error) bool {
	var e *rpcError
	return errors.As(err, &e)
}

// errDecode marks a response body that failed to parse as JSON-RPC, as
// opposed to a request that never reached the daemon at all.
var errDecode = errors.New("decode")

// IsDecodeError reports whether err is a malformed/non-recognized response
// body, as opposed to a daemon error object or a transport failure.
func IsDecodeError(err error) bool {
	return errors.Is(err, errDecode)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC request against /json_rpc and decodes
// result into out.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	body, err := utils.MarshalJSON(rpcRequest{
		JsonRpc: "2.0",
		Id:      "0",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.address+"/json_rpc", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var rr rpcResponse
	if err := utils.UnmarshalJSON(respBody, &rr); err != nil {
		return fmt.Errorf("decode response: %w: %w", errDecode, err)
	}
	if rr.Error != nil {
		return rr.Error
	}
	if out == nil {
		return nil
	}
	if err := utils.UnmarshalJSON(rr.Result, out); err != nil {
		return fmt.Errorf("decode result: %w: %w", errDecode, err)
	}
	return nil
}

type GetInfoResult struct {
	BusySyncing  bool `json:"busy_syncing"`
	Synchronized bool `json:"synchronized"`
	Mainnet      bool `json:"mainnet"`
	Testnet      bool `json:"testnet"`
	Stagenet     bool `json:"stagenet"`
	Height       uint64 `json:"height"`
}

func (c *Client) GetInfo(ctx context.Context) (*GetInfoResult, error) {
	var out GetInfoResult
	if err := c.call(ctx, "get_info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type GetVersionResult struct {
	Status  string `json:"status"`
	Version uint32 `json:"version"`
}

// VersionOk reports whether the RPC version is at least major.minor,
// encoded as (major<<16 | minor).
func (r *GetVersionResult) VersionOk(minVersion uint32) bool {
	return r.Status == "OK" && r.Version >= minVersion
}

func (c *Client) GetVersion(ctx context.Context) (*GetVersionResult, error) {
	var out GetVersionResult
	if err := c.call(ctx, "get_version", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type TxBacklogEntry struct {
	Id     types.Hash `json:"id"`
	Weight uint64     `json:"weight"`
	Fee    uint64     `json:"fee"`
}

type GetMinerDataResult struct {
	MajorVersion          uint8            `json:"major_version"`
	Height                uint64           `json:"height"`
	PrevId                types.Hash       `json:"prev_id"`
	SeedHash              types.Hash       `json:"seed_hash"`
	Difficulty            types.Difficulty `json:"difficulty"`
	MedianWeight          uint64           `json:"median_weight"`
	AlreadyGeneratedCoins uint64           `json:"already_generated_coins"`
	TxBacklog             []TxBacklogEntry `json:"tx_backlog"`
}

func (c *Client) GetMinerData(ctx context.Context) (*GetMinerDataResult, error) {
	var out GetMinerDataResult
	if err := c.call(ctx, "get_miner_data", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type BlockHeader struct {
	MajorVersion uint64     `json:"major_version"`
	MinorVersion uint64     `json:"minor_version"`
	Height       uint64     `json:"height"`
	Timestamp    uint64     `json:"timestamp"`
	PrevHash     string     `json:"prev_hash"`
	Nonce        uint64     `json:"nonce"`
	Reward       uint64     `json:"reward"`
	Hash         string     `json:"hash"`
	Difficulty   uint64     `json:"difficulty"`
	DifficultyTop64 uint64  `json:"difficulty_top64"`
}

func (h *BlockHeader) FullDifficulty() types.Difficulty {
	return types.NewDifficulty(h.Difficulty, h.DifficultyTop64)
}

type GetBlockHeaderByHeightResult struct {
	BlockHeader BlockHeader `json:"block_header"`
}

func (c *Client) GetBlockHeaderByHeight(ctx context.Context, height uint64) (*GetBlockHeaderByHeightResult, error) {
	var out GetBlockHeaderByHeightResult
	if err := c.call(ctx, "get_block_header_by_height", map[string]any{"height": height}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type GetBlockHeadersRangeResult struct {
	Headers []BlockHeader `json:"headers"`
}

func (c *Client) GetBlockHeadersRange(ctx context.Context, startHeight, endHeight uint64) (*GetBlockHeadersRangeResult, error) {
	var out GetBlockHeadersRangeResult
	if err := c.call(ctx, "get_block_headers_range", map[string]any{
		"start_height": startHeight,
		"end_height":   endHeight,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type SubmitBlockResult struct {
	Status string `json:"status"`
}

// SubmitBlock submits a hex-encoded block blob. The caller is responsible
// for splicing nonce/extra_nonce into the blob beforehand; this method
// never retries — a stale template makes a retry pointless.
func (c *Client) SubmitBlock(ctx context.Context, blobHex string) (*SubmitBlockResult, error) {
	var out SubmitBlockResult
	if err := c.call(ctx, "submit_block", []string{blobHex}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

