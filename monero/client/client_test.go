package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsRPCErrorDistinguishesDaemonErrorFromTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"0","error":{"code":-2,"message":"Block not accepted"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetInfo(context.Background())
	require.Error(t, err)
	require.True(t, IsRPCError(err))

	badClient := New("http://127.0.0.1:0")
	_, err = badClient.GetInfo(context.Background())
	require.Error(t, err)
	require.False(t, IsRPCError(err), "a transport failure is not a daemon error object")
}

func TestSubmitBlockReturnsErrorObjectMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"0","error":{"code":-7,"message":"Block not accepted"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.SubmitBlock(context.Background(), "deadbeef")
	require.Error(t, err)
	require.True(t, IsRPCError(err))
	require.Contains(t, err.Error(), "Block not accepted")
}
