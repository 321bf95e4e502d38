package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Cm157cc/p2pool/utils"
	"github.com/stretchr/testify/require"
)

func TestPublishWritesReadableFile(t *testing.T) {
	dir := t.TempDir()
	p := New(dir)

	p.Publish("network/stats", NetworkStats{Height: 2800000, Reward: 600000000000})

	buf, err := os.ReadFile(filepath.Join(dir, "network", "stats"))
	require.NoError(t, err)

	var out NetworkStats
	require.NoError(t, utils.UnmarshalJSON(buf, &out))
	require.EqualValues(t, 2800000, out.Height)
}

func TestDisabledPublisherIsNoop(t *testing.T) {
	p := New("")
	require.False(t, p.Enabled())
	p.Publish("whatever", struct{}{}) // must not panic or create files
}

func TestPublishLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	p := New(dir)
	p.Publish("pool/stats", PoolStats{PoolList: []string{"pplns"}})

	entries, err := os.ReadDir(filepath.Join(dir, "pool"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "stats", entries[0].Name())
}
