package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Cm157cc/p2pool/types"
	"github.com/stretchr/testify/require"
)

func entryN(i uint64) Entry {
	return Entry{
		Timestamp:       1000 + int64(i),
		Height:          2800000 + i,
		Id:              types.Hash{byte(i), byte(i >> 8)},
		BlockDifficulty: types.DifficultyFrom64(300_000_000_000 + i),
		TotalHashes:     types.NewDifficulty(1, i),
	}
}

func TestAppendThenReloadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p2pool.blocks")

	l, err := New(path)
	require.NoError(t, err)
	for i := uint64(0); i < 3; i++ {
		l.Append(entryN(i))
	}
	require.NoError(t, l.Close())

	reloaded, err := New(path)
	require.NoError(t, err)
	require.NoError(t, reloaded.Load())
	require.Equal(t, 3, reloaded.Len())

	last := reloaded.Last(3)
	require.Len(t, last, 3)
	require.Equal(t, entryN(2).Height, last[0].Height, "Last returns newest first")
	require.Equal(t, entryN(0).Height, last[2].Height)
}

func TestLoadToleratesTruncatedFinalRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p2pool.blocks")

	var contents string
	for i := uint64(0); i < 3; i++ {
		contents += entryN(i).render()
	}
	contents += "1234 2800099 deadbeef" // truncated: missing two fields

	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	l, err := New(path)
	require.NoError(t, err)
	require.NoError(t, l.Load())
	require.Equal(t, 3, l.Len(), "truncated final record must be ignored, not fatal")
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "does-not-exist.blocks"))
	require.NoError(t, err)
	require.NoError(t, l.Load())
	require.Equal(t, 0, l.Len())
}

func TestEmptyPathDisablesPersistenceButKeepsInMemoryTail(t *testing.T) {
	l, err := New("")
	require.NoError(t, err)
	l.Append(entryN(0))
	require.Equal(t, 1, l.Len())
}

func TestLastNClampsToAvailableEntries(t *testing.T) {
	l, err := New("")
	require.NoError(t, err)
	l.Append(entryN(0))
	require.Len(t, l.Last(51), 1)
}
