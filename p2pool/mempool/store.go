package mempool

import (
	"github.com/Cm157cc/p2pool/p2pool/contracts"
	"github.com/Cm157cc/p2pool/types"
	"github.com/Cm157cc/p2pool/utils"
)

// Store is the thread-safe mempool backlog the coordinator feeds tx-seen
// events and full-backlog refreshes into. Readers call Snapshot, which
// copies and sorts the current entries by fee density, leaving Store free
// to keep mutating underneath a concurrent template build.
type Store struct {
	entries *utils.MapCache[types.Hash, *MempoolEntry]
}

func NewStore() *Store {
	return &Store{entries: utils.NewMapCache[types.Hash, *MempoolEntry](0)}
}

// Add records or replaces a single entry, used for the json-full-txpool_add
// ZMQ topic's per-transaction stream.
func (s *Store) Add(id types.Hash, weight, fee uint64) {
	s.entries.Set(id, &MempoolEntry{Id: id, Weight: weight, Fee: fee})
}

// AddEntry records a full MempoolEntry, preserving BlobSize in addition to
// the weight/fee Add alone can carry.
func (s *Store) AddEntry(e *MempoolEntry) {
	s.entries.Set(e.Id, e)
}

// ReplaceAll swaps the entire backlog, used when get_miner_data's tx_backlog
// snapshot or a reconnect makes incremental tracking unreliable.
func (s *Store) ReplaceAll(entries []contracts.TxMempoolEntry) {
	next := make(map[types.Hash]*MempoolEntry, len(entries))
	for _, e := range entries {
		next[e.Id] = &MempoolEntry{Id: e.Id, Weight: e.Weight, Fee: e.Fee}
	}
	s.entries.Replace(next)
}

// Remove drops an entry once its transaction has been mined or evicted.
func (s *Store) Remove(id types.Hash) {
	s.entries.Delete(id)
}

// Snapshot copies the current backlog into a fee-sorted Mempool, safe for
// the caller to read without holding any lock on this Store.
func (s *Store) Snapshot() Mempool {
	out := Mempool(s.entries.Values())
	out.Sort()
	return out
}

func (s *Store) Len() int {
	return s.entries.Len()
}
