// Package ledger is the coordinator's append-only found-blocks journal:
// one whitespace-delimited record per accepted block, an in-memory tail
// kept for telemetry, and tolerant recovery from a truncated last line
// after a crash mid-write.
package ledger

import (
	"bufio"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/Cm157cc/p2pool/types"
	"github.com/Cm157cc/p2pool/utils"
)

// Entry is one found-blocks record: FoundBlock in spec terms.
type Entry struct {
	Timestamp       int64
	Height          uint64
	Id              types.Hash
	BlockDifficulty types.Difficulty
	TotalHashes     types.Difficulty
}

func (e Entry) render() string {
	return fmt.Sprintf("%d %d %s %s %s\n",
		e.Timestamp, e.Height, e.Id.String(),
		e.BlockDifficulty.StringNumeric(), e.TotalHashes.StringNumeric())
}

// Ledger is safe for concurrent use; every mutation is under lock, and
// reads return a defensive copy of the in-memory tail.
type Ledger struct {
	lock    sync.Mutex
	path    string
	file    *os.File
	entries []Entry
}

// New opens (or creates) the ledger file at path, without loading it. An
// empty path disables persistence entirely: entries still accumulate
// in-memory, which lets the telemetry layer run standalone (see
// SPEC_FULL's "found-blocks telemetry independent of ledger persistence").
func New(path string) (*Ledger, error) {
	l := &Ledger{path: path}
	if path == "" {
		return l, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		utils.Errorf("[ledger] could not open %s: %s", path, err)
		return l, nil
	}
	l.file = f
	return l, nil
}

// Load parses any existing records at the configured path into the
// in-memory tail, tolerating a truncated final record. A missing file is
// not an error: the ledger simply starts empty.
func (l *Ledger) Load() error {
	if l.path == "" {
		return nil
	}
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("open %s: %w", l.path, err)
	}
	defer f.Close()

	var parsed []Entry
	var skipped string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if skipped != "" {
			utils.Noticef("[ledger] skipping unparsable record: %q", skipped)
			skipped = ""
		}
		entry, ok := parseLine(line)
		if !ok {
			// Tolerate a truncated final record: only surface a warning
			// if more lines follow.
			skipped = line
			continue
		}
		parsed = append(parsed, entry)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", l.path, err)
	}

	l.lock.Lock()
	l.entries = parsed
	l.lock.Unlock()
	return nil
}

func parseLine(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Entry{}, false
	}

	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Entry{}, false
	}
	height, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Entry{}, false
	}
	id, err := types.HashFromString(fields[2])
	if err != nil {
		return Entry{}, false
	}

	blockDiffBig, ok := new(big.Int).SetString(fields[3], 10)
	if !ok {
		return Entry{}, false
	}
	blockDiff, err := types.DifficultyFromBig(blockDiffBig)
	if err != nil {
		return Entry{}, false
	}

	totalHashesBig, ok := new(big.Int).SetString(fields[4], 10)
	if !ok {
		return Entry{}, false
	}
	totalHashes, err := types.DifficultyFromBig(totalHashesBig)
	if err != nil {
		return Entry{}, false
	}

	return Entry{
		Timestamp:       ts,
		Height:          height,
		Id:              id,
		BlockDifficulty: blockDiff,
		TotalHashes:     totalHashes,
	}, true
}

// Append writes entry to disk (if persistence is enabled) and to the
// in-memory tail. A write failure is logged and treated as a local I/O
// failure per the error-handling policy: the ledger keeps running
// in-memory only.
func (l *Ledger) Append(entry Entry) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.entries = append(l.entries, entry)

	if l.file == nil {
		return
	}
	if _, err := l.file.WriteString(entry.render()); err != nil {
		utils.Errorf("[ledger] write failed: %s", err)
	}
}

// Last returns up to n of the most recent entries, newest first.
func (l *Ledger) Last(n int) []Entry {
	l.lock.Lock()
	defer l.lock.Unlock()

	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return utils.ReverseSlice(out)
}

func (l *Ledger) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.entries)
}

func (l *Ledger) Close() error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
