package driver

import "github.com/kagehito/urubu/spec"

// The memo table has one entry per (rule, position) pair. An entry in
// the inProgress state makes a re-entrant call return the current seed
// instead of recursing, which is what turns left recursion into
// iteration: the first round runs with a failing seed, and the result
// grows while re-evaluation keeps advancing the end position.

type memoKey struct {
	rule spec.RuleID
	pos  int
}

type memoState int

const (
	memoInProgress memoState = iota
	memoComplete
)

type memoEntry struct {
	state memoState
	ok    bool
	end   int
	value Value
}

func (e *memoEntry) result() result {
	return result{
		ok:    e.ok,
		end:   e.end,
		value: e.value,
	}
}

type memoTable struct {
	entries map[memoKey]*memoEntry

	// logs records the keys added during each active growth round,
	// innermost last. When a round's seed turns out stale, everything
	// derived from it is dropped.
	logs [][]memoKey
}

func newMemoTable() *memoTable {
	return &memoTable{
		entries: map[memoKey]*memoEntry{},
	}
}

func (t *memoTable) lookup(key memoKey) (*memoEntry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

func (t *memoTable) add(key memoKey, e *memoEntry) {
	t.entries[key] = e
	for i := range t.logs {
		t.logs[i] = append(t.logs[i], key)
	}
}

func (t *memoTable) beginRound() {
	t.logs = append(t.logs, nil)
}

// endRound closes the innermost growth round and removes the entries
// it created, except the one under keep: results memoized against a
// superseded seed don't survive the round.
func (t *memoTable) endRound(keep memoKey) {
	keys := t.logs[len(t.logs)-1]
	t.logs = t.logs[:len(t.logs)-1]
	for _, k := range keys {
		if k == keep {
			continue
		}
		delete(t.entries, k)
	}
}
