// Package availability keeps the confirmed occupancy of every
// (table, date) pair in memory, ordered by start time, so the
// reservation coordinator can answer conflict queries without
// scanning a table's full booking history.
package availability

import (
	"sort"
	"sync"

	"stolik/internal/models"
)

// Key identifies one exclusion domain: a single table on a single
// calendar date. Keys that differ in either field are fully
// independent.
type Key struct {
	TableID string
	Date    string
}

// Entry is one confirmed interval together with the booking that
// owns it.
type Entry struct {
	BookingID string
	Slot      models.Interval
}

type slotList struct {
	mu      sync.RWMutex
	entries []Entry // sorted by Slot.Start, pairwise non-overlapping
}

// Index holds per-key interval lists. Mutations must happen under the
// coordinator's per-key exclusion; reads take a consistent per-key
// snapshot and never observe a half-applied insert.
type Index struct {
	mu    sync.RWMutex
	byKey map[Key]*slotList
}

func NewIndex() *Index {
	return &Index{byKey: make(map[Key]*slotList)}
}

func (idx *Index) list(key Key, create bool) *slotList {
	idx.mu.RLock()
	l, ok := idx.byKey[key]
	idx.mu.RUnlock()
	if ok || !create {
		return l
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if l, ok = idx.byKey[key]; ok {
		return l
	}
	l = &slotList{}
	idx.byKey[key] = l
	return l
}

// Conflict returns the id of a confirmed booking whose interval
// overlaps the candidate, if any. Entries are sorted by start and
// pairwise non-overlapping, so their ends are sorted too: the only
// possible conflict is the last entry starting before candidate.End,
// which keeps the check at a binary search instead of a scan.
func (idx *Index) Conflict(key Key, candidate models.Interval) (string, bool) {
	l := idx.list(key, false)
	if l == nil {
		return "", false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	i := sort.Search(len(l.entries), func(n int) bool {
		return l.entries[n].Slot.Start >= candidate.End
	})
	if i == 0 {
		return "", false
	}
	if last := l.entries[i-1]; last.Slot.End > candidate.Start {
		return last.BookingID, true
	}
	return "", false
}

// Insert adds a confirmed interval at its sorted position. The caller
// must have established via Conflict that the interval is admissible
// and must hold the key's exclusion throughout.
func (idx *Index) Insert(key Key, bookingID string, slot models.Interval) {
	l := idx.list(key, true)

	l.mu.Lock()
	defer l.mu.Unlock()

	i := sort.Search(len(l.entries), func(n int) bool {
		return l.entries[n].Slot.Start >= slot.Start
	})
	l.entries = append(l.entries, Entry{})
	copy(l.entries[i+1:], l.entries[i:])
	l.entries[i] = Entry{BookingID: bookingID, Slot: slot}
}

// Remove drops a booking's interval, typically on cancellation. It is
// a no-op when the booking is not present.
func (idx *Index) Remove(key Key, bookingID string) bool {
	l := idx.list(key, false)
	if l == nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.BookingID == bookingID {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the key's entries ordered by start time.
func (idx *Index) Snapshot(key Key) []Entry {
	l := idx.list(key, false)
	if l == nil {
		return nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
