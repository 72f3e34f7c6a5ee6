package agent

import (
	"sync"
	"time"
)

// Ledger is the set of email UIDs already processed during this run.
//
// Each entry remembers the cycle in which its UID was last seen in a fetch.
// When retention is positive, EndCycle evicts entries not seen for that many
// cycles; a zero retention keeps every entry for the life of the process.
// Check-and-insert is atomic, so the Ledger stays correct if emails are ever
// processed concurrently.
type Ledger struct {
	mu        sync.Mutex
	entries   map[string]ledgerEntry
	retention int
	cycle     int
}

type ledgerEntry struct {
	processedAt time.Time
	lastSeen    int
}

// NewLedger creates an empty Ledger.
func NewLedger(retentionCycles int) *Ledger {
	if retentionCycles < 0 {
		retentionCycles = 0
	}
	return &Ledger{
		entries:   make(map[string]ledgerEntry),
		retention: retentionCycles,
	}
}

// Contains reports whether uid has been processed.
func (l *Ledger) Contains(uid string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.entries[uid]
	return ok
}

// Observe marks uid as seen in the current cycle, keeping an existing entry
// from being evicted. Unknown UIDs are ignored.
func (l *Ledger) Observe(uid string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[uid]; ok {
		e.lastSeen = l.cycle
		l.entries[uid] = e
	}
}

// Record adds uid with its processing time. It returns false, leaving the
// existing entry untouched, if uid was already present.
func (l *Ledger) Record(uid string, at time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[uid]; ok {
		return false
	}
	l.entries[uid] = ledgerEntry{processedAt: at, lastSeen: l.cycle}
	return true
}

// ProcessedAt returns when uid was recorded.
func (l *Ledger) ProcessedAt(uid string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[uid]
	return e.processedAt, ok
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// EndCycle closes the current cycle and evicts stale entries, returning how
// many were removed.
func (l *Ledger) EndCycle() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	if l.retention > 0 {
		for uid, e := range l.entries {
			if l.cycle-e.lastSeen >= l.retention {
				delete(l.entries, uid)
				evicted++
			}
		}
	}

	l.cycle++
	return evicted
}
