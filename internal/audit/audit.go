// Package audit accumulates the ordered, append-only trail of everything a
// run did: provider attempts, strategy trigger/skip decisions, lifecycle
// transitions. The log lives only for the current run.
package audit

import (
	"sync"
	"time"

	"claws/internal/types"
)

// Log is safe for concurrent appends; the resolver may race providers.
type Log struct {
	mu      sync.Mutex
	entries []types.AuditEntry
	clock   func() time.Time
}

func NewLog() *Log {
	return &Log{clock: time.Now}
}

// SetClock overrides the timestamp source. Tests use this to get a
// deterministic trail.
func (l *Log) SetClock(fn func() time.Time) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.clock = fn
	l.mu.Unlock()
}

// Record appends one entry. fields may be nil.
func (l *Log) Record(kind types.AuditKind, detail string, fields map[string]any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, types.AuditEntry{
		Timestamp: l.clock(),
		Kind:      kind,
		Detail:    detail,
		Fields:    fields,
	})
}

// Entries returns a copy of the trail in append order.
func (l *Log) Entries() []types.AuditEntry {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports how many entries have been recorded.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
