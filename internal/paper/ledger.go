package paper

import (
	"fmt"
	"sync"

	"pancakeswap-go/internal/execution"
)

// Ledger holds fills in arrival order with a running count per status.
type Ledger struct {
	mu       sync.Mutex
	fills    []execution.Fill
	byStatus map[string]int
}

// NewLedger returns an empty ledger sized for capacity fills.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{
		fills:    make([]execution.Fill, 0, capacity),
		byStatus: make(map[string]int),
	}
}

// Record appends a fill.
func (l *Ledger) Record(fill execution.Fill) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fills = append(l.fills, fill)
	l.byStatus[fill.Status]++
	return nil
}

// Snapshot returns the fills whose status is one of statuses, or every fill when none are given.
func (l *Ledger) Snapshot(statuses ...string) []execution.Fill {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]execution.Fill, 0, len(l.fills))
	for _, fill := range l.fills {
		if len(statuses) == 0 || contains(statuses, fill.Status) {
			out = append(out, fill)
		}
	}
	return out
}

// Counts returns the number of fills per status.
func (l *Ledger) Counts() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.byStatus))
	for status, n := range l.byStatus {
		out[status] = n
	}
	return out
}

// Replay feeds every simulated dry-run fill into dst in order, e.g. to rebuild a paper account from a journal.
func (l *Ledger) Replay(dst execution.Recorder) (int, error) {
	applied := 0
	for _, fill := range l.Snapshot(execution.StatusSimulated) {
		if !fill.DryRun {
			continue
		}
		if err := dst.Record(fill); err != nil {
			return applied, fmt.Errorf("replay fill %s: %w", fill.ID, err)
		}
		applied++
	}
	return applied, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
