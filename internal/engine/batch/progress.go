package batch

import (
	"sync"
	"time"
)

// Progress counts completed items and chunks. It is safe for concurrent use.
type Progress struct {
	mu          sync.Mutex
	totalItems  int
	totalChunks int
	doneItems   int
	doneChunks  int
	start       time.Time
	now         func() time.Time
}

// ProgressSnapshot is a point-in-time copy of a Progress.
type ProgressSnapshot struct {
	TotalItems  int           `json:"total_items"`
	TotalChunks int           `json:"total_chunks"`
	DoneItems   int           `json:"done_items"`
	DoneChunks  int           `json:"done_chunks"`
	Elapsed     time.Duration `json:"elapsed"`
}

// NewProgress starts tracking totalItems split into totalChunks.
func NewProgress(totalItems, totalChunks int) *Progress {
	return &Progress{
		totalItems:  totalItems,
		totalChunks: totalChunks,
		start:       time.Now(),
		now:         time.Now,
	}
}

// Add records one completed chunk of n items and returns the new state.
func (p *Progress) Add(n int) ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doneItems += n
	p.doneChunks++
	return p.snapshotLocked()
}

// Snapshot returns the current state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Progress) snapshotLocked() ProgressSnapshot {
	return ProgressSnapshot{
		TotalItems:  p.totalItems,
		TotalChunks: p.totalChunks,
		DoneItems:   p.doneItems,
		DoneChunks:  p.doneChunks,
		Elapsed:     p.now().Sub(p.start),
	}
}

// Percent returns completion in [0, 100]. An empty run is complete.
func (s ProgressSnapshot) Percent() float64 {
	if s.TotalItems == 0 {
		return 100
	}
	return float64(s.DoneItems) / float64(s.TotalItems) * 100
}

// Complete reports whether every item was handled.
func (s ProgressSnapshot) Complete() bool {
	return s.DoneItems >= s.TotalItems
}

// ItemsPerSecond returns the observed throughput, or zero before any time
// has elapsed.
func (s ProgressSnapshot) ItemsPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.DoneItems) / s.Elapsed.Seconds()
}
