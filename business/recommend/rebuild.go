package recommend

import (
	"sync"
	"time"
)

// RebuildStatus is a point-in-time snapshot of an index rebuild.
type RebuildStatus struct {
	State      string    `json:"state"` // idle|running|done|failed
	Total      int       `json:"total"`
	Done       int       `json:"done"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// RebuildTracker reports vector-index rebuild progress. It is an
// injected state record owned by whoever orchestrates rebuilds, not a
// package global.
type RebuildTracker struct {
	mu     sync.Mutex
	status RebuildStatus
}

func NewRebuildTracker() *RebuildTracker {
	return &RebuildTracker{status: RebuildStatus{State: "idle"}}
}

func (t *RebuildTracker) Start(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = RebuildStatus{
		State:     "running",
		Total:     total,
		StartedAt: time.Now(),
	}
}

func (t *RebuildTracker) Advance(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Done += n
}

func (t *RebuildTracker) Finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.FinishedAt = time.Now()
	if err != nil {
		t.status.State = "failed"
		t.status.Error = err.Error()
		return
	}
	t.status.State = "done"
	t.status.Done = t.status.Total
}

func (t *RebuildTracker) Snapshot() RebuildStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}
