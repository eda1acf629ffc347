package progress

import (
	"context"
	"log/slog"
)

// Setter is the write surface the Reporter needs. Satisfied by *Store;
// tests substitute a fake.
type Setter interface {
	Set(ctx context.Context, jobID string, snap Snapshot) error
}

// Reporter publishes snapshots for a single job run.
//
// It guards the two snapshot invariants: progress never decreases while
// processing, and nothing is published after a terminal status. Store
// failures are logged and dropped; progress is advisory and must never
// fail the job itself.
type Reporter struct {
	store    Setter
	jobID    string
	last     int
	terminal bool
}

// NewReporter creates a reporter for one job id.
func NewReporter(store Setter, jobID string) *Reporter {
	return &Reporter{store: store, jobID: jobID}
}

// Publish writes a snapshot unless the job has already reached a
// terminal status.
func (r *Reporter) Publish(ctx context.Context, status Status, pct int, message string) {
	if r.terminal {
		return
	}

	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if pct < r.last {
		pct = r.last
	}
	r.last = pct

	if status.Terminal() {
		r.terminal = true
	}

	snap := Snapshot{Status: status, Progress: pct, Message: message}
	if err := r.store.Set(ctx, r.jobID, snap); err != nil {
		slog.Warn("progress publish failed", "job_id", r.jobID, "status", status, "error", err)
	}
}
