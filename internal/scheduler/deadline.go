package scheduler

import (
	"context"
	"log"
	"time"
)

// TaskMarker is the slice of the task repository the sweeper needs.
type TaskMarker interface {
	MarkDeadlineReached(ctx context.Context, before time.Time) (int64, error)
}

// DeadlineSweeper periodically flips open tasks whose deadline has passed
// to the Deadline Reached status. It has no API surface; it is an internal
// collaborator of the task state machine.
type DeadlineSweeper struct {
	tasks    TaskMarker
	interval time.Duration
}

func NewDeadlineSweeper(tasks TaskMarker, interval time.Duration) *DeadlineSweeper {
	return &DeadlineSweeper{tasks: tasks, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is
// cancelled.
func (s *DeadlineSweeper) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs a single pass. Tasks due strictly before today's date are
// affected; today's deadlines still count as open.
func (s *DeadlineSweeper) Sweep(ctx context.Context) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	affected, err := s.tasks.MarkDeadlineReached(ctx, today)
	if err != nil {
		log.Printf("⚠️  Deadline sweep failed: %v", err)
		return
	}
	if affected > 0 {
		log.Printf("✅ Deadline sweep updated %d task(s) to %q", affected, "Deadline Reached")
	}
}
