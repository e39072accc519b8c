package sched

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler fires registered jobs on their cron schedules. Every firing runs
// in its own goroutine, so a slow job never delays another target's schedule.
type Scheduler struct {
	c *cron.Cron
}

// New creates a stopped Scheduler. The expression parser accepts standard
// five-field cron, six fields with a leading seconds column, and descriptors
// (@every, @hourly, ...).
func New() *Scheduler {
	parser := cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)
	return &Scheduler{c: cron.New(cron.WithParser(parser))}
}

// Add registers job under the given name and cron expression. It returns an
// error if the expression does not parse; callers treat that as a fatal
// configuration defect.
func (s *Scheduler) Add(name, expr string, job func()) error {
	var id cron.EntryID
	id, err := s.c.AddFunc(expr, func() {
		job()
		if next := s.c.Entry(id).Next; !next.IsZero() {
			slog.Debug("next run scheduled", "job", name, "at", next)
		}
	})
	return err
}

// Start begins firing jobs. Idempotent.
func (s *Scheduler) Start() { s.c.Start() }

// Stop stops scheduling new firings and returns a context that is done once
// every in-flight job has finished, for graceful drain on shutdown.
func (s *Scheduler) Stop() context.Context { return s.c.Stop() }

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int { return len(s.c.Entries()) }
