package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/metrics"
)

// Job is one unit of recurring work. Jobs live for the process lifetime and
// are never persisted; the schedule is rebuilt fresh on every run.
type Job struct {
	Name    string
	Trigger Trigger
	Run     func(ctx context.Context) error

	lastRun string // instanceKey of the last fire
}

// Scheduler owns its job set exclusively and dispatches due jobs from a
// single polling loop, one at a time.
type Scheduler struct {
	jobs   []*Job
	tick   time.Duration
	grace  time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// New creates a scheduler polling at the given tick interval.
func New(tick time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tick:   tick,
		grace:  tick, // a trigger unobserved for more than one tick never fires
		now:    time.Now,
		logger: logger,
	}
}

// Add registers a job. Not safe to call once RunLoop has started.
func (s *Scheduler) Add(name string, trigger Trigger, run func(ctx context.Context) error) {
	s.jobs = append(s.jobs, &Job{Name: name, Trigger: trigger, Run: run})
}

// Jobs describes the registered schedule for startup logging.
func (s *Scheduler) Jobs() []string {
	out := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Name+" ("+j.Trigger.String()+")")
	}
	return out
}

// RunLoop polls until ctx is done. Due jobs run synchronously and
// sequentially within the loop iteration.
func (s *Scheduler) RunLoop(ctx context.Context) {
	s.logger.Info("Scheduler loop started",
		zap.Duration("tick", s.tick),
		zap.Int("jobs", len(s.jobs)),
	)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler loop stopped")
			return
		case <-ticker.C:
			s.dispatchDue(ctx)
		}
	}
}

// dispatchDue runs every due job once, in registration order.
func (s *Scheduler) dispatchDue(ctx context.Context) {
	now := s.now()
	for _, job := range s.jobs {
		key := job.Trigger.instanceKey(now)
		if job.lastRun == key || !job.Trigger.due(now, s.grace) {
			continue
		}

		s.logger.Info("Running scheduled job", zap.String("job", job.Name))
		start := time.Now()
		err := job.Run(ctx)
		// The last-run marker is set even when the action failed: the next
		// scheduled occurrence is the retry mechanism, not the next tick.
		job.lastRun = key

		if err != nil {
			metrics.ScheduledJobRunsTotal.WithLabelValues(job.Name, "error").Inc()
			s.logger.Error("Scheduled job failed",
				zap.String("job", job.Name),
				zap.Duration("took", time.Since(start)),
				zap.Error(err),
			)
			continue
		}
		metrics.ScheduledJobRunsTotal.WithLabelValues(job.Name, "success").Inc()
		s.logger.Info("Scheduled job finished",
			zap.String("job", job.Name),
			zap.Duration("took", time.Since(start)),
		)
	}
}
