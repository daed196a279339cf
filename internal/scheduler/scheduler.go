// Package scheduler repeats scrape runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/danisans16/scripts-fomo/internal/logger"
)

// parser accepts standard five-field specs, six-field specs with a leading
// seconds field, and descriptors such as "@hourly" or "@every 30m".
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Job is one scheduled run.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron schedule. A tick that fires while the
// previous run is still going is skipped.
type Scheduler struct {
	spec  string
	sched cron.Schedule
	job   Job
	log   *logger.Logger
	runs  atomic.Int64
}

// Validate reports whether spec is a schedule the Scheduler accepts.
func Validate(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// New creates a Scheduler for spec.
func New(spec string, job Job, log *logger.Logger) (*Scheduler, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	if log == nil {
		log = logger.Default()
	}
	return &Scheduler{spec: spec, sched: sched, job: job, log: log}, nil
}

// Next returns the first activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.sched.Next(t)
}

// Runs returns how many runs have started.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Run blocks until ctx is done, running the job on every tick. With
// immediate set the job also runs once before the first tick. Run waits for
// an in-flight job to return before it returns.
func (s *Scheduler) Run(ctx context.Context, immediate bool) error {
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cronLogger{s.log}),
		cron.WithChain(cron.Recover(cronLogger{s.log}), cron.SkipIfStillRunning(cronLogger{s.log})),
	)
	c.Schedule(s.sched, cron.FuncJob(func() { s.runOnce(ctx) }))

	if immediate {
		s.runOnce(ctx)
	}

	c.Start()
	s.log.Info("Scheduler started", logger.Fields{"schedule": s.spec, "next": s.Next(time.Now()).Format(time.RFC3339)})

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("Scheduler stopped", logger.Fields{"runs": s.Runs()})
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n := s.runs.Add(1)
	start := time.Now()
	s.log.Info("Scheduled run starting", logger.Fields{"run": n})

	if err := s.job(ctx); err != nil {
		s.log.Error("Scheduled run failed", logger.Fields{"run": n}, err)
		return
	}
	s.log.Info("Scheduled run finished", logger.Fields{"run": n, "duration": time.Since(start).String()})
}

// cronLogger adapts the structured logger to cron's logging interface.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, fields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, fields(keysAndValues), err)
}

func fields(kv []interface{}) logger.Fields {
	if len(kv) == 0 {
		return nil
	}
	f := make(logger.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
