package planner

import (
	"context"

	"github.com/robfig/cron/v3"

	appLog "dailyplanner/internal/log"
	"dailyplanner/internal/model"
)

// Scheduler regenerates today's planner on a cron schedule.
type Scheduler struct {
	p    *Planner
	spec string
	opts Options
}

// NewScheduler runs p with opts at every tick of spec (5-field cron, in
// the planner's display zone). opts.Date is ignored; each tick plans for
// its own today.
func NewScheduler(p *Planner, spec string, opts Options) *Scheduler {
	opts.Date = model.Date{}
	return &Scheduler{p: p, spec: spec, opts: opts}
}

// Run blocks until ctx is cancelled, then waits for a running job to
// finish.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(s.p.resolver.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return err
	}
	appLog.Info("scheduler started", "schedule", s.spec, "timezone", s.p.resolver.Location().String())
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	appLog.Info("scheduler stopped")
	return nil
}

// RunOnce generates today's planner immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (*Result, error) {
	res, err := s.p.Generate(ctx, s.opts)
	if err != nil {
		appLog.Error("scheduled generation failed", err)
	} else if res.SourceErrors != nil {
		appLog.Warn("scheduled generation had source errors", "error", res.SourceErrors)
	}
	return res, err
}
