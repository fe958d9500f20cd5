package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Manager is a component with periodic maintenance work.
type Manager interface {
	Tick(context.Context) error
}

// Job runs a manager on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Manager  Manager
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule checks a five field cron expression or a descriptor such as
// "@daily" or "@every 1h".
func ParseSchedule(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// MaintenanceDriver runs jobs on their schedules until its context ends.
type MaintenanceDriver struct {
	jobs       []Job
	cronOpts   []cron.Option
	runOnStart bool
}

func NewMaintenanceDriver(jobs []Job, opts ...MaintenanceDriverOpt) *MaintenanceDriver {
	d := &MaintenanceDriver{
		jobs: jobs,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *MaintenanceDriver) Start(ctx context.Context) error {
	c := cron.New(append([]cron.Option{cron.WithParser(parser)}, d.cronOpts...)...)
	for _, j := range d.jobs {
		if _, err := c.AddFunc(j.Schedule, func() { d.run(ctx, j) }); err != nil {
			return fmt.Errorf("scheduling %s: %w", j.Name, err)
		}
	}

	if d.runOnStart {
		if err := d.Tick(ctx); err != nil {
			slog.WarnContext(ctx, "initial maintenance failed", "error", err)
		}
	}

	c.Start()
	slog.InfoContext(ctx, "maintenance scheduler started", "jobs", len(d.jobs))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Tick runs every job once, in order, stopping at the first failure.
func (d *MaintenanceDriver) Tick(ctx context.Context) error {
	for _, j := range d.jobs {
		if err := j.Manager.Tick(ctx); err != nil {
			return fmt.Errorf("%s: %w", j.Name, err)
		}
	}
	return nil
}

func (d *MaintenanceDriver) run(ctx context.Context, j Job) {
	if ctx.Err() != nil {
		return
	}
	if err := j.Manager.Tick(ctx); err != nil {
		slog.WarnContext(ctx, "maintenance job failed", "job", j.Name, "error", err)
		return
	}
	slog.DebugContext(ctx, "maintenance job ran", "job", j.Name)
}
