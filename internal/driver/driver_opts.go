package driver

import (
	"time"

	"github.com/robfig/cron/v3"
)

type MaintenanceDriverOpt func(*MaintenanceDriver)

// WithLocation evaluates schedules in loc instead of the local time zone.
func WithLocation(loc *time.Location) MaintenanceDriverOpt {
	return func(d *MaintenanceDriver) {
		d.cronOpts = append(d.cronOpts, cron.WithLocation(loc))
	}
}

// WithRunOnStart runs every job once before the schedule begins.
func WithRunOnStart() MaintenanceDriverOpt {
	return func(d *MaintenanceDriver) {
		d.runOnStart = true
	}
}
