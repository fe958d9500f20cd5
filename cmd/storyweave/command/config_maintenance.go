package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-storyweave/internal/driver"
)

// MaintenanceConfig schedules periodic upkeep. An empty schedule disables
// that job.
type MaintenanceConfig struct {
	ReloadSchedule  string `json:"reload_schedule"`
	ArchiveSchedule string `json:"archive_schedule"`
	TimeZone        string `json:"time_zone"`
}

func (c *MaintenanceConfig) validate() error {
	el := errors.NewErrorList()

	for name, spec := range map[string]string{
		"reload_schedule":  c.ReloadSchedule,
		"archive_schedule": c.ArchiveSchedule,
	} {
		if spec == "" {
			continue
		}
		if err := driver.ParseSchedule(spec); err != nil {
			el.Add(fmt.Errorf("maintenance: %s: %w", name, err))
		}
	}
	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			el.Add(fmt.Errorf("maintenance: loading time_zone: %w", err))
		}
	}

	return el.Err()
}

func (c *MaintenanceConfig) buildDriver(stories driver.Manager, choices driver.Manager) (*driver.MaintenanceDriver, error) {
	var jobs []driver.Job
	if c.ReloadSchedule != "" {
		jobs = append(jobs, driver.Job{Name: "story-reload", Schedule: c.ReloadSchedule, Manager: stories})
	}
	if c.ArchiveSchedule != "" {
		jobs = append(jobs, driver.Job{Name: "ledger-archive", Schedule: c.ArchiveSchedule, Manager: choices})
	}

	var opts []driver.MaintenanceDriverOpt
	if c.TimeZone != "" {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("loading time_zone: %w", err)
		}
		opts = append(opts, driver.WithLocation(loc))
	}

	return driver.NewMaintenanceDriver(jobs, opts...), nil
}
