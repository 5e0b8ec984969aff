// Package schedule runs digest jobs at configured hours, Monday to Friday.
package schedule

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron runner pinned to one time zone.
type Scheduler struct {
	cron *cron.Cron
	loc  *time.Location
}

// New creates a scheduler in the given IANA time zone.
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %s: %w", timezone, err)
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
		loc:  loc,
	}, nil
}

// AddDigestJobs schedules job at minute zero of each listed hour on weekdays.
func (s *Scheduler) AddDigestJobs(hours []int, job func()) error {
	for _, h := range hours {
		if h < 0 || h > 23 {
			return fmt.Errorf("invalid schedule hour %d", h)
		}
		spec := fmt.Sprintf("0 %d * * 1-5", h)
		if _, err := s.cron.AddFunc(spec, job); err != nil {
			return fmt.Errorf("scheduling digest at %02d:00: %w", h, err)
		}
		log.Printf("Scheduled digest job at %02d:00 Mon-Fri (%s)", h, s.loc)
	}
	return nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
