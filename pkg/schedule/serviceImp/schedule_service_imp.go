package serviceImp

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"irrigation/pkg/schedule/service"
)

type schedSvc struct {
	cron *cron.Cron
}

func NewScheduleService(loc *time.Location) service.ScheduleService {
	if loc == nil {
		loc = time.Local
	}
	return &schedSvc{cron: cron.New(cron.WithLocation(loc), cron.WithSeconds())}
}

func (s *schedSvc) Every(interval time.Duration, name string, job func()) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	spec := fmt.Sprintf("@every %ds", seconds)
	if _, err := s.cron.AddFunc(spec, func() {
		log.Printf("[cron] %s", name)
		job()
	}); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

func (s *schedSvc) Start() { s.cron.Start() }

func (s *schedSvc) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
