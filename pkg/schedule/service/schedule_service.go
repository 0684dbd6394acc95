package service

import "time"

// ScheduleService runs background housekeeping jobs on a fixed cadence.
type ScheduleService interface {
	Every(interval time.Duration, name string, job func()) error
	Start()
	// Stop waits for running jobs to finish.
	Stop()
}
