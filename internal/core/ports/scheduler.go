package ports

import "time"

// SchedulerService runs recurring background tasks.
type SchedulerService interface {
	Start()
	Stop()
	ScheduleTaskEvery(interval time.Duration, task func()) error
}
