package timescheduler

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/mintmarket/marketd/internal/core/ports"
)

type service struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() ports.SchedulerService {
	svc := gocron.NewScheduler(time.UTC)
	return &service{svc}
}

func (s *service) Start() {
	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.scheduler.Stop()
}

func (s *service) ScheduleTaskEvery(interval time.Duration, task func()) error {
	_, err := s.scheduler.Every(interval).Do(task)
	return err
}
