package queue

import (
	"github.com/mchavez27/melipanel/internal/repository"
	"github.com/mchavez27/melipanel/internal/service"
)

const TaskTypePublishSchedule = "schedule:publish"

type PublishSchedulePayload struct {
	ScheduleID int64 `json:"schedule_id"`
}

// Queue holds the worker-side dependencies for fan-out publication tasks.
type Queue struct {
	sr        repository.ScheduleRepository
	hr        repository.HistoryRepository
	scheduler service.SchedulerService
	auth      service.MeliAuthService
}

func NewQueue(
	sr repository.ScheduleRepository,
	hr repository.HistoryRepository,
	scheduler service.SchedulerService,
	auth service.MeliAuthService) *Queue {
	return &Queue{
		sr:        sr,
		hr:        hr,
		scheduler: scheduler,
		auth:      auth,
	}
}
