package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/mchavez27/melipanel/internal/queue"
	"github.com/mchavez27/melipanel/internal/repository"
	"github.com/mchavez27/melipanel/internal/service"
	"github.com/mchavez27/melipanel/internal/transfer"
)

// AutoPublishJob is the periodic trigger over due schedules. It runs in two
// shapes: Sweep processes everything sequentially in one control flow,
// Dispatch fans each due schedule out as an independent queue task.
type AutoPublishJob struct {
	sr        repository.ScheduleRepository
	scheduler service.SchedulerService
	auth      service.MeliAuthService
	client    *asynq.Client
}

func NewAutoPublishJob(
	sr repository.ScheduleRepository,
	scheduler service.SchedulerService,
	auth service.MeliAuthService,
	client *asynq.Client) *AutoPublishJob {
	return &AutoPublishJob{
		sr:        sr,
		scheduler: scheduler,
		auth:      auth,
		client:    client,
	}
}

// Run is the cron entrypoint for the sequential sweep.
func (j *AutoPublishJob) Run() {
	if _, err := j.Sweep(context.Background()); err != nil {
		slog.Info("auto-publish sweep failed", "error", err.Error())
	}
}

func (j *AutoPublishJob) Sweep(ctx context.Context) (transfer.SweepResult, error) {
	token, err := j.auth.GetToken(ctx)
	if err != nil {
		return transfer.SweepResult{}, err
	}

	due, err := j.sr.ListDue(ctx, time.Now())
	if err != nil {
		return transfer.SweepResult{}, err
	}
	if len(due) == 0 {
		slog.Info("no schedules due")
		return transfer.SweepResult{}, nil
	}

	slog.Info("processing due schedules", "count", len(due))
	return j.scheduler.ProcessScheduledPublications(ctx, due, token), nil
}

// Dispatch enqueues one publication task per due schedule instead of
// publishing inline. Pacing is left to the queue's concurrency cap.
func (j *AutoPublishJob) Dispatch(ctx context.Context) (int, error) {
	due, err := j.sr.ListDue(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, schedule := range due {
		if err := queue.EnqueueSchedule(j.client, queue.PublishSchedulePayload{ScheduleID: schedule.ID}); err != nil {
			slog.Info("could not enqueue schedule", "schedule", schedule.ID, "error", err.Error())
			continue
		}
		dispatched++
	}

	return dispatched, nil
}
