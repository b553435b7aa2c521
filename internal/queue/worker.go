package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// HandlePublishScheduleTask processes exactly one schedule per invocation.
// The dispatcher may redeliver a task, so the published-this-cycle check is
// re-evaluated here before any marketplace call.
func (q *Queue) HandlePublishScheduleTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishSchedulePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.PublishSchedule(ctx, payload.ScheduleID)
}

func (q *Queue) PublishSchedule(ctx context.Context, scheduleID int64) error {
	schedule, err := q.sr.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if schedule == nil {
		// Deleted between dispatch and delivery; nothing to retry.
		slog.Info("schedule no longer exists, dropping task", "schedule", scheduleID)
		return nil
	}
	if !schedule.IsActive {
		slog.Info("schedule is inactive, skipping", "schedule", scheduleID)
		return nil
	}
	if schedule.PublishedInCycle(time.Now()) {
		slog.Info("schedule already published this cycle, skipping", "schedule", scheduleID)
		return nil
	}

	if schedule.MaxPublications.Valid {
		published, err := q.hr.CountByScheduleID(ctx, schedule.ID)
		if err == nil && schedule.ReachedPublicationLimit(published) {
			slog.Info("schedule reached its publication limit, deactivating", "schedule", scheduleID)
			if err := q.sr.Deactivate(ctx, schedule.ID); err != nil {
				slog.Info(err.Error())
			}
			return nil
		}
	}

	token, err := q.auth.GetToken(ctx)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	result := q.scheduler.PublishScheduledItem(ctx, schedule, token)
	if !result.Success {
		// The failure is already in the history; advance the due time so
		// the schedule is not re-selected every trigger tick.
		if err := q.sr.Advance(ctx, schedule.ID, schedule.Frequency); err != nil {
			slog.Info(err.Error())
		}
		slog.Info("publication task failed", "schedule", scheduleID, "error", result.Error)
	}

	return nil
}
