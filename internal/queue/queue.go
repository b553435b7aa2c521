package queue

import (
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

// EnqueueSchedule hands one due schedule to the dispatcher as an
// independent task. Delivery is at-least-once; the worker carries the
// idempotency check.
func EnqueueSchedule(asynqClient *asynq.Client, payload PublishSchedulePayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishSchedule, taskPayload)

	if _, err := asynqClient.Enqueue(task); err != nil {
		return err
	}

	log.Printf("Publication task enqueued: %+v", payload)
	return nil
}
