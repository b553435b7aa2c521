package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/mchavez27/melipanel/configs"
	job "github.com/mchavez27/melipanel/internal/jobs"
	"github.com/mchavez27/melipanel/internal/queue"
	"github.com/mchavez27/melipanel/internal/repository"
	"github.com/mchavez27/melipanel/pkg/utils"
)

// TriggerHandler exposes the machine entrypoints of the publication
// pipeline: the periodic sweep trigger and the signed per-schedule task
// endpoint. Neither sits behind the browser session middleware, so each
// carries its own credential check.
type TriggerHandler struct {
	autoPublish *job.AutoPublishJob
	queue       *queue.Queue
	schedules   repository.ScheduleRepository
	cfg         config.Config
}

func NewTriggerHandler(autoPublish *job.AutoPublishJob, q *queue.Queue, schedules repository.ScheduleRepository, cfg config.Config) *TriggerHandler {
	return &TriggerHandler{autoPublish: autoPublish, queue: q, schedules: schedules, cfg: cfg}
}

// authorized checks the shared trigger secret. ?manual=true lets an
// operator kick the endpoint by hand from a trusted network.
func (h *TriggerHandler) authorized(c *fiber.Ctx) bool {
	if c.Query("manual") == "true" {
		return true
	}
	token, found := strings.CutPrefix(c.Get("Authorization"), "Bearer ")
	return found && h.cfg.CronSecret != "" && token == h.cfg.CronSecret
}

// AutoPublish runs the sweep over every due schedule.
func (h *TriggerHandler) AutoPublish(c *fiber.Ctx) error {
	if !h.authorized(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "unauthorized",
		})
	}

	result, err := h.autoPublish.Sweep(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"processed":  result.Processed,
		"successful": result.Successful,
		"failed":     result.Failed,
	})
}

// DispatchDue fans out one queue task per due schedule instead of
// publishing inline. Same credential rules as AutoPublish.
func (h *TriggerHandler) DispatchDue(c *fiber.Ctx) error {
	if !h.authorized(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "unauthorized",
		})
	}

	dispatched, err := h.autoPublish.Dispatch(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"dispatched": dispatched,
	})
}

// PublishItemTask handles a single signed publication task delivered over
// HTTP. The signature is verified over the raw body before any side
// effect runs.
func (h *TriggerHandler) PublishItemTask(c *fiber.Ctx) error {
	body := c.Body()
	signature := c.Get("Upstash-Signature")
	if !utils.VerifySignature(body, signature, h.cfg.JobCurrentKey, h.cfg.JobNextKey) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "invalid signature",
		})
	}

	var payload struct {
		ScheduleID int64 `json:"scheduleId"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}
	if payload.ScheduleID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "scheduleId is required",
		})
	}

	schedule, err := h.schedules.GetByID(c.Context(), payload.ScheduleID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	if schedule == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "schedule not found",
		})
	}

	if err := h.queue.PublishSchedule(c.Context(), payload.ScheduleID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
