package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mchavez27/melipanel/internal/service"
	"github.com/mchavez27/melipanel/internal/transfer"
)

type ScheduleHandler struct {
	s service.ScheduleService
}

func NewScheduleHandler(s service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{s: s}
}

func (h *ScheduleHandler) CreateSchedule(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.CreateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	schedule, err := h.s.Create(c.Context(), userID, &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(schedule)
}

func (h *ScheduleHandler) ListSchedules(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var isActive *bool
	switch c.Query("status") {
	case "active":
		active := true
		isActive = &active
	case "inactive":
		inactive := false
		isActive = &inactive
	}

	schedules, err := h.s.List(c.Context(), userID, isActive)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unable to list schedules",
		})
	}

	return c.JSON(schedules)
}

func (h *ScheduleHandler) GetSchedule(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid schedule id",
		})
	}

	schedule, err := h.s.Get(c.Context(), userID, int64(id))
	if err != nil {
		return scheduleError(c, err)
	}

	return c.JSON(schedule)
}

func (h *ScheduleHandler) UpdateSchedule(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid schedule id",
		})
	}

	var req transfer.UpdateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	schedule, err := h.s.Update(c.Context(), userID, int64(id), &req)
	if err != nil {
		return scheduleError(c, err)
	}

	return c.JSON(schedule)
}

func (h *ScheduleHandler) DeleteSchedule(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid schedule id",
		})
	}

	if err := h.s.Remove(c.Context(), userID, int64(id)); err != nil {
		return scheduleError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *ScheduleHandler) ScheduleHistory(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid schedule id",
		})
	}

	limit := c.QueryInt("limit", 10)
	offset := c.QueryInt("offset", 0)

	history, err := h.s.History(c.Context(), userID, int64(id), limit, offset)
	if err != nil {
		return scheduleError(c, err)
	}

	return c.JSON(history)
}

func scheduleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrScheduleNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "schedule not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
