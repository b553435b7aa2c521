package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mchavez27/melipanel/internal/service"
	"github.com/mchavez27/melipanel/internal/transfer"
)

type ItemHandler struct {
	meli service.MeliService
	auth service.MeliAuthService
}

func NewItemHandler(meli service.MeliService, auth service.MeliAuthService) *ItemHandler {
	return &ItemHandler{meli: meli, auth: auth}
}

func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	token, err := h.auth.GetToken(c.Context())
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	item, err := h.meli.GetItem(c.Context(), c.Params("id"), token)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// The description lives behind a second endpoint; surface both in one
	// response for the dashboard detail view.
	description, _ := h.meli.GetItemDescription(c.Context(), item.ID, token)

	return c.JSON(fiber.Map{
		"item":        item,
		"description": description,
	})
}

func (h *ItemHandler) ListItems(c *fiber.Ctx) error {
	token, err := h.auth.GetToken(c.Context())
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)

	items, err := h.meli.SearchSellerItems(c.Context(), token, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(items)
}

// PublishItem creates a listing from a payload the dashboard already
// built, the manual counterpart of the scheduled pipeline.
func (h *ItemHandler) PublishItem(c *fiber.Ctx) error {
	token, err := h.auth.GetToken(c.Context())
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var payload transfer.ItemCreation
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	published, err := h.meli.CreateItem(c.Context(), &payload, token)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(published)
}
