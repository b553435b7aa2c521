package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/mchavez27/melipanel/internal/service"
)

type ImageHandler struct {
	storage service.StorageService
	meli    service.MeliService
	auth    service.MeliAuthService
}

func NewImageHandler(storage service.StorageService, meli service.MeliService, auth service.MeliAuthService) *ImageHandler {
	return &ImageHandler{storage: storage, meli: meli, auth: auth}
}

// UploadImage stores a dashboard asset in the bucket and returns its
// public URL.
func (h *ImageHandler) UploadImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing file",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to open file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unable to read file",
		})
	}

	url, err := h.storage.UploadImage(c.Context(), data)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"url": url,
	})
}

// UploadListingPicture pushes a picture to the marketplace picture pool
// so it can be attached to a listing by id.
func (h *ImageHandler) UploadListingPicture(c *fiber.Ctx) error {
	token, err := h.auth.GetToken(c.Context())
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing file",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to open file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unable to read file",
		})
	}

	picture, err := h.meli.UploadPicture(c.Context(), data, fileHeader.Filename, token)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(picture)
}
