package api

import (
	"errors"
	"io"
	"log"

	"github.com/DodiBTW/RevisiaAPI/modules/images"
	"github.com/gofiber/fiber/v2"
)

// UploadCardImage stores an illustration for a card the user owns. The
// image arrives as a multipart form file under the "image" field.
func (h *Handlers) UploadCardImage(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}
	if h.images == nil {
		return imageStorageUnavailable(c)
	}

	cardID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid card id")
	}

	// Ownership check runs through the study service.
	if _, err := h.study.GetCard(c.UserContext(), cardID, claims.UserID); err != nil {
		return h.handleStudyError(c, err)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "Image file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "Failed to read image file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return badRequest(c, "Failed to read image file")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	meta, err := h.images.Upload(c.UserContext(), cardID, data, contentType)
	if err != nil {
		return h.handleImageError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(meta)
}

// GetCardImage streams a card's illustration.
func (h *Handlers) GetCardImage(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}
	if h.images == nil {
		return imageStorageUnavailable(c)
	}

	cardID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid card id")
	}

	if _, err := h.study.GetCard(c.UserContext(), cardID, claims.UserID); err != nil {
		return h.handleStudyError(c, err)
	}

	data, meta, err := h.images.Get(c.UserContext(), cardID)
	if err != nil {
		return h.handleImageError(c, err)
	}

	c.Set(fiber.HeaderContentType, meta.ContentType)
	return c.Send(data)
}

// DeleteCardImage removes a card's illustration.
func (h *Handlers) DeleteCardImage(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}
	if h.images == nil {
		return imageStorageUnavailable(c)
	}

	cardID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid card id")
	}

	if _, err := h.study.GetCard(c.UserContext(), cardID, claims.UserID); err != nil {
		return h.handleStudyError(c, err)
	}

	if err := h.images.Delete(c.UserContext(), cardID); err != nil {
		return h.handleImageError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleImageError maps image service failures to HTTP responses.
func (h *Handlers) handleImageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, images.ErrImageNotFound):
		return notFound(c, "Image not found")
	case errors.Is(err, images.ErrEmptyImage),
		errors.Is(err, images.ErrImageTooLarge),
		errors.Is(err, images.ErrUnsupportedImageType):
		return badRequest(c, err.Error())
	default:
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

func imageStorageUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
		Error:   "service_unavailable",
		Message: "Image storage is unavailable",
	})
}
