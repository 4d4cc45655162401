package api

import (
	"errors"
	"log"

	studydomain "github.com/DodiBTW/RevisiaAPI/domain/study"
	"github.com/DodiBTW/RevisiaAPI/modules/study"
	"github.com/gofiber/fiber/v2"
)

// ListCourses returns the user's courses.
func (h *Handlers) ListCourses(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	courses, err := h.study.ListCourses(c.UserContext(), claims.UserID)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(courses)
}

// GetCourse returns one course.
func (h *Handlers) GetCourse(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid course id")
	}

	course, err := h.study.GetCourse(c.UserContext(), id, claims.UserID)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(course)
}

// CreateCourse creates a course.
func (h *Handlers) CreateCourse(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	course, err := h.study.CreateCourse(c.UserContext(), claims.UserID, req.Name, req.Description, req.Color)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

// UpdateCourse updates a course.
func (h *Handlers) UpdateCourse(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid course id")
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	course, err := h.study.UpdateCourse(c.UserContext(), id, claims.UserID, req.Name, req.Description, req.Color, isActive)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(course)
}

// DeleteCourse deletes a course and its chapters and deck links.
func (h *Handlers) DeleteCourse(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid course id")
	}

	if err := h.study.DeleteCourse(c.UserContext(), id, claims.UserID); err != nil {
		return h.handleStudyError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListChapters returns a course's chapters in order.
func (h *Handlers) ListChapters(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	courseID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid course id")
	}

	chapters, err := h.study.ListChapters(c.UserContext(), courseID, claims.UserID)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(chapters)
}

// CreateChapter adds a chapter to a course.
func (h *Handlers) CreateChapter(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	courseID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid course id")
	}

	var req ChapterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	chapter, err := h.study.CreateChapter(c.UserContext(), courseID, claims.UserID, req.Name, req.Description, req.Notes, req.OrderIndex)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(chapter)
}

// UpdateChapter updates a chapter.
func (h *Handlers) UpdateChapter(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	courseID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid course id")
	}
	chapterID, err := paramID(c, "chapterId")
	if err != nil {
		return badRequest(c, "Invalid chapter id")
	}

	var req ChapterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	chapter, err := h.study.UpdateChapter(c.UserContext(), chapterID, courseID, claims.UserID, req.Name, req.Description, req.Notes, req.OrderIndex, isActive)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(chapter)
}

// DeleteChapter removes a chapter from a course.
func (h *Handlers) DeleteChapter(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	courseID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid course id")
	}
	chapterID, err := paramID(c, "chapterId")
	if err != nil {
		return badRequest(c, "Invalid chapter id")
	}

	if err := h.study.DeleteChapter(c.UserContext(), chapterID, courseID, claims.UserID); err != nil {
		return h.handleStudyError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListDecks returns the user's decks.
func (h *Handlers) ListDecks(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	decks, err := h.study.ListDecks(c.UserContext(), claims.UserID)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(decks)
}

// GetDeck returns one deck.
func (h *Handlers) GetDeck(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid deck id")
	}

	deck, err := h.study.GetDeck(c.UserContext(), id, claims.UserID)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(deck)
}

// CreateDeck creates a deck.
func (h *Handlers) CreateDeck(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	var req DeckRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	deck, err := h.study.CreateDeck(c.UserContext(), claims.UserID, req.Name, req.Description, req.Color)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(deck)
}

// UpdateDeck updates a deck.
func (h *Handlers) UpdateDeck(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid deck id")
	}

	var req DeckRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	deck, err := h.study.UpdateDeck(c.UserContext(), id, claims.UserID, req.Name, req.Description, req.Color)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(deck)
}

// DeleteDeck deletes a deck and its cards.
func (h *Handlers) DeleteDeck(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid deck id")
	}

	if err := h.study.DeleteDeck(c.UserContext(), id, claims.UserID); err != nil {
		return h.handleStudyError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListCourseDecks returns the decks linked into a course.
func (h *Handlers) ListCourseDecks(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	courseID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid course id")
	}

	decks, err := h.study.ListCourseDecks(c.UserContext(), courseID, claims.UserID)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(decks)
}

// AddDeckToCourse links a deck into a course.
func (h *Handlers) AddDeckToCourse(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	courseID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid course id")
	}
	deckID, err := paramID(c, "deckId")
	if err != nil {
		return badRequest(c, "Invalid deck id")
	}

	if err := h.study.AddDeckToCourse(c.UserContext(), courseID, deckID, claims.UserID); err != nil {
		return h.handleStudyError(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

// RemoveDeckFromCourse unlinks a deck from a course.
func (h *Handlers) RemoveDeckFromCourse(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	courseID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid course id")
	}
	deckID, err := paramID(c, "deckId")
	if err != nil {
		return badRequest(c, "Invalid deck id")
	}

	if err := h.study.RemoveDeckFromCourse(c.UserContext(), courseID, deckID, claims.UserID); err != nil {
		return h.handleStudyError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListDeckCards returns the cards in a deck.
func (h *Handlers) ListDeckCards(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	deckID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid deck id")
	}

	cards, err := h.study.ListDeckCards(c.UserContext(), deckID, claims.UserID)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(cards)
}

// CreateCard adds a card to a deck.
func (h *Handlers) CreateCard(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	deckID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid deck id")
	}

	var req CardRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	card, err := h.study.CreateCard(c.UserContext(), deckID, claims.UserID, req.Front, req.Back, req.Tags)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(card)
}

// GetCard returns one card.
func (h *Handlers) GetCard(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	cardID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid card id")
	}

	card, err := h.study.GetCard(c.UserContext(), cardID, claims.UserID)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(card)
}

// UpdateCard updates a card's content.
func (h *Handlers) UpdateCard(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	cardID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid card id")
	}

	var req CardRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	card, err := h.study.UpdateCard(c.UserContext(), cardID, claims.UserID, req.Front, req.Back, req.Tags)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(card)
}

// DeleteCard removes a card from its deck.
func (h *Handlers) DeleteCard(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	cardID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid card id")
	}

	if err := h.study.DeleteCard(c.UserContext(), cardID, claims.UserID); err != nil {
		return h.handleStudyError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListReviews returns the user's review history, newest first.
func (h *Handlers) ListReviews(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	reviews, err := h.study.ListReviews(c.UserContext(), claims.UserID)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(reviews)
}

// CreateReview records an answer and advances the card's schedule.
func (h *Handlers) CreateReview(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.CardID == 0 {
		return badRequest(c, "Card id is required")
	}

	review, err := h.study.CreateReview(c.UserContext(), req.CardID, claims.UserID, req.Remembered)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// GetSettings returns the user's scheduling settings, defaults included.
func (h *Handlers) GetSettings(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	settings, err := h.study.GetSettings(c.UserContext(), claims.UserID)
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(settings)
}

// SaveSettings upserts the user's scheduling settings.
func (h *Handlers) SaveSettings(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	var req SettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RememberMultiplier <= 0 || req.ForgotMultiplier <= 0 || req.MaxInterval <= 0 {
		return badRequest(c, "Multipliers and max interval must be positive")
	}

	settings, err := h.study.SaveSettings(c.UserContext(), &studydomain.UserSettings{
		UserID:             claims.UserID,
		RememberMultiplier: req.RememberMultiplier,
		ForgotMultiplier:   req.ForgotMultiplier,
		MaxInterval:        req.MaxInterval,
		DailyGoal:          req.DailyGoal,
	})
	if err != nil {
		return h.handleStudyError(c, err)
	}
	return c.JSON(settings)
}

// handleStudyError maps study service failures to HTTP responses.
func (h *Handlers) handleStudyError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, studydomain.ErrNotFound):
		return notFound(c, "Resource not found")
	case errors.Is(err, study.ErrNameRequired),
		errors.Is(err, study.ErrNotesTooLong),
		errors.Is(err, study.ErrCardContentRequired):
		return badRequest(c, err.Error())
	case errors.Is(err, study.ErrDeckAlreadyLinked):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	default:
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

// paramID parses a positive integer route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}
