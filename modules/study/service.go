package study

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	domain "github.com/DodiBTW/RevisiaAPI/domain/study"
	"github.com/DodiBTW/RevisiaAPI/modules/cache"
)

const maxNotesLength = 10000

var (
	// ErrNotFound mirrors the repository outcome for handlers.
	ErrNotFound = domain.ErrNotFound
	// ErrNameRequired is returned when a course, chapter or deck has no name.
	ErrNameRequired = errors.New("name is required")
	// ErrNotesTooLong is returned when chapter notes exceed the cap.
	ErrNotesTooLong = errors.New("notes cannot exceed 10,000 characters")
	// ErrCardContentRequired is returned when a card has an empty side.
	ErrCardContentRequired = errors.New("card front and back are required")
	// ErrDeckAlreadyLinked is returned when a deck is already in the course.
	ErrDeckAlreadyLinked = errors.New("deck is already assigned to this course")
)

// Service implements the flashcard operations. Every method takes the
// authenticated user id and scopes all access by it; that scoping is the
// security boundary between users.
type Service struct {
	repo  *domain.Repository
	cache *cache.Cache
}

// NewService creates a new study service. The cache may be nil, in which
// case every read goes to the database.
func NewService(repo *domain.Repository, c *cache.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: c,
	}
}

// SetCache wires the shared cache into the service after startup.
func (s *Service) SetCache(c *cache.Cache) {
	s.cache = c
}

// ListCourses returns the user's courses, cache-aside.
func (s *Service) ListCourses(ctx context.Context, userID uint) ([]domain.Course, error) {
	key := fmt.Sprintf("courses:%d", userID)

	var courses []domain.Course
	if s.cacheGet(ctx, key, &courses) {
		return courses, nil
	}

	courses, err := s.repo.ListCourses(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, courses)
	return courses, nil
}

// GetCourse returns one course owned by the user.
func (s *Service) GetCourse(ctx context.Context, id, userID uint) (*domain.Course, error) {
	return s.repo.GetCourse(ctx, id, userID)
}

// CreateCourse creates a course for the user.
func (s *Service) CreateCourse(ctx context.Context, userID uint, name, description, color string) (*domain.Course, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	now := time.Now().UTC()
	course := &domain.Course{
		UserID:      userID,
		Name:        name,
		Description: description,
		Color:       color,
		CreatedAt:   now,
		UpdatedAt:   now,
		IsActive:    true,
	}
	if err := s.repo.CreateCourse(ctx, course); err != nil {
		return nil, err
	}
	s.cacheInvalidate(ctx, fmt.Sprintf("courses:%d", userID))
	return course, nil
}

// UpdateCourse patches a course the user owns. Creation time and ownership
// are preserved from the stored row.
func (s *Service) UpdateCourse(ctx context.Context, id, userID uint, name, description, color string, isActive bool) (*domain.Course, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	course, err := s.repo.GetCourse(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	course.Name = name
	course.Description = description
	course.Color = color
	course.IsActive = isActive
	course.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateCourse(ctx, course); err != nil {
		return nil, err
	}
	s.cacheInvalidate(ctx, fmt.Sprintf("courses:%d", userID))
	return course, nil
}

// DeleteCourse removes a course the user owns, cascading chapters and links.
func (s *Service) DeleteCourse(ctx context.Context, id, userID uint) error {
	if _, err := s.repo.GetCourse(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteCourse(ctx, id); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, fmt.Sprintf("courses:%d", userID))
	return nil
}

// ListChapters returns the chapters of a course the user owns.
func (s *Service) ListChapters(ctx context.Context, courseID, userID uint) ([]domain.Chapter, error) {
	if _, err := s.repo.GetCourse(ctx, courseID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListChapters(ctx, courseID)
}

// CreateChapter adds a chapter to a course the user owns.
func (s *Service) CreateChapter(ctx context.Context, courseID, userID uint, name, description, notes string, orderIndex int) (*domain.Chapter, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if len(notes) > maxNotesLength {
		return nil, ErrNotesTooLong
	}
	if _, err := s.repo.GetCourse(ctx, courseID, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	chapter := &domain.Chapter{
		CourseID:    courseID,
		Name:        name,
		Description: description,
		Notes:       notes,
		OrderIndex:  orderIndex,
		CreatedAt:   now,
		UpdatedAt:   now,
		IsActive:    true,
	}
	if err := s.repo.CreateChapter(ctx, chapter); err != nil {
		return nil, err
	}
	return chapter, nil
}

// UpdateChapter patches a chapter within a course the user owns.
func (s *Service) UpdateChapter(ctx context.Context, chapterID, courseID, userID uint, name, description, notes string, orderIndex int, isActive bool) (*domain.Chapter, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if len(notes) > maxNotesLength {
		return nil, ErrNotesTooLong
	}
	if _, err := s.repo.GetCourse(ctx, courseID, userID); err != nil {
		return nil, err
	}

	chapter, err := s.repo.GetChapter(ctx, chapterID, courseID)
	if err != nil {
		return nil, err
	}

	chapter.Name = name
	chapter.Description = description
	chapter.Notes = notes
	chapter.OrderIndex = orderIndex
	chapter.IsActive = isActive
	chapter.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateChapter(ctx, chapter); err != nil {
		return nil, err
	}
	return chapter, nil
}

// DeleteChapter removes a chapter from a course the user owns.
func (s *Service) DeleteChapter(ctx context.Context, chapterID, courseID, userID uint) error {
	if _, err := s.repo.GetCourse(ctx, courseID, userID); err != nil {
		return err
	}
	if _, err := s.repo.GetChapter(ctx, chapterID, courseID); err != nil {
		return err
	}
	return s.repo.DeleteChapter(ctx, chapterID)
}

// ListDecks returns the user's decks, cache-aside.
func (s *Service) ListDecks(ctx context.Context, userID uint) ([]domain.Deck, error) {
	key := fmt.Sprintf("decks:%d", userID)

	var decks []domain.Deck
	if s.cacheGet(ctx, key, &decks) {
		return decks, nil
	}

	decks, err := s.repo.ListDecks(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, decks)
	return decks, nil
}

// GetDeck returns one deck owned by the user.
func (s *Service) GetDeck(ctx context.Context, id, userID uint) (*domain.Deck, error) {
	return s.repo.GetDeck(ctx, id, userID)
}

// CreateDeck creates a deck for the user.
func (s *Service) CreateDeck(ctx context.Context, userID uint, name, description, color string) (*domain.Deck, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	now := time.Now().UTC()
	deck := &domain.Deck{
		UserID:      userID,
		Name:        name,
		Description: description,
		Color:       color,
		CardCount:   0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateDeck(ctx, deck); err != nil {
		return nil, err
	}
	s.cacheInvalidate(ctx, fmt.Sprintf("decks:%d", userID))
	return deck, nil
}

// UpdateDeck patches a deck the user owns. Card count and creation time are
// preserved from the stored row.
func (s *Service) UpdateDeck(ctx context.Context, id, userID uint, name, description, color string) (*domain.Deck, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	deck, err := s.repo.GetDeck(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	deck.Name = name
	deck.Description = description
	deck.Color = color
	deck.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateDeck(ctx, deck); err != nil {
		return nil, err
	}
	s.cacheInvalidate(ctx, fmt.Sprintf("decks:%d", userID))
	return deck, nil
}

// DeleteDeck removes a deck the user owns, cascading its cards and links.
func (s *Service) DeleteDeck(ctx context.Context, id, userID uint) error {
	if _, err := s.repo.GetDeck(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteDeck(ctx, id); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, fmt.Sprintf("decks:%d", userID))
	return nil
}

// AddDeckToCourse links a deck into a course; the user must own both.
func (s *Service) AddDeckToCourse(ctx context.Context, courseID, deckID, userID uint) error {
	if _, err := s.repo.GetCourse(ctx, courseID, userID); err != nil {
		return err
	}
	if _, err := s.repo.GetDeck(ctx, deckID, userID); err != nil {
		return err
	}

	linked, err := s.repo.LinkDeckToCourse(ctx, courseID, deckID)
	if err != nil {
		return err
	}
	if !linked {
		return ErrDeckAlreadyLinked
	}
	return nil
}

// RemoveDeckFromCourse unlinks a deck from a course the user owns.
func (s *Service) RemoveDeckFromCourse(ctx context.Context, courseID, deckID, userID uint) error {
	if _, err := s.repo.GetCourse(ctx, courseID, userID); err != nil {
		return err
	}
	return s.repo.UnlinkDeckFromCourse(ctx, courseID, deckID)
}

// ListCourseDecks returns the decks linked into a course the user owns.
func (s *Service) ListCourseDecks(ctx context.Context, courseID, userID uint) ([]domain.Deck, error) {
	if _, err := s.repo.GetCourse(ctx, courseID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListCourseDecks(ctx, courseID)
}

// ListDeckCards returns the cards of a deck the user owns.
func (s *Service) ListDeckCards(ctx context.Context, deckID, userID uint) ([]domain.Card, error) {
	if _, err := s.repo.GetDeck(ctx, deckID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListCards(ctx, deckID)
}

// GetCard returns a card from a deck the user owns.
func (s *Service) GetCard(ctx context.Context, cardID, userID uint) (*domain.Card, error) {
	card, err := s.repo.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	// Ownership runs through the deck; a card in someone else's deck is
	// indistinguishable from a missing one.
	if _, err := s.repo.GetDeck(ctx, card.DeckID, userID); err != nil {
		return nil, err
	}
	return card, nil
}

// CreateCard adds a card to a deck the user owns.
func (s *Service) CreateCard(ctx context.Context, deckID, userID uint, front, back string, tags []string) (*domain.Card, error) {
	if front == "" || back == "" {
		return nil, ErrCardContentRequired
	}
	if _, err := s.repo.GetDeck(ctx, deckID, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	card := &domain.Card{
		DeckID:     deckID,
		Front:      front,
		Back:       back,
		Tags:       tags,
		NextReview: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateCard(ctx, card); err != nil {
		return nil, err
	}
	s.cacheInvalidate(ctx, fmt.Sprintf("decks:%d", userID))
	return card, nil
}

// UpdateCard patches a card's content in a deck the user owns.
func (s *Service) UpdateCard(ctx context.Context, cardID, userID uint, front, back string, tags []string) (*domain.Card, error) {
	if front == "" || back == "" {
		return nil, ErrCardContentRequired
	}

	card, err := s.GetCard(ctx, cardID, userID)
	if err != nil {
		return nil, err
	}

	card.Front = front
	card.Back = back
	card.Tags = tags
	card.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// DeleteCard removes a card from a deck the user owns.
func (s *Service) DeleteCard(ctx context.Context, cardID, userID uint) error {
	card, err := s.GetCard(ctx, cardID, userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCard(ctx, card); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, fmt.Sprintf("decks:%d", userID))
	return nil
}

// ListReviews returns the user's review log.
func (s *Service) ListReviews(ctx context.Context, userID uint) ([]domain.Review, error) {
	return s.repo.ListReviews(ctx, userID)
}

// CreateReview logs an answer for a card the user owns and advances the
// card's schedule using the owner's settings: remembered multiplies the
// interval up, forgotten multiplies it down, capped at the max interval.
func (s *Service) CreateReview(ctx context.Context, cardID, userID uint, remembered bool) (*domain.Review, error) {
	card, err := s.GetCard(ctx, cardID, userID)
	if err != nil {
		return nil, err
	}

	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	previous := card.Interval
	next := nextInterval(previous, remembered, settings)

	now := time.Now().UTC()
	card.Interval = next
	card.NextReview = now.Add(time.Duration(next * 24 * float64(time.Hour)))
	card.ReviewCount++
	card.UpdatedAt = now

	review := &domain.Review{
		CardID:           card.ID,
		UserID:           userID,
		Remembered:       remembered,
		ReviewedAt:       now,
		PreviousInterval: previous,
		NewInterval:      next,
	}

	if err := s.repo.CreateReview(ctx, review, card); err != nil {
		return nil, err
	}
	return review, nil
}

// GetSettings returns the user's settings, falling back to defaults when
// none are saved. Cache-aside.
func (s *Service) GetSettings(ctx context.Context, userID uint) (*domain.UserSettings, error) {
	key := fmt.Sprintf("settings:%d", userID)

	var cached domain.UserSettings
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	settings, err := s.repo.GetSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.DefaultSettings(userID), nil
		}
		return nil, err
	}
	s.cacheSet(ctx, key, settings)
	return settings, nil
}

// SaveSettings upserts the user's settings.
func (s *Service) SaveSettings(ctx context.Context, settings *domain.UserSettings) (*domain.UserSettings, error) {
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	s.cacheInvalidate(ctx, fmt.Sprintf("settings:%d", settings.UserID))
	return settings, nil
}

// nextInterval computes a card's new interval in days.
func nextInterval(previous float64, remembered bool, settings *domain.UserSettings) float64 {
	var next float64
	if remembered {
		if previous <= 0 {
			next = 1
		} else {
			next = previous * settings.RememberMultiplier
		}
	} else {
		next = previous * settings.ForgotMultiplier
	}
	if max := float64(settings.MaxInterval); next > max {
		next = max
	}
	return next
}

// cacheGet reads through the optional cache; a miss or error is a miss.
func (s *Service) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		log.Printf("[study] cache get failed for %s: %v", key, err)
		return false
	}
	return found
}

// cacheSet writes through the optional cache, best effort.
func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		log.Printf("[study] cache set failed for %s: %v", key, err)
	}
}

// cacheInvalidate drops a key from the optional cache, best effort.
func (s *Service) cacheInvalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		log.Printf("[study] cache invalidate failed for %s: %v", key, err)
	}
}
