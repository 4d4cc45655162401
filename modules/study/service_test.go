package study

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	domain "github.com/DodiBTW/RevisiaAPI/domain/study"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	path := filepath.Join(t.TempDir(), "study_test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo := domain.NewRepository(db)
	require.NoError(t, repo.Migrate())

	return NewService(repo, nil)
}

func TestService_CourseCRUD(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	course, err := s.CreateCourse(ctx, 1, "Biology", "Cell biology", "#00ff00")
	require.NoError(t, err)
	assert.NotZero(t, course.ID)
	assert.True(t, course.IsActive)

	_, err = s.CreateCourse(ctx, 1, "", "", "")
	assert.ErrorIs(t, err, ErrNameRequired)

	got, err := s.GetCourse(ctx, course.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Biology", got.Name)

	updated, err := s.UpdateCourse(ctx, course.ID, 1, "Biology II", "Genetics", "#0000ff", false)
	require.NoError(t, err)
	assert.Equal(t, "Biology II", updated.Name)
	assert.False(t, updated.IsActive)

	require.NoError(t, s.DeleteCourse(ctx, course.ID, 1))
	_, err = s.GetCourse(ctx, course.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_OwnershipScoping(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	course, err := s.CreateCourse(ctx, 1, "Mine", "", "")
	require.NoError(t, err)
	deck, err := s.CreateDeck(ctx, 1, "My deck", "", "")
	require.NoError(t, err)
	card, err := s.CreateCard(ctx, deck.ID, 1, "front", "back", nil)
	require.NoError(t, err)

	// Another user sees none of it; existence leaks as plain not-found.
	_, err = s.GetCourse(ctx, course.ID, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetDeck(ctx, deck.ID, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetCard(ctx, card.ID, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = s.DeleteDeck(ctx, deck.ID, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	courses, err := s.ListCourses(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestService_ChapterNotesLimit(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	course, err := s.CreateCourse(ctx, 1, "History", "", "")
	require.NoError(t, err)

	notes := strings.Repeat("a", maxNotesLength)
	chapter, err := s.CreateChapter(ctx, course.ID, 1, "Chapter 1", "", notes, 0)
	require.NoError(t, err)
	assert.Len(t, chapter.Notes, maxNotesLength)

	_, err = s.CreateChapter(ctx, course.ID, 1, "Chapter 2", "", notes+"a", 1)
	assert.ErrorIs(t, err, ErrNotesTooLong)

	_, err = s.UpdateChapter(ctx, chapter.ID, course.ID, 1, "Chapter 1", "", notes+"a", 0, true)
	assert.ErrorIs(t, err, ErrNotesTooLong)
}

func TestService_ChapterOrdering(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	course, err := s.CreateCourse(ctx, 1, "Math", "", "")
	require.NoError(t, err)

	for i, name := range []string{"third", "first", "second"} {
		order := []int{2, 0, 1}[i]
		_, err := s.CreateChapter(ctx, course.ID, 1, name, "", "", order)
		require.NoError(t, err)
	}

	chapters, err := s.ListChapters(ctx, course.ID, 1)
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	assert.Equal(t, "first", chapters[0].Name)
	assert.Equal(t, "second", chapters[1].Name)
	assert.Equal(t, "third", chapters[2].Name)
}

func TestService_DeckCardCount(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	deck, err := s.CreateDeck(ctx, 1, "Vocab", "", "")
	require.NoError(t, err)
	assert.Zero(t, deck.CardCount)

	first, err := s.CreateCard(ctx, deck.ID, 1, "hello", "bonjour", []string{"greetings"})
	require.NoError(t, err)
	_, err = s.CreateCard(ctx, deck.ID, 1, "goodbye", "au revoir", nil)
	require.NoError(t, err)

	got, err := s.GetDeck(ctx, deck.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CardCount)

	require.NoError(t, s.DeleteCard(ctx, first.ID, 1))
	got, err = s.GetDeck(ctx, deck.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CardCount)
}

func TestService_CardValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	deck, err := s.CreateDeck(ctx, 1, "Vocab", "", "")
	require.NoError(t, err)

	_, err = s.CreateCard(ctx, deck.ID, 1, "", "back", nil)
	assert.ErrorIs(t, err, ErrCardContentRequired)
	_, err = s.CreateCard(ctx, deck.ID, 1, "front", "", nil)
	assert.ErrorIs(t, err, ErrCardContentRequired)
}

func TestService_DeckCourseLinks(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	course, err := s.CreateCourse(ctx, 1, "Biology", "", "")
	require.NoError(t, err)
	deck, err := s.CreateDeck(ctx, 1, "Cells", "", "")
	require.NoError(t, err)

	require.NoError(t, s.AddDeckToCourse(ctx, course.ID, deck.ID, 1))
	assert.ErrorIs(t, s.AddDeckToCourse(ctx, course.ID, deck.ID, 1), ErrDeckAlreadyLinked)

	decks, err := s.ListCourseDecks(ctx, course.ID, 1)
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, deck.ID, decks[0].ID)

	require.NoError(t, s.RemoveDeckFromCourse(ctx, course.ID, deck.ID, 1))
	decks, err = s.ListCourseDecks(ctx, course.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, decks)
}

func TestService_ReviewScheduling(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	deck, err := s.CreateDeck(ctx, 1, "Vocab", "", "")
	require.NoError(t, err)
	card, err := s.CreateCard(ctx, deck.ID, 1, "hello", "bonjour", nil)
	require.NoError(t, err)

	// First remembered answer starts the interval at one day.
	review, err := s.CreateReview(ctx, card.ID, 1, true)
	require.NoError(t, err)
	assert.Zero(t, review.PreviousInterval)
	assert.Equal(t, 1.0, review.NewInterval)

	// Subsequent remembered answers multiply by the remember multiplier.
	review, err = s.CreateReview(ctx, card.ID, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 1.0, review.PreviousInterval)
	assert.InDelta(t, 1.8, review.NewInterval, 0.001)

	// Forgetting multiplies down.
	review, err = s.CreateReview(ctx, card.ID, 1, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, review.NewInterval, 0.001)

	got, err := s.GetCard(ctx, card.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ReviewCount)
	assert.InDelta(t, 0.9, got.Interval, 0.001)
	assert.False(t, got.NextReview.IsZero())

	reviews, err := s.ListReviews(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, reviews, 3)
}

func TestService_ReviewIntervalCap(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	deck, err := s.CreateDeck(ctx, 1, "Vocab", "", "")
	require.NoError(t, err)
	card, err := s.CreateCard(ctx, deck.ID, 1, "hello", "bonjour", nil)
	require.NoError(t, err)

	_, err = s.SaveSettings(ctx, &domain.UserSettings{
		UserID:             1,
		RememberMultiplier: 1000,
		ForgotMultiplier:   0.5,
		MaxInterval:        365,
		DailyGoal:          10,
	})
	require.NoError(t, err)

	_, err = s.CreateReview(ctx, card.ID, 1, true)
	require.NoError(t, err)
	review, err := s.CreateReview(ctx, card.ID, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 365.0, review.NewInterval)
}

func TestService_SettingsDefaults(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	// Without a saved row the defaults apply.
	settings, err := s.GetSettings(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1.8, settings.RememberMultiplier)
	assert.Equal(t, 0.5, settings.ForgotMultiplier)
	assert.Equal(t, 365, settings.MaxInterval)

	saved, err := s.SaveSettings(ctx, &domain.UserSettings{
		UserID:             7,
		RememberMultiplier: 2.5,
		ForgotMultiplier:   0.3,
		MaxInterval:        180,
		DailyGoal:          20,
	})
	require.NoError(t, err)
	assert.Equal(t, 2.5, saved.RememberMultiplier)

	settings, err = s.GetSettings(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2.5, settings.RememberMultiplier)
	assert.Equal(t, 180, settings.MaxInterval)

	// Saving again updates the same row.
	_, err = s.SaveSettings(ctx, &domain.UserSettings{
		UserID:             7,
		RememberMultiplier: 3.0,
		ForgotMultiplier:   0.4,
		MaxInterval:        90,
		DailyGoal:          5,
	})
	require.NoError(t, err)
	settings, err = s.GetSettings(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3.0, settings.RememberMultiplier)
}

func TestService_DeleteCourseCascades(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	course, err := s.CreateCourse(ctx, 1, "Biology", "", "")
	require.NoError(t, err)
	_, err = s.CreateChapter(ctx, course.ID, 1, "Cells", "", "", 0)
	require.NoError(t, err)
	deck, err := s.CreateDeck(ctx, 1, "Cells deck", "", "")
	require.NoError(t, err)
	require.NoError(t, s.AddDeckToCourse(ctx, course.ID, deck.ID, 1))

	require.NoError(t, s.DeleteCourse(ctx, course.ID, 1))

	// The deck survives; only the course, its chapters and the link go.
	got, err := s.GetDeck(ctx, deck.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Cells deck", got.Name)
}
