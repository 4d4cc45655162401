package study

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when an owner-scoped lookup finds nothing. A row
// owned by somebody else and a row that does not exist are the same outcome.
var ErrNotFound = errors.New("record not found")

// Repository provides database operations for the study domain.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new study repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate runs database migrations for all study tables.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&Course{},
		&Chapter{},
		&Deck{},
		&CourseDeck{},
		&Card{},
		&Review{},
		&UserSettings{},
	)
}

// ListCourses returns all courses owned by the user.
func (r *Repository) ListCourses(ctx context.Context, userID uint) ([]Course, error) {
	var courses []Course
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// GetCourse returns the course if the user owns it.
func (r *Repository) GetCourse(ctx context.Context, id, userID uint) (*Course, error) {
	var course Course
	err := r.db.WithContext(ctx).First(&course, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &course, nil
}

// CreateCourse persists a new course.
func (r *Repository) CreateCourse(ctx context.Context, course *Course) error {
	if err := r.db.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

// UpdateCourse saves an existing course.
func (r *Repository) UpdateCourse(ctx context.Context, course *Course) error {
	if err := r.db.WithContext(ctx).Save(course).Error; err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return nil
}

// DeleteCourse removes a course together with its chapters and deck links.
func (r *Repository) DeleteCourse(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Course{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete course: %w", err)
		}
		if err := tx.Where("course_id = ?", id).Delete(&Chapter{}).Error; err != nil {
			return fmt.Errorf("failed to delete chapters: %w", err)
		}
		if err := tx.Where("course_id = ?", id).Delete(&CourseDeck{}).Error; err != nil {
			return fmt.Errorf("failed to delete course-deck links: %w", err)
		}
		return nil
	})
}

// ListChapters returns the course's chapters in display order.
func (r *Repository) ListChapters(ctx context.Context, courseID uint) ([]Chapter, error) {
	var chapters []Chapter
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC, id ASC").
		Find(&chapters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// GetChapter returns a chapter within the given course.
func (r *Repository) GetChapter(ctx context.Context, id, courseID uint) (*Chapter, error) {
	var chapter Chapter
	err := r.db.WithContext(ctx).First(&chapter, "id = ? AND course_id = ?", id, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

// CreateChapter persists a new chapter.
func (r *Repository) CreateChapter(ctx context.Context, chapter *Chapter) error {
	if err := r.db.WithContext(ctx).Create(chapter).Error; err != nil {
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	return nil
}

// UpdateChapter saves an existing chapter.
func (r *Repository) UpdateChapter(ctx context.Context, chapter *Chapter) error {
	if err := r.db.WithContext(ctx).Save(chapter).Error; err != nil {
		return fmt.Errorf("failed to update chapter: %w", err)
	}
	return nil
}

// DeleteChapter removes a chapter.
func (r *Repository) DeleteChapter(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&Chapter{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	return nil
}

// ListDecks returns all decks owned by the user.
func (r *Repository) ListDecks(ctx context.Context, userID uint) ([]Deck, error) {
	var decks []Deck
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&decks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	return decks, nil
}

// GetDeck returns the deck if the user owns it.
func (r *Repository) GetDeck(ctx context.Context, id, userID uint) (*Deck, error) {
	var deck Deck
	err := r.db.WithContext(ctx).First(&deck, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	return &deck, nil
}

// CreateDeck persists a new deck.
func (r *Repository) CreateDeck(ctx context.Context, deck *Deck) error {
	if err := r.db.WithContext(ctx).Create(deck).Error; err != nil {
		return fmt.Errorf("failed to create deck: %w", err)
	}
	return nil
}

// UpdateDeck saves an existing deck.
func (r *Repository) UpdateDeck(ctx context.Context, deck *Deck) error {
	if err := r.db.WithContext(ctx).Save(deck).Error; err != nil {
		return fmt.Errorf("failed to update deck: %w", err)
	}
	return nil
}

// DeleteDeck removes a deck, its cards, and its course links.
func (r *Repository) DeleteDeck(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Deck{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete deck: %w", err)
		}
		if err := tx.Where("deck_id = ?", id).Delete(&Card{}).Error; err != nil {
			return fmt.Errorf("failed to delete cards: %w", err)
		}
		if err := tx.Where("deck_id = ?", id).Delete(&CourseDeck{}).Error; err != nil {
			return fmt.Errorf("failed to delete course-deck links: %w", err)
		}
		return nil
	})
}

// LinkDeckToCourse creates a course-deck link. Returns false when the link
// already exists.
func (r *Repository) LinkDeckToCourse(ctx context.Context, courseID, deckID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&CourseDeck{}).
		Where("course_id = ? AND deck_id = ?", courseID, deckID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check course-deck link: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	link := &CourseDeck{CourseID: courseID, DeckID: deckID}
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return false, fmt.Errorf("failed to link deck to course: %w", err)
	}
	return true, nil
}

// UnlinkDeckFromCourse removes a course-deck link.
func (r *Repository) UnlinkDeckFromCourse(ctx context.Context, courseID, deckID uint) error {
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND deck_id = ?", courseID, deckID).
		Delete(&CourseDeck{}).Error
	if err != nil {
		return fmt.Errorf("failed to unlink deck from course: %w", err)
	}
	return nil
}

// ListCourseDecks returns the decks linked into a course.
func (r *Repository) ListCourseDecks(ctx context.Context, courseID uint) ([]Deck, error) {
	var decks []Deck
	err := r.db.WithContext(ctx).
		Joins("JOIN course_decks ON course_decks.deck_id = decks.id").
		Where("course_decks.course_id = ?", courseID).
		Order("decks.id ASC").
		Find(&decks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list course decks: %w", err)
	}
	return decks, nil
}

// ListCards returns all cards in a deck.
func (r *Repository) ListCards(ctx context.Context, deckID uint) ([]Card, error) {
	var cards []Card
	err := r.db.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Order("id ASC").
		Find(&cards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

// GetCard returns a card by id.
func (r *Repository) GetCard(ctx context.Context, id uint) (*Card, error) {
	var card Card
	err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &card, nil
}

// CreateCard persists a new card and bumps the owning deck's card count.
func (r *Repository) CreateCard(ctx context.Context, card *Card) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(card).Error; err != nil {
			return fmt.Errorf("failed to create card: %w", err)
		}
		err := tx.Model(&Deck{}).
			Where("id = ?", card.DeckID).
			UpdateColumn("card_count", gorm.Expr("card_count + 1")).Error
		if err != nil {
			return fmt.Errorf("failed to update deck card count: %w", err)
		}
		return nil
	})
}

// UpdateCard saves an existing card.
func (r *Repository) UpdateCard(ctx context.Context, card *Card) error {
	if err := r.db.WithContext(ctx).Save(card).Error; err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	return nil
}

// DeleteCard removes a card and decrements the owning deck's card count.
func (r *Repository) DeleteCard(ctx context.Context, card *Card) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Card{}, card.ID).Error; err != nil {
			return fmt.Errorf("failed to delete card: %w", err)
		}
		err := tx.Model(&Deck{}).
			Where("id = ? AND card_count > 0", card.DeckID).
			UpdateColumn("card_count", gorm.Expr("card_count - 1")).Error
		if err != nil {
			return fmt.Errorf("failed to update deck card count: %w", err)
		}
		return nil
	})
}

// ListReviews returns all reviews logged by the user, newest first.
func (r *Repository) ListReviews(ctx context.Context, userID uint) ([]Review, error) {
	var reviews []Review
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("reviewed_at DESC, id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// CreateReview logs a review and saves the card's advanced scheduling state
// in one transaction.
func (r *Repository) CreateReview(ctx context.Context, review *Review, card *Card) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
		if err := tx.Save(card).Error; err != nil {
			return fmt.Errorf("failed to update card: %w", err)
		}
		return nil
	})
}

// GetSettings returns the user's settings, or ErrNotFound when they have
// never been saved.
func (r *Repository) GetSettings(ctx context.Context, userID uint) (*UserSettings, error) {
	var settings UserSettings
	err := r.db.WithContext(ctx).First(&settings, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings inserts or updates the user's settings row.
func (r *Repository) SaveSettings(ctx context.Context, settings *UserSettings) error {
	var existing UserSettings
	err := r.db.WithContext(ctx).First(&existing, "user_id = ?", settings.UserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := r.db.WithContext(ctx).Create(settings).Error; err != nil {
				return fmt.Errorf("failed to insert settings: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to check settings: %w", err)
	}
	settings.ID = existing.ID
	if err := r.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}
