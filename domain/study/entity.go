// Package study holds the flashcard domain: courses group chapters and link
// to decks, decks hold cards, cards carry their spaced-repetition state, and
// reviews log each answer. Every row is owned by a user and every query is
// scoped by that owner.
package study

import (
	"time"
)

// Course is a top-level grouping of chapters and linked decks.
type Course struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	Name        string `gorm:"not null;type:text" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Color       string `gorm:"type:text" json:"color,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
}

// TableName returns the table name for the Course entity.
func (Course) TableName() string {
	return "courses"
}

// Chapter is an ordered section within a course, with optional markdown notes.
type Chapter struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID    uint   `gorm:"not null;index" json:"course_id"`
	Name        string `gorm:"not null;type:text" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	OrderIndex  int    `gorm:"not null;default:0" json:"order_index"`
	Notes       string `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
}

// TableName returns the table name for the Chapter entity.
func (Chapter) TableName() string {
	return "chapters"
}

// Deck is a collection of cards owned by a user.
type Deck struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	Name        string `gorm:"not null;type:text" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Color       string `gorm:"type:text" json:"color"`
	CardCount   int    `gorm:"not null;default:0" json:"card_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for the Deck entity.
func (Deck) TableName() string {
	return "decks"
}

// CourseDeck links a deck into a course. A deck may belong to many courses.
type CourseDeck struct {
	ID       uint `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID uint `gorm:"not null;index;uniqueIndex:idx_course_deck" json:"course_id"`
	DeckID   uint `gorm:"not null;index;uniqueIndex:idx_course_deck" json:"deck_id"`
}

// TableName returns the table name for the CourseDeck entity.
func (CourseDeck) TableName() string {
	return "course_decks"
}

// Card is a single flashcard with its spaced-repetition scheduling state.
// Interval is measured in days.
type Card struct {
	ID          uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	DeckID      uint     `gorm:"not null;index" json:"deck_id"`
	Front       string   `gorm:"not null;type:text" json:"front"`
	Back        string   `gorm:"not null;type:text" json:"back"`
	Difficulty  float64  `gorm:"not null;default:0" json:"difficulty"`
	Interval    float64  `gorm:"not null;default:0" json:"interval"`
	NextReview  time.Time `json:"next_review"`
	ReviewCount int      `gorm:"not null;default:0" json:"review_count"`
	Tags        []string `gorm:"serializer:json" json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for the Card entity.
func (Card) TableName() string {
	return "cards"
}

// Review is an append-only log entry for one answered card.
type Review struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CardID           uint      `gorm:"not null;index" json:"card_id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	Remembered       bool      `gorm:"not null" json:"remembered"`
	ReviewedAt       time.Time `json:"reviewed_at"`
	PreviousInterval float64   `gorm:"not null;default:0" json:"previous_interval"`
	NewInterval      float64   `gorm:"not null;default:0" json:"new_interval"`
}

// TableName returns the table name for the Review entity.
func (Review) TableName() string {
	return "reviews"
}

// UserSettings holds per-user scheduling policy.
type UserSettings struct {
	ID                 uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             uint    `gorm:"not null;uniqueIndex" json:"user_id"`
	RememberMultiplier float64 `gorm:"not null;default:1.8" json:"remember_multiplier"`
	ForgotMultiplier   float64 `gorm:"not null;default:0.5" json:"forgot_multiplier"`
	MaxInterval        int     `gorm:"not null;default:365" json:"max_interval"`
	DailyGoal          int     `gorm:"not null;default:10" json:"daily_goal"`
}

// TableName returns the table name for the UserSettings entity.
func (UserSettings) TableName() string {
	return "user_settings"
}

// DefaultSettings returns the scheduling policy applied before a user has
// saved their own.
func DefaultSettings(userID uint) *UserSettings {
	return &UserSettings{
		UserID:             userID,
		RememberMultiplier: 1.8,
		ForgotMultiplier:   0.5,
		MaxInterval:        365,
		DailyGoal:          10,
	}
}
