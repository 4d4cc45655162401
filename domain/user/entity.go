package user

import (
	"time"
)

// User represents an account identity. Rows are created at registration and
// never mutated or deleted by the auth core.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;not null;type:text"`
	Email        string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	CreatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// RefreshToken is the persisted half of an opaque refresh credential. Only
// the SHA-256 hash of the value handed to the client is stored; the plaintext
// never touches the database. PrevTokenHash links a token to the one it
// replaced, forming the rotation lineage.
type RefreshToken struct {
	ID            string  `gorm:"primaryKey;type:text"`
	UserID        uint    `gorm:"not null;index"`
	TokenHash     string  `gorm:"uniqueIndex;not null;type:text"`
	PrevTokenHash *string `gorm:"type:text"`
	Invalidated   bool    `gorm:"not null;default:false"`
	InvalidatedAt *time.Time
	CreatedAt     time.Time
	ExpiresAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for the RefreshToken entity.
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// Valid reports whether the token can still be exchanged at the given instant.
func (t *RefreshToken) Valid(now time.Time) bool {
	return !t.Invalidated && now.Before(t.ExpiresAt)
}

// TokenPair is what a successful login/register/refresh hands to the client.
// RefreshToken is empty for bare (non remember-me) sessions; its presence is
// the observable signal of which session mode was granted.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims are the validated assertions extracted from an access token and
// threaded explicitly to downstream handlers.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}
