package api

import "time"

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// LoginRequest represents a user login request. Identity may be a username
// or an email address.
type LoginRequest struct {
	Identity   string `json:"identity"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest represents a logout request.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents an authentication token response. RefreshToken
// is only present for remember-me sessions.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// RegisterResponse represents the created identity with its session tokens.
type RegisterResponse struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int64     `json:"expires_in"`
	TokenType    string    `json:"token_type"`
}

// ProfileResponse represents the current user's profile.
type ProfileResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CourseRequest represents a course create or update request.
type CourseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	IsActive    *bool  `json:"is_active"`
}

// ChapterRequest represents a chapter create or update request.
type ChapterRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
	OrderIndex  int    `json:"order_index"`
	IsActive    *bool  `json:"is_active"`
}

// DeckRequest represents a deck create or update request.
type DeckRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// CardRequest represents a card create or update request.
type CardRequest struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Tags  []string `json:"tags"`
}

// ReviewRequest represents a card answer submission.
type ReviewRequest struct {
	CardID     uint `json:"card_id"`
	Remembered bool `json:"remembered"`
}

// SettingsRequest represents a user settings update.
type SettingsRequest struct {
	RememberMultiplier float64 `json:"remember_multiplier"`
	ForgotMultiplier   float64 `json:"forgot_multiplier"`
	MaxInterval        int     `json:"max_interval"`
	DailyGoal          int     `json:"daily_goal"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
