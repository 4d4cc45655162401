package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/DodiBTW/RevisiaAPI/domain/user"
)

var (
	// ErrInvalidCredentials is the generic outcome for unknown identity and
	// wrong password alike, so login failures cannot enumerate users.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingFields is returned when a required registration or login
	// field is blank. Surfaced before any store access.
	ErrMissingFields = errors.New("username, email, and password are required")
	// ErrWeakPassword is returned when the password is too short.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when the password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
)

// Config holds the session policy. Remember-me sessions get a short access
// token backed by a long-lived refresh token; bare sessions get a longer
// access token and nothing to refresh with. The inverted-looking pairing is
// the intended policy: with silent refresh available, the access token itself
// can stay short.
type Config struct {
	JWT                      JWTConfig
	ShortAccessTokenDuration time.Duration
	LongAccessTokenDuration  time.Duration
	RefreshTokenDuration     time.Duration
}

// DefaultConfig returns the default session policy.
func DefaultConfig() Config {
	return Config{
		JWT:                      DefaultJWTConfig(),
		ShortAccessTokenDuration: 15 * time.Minute,
		LongAccessTokenDuration:  24 * time.Hour,
		RefreshTokenDuration:     30 * 24 * time.Hour,
	}
}

// AuthService orchestrates registration, login, refresh and logout. It holds
// no mutable state across requests; the refresh-token table is the only
// shared resource and the repository guards it.
type AuthService struct {
	users   *UserRepository
	hasher  *PasswordHasher
	jwt     *JWTManager
	refresh *RefreshTokenManager
	config  Config
}

// NewAuthService creates a new AuthService.
func NewAuthService(users *UserRepository, hasher *PasswordHasher, jwt *JWTManager, refresh *RefreshTokenManager, config Config) *AuthService {
	return &AuthService{
		users:   users,
		hasher:  hasher,
		jwt:     jwt,
		refresh: refresh,
		config:  config,
	}
}

// Register creates a new user account and logs it in.
func (s *AuthService) Register(ctx context.Context, username, email, password string, rememberMe bool) (*domain.User, *domain.TokenPair, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil, nil, ErrMissingFields
	}
	if len(password) < 8 {
		return nil, nil, ErrWeakPassword
	}
	if len(password) > 72 {
		return nil, nil, ErrPasswordTooLong
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueSession(ctx, user, rememberMe)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Login authenticates a user by username or email and returns tokens.
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string, rememberMe bool) (*domain.TokenPair, error) {
	if strings.TrimSpace(usernameOrEmail) == "" || strings.TrimSpace(password) == "" {
		return nil, ErrMissingFields
	}

	user, err := s.users.FindByIdentity(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user, rememberMe)
}

// Refresh exchanges a presented refresh token for a new token pair. The old
// refresh token is inert afterwards. Any failure sends the client back to
// login with a single generic outcome.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	newPlaintext, record, err := s.refresh.ValidateAndRotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	accessToken, err := s.jwt.Issue(user.ID, user.Username, s.config.ShortAccessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newPlaintext,
		ExpiresIn:    int64(s.config.ShortAccessTokenDuration.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// Logout invalidates the presented refresh token if it exists. Idempotent;
// an unknown or already-dead token is not an error. Access tokens already in
// the wild stay valid until natural expiry.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	record, err := s.refresh.repo.FindByHash(ctx, s.refresh.HashOf(refreshToken))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil
		}
		return err
	}
	return s.refresh.Invalidate(ctx, record.ID)
}

// ValidateToken validates an access token and returns claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, err
	}
	return &domain.Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// issueSession builds the token pair for a freshly authenticated user.
func (s *AuthService) issueSession(ctx context.Context, user *domain.User, rememberMe bool) (*domain.TokenPair, error) {
	validity := s.config.LongAccessTokenDuration
	if rememberMe {
		validity = s.config.ShortAccessTokenDuration
	}

	accessToken, err := s.jwt.Issue(user.ID, user.Username, validity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	pair := &domain.TokenPair{
		AccessToken: accessToken,
		ExpiresIn:   int64(validity.Seconds()),
		TokenType:   "Bearer",
	}

	if rememberMe {
		plaintext, _, err := s.refresh.Generate(ctx, user.ID, nil)
		if err != nil {
			return nil, err
		}
		pair.RefreshToken = plaintext
	}

	return pair, nil
}
