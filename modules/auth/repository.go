package auth

import (
	"context"
	"errors"
	"time"

	domain "github.com/DodiBTW/RevisiaAPI/domain/user"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when the username or email is already taken.
	ErrUserExists = errors.New("username or email already taken")
	// ErrTokenNotFound is returned when no usable refresh token matches a hash.
	ErrTokenNotFound = errors.New("refresh token not found")
)

// UserRepository handles user persistence using GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create persists a new user. Returns ErrUserExists when the username or
// email is already taken.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("username = ? OR email = ?", user.Username, user.Email).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrUserExists
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		// The pre-check races with concurrent registrations; the unique
		// indexes are the authority.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return err
	}
	return nil
}

// FindByIdentity finds a user whose username or email equals the given value.
func (r *UserRepository) FindByIdentity(ctx context.Context, usernameOrEmail string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		First(&user, "username = ? OR email = ?", usernameOrEmail, usernameOrEmail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByID finds a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// RefreshTokenRepository handles refresh-token persistence using GORM.
type RefreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository.
func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		db: db,
	}
}

// Create persists a refresh-token record.
func (r *RefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// FindValidByHash returns the non-invalidated, non-expired record for the
// given hash, or ErrTokenNotFound.
func (r *RefreshTokenRepository) FindValidByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	err := r.db.WithContext(ctx).
		First(&token, "token_hash = ? AND invalidated = ? AND expires_at > ?",
			hash, false, time.Now().UTC()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

// FindByHash returns the record for the given hash regardless of state.
// Used to distinguish "never existed" from "already spent" on the reuse path.
func (r *RefreshTokenRepository) FindByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	err := r.db.WithContext(ctx).First(&token, "token_hash = ?", hash).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

// FindSuccessor returns the token whose lineage pointer references the given
// hash, or ErrTokenNotFound when the chain ends there.
func (r *RefreshTokenRepository) FindSuccessor(ctx context.Context, prevHash string) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	err := r.db.WithContext(ctx).First(&token, "prev_token_hash = ?", prevHash).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

// Invalidate marks the record invalidated if and only if it is not already.
// Returns true when this call was the one that flipped the flag. The
// conditional update is what makes concurrent rotations of the same token
// single-winner: the loser sees zero affected rows.
func (r *RefreshTokenRepository) Invalidate(ctx context.Context, id string) (bool, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("id = ? AND invalidated = ?", id, false).
		Updates(map[string]any{
			"invalidated":    true,
			"invalidated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
