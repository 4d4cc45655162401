package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	domain "github.com/DodiBTW/RevisiaAPI/domain/user"
	"github.com/google/uuid"
)

const (
	// refreshTokenBytes is the entropy drawn for each opaque refresh token.
	refreshTokenBytes = 64
	// maxLineageWalk bounds the forward walk when cascading an invalidation.
	maxLineageWalk = 64
)

// ErrInvalidRefreshToken is the single outcome for every refresh-token
// failure: unknown, expired, already rotated, reused. Callers cannot tell
// which check failed.
var ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

// RefreshTokenManager generates, validates and rotates opaque refresh tokens.
// Only hashes are persisted; the plaintext exists in memory for the single
// response that delivers it to the client.
type RefreshTokenManager struct {
	repo     *RefreshTokenRepository
	validity time.Duration
}

// NewRefreshTokenManager creates a manager issuing tokens with the given
// validity window.
func NewRefreshTokenManager(repo *RefreshTokenRepository, validity time.Duration) *RefreshTokenManager {
	return &RefreshTokenManager{
		repo:     repo,
		validity: validity,
	}
}

// HashOf returns the deterministic one-way transform of a plaintext token.
// Refresh tokens already carry 64 bytes of entropy, so a fast hash is fine
// here; the deliberate slowness of bcrypt is only needed for passwords.
func (m *RefreshTokenManager) HashOf(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Generate draws a fresh opaque token for the user and persists its record.
// prevHash links the record to the token it replaces, nil for a new chain.
// The returned plaintext is handed to the client exactly once.
func (m *RefreshTokenManager) Generate(ctx context.Context, userID uint, prevHash *string) (string, *domain.RefreshToken, error) {
	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	plaintext := base64.StdEncoding.EncodeToString(raw)

	now := time.Now().UTC()
	record := &domain.RefreshToken{
		ID:            uuid.New().String(),
		UserID:        userID,
		TokenHash:     m.HashOf(plaintext),
		PrevTokenHash: prevHash,
		Invalidated:   false,
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.validity),
	}

	if err := m.repo.Create(ctx, record); err != nil {
		return "", nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}
	return plaintext, record, nil
}

// ValidateAndRotate exchanges a presented plaintext token for its successor.
// Exactly one of any set of concurrent calls with the same plaintext wins;
// the rest get ErrInvalidRefreshToken. A token whose hash matches an already
// invalidated record is treated as a replay of a stolen token, and the whole
// lineage descending from it is invalidated.
//
// The mutation phase runs on a cancellation-free context so an aborted caller
// cannot leave the rotation half done (old token dead, successor missing).
func (m *RefreshTokenManager) ValidateAndRotate(ctx context.Context, plaintext string) (string, *domain.RefreshToken, error) {
	hash := m.HashOf(plaintext)

	current, err := m.repo.FindValidByHash(ctx, hash)
	if err != nil {
		if !errors.Is(err, ErrTokenNotFound) {
			return "", nil, err
		}
		// No valid record. If a spent record exists, this is a reuse.
		if spent, findErr := m.repo.FindByHash(ctx, hash); findErr == nil && spent.Invalidated {
			if cascadeErr := m.invalidateLineage(context.WithoutCancel(ctx), spent.TokenHash); cascadeErr != nil {
				return "", nil, cascadeErr
			}
		}
		return "", nil, ErrInvalidRefreshToken
	}

	mctx := context.WithoutCancel(ctx)

	won, err := m.repo.Invalidate(mctx, current.ID)
	if err != nil {
		return "", nil, err
	}
	if !won {
		// A concurrent presentation of the same token got there first.
		return "", nil, ErrInvalidRefreshToken
	}

	newPlaintext, record, err := m.Generate(mctx, current.UserID, &current.TokenHash)
	if err != nil {
		return "", nil, err
	}
	return newPlaintext, record, nil
}

// Invalidate marks a token record invalidated. Idempotent: invalidating an
// already-invalidated token is not an error.
func (m *RefreshTokenManager) Invalidate(ctx context.Context, id string) error {
	_, err := m.repo.Invalidate(ctx, id)
	return err
}

// invalidateLineage walks the rotation chain forward from the given hash and
// invalidates every descendant, killing the session the thief is holding.
func (m *RefreshTokenManager) invalidateLineage(ctx context.Context, fromHash string) error {
	hash := fromHash
	for range maxLineageWalk {
		next, err := m.repo.FindSuccessor(ctx, hash)
		if err != nil {
			if errors.Is(err, ErrTokenNotFound) {
				return nil
			}
			return err
		}
		if _, err := m.repo.Invalidate(ctx, next.ID); err != nil {
			return err
		}
		hash = next.TokenHash
	}
	return nil
}
