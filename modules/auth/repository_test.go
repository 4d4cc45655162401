package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	domain "github.com/DodiBTW/RevisiaAPI/domain/user"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite database with the auth schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "auth_test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Single connection serializes concurrent writers, matching how sqlite
	// behaves under load without tripping busy errors in tests.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.User{}, &domain.RefreshToken{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestToken(userID uint, hash string, prevHash *string, expiresAt time.Time) *domain.RefreshToken {
	now := time.Now().UTC()
	return &domain.RefreshToken{
		ID:            uuid.New().String(),
		UserID:        userID,
		TokenHash:     hash,
		PrevTokenHash: prevHash,
		CreatedAt:     now,
		ExpiresAt:     expiresAt,
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &domain.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == 0 {
		t.Error("Create() did not assign an ID")
	}

	tests := []struct {
		name     string
		identity string
	}{
		{name: "by username", identity: "alice"},
		{name: "by email", identity: "alice@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.FindByIdentity(ctx, tt.identity)
			if err != nil {
				t.Fatalf("FindByIdentity(%q) error = %v", tt.identity, err)
			}
			if found.ID != user.ID {
				t.Errorf("FindByIdentity(%q).ID = %v, want %v", tt.identity, found.ID, user.ID)
			}
		})
	}

	if _, err := repo.FindByIdentity(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("FindByIdentity(unknown) error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_DuplicateIdentity(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	first := &domain.User{Username: "bob", Email: "bob@example.com", PasswordHash: "h", CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name string
		user *domain.User
	}{
		{
			name: "same username",
			user: &domain.User{Username: "bob", Email: "other@example.com", PasswordHash: "h"},
		},
		{
			name: "same email",
			user: &domain.User{Username: "other", Email: "bob@example.com", PasswordHash: "h"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Create(ctx, tt.user); !errors.Is(err, ErrUserExists) {
				t.Errorf("Create() error = %v, want ErrUserExists", err)
			}
		})
	}
}

func TestRefreshTokenRepository_FindValidByHash(t *testing.T) {
	repo := NewRefreshTokenRepository(newTestDB(t))
	ctx := context.Background()
	future := time.Now().UTC().Add(time.Hour)
	past := time.Now().UTC().Add(-time.Hour)

	valid := newTestToken(1, "hash-valid", nil, future)
	expired := newTestToken(1, "hash-expired", nil, past)
	dead := newTestToken(1, "hash-dead", nil, future)
	dead.Invalidated = true

	for _, tok := range []*domain.RefreshToken{valid, expired, dead} {
		if err := repo.Create(ctx, tok); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if _, err := repo.FindValidByHash(ctx, "hash-valid"); err != nil {
		t.Errorf("FindValidByHash(valid) error = %v", err)
	}
	if _, err := repo.FindValidByHash(ctx, "hash-expired"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("FindValidByHash(expired) error = %v, want ErrTokenNotFound", err)
	}
	if _, err := repo.FindValidByHash(ctx, "hash-dead"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("FindValidByHash(invalidated) error = %v, want ErrTokenNotFound", err)
	}

	// FindByHash ignores state; the reuse path needs the spent record.
	if _, err := repo.FindByHash(ctx, "hash-dead"); err != nil {
		t.Errorf("FindByHash(invalidated) error = %v", err)
	}
}

func TestRefreshTokenRepository_InvalidateIsSingleWinner(t *testing.T) {
	repo := NewRefreshTokenRepository(newTestDB(t))
	ctx := context.Background()

	token := newTestToken(1, "hash-once", nil, time.Now().UTC().Add(time.Hour))
	if err := repo.Create(ctx, token); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	won, err := repo.Invalidate(ctx, token.ID)
	if err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if !won {
		t.Error("first Invalidate() = false, want true")
	}

	won, err = repo.Invalidate(ctx, token.ID)
	if err != nil {
		t.Fatalf("second Invalidate() error = %v", err)
	}
	if won {
		t.Error("second Invalidate() = true, want false")
	}

	stored, err := repo.FindByHash(ctx, "hash-once")
	if err != nil {
		t.Fatalf("FindByHash() error = %v", err)
	}
	if !stored.Invalidated {
		t.Error("token not marked invalidated")
	}
	if stored.InvalidatedAt == nil {
		t.Error("InvalidatedAt not set")
	}
}

func TestRefreshTokenRepository_FindSuccessor(t *testing.T) {
	repo := NewRefreshTokenRepository(newTestDB(t))
	ctx := context.Background()
	future := time.Now().UTC().Add(time.Hour)

	first := newTestToken(1, "hash-a", nil, future)
	firstHash := first.TokenHash
	second := newTestToken(1, "hash-b", &firstHash, future)

	for _, tok := range []*domain.RefreshToken{first, second} {
		if err := repo.Create(ctx, tok); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	succ, err := repo.FindSuccessor(ctx, "hash-a")
	if err != nil {
		t.Fatalf("FindSuccessor() error = %v", err)
	}
	if succ.TokenHash != "hash-b" {
		t.Errorf("FindSuccessor().TokenHash = %v, want hash-b", succ.TokenHash)
	}

	if _, err := repo.FindSuccessor(ctx, "hash-b"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("FindSuccessor(end of chain) error = %v, want ErrTokenNotFound", err)
	}
}
