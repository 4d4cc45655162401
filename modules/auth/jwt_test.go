package auth

import (
	"errors"
	"testing"
	"time"
)

func testJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey: "test-secret-key",
		Issuer:    "test-issuer",
		Audience:  "test-audience",
	}
}

func TestJWTManager_IssueAndValidate(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	token, err := manager.Issue(42, "alice", 15*time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("claims.UserID = %v, want 42", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("claims.Username = %v, want alice", claims.Username)
	}
	if claims.Subject != "42" {
		t.Errorf("claims.Subject = %v, want 42", claims.Subject)
	}
	if claims.Issuer != "test-issuer" {
		t.Errorf("claims.Issuer = %v, want test-issuer", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("claims.ID (jti) is empty")
	}
}

func TestJWTManager_UniqueTokenIDs(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	first, err := manager.Issue(1, "alice", time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	second, err := manager.Issue(1, "alice", time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	c1, err := manager.Validate(first)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	c2, err := manager.Validate(second)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if c1.ID == c2.ID {
		t.Error("two tokens share the same jti")
	}
}

func TestJWTManager_ValidityWindow(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	token, err := manager.Issue(1, "alice", 30*time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if lifetime != 30*time.Minute {
		t.Errorf("token lifetime = %v, want 30m", lifetime)
	}
}

func TestJWTManager_RejectsInvalidTokens(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	wrongKey := NewJWTManager(JWTConfig{
		SecretKey: "a-different-secret",
		Issuer:    "test-issuer",
		Audience:  "test-audience",
	})
	wrongIssuer := NewJWTManager(JWTConfig{
		SecretKey: "test-secret-key",
		Issuer:    "someone-else",
		Audience:  "test-audience",
	})
	wrongAudience := NewJWTManager(JWTConfig{
		SecretKey: "test-secret-key",
		Issuer:    "test-issuer",
		Audience:  "another-app",
	})

	issue := func(m *JWTManager, validity time.Duration) string {
		tok, err := m.Issue(1, "alice", validity)
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		return tok
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "random string", token: "not.a.valid.token"},
		{name: "malformed jwt", token: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid"},
		{name: "wrong secret", token: issue(wrongKey, time.Minute)},
		{name: "wrong issuer", token: issue(wrongIssuer, time.Minute)},
		{name: "wrong audience", token: issue(wrongAudience, time.Minute)},
		{name: "expired", token: issue(manager, -time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.Validate(tt.token)
			if err == nil {
				t.Fatal("Validate() accepted an invalid token")
			}
			// Every failure mode collapses into the same opaque error.
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
