package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/yigit/moderator/internal/app/models"
)

func newTestService() *JWTService {
	return NewJWTService(JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour, TokenIssuer: "moderator.test"})
}

func TestGenerateAndValidate(t *testing.T) {
	s := newTestService()
	token, expiresIn, err := s.GenerateToken(&models.User{ID: 42, Email: "jdoe@example.com"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if expiresIn != 3600 {
		t.Fatalf("expected expiresIn 3600, got %d", expiresIn)
	}

	claims, err := s.ValidateAndExtractClaims(token)
	if err != nil {
		t.Fatalf("ValidateAndExtractClaims: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "jdoe@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateRejects(t *testing.T) {
	s := newTestService()
	token, _, _ := s.GenerateToken(&models.User{ID: 1, Email: "a@b.c"})

	t.Run("expired", func(t *testing.T) {
		expired := newTestService()
		expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := expired.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
			t.Fatalf("expected ErrExpiredToken, got %v", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour, TokenIssuer: "elsewhere"})
		if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "moderator.test"})
		if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := s.ValidateAndExtractClaims(""); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"abc", "abc", false},
		{"", "", true},
		{"Bearer ", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractBearerToken(tt.header)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ExtractBearerToken(%q): expected %q/%v, got %q/%v", tt.header, tt.want, tt.wantErr, got, err)
		}
	}
}
