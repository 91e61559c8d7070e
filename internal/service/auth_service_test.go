package service

import (
	"context"
	"testing"

	"github.com/tikets-io/tikets/internal/auth"
	"github.com/tikets-io/tikets/internal/config"
)

func testAuthConfig(t *testing.T) config.AuthConfig {
	t.Helper()
	hash, err := auth.HashPassword("s3cret", 4)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		AdminUser:             "admin",
		AdminPasswordHash:     hash,
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := NewAuthService(testAuthConfig(t))

	token, expiresAt, err := svc.Login(context.Background(), "admin", "s3cret")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatalf("empty token or expiry")
	}

	claims, err := svc.TokenManager().ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.User != "admin" || claims.Subject != auth.SubjectAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(testAuthConfig(t))
	ctx := context.Background()

	if _, _, err := svc.Login(ctx, "admin", "wrong"); errorCode(err) != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED for bad password, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "root", "s3cret"); errorCode(err) != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED for bad user, got %v", err)
	}
}

func TestLoginPlaintextFallback(t *testing.T) {
	cfg := config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		AdminUser:             "admin",
		AdminPassword:         "admin123",
	}
	svc := NewAuthService(cfg)

	if _, _, err := svc.Login(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("Login error: %v", err)
	}
}
