package service

import (
	"context"
	"time"

	"github.com/tikets-io/tikets/internal/auth"
	"github.com/tikets-io/tikets/internal/config"
	apperrors "github.com/tikets-io/tikets/pkg/util"
)

// AuthService verifies the administrator credentials and issues tokens.
// There is a single admin identity; no user accounts, no sessions.
type AuthService struct {
	cfg      config.AuthConfig
	tokenMgr *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		cfg:      cfg,
		tokenMgr: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// Login checks the admin credentials and returns a signed token. A bcrypt
// hash takes precedence when configured; the plaintext password is a dev
// fallback only.
func (s *AuthService) Login(_ context.Context, user, pass string) (string, time.Time, error) {
	if !auth.ConstantTimeEquals(user, s.cfg.AdminUser) {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if s.cfg.AdminPasswordHash != "" {
		if err := auth.ComparePassword(s.cfg.AdminPasswordHash, pass); err != nil {
			return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
	} else if !auth.ConstantTimeEquals(pass, s.cfg.AdminPassword) {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, expiresAt, nil
}

// TokenManager exposes the manager for the admin middleware.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
