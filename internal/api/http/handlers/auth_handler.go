package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tikets-io/tikets/internal/api/dto"
	"github.com/tikets-io/tikets/internal/service"
	apperrors "github.com/tikets-io/tikets/pkg/util"
)

// AuthHandler exposes the admin login endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user := req.ResolvedUser()
	pass := req.ResolvedPass()
	if user == "" || pass == "" {
		return apperrors.NewValidationError("user and pass required", nil)
	}

	token, expiresAt, err := h.auth.Login(c.UserContext(), user, pass)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{Token: token, ExpiresAt: expiresAt})
}
