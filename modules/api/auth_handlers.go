package api

import (
	"encoding/json"
	"log"
	"strings"

	domain "github.com/DodiBTW/RevisiaAPI/domain/user"
	"github.com/DodiBTW/RevisiaAPI/modules/auth"
	"github.com/DodiBTW/RevisiaAPI/modules/images"
	"github.com/DodiBTW/RevisiaAPI/modules/study"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API. Auth operations go through
// the service container; study and image operations call their services
// directly.
type Handlers struct {
	authContainer mono.ServiceContainer
	authAdapter   auth.AuthPort
	study         *study.Service
	images        *images.Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authContainer mono.ServiceContainer, authAdapter auth.AuthPort, studyService *study.Service, imageService *images.Service) *Handlers {
	return &Handlers{
		authContainer: authContainer,
		authAdapter:   authAdapter,
		study:         studyService,
		images:        imageService,
	}
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return badRequest(c, "Username, email, and password are required")
	}

	authReq := auth.RegisterRequest{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	}
	var resp auth.RegisterResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"register",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(RegisterResponse{
		ID:           resp.ID,
		Username:     resp.Username,
		Email:        resp.Email,
		CreatedAt:    resp.CreatedAt,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
	})
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Identity == "" || req.Password == "" {
		return badRequest(c, "Identity and password are required")
	}

	authReq := auth.LoginRequest{
		Identity:   req.Identity,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	}
	var resp auth.LoginResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"login",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
	})
}

// Refresh handles refresh token rotation.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	authReq := auth.RefreshRequest{
		RefreshToken: req.RefreshToken,
	}
	var resp auth.RefreshResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"refresh-token",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		// Every rotation failure looks the same from outside.
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired refresh token",
		})
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
	})
}

// Logout invalidates a refresh token. Always succeeds: logging out with an
// unknown or already spent token is a no-op.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	var req LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	authReq := auth.LogoutRequest{
		RefreshToken: req.RefreshToken,
	}
	var resp auth.LogoutResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"logout",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		log.Printf("[api] logout error: %v", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"logged_out": true,
	})
}

// Profile returns the current user's profile.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c)
	}

	user, err := h.authAdapter.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to retrieve user profile",
		})
	}

	return c.Status(fiber.StatusOK).JSON(ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

// currentUser reads the claims stored by the auth middleware.
func currentUser(c *fiber.Ctx) *domain.Claims {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	if !ok {
		return nil
	}
	return claims
}

// handleAuthError maps auth service failures to HTTP responses. Errors cross
// the request-reply boundary as strings, so matching is on known messages.
func (h *Handlers) handleAuthError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "invalid credentials"):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid credentials",
		})
	case strings.Contains(errStr, "username or email already taken"):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "Username or email already taken",
		})
	case strings.Contains(errStr, "are required"):
		return badRequest(c, "Username, email, and password are required")
	case strings.Contains(errStr, "password must be at least"):
		return badRequest(c, "Password must be at least 8 characters")
	case strings.Contains(errStr, "password must be at most"):
		return badRequest(c, "Password must be at most 72 characters")
	case strings.Contains(errStr, "database"):
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "service_unavailable",
			Message: "Service temporarily unavailable",
		})
	default:
		// Log the actual error but don't expose it to the client.
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: "User not authenticated",
	})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error:   "not_found",
		Message: message,
	})
}
