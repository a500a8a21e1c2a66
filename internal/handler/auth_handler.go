package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HenriqueSouzza/unidos-backend/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService          service.AuthService
	impersonationService service.ImpersonationService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, impersonationService service.ImpersonationService) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		impersonationService: impersonationService,
	}
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// BecomeRequest names the user to impersonate.
type BecomeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, newTokenResponse(token))
}

// Register godoc
// @Summary Register a new user
// @Description All failing fields are reported together.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration data"
// @Success 201 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	user, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusCreated, newUserResponse(user))
}

// Logout godoc
// @Summary Revoke the current token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), currentToken(c)); err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out successfully"})
}

// User godoc
// @Summary Get the authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/user [get]
func (h *AuthHandler) User(c echo.Context) error {
	user, err := h.authService.WhoAmI(c.Request().Context(), currentToken(c))
	if err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, newUserResponse(user))
}

// Become godoc
// @Summary Issue a token for another user
// @Description Only operators on the impersonation allow-list may call this.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BecomeRequest true "Target user"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/become [post]
func (h *AuthHandler) Become(c echo.Context) error {
	var req BecomeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	caller := CurrentUser(c)
	if caller == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	token, err := h.impersonationService.Become(c.Request().Context(), caller.Email, req.Email)
	if err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, newTokenResponse(token))
}
