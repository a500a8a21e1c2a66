package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/HenriqueSouzza/unidos-backend/internal/errors"
	"github.com/HenriqueSouzza/unidos-backend/internal/service"
)

// OAuthHandler handles external identity provider endpoints.
type OAuthHandler struct {
	externalService service.ExternalIdentityService
}

// NewOAuthHandler creates a new OAuth handler.
func NewOAuthHandler(externalService service.ExternalIdentityService) *OAuthHandler {
	return &OAuthHandler{externalService: externalService}
}

// RedirectResponse carries the provider consent URL.
type RedirectResponse struct {
	URL string `json:"url"`
}

// ExternalLoginResponse is returned after a successful provider callback.
type ExternalLoginResponse struct {
	TokenResponse
	User           UserResponse `json:"user"`
	Avatar         string       `json:"avatar,omitempty"`
	AvatarOriginal string       `json:"avatar_original,omitempty"`
}

// GoogleRedirect godoc
// @Summary Get the Google consent URL
// @Tags oauth
// @Produce json
// @Success 200 {object} RedirectResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/google/redirect [get]
func (h *OAuthHandler) GoogleRedirect(c echo.Context) error {
	url, err := h.externalService.RedirectURL(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, RedirectResponse{URL: url})
}

// GoogleCallback godoc
// @Summary Complete Google sign-in
// @Tags oauth
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "State returned by the redirect"
// @Success 200 {object} ExternalLoginResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/google/callback [get]
func (h *OAuthHandler) GoogleCallback(c echo.Context) error {
	if providerErr := c.QueryParam("error"); providerErr != "" {
		return errorResponse(fmt.Errorf("%w: provider returned %s", apperrors.ErrExternalAuthFailed, providerErr))
	}

	result, err := h.externalService.Callback(c.Request().Context(), c.QueryParam("code"), c.QueryParam("state"))
	if err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, ExternalLoginResponse{
		TokenResponse:  newTokenResponse(result.Token),
		User:           newUserResponse(result.User),
		Avatar:         result.Avatar,
		AvatarOriginal: result.AvatarOriginal,
	})
}
