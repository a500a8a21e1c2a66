package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apperrors "github.com/HenriqueSouzza/unidos-backend/internal/errors"
	"github.com/HenriqueSouzza/unidos-backend/internal/model"
)

const (
	contextUserKey  = "auth_user"
	contextTokenKey = "auth_token"
)

// TokenValidator resolves a bearer token to its user.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*model.User, error)
}

// BearerAuth authenticates requests with an opaque token in the
// Authorization header and stores the user on the context.
func BearerAuth(tokens TokenValidator) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(key string, c echo.Context) (bool, error) {
			user, err := tokens.Validate(c.Request().Context(), key)
			if err != nil {
				return false, err
			}
			c.Set(contextUserKey, user)
			c.Set(contextTokenKey, key)
			return true, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			var missing *middleware.ErrKeyAuthMissing
			if errors.As(err, &missing) {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: "missing bearer token",
					Code:  "UNAUTHENTICATED",
				})
			}
			return errorResponse(err)
		},
	})
}

// CurrentUser returns the authenticated user, or nil outside BearerAuth.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(contextUserKey).(*model.User)
	return user
}

func currentToken(c echo.Context) string {
	token, _ := c.Get(contextTokenKey).(string)
	return token
}
