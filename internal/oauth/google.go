package oauth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/HenriqueSouzza/unidos-backend/internal/model"
)

// GoogleConfig holds the OAuth client registration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint overrides google.Endpoint, used by tests.
	Endpoint *oauth2.Endpoint
}

type idTokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// GoogleProvider implements IdentityProvider for Google sign-in.
type GoogleProvider struct {
	config   *oauth2.Config
	validate idTokenValidator
}

var _ IdentityProvider = (*GoogleProvider)(nil)

// NewGoogleProvider creates a Google provider.
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	endpoint := google.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		validate: idtoken.Validate,
	}
}

// Name returns the provider name stored on linked users.
func (p *GoogleProvider) Name() string {
	return model.ProviderGoogle
}

// AuthCodeURL returns the consent page URL carrying state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the code for tokens and reads the identity from the
// verified ID token.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Assertion, error) {
	if p.config.ClientID == "" {
		return nil, errors.New("google client id not configured")
	}
	if code == "" {
		return nil, errors.New("missing authorization code")
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("id_token missing from token response")
	}

	payload, err := p.validate(ctx, rawIDToken, p.config.ClientID)
	if err != nil {
		return nil, fmt.Errorf("validate id token: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("email not present in id token")
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, errors.New("email not verified by provider")
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return &Assertion{
		Provider:       model.ProviderGoogle,
		ExternalID:     payload.Subject,
		Email:          email,
		Name:           name,
		Avatar:         picture,
		AvatarOriginal: originalAvatar(picture),
	}, nil
}

var avatarSize = regexp.MustCompile(`=s\d+(-c)?$`)

// originalAvatar strips the size directive Google appends to profile pictures.
func originalAvatar(picture string) string {
	return avatarSize.ReplaceAllString(picture, "")
}
