package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/HenriqueSouzza/unidos-backend/internal/auth"
	apperrors "github.com/HenriqueSouzza/unidos-backend/internal/errors"
	"github.com/HenriqueSouzza/unidos-backend/internal/metrics"
	"github.com/HenriqueSouzza/unidos-backend/internal/model"
	"github.com/HenriqueSouzza/unidos-backend/internal/oauth"
	"github.com/HenriqueSouzza/unidos-backend/internal/repository"
)

// StateManager issues and verifies OAuth state values.
type StateManager interface {
	Issue() (string, error)
	Verify(state string) error
}

var _ StateManager = (*auth.StateSigner)(nil)

// ExternalLoginResult is returned after a successful external sign-in.
type ExternalLoginResult struct {
	Token          *auth.IssuedToken
	User           *model.User
	Avatar         string
	AvatarOriginal string
}

// ExternalIdentityService links external provider identities to local users.
type ExternalIdentityService interface {
	RedirectURL(ctx context.Context) (string, error)
	Callback(ctx context.Context, code, state string) (*ExternalLoginResult, error)
	LoginWithExternalIdentity(ctx context.Context, assertion *oauth.Assertion) (*ExternalLoginResult, error)
}

type externalIdentityService struct {
	provider      oauth.IdentityProvider
	states        StateManager
	users         repository.UserRepository
	hasher        auth.PasswordHasher
	issuer        TokenIssuer
	allowedDomain string
	metrics       metrics.Recorder
	logger        *slog.Logger
}

// NewExternalIdentityService creates the service. allowedDomain restricts
// sign-in to that domain and its subdomains.
func NewExternalIdentityService(
	provider oauth.IdentityProvider,
	states StateManager,
	users repository.UserRepository,
	hasher auth.PasswordHasher,
	issuer TokenIssuer,
	allowedDomain string,
	recorder metrics.Recorder,
	logger *slog.Logger,
) ExternalIdentityService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &externalIdentityService{
		provider:      provider,
		states:        states,
		users:         users,
		hasher:        hasher,
		issuer:        issuer,
		allowedDomain: strings.ToLower(strings.TrimPrefix(strings.TrimSpace(allowedDomain), "@")),
		metrics:       recorder,
		logger:        logger,
	}
}

// RedirectURL returns the provider consent URL with a fresh signed state.
func (s *externalIdentityService) RedirectURL(ctx context.Context) (string, error) {
	state, err := s.states.Issue()
	if err != nil {
		return "", fmt.Errorf("issue state: %w", err)
	}
	return s.provider.AuthCodeURL(state), nil
}

// Callback verifies state, exchanges the code and signs the user in. Every
// upstream failure is reported as ErrExternalAuthFailed.
func (s *externalIdentityService) Callback(ctx context.Context, code, state string) (*ExternalLoginResult, error) {
	if err := s.states.Verify(state); err != nil {
		s.metrics.RecordExternalLogin("external_auth_failed")
		s.logger.Info("external login rejected", slog.String("reason", "invalid state"))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExternalAuthFailed, err)
	}

	assertion, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.metrics.RecordExternalLogin("external_auth_failed")
		s.logger.Warn("external login exchange failed",
			slog.String("provider", s.provider.Name()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExternalAuthFailed, err)
	}

	return s.LoginWithExternalIdentity(ctx, assertion)
}

// LoginWithExternalIdentity finds or creates the user for an assertion and
// issues a token for it.
func (s *externalIdentityService) LoginWithExternalIdentity(ctx context.Context, assertion *oauth.Assertion) (*ExternalLoginResult, error) {
	if assertion == nil || assertion.Email == "" || assertion.ExternalID == "" {
		s.metrics.RecordExternalLogin("external_auth_failed")
		return nil, fmt.Errorf("%w: incomplete assertion", apperrors.ErrExternalAuthFailed)
	}
	if !emailInDomain(assertion.Email, s.allowedDomain) {
		s.metrics.RecordExternalLogin("domain_not_allowed")
		s.logger.Info("external login rejected",
			slog.String("reason", "domain not allowed"),
			slog.String("email", assertion.Email),
		)
		return nil, apperrors.ErrDomainNotAllowed
	}

	user, created, err := s.findOrCreate(ctx, assertion)
	if err != nil {
		s.metrics.RecordExternalLogin("error")
		return nil, err
	}

	token, err := s.issuer.Issue(ctx, user, model.TokenOriginExternal)
	if err != nil {
		s.metrics.RecordExternalLogin("error")
		return nil, fmt.Errorf("issue token: %w", err)
	}

	outcome := "existing_user"
	if created {
		outcome = "created_user"
	}
	s.metrics.RecordExternalLogin(outcome)
	s.metrics.RecordTokenIssued(string(model.TokenOriginExternal))
	s.logger.Info("external login",
		slog.String("user_id", user.ID.String()),
		slog.String("provider", assertion.Provider),
		slog.Bool("created", created),
	)

	return &ExternalLoginResult{
		Token:          token,
		User:           user,
		Avatar:         assertion.Avatar,
		AvatarOriginal: assertion.AvatarOriginal,
	}, nil
}

func (s *externalIdentityService) findOrCreate(ctx context.Context, assertion *oauth.Assertion) (*model.User, bool, error) {
	user, err := s.users.FindByEmail(ctx, assertion.Email)
	if err == nil {
		if err := s.linkIfUnlinked(ctx, user, assertion); err != nil {
			return nil, false, err
		}
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	placeholder, err := auth.RandomPassword()
	if err != nil {
		return nil, false, err
	}
	hash, err := s.hasher.Hash(placeholder)
	if err != nil {
		return nil, false, err
	}

	user = &model.User{
		Name:         assertion.Name,
		Email:        model.NormalizeEmail(assertion.Email),
		PasswordHash: hash,
	}
	user.LinkProvider(assertion.Provider, assertion.ExternalID)

	err = s.users.Create(ctx, user)
	if errors.Is(err, apperrors.ErrEmailTaken) {
		// A concurrent sign-in created the user first; use that record.
		existing, findErr := s.users.FindByEmail(ctx, assertion.Email)
		if findErr != nil {
			return nil, false, fmt.Errorf("find user after conflict: %w", findErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return user, true, nil
}

// linkIfUnlinked attaches provider fields only when the user has none.
func (s *externalIdentityService) linkIfUnlinked(ctx context.Context, user *model.User, assertion *oauth.Assertion) error {
	if user.HasProvider() {
		return nil
	}
	user.LinkProvider(assertion.Provider, assertion.ExternalID)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("link provider: %w", err)
	}
	return nil
}

// emailInDomain reports whether the host part of email equals domain or is
// a subdomain of it.
func emailInDomain(email, domain string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || domain == "" {
		return false
	}
	host := strings.ToLower(strings.TrimSpace(email[at+1:]))
	return host == domain || strings.HasSuffix(host, "."+domain)
}
