package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/HenriqueSouzza/unidos-backend/internal/auth"
	apperrors "github.com/HenriqueSouzza/unidos-backend/internal/errors"
	"github.com/HenriqueSouzza/unidos-backend/internal/metrics"
	"github.com/HenriqueSouzza/unidos-backend/internal/model"
	"github.com/HenriqueSouzza/unidos-backend/internal/repository"
)

// TokenIssuer mints, revokes and validates bearer tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, user *model.User, origin model.TokenOrigin) (*auth.IssuedToken, error)
	Revoke(ctx context.Context, token string) error
	Validate(ctx context.Context, token string) (*model.User, error)
}

var _ TokenIssuer = (*auth.TokenIssuer)(nil)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=6,bcrypt"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
}

// AuthService handles credential authentication and session operations.
type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*auth.IssuedToken, error)
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	Logout(ctx context.Context, token string) error
	WhoAmI(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	users     repository.UserRepository
	hasher    auth.PasswordHasher
	issuer    TokenIssuer
	validator *inputValidator
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, hasher auth.PasswordHasher, issuer TokenIssuer, recorder metrics.Recorder, logger *slog.Logger) AuthService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		users:     users,
		hasher:    hasher,
		issuer:    issuer,
		validator: newInputValidator(),
		metrics:   recorder,
		logger:    logger,
	}
}

// Authenticate verifies an email/password pair. Unknown emails still pay
// for a hash comparison so timing does not reveal account existence.
func (s *authService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		s.hasher.Verify("", password)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a token.
func (s *authService) Login(ctx context.Context, email, password string) (*auth.IssuedToken, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			s.metrics.RecordLogin("invalid_credentials")
		} else {
			s.metrics.RecordLogin("error")
		}
		return nil, err
	}

	token, err := s.issuer.Issue(ctx, user, model.TokenOriginLogin)
	if err != nil {
		s.metrics.RecordLogin("error")
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.metrics.RecordLogin("success")
	s.metrics.RecordTokenIssued(string(model.TokenOriginLogin))
	return token, nil
}

// Register validates the form, reporting every failing field at once, and
// creates the user.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	verr := s.validator.validate(input)

	if _, emailInvalid := verr.Fields["email"]; !emailInvalid {
		existing, err := s.users.FindByEmail(ctx, input.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.RecordRegistration("error")
			return nil, fmt.Errorf("check user existence: %w", err)
		}
		if existing != nil {
			verr.Add("email", msgEmailTaken)
		}
	}
	if verr.HasErrors() {
		s.metrics.RecordRegistration("validation_failed")
		return nil, verr
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.metrics.RecordRegistration("error")
		return nil, err
	}

	user := &model.User{
		Name:         input.Name,
		Email:        model.NormalizeEmail(input.Email),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrEmailTaken) {
			// Lost a race with a concurrent registration.
			verr.Add("email", msgEmailTaken)
			s.metrics.RecordRegistration("validation_failed")
			return nil, verr
		}
		s.metrics.RecordRegistration("error")
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.RecordRegistration("success")
	s.logger.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Logout revokes the token.
func (s *authService) Logout(ctx context.Context, token string) error {
	return s.issuer.Revoke(ctx, token)
}

// WhoAmI returns the user bound to the token.
func (s *authService) WhoAmI(ctx context.Context, token string) (*model.User, error) {
	return s.issuer.Validate(ctx, token)
}
