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

// ImpersonationService lets allow-listed operators obtain a token for another user.
type ImpersonationService interface {
	Become(ctx context.Context, callerEmail, targetEmail string) (*auth.IssuedToken, error)
}

type impersonationService struct {
	users     repository.UserRepository
	issuer    TokenIssuer
	allowList map[string]struct{}
	audit     AuditRecorder
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewImpersonationService creates the service. Allow-list entries are
// compared case-insensitively.
func NewImpersonationService(
	users repository.UserRepository,
	issuer TokenIssuer,
	allowList []string,
	audit AuditRecorder,
	recorder metrics.Recorder,
	logger *slog.Logger,
) ImpersonationService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]struct{}, len(allowList))
	for _, email := range allowList {
		allowed[model.NormalizeEmail(email)] = struct{}{}
	}
	return &impersonationService{
		users:     users,
		issuer:    issuer,
		allowList: allowed,
		audit:     audit,
		metrics:   recorder,
		logger:    logger,
	}
}

// Become checks the allow-list before looking at the target so a forbidden
// caller cannot probe which emails exist.
func (s *impersonationService) Become(ctx context.Context, callerEmail, targetEmail string) (*auth.IssuedToken, error) {
	caller := model.NormalizeEmail(callerEmail)
	target := model.NormalizeEmail(targetEmail)

	if _, ok := s.allowList[caller]; !ok {
		s.record(caller, target, model.ImpersonationForbidden, nil)
		return nil, apperrors.ErrForbidden
	}

	user, err := s.users.FindByEmail(ctx, target)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.record(caller, target, model.ImpersonationUserNotFound, nil)
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		s.record(caller, target, model.ImpersonationError, nil)
		return nil, fmt.Errorf("find target user: %w", err)
	}

	token, err := s.issuer.Issue(ctx, user, model.TokenOriginBecome)
	if err != nil {
		s.record(caller, target, model.ImpersonationError, nil)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.record(caller, target, model.ImpersonationGranted, token)
	s.metrics.RecordTokenIssued(string(model.TokenOriginBecome))
	return token, nil
}

func (s *impersonationService) record(caller, target string, outcome model.ImpersonationOutcome, token *auth.IssuedToken) {
	entry := model.ImpersonationLog{
		CallerEmail: caller,
		TargetEmail: target,
		Outcome:     outcome,
	}
	attrs := []any{
		slog.String("caller", caller),
		slog.String("target", target),
		slog.String("outcome", string(outcome)),
	}
	if token != nil {
		id := token.Token.ID
		entry.TokenID = &id
		attrs = append(attrs, slog.String("token_id", id.String()))
	}

	s.logger.Info("impersonation", attrs...)
	s.metrics.RecordImpersonation(string(outcome))
	if s.audit != nil {
		s.audit.Record(entry)
	}
}
