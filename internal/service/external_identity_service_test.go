package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenriqueSouzza/unidos-backend/internal/auth"
	apperrors "github.com/HenriqueSouzza/unidos-backend/internal/errors"
	"github.com/HenriqueSouzza/unidos-backend/internal/model"
	"github.com/HenriqueSouzza/unidos-backend/internal/oauth"
	"github.com/HenriqueSouzza/unidos-backend/internal/repository/memory"
)

type stubProvider struct {
	assertion *oauth.Assertion
	err       error
	codes     []string
}

func (p *stubProvider) Name() string { return model.ProviderGoogle }

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(_ context.Context, code string) (*oauth.Assertion, error) {
	p.codes = append(p.codes, code)
	if p.err != nil {
		return nil, p.err
	}
	cp := *p.assertion
	return &cp, nil
}

func googleAssertion(email string) *oauth.Assertion {
	return &oauth.Assertion{
		Provider:       model.ProviderGoogle,
		ExternalID:     "g-123",
		Email:          email,
		Name:           "Gina",
		Avatar:         "https://lh3.example.com/a=s96-c",
		AvatarOriginal: "https://lh3.example.com/a",
	}
}

func setupExternal(t *testing.T, provider *stubProvider) (ExternalIdentityService, *memory.UserRepository, *auth.TokenIssuer) {
	t.Helper()
	users := memory.NewUserRepository()
	issuer := auth.NewTokenIssuer(memory.NewAccessTokenRepository(), users, time.Hour)
	svc := NewExternalIdentityService(
		provider,
		auth.NewStateSigner("test-secret"),
		users,
		testHasher(),
		issuer,
		"cnec.br",
		nil,
		discardLogger(),
	)
	return svc, users, issuer
}

func TestExternalIdentityService_CreatesThenReusesUser(t *testing.T) {
	svc, users, issuer := setupExternal(t, &stubProvider{})
	ctx := context.Background()

	first, err := svc.LoginWithExternalIdentity(ctx, googleAssertion("gina@cnec.br"))
	require.NoError(t, err)
	require.NotNil(t, first.User.Provider)
	assert.Equal(t, model.ProviderGoogle, *first.User.Provider)
	assert.Equal(t, "g-123", *first.User.ProviderID)
	assert.Equal(t, "https://lh3.example.com/a", first.AvatarOriginal)
	assert.Equal(t, model.TokenOriginExternal, first.Token.Token.Origin)
	assert.NotEmpty(t, first.User.PasswordHash)

	second, err := svc.LoginWithExternalIdentity(ctx, googleAssertion("GINA@cnec.br"))
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.NotEqual(t, first.Token.AccessToken, second.Token.AccessToken)
	assert.Equal(t, 1, users.Count())

	me, err := issuer.Validate(ctx, second.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, me.ID)
}

func TestExternalIdentityService_SubdomainAllowed(t *testing.T) {
	svc, _, _ := setupExternal(t, &stubProvider{})

	_, err := svc.LoginWithExternalIdentity(context.Background(), googleAssertion("gina@campus.cnec.br"))
	assert.NoError(t, err)
}

func TestExternalIdentityService_DomainRejected(t *testing.T) {
	for _, email := range []string{"user@other.org", "user@notcnec.br", "user@cnec.br.evil.com"} {
		t.Run(email, func(t *testing.T) {
			svc, users, _ := setupExternal(t, &stubProvider{})

			result, err := svc.LoginWithExternalIdentity(context.Background(), googleAssertion(email))
			assert.ErrorIs(t, err, apperrors.ErrDomainNotAllowed)
			assert.Nil(t, result)
			assert.Equal(t, 0, users.Count())
		})
	}
}

func TestExternalIdentityService_LinksExistingPasswordUser(t *testing.T) {
	svc, users, _ := setupExternal(t, &stubProvider{})
	ctx := context.Background()
	existing := &model.User{Name: "Gina", Email: "gina@cnec.br", PasswordHash: hashed(t, "secret1")}
	require.NoError(t, users.Create(ctx, existing))

	result, err := svc.LoginWithExternalIdentity(ctx, googleAssertion("gina@cnec.br"))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, result.User.ID)

	stored, err := users.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	require.True(t, stored.HasProvider())
	assert.Equal(t, "g-123", *stored.ProviderID)
	assert.Equal(t, existing.PasswordHash, stored.PasswordHash)
}

func TestExternalIdentityService_KeepsExistingLink(t *testing.T) {
	svc, users, _ := setupExternal(t, &stubProvider{})
	ctx := context.Background()
	existing := &model.User{Name: "Gina", Email: "gina@cnec.br", PasswordHash: "x"}
	existing.LinkProvider(model.ProviderGoogle, "original-id")
	require.NoError(t, users.Create(ctx, existing))

	_, err := svc.LoginWithExternalIdentity(ctx, googleAssertion("gina@cnec.br"))
	require.NoError(t, err)

	stored, err := users.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "original-id", *stored.ProviderID)
}

func TestExternalIdentityService_ConcurrentFirstLogin(t *testing.T) {
	svc, users, _ := setupExternal(t, &stubProvider{})

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.LoginWithExternalIdentity(context.Background(), googleAssertion("gina@cnec.br"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, users.Count())
}

func TestExternalIdentityService_RedirectAndCallback(t *testing.T) {
	provider := &stubProvider{assertion: googleAssertion("gina@cnec.br")}
	svc, _, _ := setupExternal(t, provider)
	ctx := context.Background()

	redirect, err := svc.RedirectURL(ctx)
	require.NoError(t, err)
	parsed, err := url.Parse(redirect)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	result, err := svc.Callback(ctx, "auth-code", state)
	require.NoError(t, err)
	assert.Equal(t, "gina@cnec.br", result.User.Email)
	assert.Equal(t, []string{"auth-code"}, provider.codes)
}

func TestExternalIdentityService_CallbackFailures(t *testing.T) {
	validState, err := auth.NewStateSigner("test-secret").Issue()
	require.NoError(t, err)

	tests := []struct {
		name     string
		provider *stubProvider
		state    string
	}{
		{"missing state", &stubProvider{assertion: googleAssertion("gina@cnec.br")}, ""},
		{"forged state", &stubProvider{assertion: googleAssertion("gina@cnec.br")}, "forged"},
		{"exchange error", &stubProvider{err: errors.New("invalid_grant")}, validState},
		{"incomplete assertion", &stubProvider{assertion: &oauth.Assertion{Provider: model.ProviderGoogle}}, validState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, _ := setupExternal(t, tt.provider)

			result, err := svc.Callback(context.Background(), "code", tt.state)
			assert.ErrorIs(t, err, apperrors.ErrExternalAuthFailed)
			assert.Nil(t, result)
			assert.Equal(t, 0, users.Count())
		})
	}
}

func TestEmailInDomain(t *testing.T) {
	assert.True(t, emailInDomain("a@cnec.br", "cnec.br"))
	assert.True(t, emailInDomain("a@CNEC.BR", "cnec.br"))
	assert.True(t, emailInDomain("a@sub.cnec.br", "cnec.br"))
	assert.False(t, emailInDomain("a@xcnec.br", "cnec.br"))
	assert.False(t, emailInDomain("no-at-sign", "cnec.br"))
	assert.False(t, emailInDomain("a@cnec.br", ""))
}
