package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	// StateTTL bounds the time between the provider redirect and its callback.
	StateTTL    = 10 * time.Minute
	stateIssuer = "unidos-backend"
)

// ErrInvalidState is returned when an OAuth state is malformed, forged or expired.
var ErrInvalidState = errors.New("invalid oauth state")

// StateSigner issues and verifies stateless OAuth state values as HS256 JWTs.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStateSigner creates a signer with the given secret.
func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{
		secret: []byte(secret),
		ttl:    StateTTL,
		now:    time.Now,
	}
}

// Issue returns a signed state carrying a random nonce.
func (s *StateSigner) Issue() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    stateIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature, issuer and expiry of a state.
func (s *StateSigner) Verify(state string) error {
	if state == "" {
		return ErrInvalidState
	}
	token, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidState
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !claims.VerifyIssuer(stateIssuer, true) || claims.ID == "" {
		return ErrInvalidState
	}
	return nil
}
