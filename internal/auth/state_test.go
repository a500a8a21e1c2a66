package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSigner_RoundTrip(t *testing.T) {
	signer := NewStateSigner("test-secret")

	state, err := signer.Issue()
	require.NoError(t, err)
	assert.NoError(t, signer.Verify(state))

	other, err := signer.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, state, other)
}

func TestStateSigner_Rejects(t *testing.T) {
	signer := NewStateSigner("test-secret")
	forger := NewStateSigner("other-secret")

	forged, err := forger.Issue()
	require.NoError(t, err)

	stale := NewStateSigner("test-secret")
	stale.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := stale.Issue()
	require.NoError(t, err)

	tests := []struct {
		name  string
		state string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", forged},
		{"expired", expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, signer.Verify(tt.state), ErrInvalidState)
		})
	}
}
