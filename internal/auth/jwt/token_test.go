package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret")})
	id := uuid.New()

	token, expires, err := m.Issue(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), expires, time.Minute)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.SessionID)
	assert.Equal(t, "brainwave", claims.Issuer)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret")})
	other := NewManager(TokenConfig{Secret: []byte("other")})

	token, _, err := other.Issue(uuid.New())
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret"), TTL: time.Minute})
	issuedAt := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issuedAt }

	token, _, err := m.Issue(uuid.New())
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
