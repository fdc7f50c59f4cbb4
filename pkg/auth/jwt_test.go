package auth_test

import (
	"testing"
	"time"

	"github.com/medisync/medisync-backend/pkg/auth"
	"github.com/medisync/medisync-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(expiry time.Duration) *auth.Manager {
	return auth.NewManager(&config.JWTConfig{
		Secret:       "test-secret",
		AccessExpiry: expiry,
		Issuer:       "medisync-test",
	})
}

func TestManager_GenerateAndVerify(t *testing.T) {
	m := newTestManager(time.Hour)

	token, err := m.Generate("nurse")
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)

	claims, err := m.Verify(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "nurse", claims.Username)
	assert.Equal(t, "nurse", claims.Role)
	assert.Equal(t, "medisync-test", claims.Issuer)
}

func TestManager_VerifyRejectsExpired(t *testing.T) {
	m := newTestManager(-time.Minute)

	token, err := m.Generate("nurse")
	require.NoError(t, err)

	_, err = m.Verify(token.AccessToken)
	assert.Error(t, err)
}

func TestManager_VerifyRejectsWrongSecret(t *testing.T) {
	token, err := newTestManager(time.Hour).Generate("nurse")
	require.NoError(t, err)

	other := auth.NewManager(&config.JWTConfig{
		Secret:       "different-secret",
		AccessExpiry: time.Hour,
		Issuer:       "medisync-test",
	})

	_, err = other.Verify(token.AccessToken)
	assert.Error(t, err)
}

func TestManager_VerifyRejectsGarbage(t *testing.T) {
	m := newTestManager(time.Hour)

	_, err := m.Verify("not-a-token")
	assert.Error(t, err)
}
