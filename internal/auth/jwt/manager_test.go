package jwt

import (
	"testing"
	"time"

	"github.com/registerhq/register-backend/pkg/config"
	"github.com/registerhq/register-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(accessExpiry time.Duration) *Manager {
	return NewManager(&config.JWTConfig{
		Secret:       "test-secret-at-least-32-characters-long",
		AccessExpiry: accessExpiry,
		Issuer:       "register-api",
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	m := testManager(15 * time.Minute)

	user := &UserInfo{
		ID:       "b5f1d3a0-7c2e-4f7c-9e28-1f6a2d9c0b11",
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Role:     "manager",
	}

	token, expiry, err := m.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiry, 5*time.Second)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, user.Username, claims.Username)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Role, claims.Role)
	assert.Equal(t, "register-api", claims.Issuer)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	m := testManager(-1 * time.Minute)

	token, _, err := m.GenerateAccessToken(&UserInfo{ID: "u1", Role: "user"})
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenExpired))
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	token, _, err := testManager(time.Minute).GenerateAccessToken(&UserInfo{ID: "u1"})
	require.NoError(t, err)

	other := NewManager(&config.JWTConfig{
		Secret:       "a-completely-different-secret-string",
		AccessExpiry: time.Minute,
		Issuer:       "register-api",
	})

	_, err = other.ValidateAccessToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	_, err := testManager(time.Minute).ValidateAccessToken("not.a.token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}
