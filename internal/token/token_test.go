package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kmalykh/webstore/internal/domain/models"
	"github.com/kmalykh/webstore/internal/token"
)

const testSecret = "test-secret-key-at-least-32-bytes-long!"

func TestNewManager_ShortSecret(t *testing.T) {
	// Секрет короче 32 байт должен приводить к отказу при старте
	_, err := token.NewManager("too-short", 7*24*time.Hour)
	assert.ErrorIs(t, err, token.ErrSecretTooShort)

	_, err = token.NewManager("", 7*24*time.Hour)
	assert.ErrorIs(t, err, token.ErrSecretTooShort)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	tm, err := token.NewManager(testSecret, 7*24*time.Hour)
	assert.NoError(t, err)

	user := &models.User{ID: 42, Email: "test@example.com"}
	tokenStr, err := tm.Issue(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, tokenStr)

	identity, err := tm.Verify(tokenStr)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), identity.UserID)
	assert.Equal(t, "test@example.com", identity.Email)
}

func TestVerify_ExpiredToken(t *testing.T) {
	// Токен с уже истёкшим сроком действия должен отклоняться
	tm, err := token.NewManager(testSecret, -time.Minute)
	assert.NoError(t, err)

	tokenStr, err := tm.Issue(&models.User{ID: 1, Email: "test@example.com"})
	assert.NoError(t, err)

	identity, err := tm.Verify(tokenStr)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
	assert.Nil(t, identity)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer, err := token.NewManager(testSecret, time.Hour)
	assert.NoError(t, err)
	verifier, err := token.NewManager("another-secret-key-also-32-bytes-long!!!", time.Hour)
	assert.NoError(t, err)

	tokenStr, err := issuer.Issue(&models.User{ID: 1, Email: "test@example.com"})
	assert.NoError(t, err)

	identity, err := verifier.Verify(tokenStr)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
	assert.Nil(t, identity)
}

func TestVerify_Garbage(t *testing.T) {
	tm, err := token.NewManager(testSecret, time.Hour)
	assert.NoError(t, err)

	identity, err := tm.Verify("not-a-jwt-at-all")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
	assert.Nil(t, identity)
}
