package auth_test

import (
	"testing"
	"time"

	"club-pos/internal/auth"

	"github.com/stretchr/testify/assert"
)

func TestIssueRequiresCorrectPIN(t *testing.T) {
	issuer := auth.NewTokenIssuer("4321", "test-secret", time.Hour)

	_, _, err := issuer.Issue("0000")
	assert.ErrorIs(t, err, auth.ErrInvalidPIN)

	token, jti, err := issuer.Issue("4321")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, jti)
}

func TestIssueWithEmptyConfiguredPINAlwaysFails(t *testing.T) {
	issuer := auth.NewTokenIssuer("", "test-secret", time.Hour)

	_, _, err := issuer.Issue("")
	assert.ErrorIs(t, err, auth.ErrInvalidPIN)
}

func TestVerifyRoundTrip(t *testing.T) {
	issuer := auth.NewTokenIssuer("4321", "test-secret", time.Hour)

	token, jti, err := issuer.Issue("4321")
	assert.NoError(t, err)

	parsedJTI, err := issuer.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, jti, parsedJTI)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := auth.NewTokenIssuer("4321", "test-secret", time.Hour)
	other := auth.NewTokenIssuer("4321", "other-secret", time.Hour)

	token, _, err := issuer.Issue("4321")
	assert.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("4321", "test-secret", -time.Minute)

	token, _, err := issuer.Issue("4321")
	assert.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := auth.NewTokenIssuer("4321", "test-secret", time.Hour)

	_, err := issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
