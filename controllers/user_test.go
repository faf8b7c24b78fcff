package controllers

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationCodeFormat(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := verificationCode()
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
	}
}

func TestResetTokenHashRoundTrip(t *testing.T) {
	token, hash, err := resetToken()
	require.NoError(t, err)

	assert.Len(t, token, 64)
	assert.Len(t, hash, 64)
	assert.NotEqual(t, token, hash)

	// the stored hash is recomputable from the emailed token
	assert.Equal(t, hash, hashResetToken(token))
	assert.NotEqual(t, hash, hashResetToken(token+"x"))
}

func TestResetTokensAreUnique(t *testing.T) {
	a, _, err := resetToken()
	require.NoError(t, err)
	b, _, err := resetToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
