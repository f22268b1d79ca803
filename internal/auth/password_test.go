package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyCredential(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	require.True(t, VerifyCredential(hash, "correct horse"))
	require.False(t, VerifyCredential(hash, "wrong horse"))
	require.False(t, VerifyCredential("not-a-hash", "correct horse"))
	require.False(t, VerifyCredential(hash, ""))
}
