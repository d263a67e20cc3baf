package cryptox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	t.Run("produces url-safe tokens of expected entropy", func(t *testing.T) {
		tok, err := GenerateToken(TokenSize256)
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(tok)
		require.NoError(t, err)
		require.Len(t, raw, TokenSize256)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 64 {
			tok, err := GenerateToken(TokenSize128)
			require.NoError(t, err)
			_, dup := seen[tok]
			require.False(t, dup)
			seen[tok] = struct{}{}
		}
	})

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := GenerateToken(0)
		require.Error(t, err)
		_, err = GenerateToken(-1)
		require.Error(t, err)
	})
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(TokenSize256)
	require.NoError(t, err)

	fp := FingerprintToken(tok)
	require.Equal(t, fp, FingerprintToken(tok), "fingerprint must be deterministic")
	require.NotEqual(t, tok, fp)
	require.Len(t, fp, 43)
}
