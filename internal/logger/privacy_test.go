package logger

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	InitHashSaltForTesting("test-salt-for-unit-tests-minimum-32-chars")
	os.Exit(m.Run())
}

func TestHashUserID(t *testing.T) {
	t.Run("produces consistent hash for same user ID", func(t *testing.T) {
		require.Equal(t, HashUserID(12345), HashUserID(12345))
	})

	t.Run("produces different hashes for different user IDs", func(t *testing.T) {
		require.NotEqual(t, HashUserID(12345), HashUserID(67890))
	})

	t.Run("produces 8 character hash", func(t *testing.T) {
		require.Len(t, HashUserID(12345), 8)
	})

	t.Run("changes hash when salt changes", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		hash1 := HashUserID(12345)
		hashSalt = "different-salt"
		hash2 := HashUserID(12345)

		require.NotEqual(t, hash1, hash2)
	})
}

func TestSanitizeText(t *testing.T) {
	t.Run("redacts empty text", func(t *testing.T) {
		require.Equal(t, "<empty>", SanitizeText(""))
		require.Equal(t, "<empty>", SanitizeText("   "))
	})

	t.Run("shows length for short text", func(t *testing.T) {
		require.Equal(t, "<5 chars>", SanitizeText("Maria"))
	})

	t.Run("shows prefix for longer text", func(t *testing.T) {
		result := SanitizeText("José Fernández López")
		require.True(t, strings.HasPrefix(result, "Jos..."))
		require.Contains(t, result, "20 chars")
		require.NotContains(t, result, "Fernández")
	})
}

func TestSanitizePtr(t *testing.T) {
	require.Equal(t, "<nil>", SanitizePtr(nil))
	name := "Ana"
	require.Equal(t, "<3 chars>", SanitizePtr(&name))
}

func TestInitHashSalt(t *testing.T) {
	originalSalt := hashSalt
	defer func() { hashSalt = originalSalt }()

	t.Run("rejects missing salt", func(t *testing.T) {
		require.Error(t, InitHashSalt(""))
	})

	t.Run("rejects short salt", func(t *testing.T) {
		require.Error(t, InitHashSalt("short"))
	})

	t.Run("accepts valid salt", func(t *testing.T) {
		validSalt := "this-is-a-valid-salt-with-at-least-32-characters"
		require.NoError(t, InitHashSalt(validSalt))
		require.Equal(t, validSalt, hashSalt)
	})
}
