package keygen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewKeyFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key, err := NewKey("ZAMR")
		require.NoError(t, err)
		require.True(t, Valid(key), "generated key %q should validate", key)
		require.False(t, seen[key], "key %q generated twice", key)
		seen[key] = true

		parts := strings.Split(key, "-")
		require.Len(t, parts, 4)
		require.Equal(t, "ZAMR", parts[0])
		for _, group := range parts[1:] {
			require.Len(t, group, 4)
			for _, r := range group {
				require.Contains(t, Alphabet, string(r))
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "ZAMR-AAAA-BBBB-CCCC", Normalize("  zamr-aaaa-bbbb-cccc "))
}

func TestValidRejectsAmbiguousCharacters(t *testing.T) {
	require.False(t, Valid("ZAMR-AAA0-BBBB-CCCC"))
	require.False(t, Valid("ZAMR-AAAI-BBBB-CCCC"))
	require.False(t, Valid("ZAMR-AAAA-BBBB"))
	require.False(t, Valid(""))
	require.True(t, Valid("ZAMR-ABCD-EFGH-JKLM"))
}
