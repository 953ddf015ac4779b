package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomNumericString(t *testing.T) {
	code, err := RandomNumericString(6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, r := range code {
		require.True(t, r >= '0' && r <= '9')
	}
}

func TestRandomNumericStringVaries(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := RandomNumericString(6)
		require.NoError(t, err)
		seen[code] = struct{}{}
	}
	// 50 draws from a million values colliding down to a handful
	// would indicate a broken generator.
	require.Greater(t, len(seen), 40)
}
