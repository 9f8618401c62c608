package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("pass123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	t.Run("accepts matching password", func(t *testing.T) {
		assert.True(t, CheckPasswordHash("pass123", hash))
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		assert.False(t, CheckPasswordHash("pass124", hash))
	})

	t.Run("rejects malformed hash", func(t *testing.T) {
		assert.False(t, CheckPasswordHash("pass123", "not-a-hash"))
	})
}

func TestGenerateCode(t *testing.T) {
	t.Run("generates code of requested length", func(t *testing.T) {
		code, err := GenerateCode(6)
		require.NoError(t, err)
		assert.Len(t, code, 6)
	})

	t.Run("uses only allowed characters", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			code, err := GenerateCode(6)
			require.NoError(t, err)
			for _, c := range code {
				assert.True(t, strings.ContainsRune(JoinCodeChars, c), "unexpected character %q", c)
			}
		}
	})

	t.Run("excludes ambiguous characters", func(t *testing.T) {
		for _, c := range "OI01" {
			assert.False(t, strings.ContainsRune(JoinCodeChars, c))
		}
	})

	t.Run("generates distinct codes", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			code, _ := GenerateCode(6)
			assert.False(t, seen[code], "duplicate code %s", code)
			seen[code] = true
		}
	})
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "GOOG1234", NormalizeCode("  goog1234 "))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("abc", "abc"))
	assert.False(t, ConstantTimeEqual("abc", "abd"))
	assert.False(t, ConstantTimeEqual("abc", "abcd"))
}

func TestMaskCode(t *testing.T) {
	assert.Equal(t, "AB****", MaskCode("ABC234"))
	assert.Equal(t, "****", MaskCode("A"))
}
