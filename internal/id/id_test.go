package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{"sess", "sse", "req"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			assert.Len(t, id, len(prefix)+1+21)
		})
	}
}

func TestGenerateKeySafe_NoSeparators(t *testing.T) {
	seen := make(map[string]bool)
	for range 2000 {
		id, err := GenerateKeySafe("u")
		require.NoError(t, err)
		assert.False(t, strings.ContainsAny(id, "_-"), "id %q contains a separator", id)
		assert.True(t, strings.HasPrefix(id, "u"))
		assert.Len(t, id, 1+keyLength)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.True(t, strings.HasPrefix(MustGenerate("sess"), "sess-"))
	})
}
