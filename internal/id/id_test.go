package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		v, err := Generate(PrefixNovel)
		require.NoError(t, err)
		assert.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixUser, PrefixNovel, PrefixChapter, PrefixLibrary, PrefixComment} {
		t.Run(prefix, func(t *testing.T) {
			v := MustGenerate(prefix)
			assert.True(t, HasPrefix(v, prefix))
			assert.Len(t, v, len(prefix)+1+21)
		})
	}
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("novel-abc", PrefixNovel))
	assert.False(t, HasPrefix("novel-", PrefixNovel))
	assert.False(t, HasPrefix("chapter-abc", PrefixNovel))
	assert.False(t, HasPrefix("novelabc", PrefixNovel))
}
