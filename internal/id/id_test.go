package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := NewBookID()
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		size   int
	}{
		{"book default", PrefixBook, bookIDLength},
		{"short", "row", 6},
		{"long", "snapshot", 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateSize(tt.prefix, tt.size)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, tt.prefix+"-"))

			nanoidPart := strings.TrimPrefix(id, tt.prefix+"-")
			assert.Len(t, nanoidPart, tt.size)

			// NanoID uses A-Za-z0-9_- only.
			for _, c := range nanoidPart {
				valid := (c >= 'A' && c <= 'Z') ||
					(c >= 'a' && c <= 'z') ||
					(c >= '0' && c <= '9') ||
					c == '_' || c == '-'
				assert.True(t, valid, "invalid character %q in %s", c, id)
			}
		})
	}
}
