package namekey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		a     string
		b     string
		equal bool
	}{
		{"identical", "Fantasy", "Fantasy", true},
		{"lowercase", "Fantasy", "fantasy", true},
		{"uppercase", "Science Fiction", "SCIENCE FICTION", true},
		{"accented case", "Émile", "émile", true},
		{"accents are significant", "Resume", "Résumé", false},
		{"different words", "Fantasy", "Horror", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, Key(tt.a) == Key(tt.b))
			assert.Equal(t, tt.equal, Equal(tt.a, tt.b))
		})
	}
}

func TestKey_NotEmpty(t *testing.T) {
	t.Parallel()
	assert.NotEmpty(t, Key("Poetry"))
}
