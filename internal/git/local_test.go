package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRepoFullName(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"git@github.com:acme/widgets.git", "acme/widgets", true},
		{"git@github.com:acme/widgets", "acme/widgets", true},
		{"https://github.com/acme/widgets.git", "acme/widgets", true},
		{"https://github.com/acme/widgets", "acme/widgets", true},
		{"https://gitlab.com/acme/widgets.git", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := ParseRepoFullName(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLocalRejectsNonRepo(t *testing.T) {
	_, err := NewLocal(t.TempDir())
	assert.Error(t, err)
}
