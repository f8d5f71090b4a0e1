package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"file URI", "file:///home/user/ccda/a.xml", "/home/user/ccda/a.xml"},
		{"bare path", "/home/user/ccda", "/home/user/ccda"},
		{"trailing slash", "input/ccda/", "input/ccda"},
		{"relative dots", "input/./ccda/../ccda", "input/ccda"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolvePath(tt.uri))
		})
	}
}
