package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"main.go", Go},
		{"pkg/server_test.go", Go},
		{"app.py", Python},
		{"gui/App.PYW", Python},
		{"README.md", Unknown},
		{"Makefile", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.path))
		})
	}
}
