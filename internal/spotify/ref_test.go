package spotify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTrackRef(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"open web url", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC"},
		{"open web url with share suffix", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc123", "4uLU6hMCjMI75M1A2tKUQC"},
		{"play web url", "https://play.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC"},
		{"uri form", "spotify:track:4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC"},
		{"bare id", "4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC"},
		{"surrounding whitespace", "  spotify:track:4uLU6hMCjMI75M1A2tKUQC\n", "4uLU6hMCjMI75M1A2tKUQC"},
		{"unknown host falls back to bare id", "https://example.com/track/xyz", "https://example.com/track/xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTrackRef(tt.ref))
		})
	}
}
