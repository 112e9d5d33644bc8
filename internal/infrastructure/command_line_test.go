package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteArg(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", "''"},
		{"plain url", "https://www.youtube.com/watch", "https://www.youtube.com/watch"},
		{"query string", "https://www.youtube.com/watch?v=abc", "'https://www.youtube.com/watch?v=abc'"},
		{"spaces", "/tmp/My Channel", "'/tmp/My Channel'"},
		{"single quote", "it's", `'it'"'"'s'`},
		{"output template", "files.%(ext)s", "'files.%(ext)s'"},
		{"format selector", "bestvideo[ext=mp4]+bestaudio", "'bestvideo[ext=mp4]+bestaudio'"},
		{"dollar", "$HOME", "'$HOME'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteArg(tt.input))
		})
	}
}

func TestCommandLine(t *testing.T) {
	line := CommandLine("yt-dlp", []string{"--format", "best", "--output", "/tmp/https-1/files.%(ext)s", "https://youtu.be/abc"})
	assert.Equal(t, "yt-dlp --format best --output '/tmp/https-1/files.%(ext)s' https://youtu.be/abc", line)

	assert.Equal(t, "'/opt/my tools/yt-dlp'", CommandLine("/opt/my tools/yt-dlp", nil))
}
