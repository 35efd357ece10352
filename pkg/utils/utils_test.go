package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 milliseconds"},
		{time.Millisecond, "1 millisecond"},
		{2 * time.Second, "2 seconds"},
		{time.Minute + time.Second, "1 minute and 1 second"},
		{2*time.Minute + 5*time.Second + 30*time.Millisecond, "2 minutes, 5 seconds and 30 milliseconds"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatElapsed(tt.in))
	}
}

func TestExtractYouTubeID(t *testing.T) {
	tests := map[string]string{
		"https://www.youtube.com/watch?v=Onf1UqKPMR4":     "Onf1UqKPMR4",
		"https://youtu.be/4gcGkFAG7OA?t=10":               "4gcGkFAG7OA",
		"https://www.youtube.com/embed/MBdEWLqfdms":       "MBdEWLqfdms",
		"https://www.youtube.com/shorts/MBdEWLqfdms?x=1":  "MBdEWLqfdms",
	}
	for url, want := range tests {
		got, err := ExtractYouTubeID(url)
		require.NoError(t, err, url)
		assert.Equal(t, want, got)
	}

	_, err := ExtractYouTubeID("https://example.com/watch?v=abc")
	assert.Error(t, err)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	dst := filepath.Join(dir, "nested", "b.txt")
	require.NoError(t, CopyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.True(t, FileExists(dst))
	assert.False(t, FileExists(filepath.Join(dir, "nested")))
}
