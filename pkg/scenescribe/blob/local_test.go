package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/SceneScribe/pkg/models"
)

var _ Storage = (*Local)(nil)
var _ Storage = (*MinIO)(nil)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLocalSaveReadDownload(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	src := writeTemp(t, "captions.vtt", "WEBVTT\n")
	require.NoError(t, store.SaveFile(ctx, src, "abc/captions.en.vtt"))

	ok, err := store.Exists(ctx, "abc/captions.en.vtt")
	require.NoError(t, err)
	assert.True(t, ok)

	text, err := store.ReadText(ctx, "abc/captions.en.vtt")
	require.NoError(t, err)
	assert.Equal(t, "WEBVTT\n", text)

	dst := filepath.Join(t.TempDir(), "nested", "copy.vtt")
	require.NoError(t, store.DownloadFile(ctx, "abc/captions.en.vtt", dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "WEBVTT\n", string(data))
}

func TestLocalMissingKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ok, err := store.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.ReadText(ctx, "nope")
	assert.True(t, models.IsNotFound(err))

	err = store.DownloadFile(ctx, "nope", filepath.Join(t.TempDir(), "x"))
	assert.True(t, models.IsNotFound(err))

	_, err = store.Exists(ctx, "/")
	assert.True(t, models.IsValidation(err))
}

func TestLocalKeysStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root)
	require.NoError(t, err)

	p, err := store.path("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), p)
}

func TestLocalListFiles(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	src := writeTemp(t, "f", "x")
	for _, key := range []string{"v1/frames/frame-0001.jpg", "v1/frames/frame-0000.jpg", "v1/video.mp4", "v2/video.mp4"} {
		require.NoError(t, store.SaveFile(ctx, src, key))
	}

	var keys []string
	for key, err := range store.ListFiles(ctx, "v1/frames/") {
		require.NoError(t, err)
		keys = append(keys, key)
	}
	assert.Equal(t, []string{"v1/frames/frame-0000.jpg", "v1/frames/frame-0001.jpg"}, keys)

	// Breaking early stops the walk.
	count := 0
	for range store.ListFiles(ctx, "") {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestLocalDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.SaveFile(ctx, writeTemp(t, "f", "x"), "v1/frames/frame-0000.jpg"))
	require.NoError(t, store.Delete(ctx, "v1/frames/frame-0000.jpg"))

	ok, err := store.Exists(ctx, "v1/frames/frame-0000.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Delete(ctx, "v1/frames/frame-0000.jpg"))
}
