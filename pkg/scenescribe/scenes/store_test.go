package scenes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/SceneScribe/pkg/models"
)

type countingDetector struct {
	key   string
	calls int
	err   error
}

func (c *countingDetector) Name() string     { return "counting" }
func (c *countingDetector) CacheKey() string { return c.key }

func (c *countingDetector) Detect(_ context.Context, videoPath string) (*models.SceneDetectionResult, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &models.SceneDetectionResult{
		VideoFilePath: videoPath,
		DetectorName:  c.Name(),
		SceneCount:    1,
		Scenes: []models.SceneInfo{
			{Index: 0, StartTime: "00:00:00.000", EndTime: "00:00:02.000", StartFrame: 0, EndFrame: 50},
		},
	}, nil
}

func TestResultStoreLoadOrDetectCaches(t *testing.T) {
	store := NewResultStore(t.TempDir(), nil)
	d := &countingDetector{key: "counting-a"}

	first, cached, err := store.LoadOrDetect(context.Background(), d, "videos/a.mp4")
	require.NoError(t, err)
	assert.False(t, cached)

	second, cached, err := store.LoadOrDetect(context.Background(), d, "videos/a.mp4")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, d.calls)
	assert.Equal(t, first.Scenes, second.Scenes)

	assert.FileExists(t, filepath.Join(store.Dir, "scene-detection-counting-a.json"))
}

func TestResultStoreKeysByParameters(t *testing.T) {
	store := NewResultStore(t.TempDir(), nil)
	a := &countingDetector{key: "k1"}
	b := &countingDetector{key: "k2"}

	_, _, err := store.LoadOrDetect(context.Background(), a, "v.mp4")
	require.NoError(t, err)
	_, cached, err := store.LoadOrDetect(context.Background(), b, "v.mp4")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, b.calls)
}

func TestResultStoreOtherVideoIsMiss(t *testing.T) {
	store := NewResultStore(t.TempDir(), nil)
	d := &countingDetector{key: "k"}

	_, _, err := store.LoadOrDetect(context.Background(), d, "a.mp4")
	require.NoError(t, err)

	_, err = store.Load(d, "b.mp4")
	assert.True(t, models.IsNotFound(err))

	_, cached, err := store.LoadOrDetect(context.Background(), d, "b.mp4")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, d.calls)
}

func TestResultStoreDoesNotWriteOnFailure(t *testing.T) {
	store := NewResultStore(t.TempDir(), nil)
	d := &countingDetector{key: "broken", err: models.NewVideoOpenError("x", nil)}

	_, _, err := store.LoadOrDetect(context.Background(), d, "x.mp4")
	require.Error(t, err)

	entries, err := os.ReadDir(store.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadResultErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadResult(filepath.Join(dir, "missing.json"))
	assert.True(t, models.IsNotFound(err))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadResult(bad)
	assert.True(t, models.IsParse(err))
}

func TestAnnotationRoundTrip(t *testing.T) {
	res := &models.SceneDetectionResult{
		VideoFilePath: "v.mp4",
		FrameRateSecs: 25,
		Scenes: []models.SceneInfo{
			{StartTime: "00:00:00.000", EndTime: "00:00:04.000"},
			{StartTime: "00:00:04.000", EndTime: "00:00:09.500"},
		},
	}
	path := filepath.Join(t.TempDir(), "ann", "v.json")
	require.NoError(t, SaveAnnotation(path, AnnotationFromResult(res)))

	got, err := LoadAnnotation(path)
	require.NoError(t, err)
	assert.Equal(t, "v.mp4", got.VideoFilePath)
	assert.Equal(t, 25.0, got.FrameRateSecs)
	assert.Equal(t, []models.AnnotatedSceneInfo{
		{StartTime: "00:00:00.000", EndTime: "00:00:04.000"},
		{StartTime: "00:00:04.000", EndTime: "00:00:09.500"},
	}, got.Scenes)
}
