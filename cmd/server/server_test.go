package main

import (
	"context"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/SceneScribe/pkg/logger"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/blob"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/scenes"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/video/videotest"
)

func setupTestServer(t *testing.T) (http.Handler, *scenescribe.Detection) {
	t.Helper()

	dir := t.TempDir()
	store, err := blob.NewLocal(filepath.Join(dir, "blobs"))
	require.NoError(t, err)

	opener := videotest.New(8, 8, 10, videotest.Concat(
		videotest.Repeat(color.RGBA{R: 255, A: 255}, 15),
		videotest.Repeat(color.RGBA{B: 255, A: 255}, 15),
	)...)
	svc, err := scenescribe.NewService(
		scenescribe.WithDBPath(filepath.Join(dir, "catalog.sqlite3")),
		scenescribe.WithLogger(logger.Nop()),
		scenescribe.WithBlobStorage(store),
		scenescribe.WithOpener(opener),
		scenescribe.WithMinSceneLength(1),
	)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	det, err := svc.DetectScenes(context.Background(), "videos/two-shots.mp4", scenes.DetectorAdaptive, dir)
	require.NoError(t, err)

	s := NewServer(svc, &ServerConfig{DBPath: "catalog.sqlite3", AllowedOrigins: []string{"*"}})
	s.log = logger.Nop()
	return s.setupRoutes(), det
}

func get(t *testing.T, h http.Handler, path string, into any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if into != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
	}
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := setupTestServer(t)

	var body map[string]string
	rec := get(t, h, "/health", &body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCatalogMetrics(t *testing.T) {
	h, _ := setupTestServer(t)

	var body MetricsResponse
	rec := get(t, h, "/api/health/metrics", &body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, body.VideoCount)
	assert.Equal(t, 1, body.RunCount)
}

func TestListVideosAndRuns(t *testing.T) {
	h, det := setupTestServer(t)

	var videos ListVideosResponse
	rec := get(t, h, "/api/videos", &videos)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, videos.Count)

	var runs ListRunsResponse
	rec = get(t, h, "/api/videos/"+videos.Videos[0].ID+"/runs", &runs)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, runs.Count)
	assert.Equal(t, det.RunID, runs.Runs[0].ID)
	assert.Equal(t, scenes.DetectorAdaptive, runs.Runs[0].Detector)

	rec = get(t, h, "/api/runs?video_id=unknown", &runs)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, runs.Count)
}

func TestGetRun(t *testing.T) {
	h, det := setupTestServer(t)

	var detail scenescribe.RunDetail
	rec := get(t, h, "/api/runs/"+det.RunID, &detail)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, det.RunID, detail.Run.ID)
	assert.Len(t, detail.Scenes, det.Result.SceneCount)

	rec = get(t, h, "/api/runs/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrometheusEndpoint(t *testing.T) {
	h, _ := setupTestServer(t)

	rec := get(t, h, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "scenescribe_scenes_detected_total"))
}

func TestReadOnly(t *testing.T) {
	h, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/videos", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
