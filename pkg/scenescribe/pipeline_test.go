package scenescribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/alignment"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/blob"
)

const testVideoID = "dQw4w9WgXcQ"

func TestProcessVideo(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	res, err := env.svc.ProcessVideo(ctx, testVideoID)
	if err != nil {
		t.Fatalf("ProcessVideo failed: %v", err)
	}
	if res.Failed() {
		t.Fatalf("Unexpected failure at %s: %s", res.Stage, res.ErrorMessage)
	}
	if res.Stage != StageCompleted {
		t.Errorf("Expected stage %s, got %s", StageCompleted, res.Stage)
	}
	if res.Skipped {
		t.Error("First run should not skip extraction")
	}
	if len(res.FrameKeys) != 3 {
		t.Fatalf("Expected 3 uploaded frames, got %d: %v", len(res.FrameKeys), res.FrameKeys)
	}
	for _, key := range res.FrameKeys {
		if !strings.HasPrefix(key, FramesPrefix(testVideoID)) {
			t.Errorf("Frame key %s outside %s", key, FramesPrefix(testVideoID))
		}
	}

	for _, key := range []string{VideoKey(testVideoID), CaptionsKey(testVideoID), AlignedKey(testVideoID)} {
		ok, err := env.store.Exists(ctx, key)
		if err != nil || !ok {
			t.Errorf("Expected blob %s to exist (err=%v)", key, err)
		}
	}

	out, err := alignment.LoadFrameOutput(filepath.Join(env.store.Root, filepath.FromSlash(AlignedKey(testVideoID))))
	if err != nil {
		t.Fatalf("LoadFrameOutput failed: %v", err)
	}
	if len(out.Frames) != 3 {
		t.Fatalf("Expected 3 aligned frames, got %d", len(out.Frames))
	}
	if out.Frames[2].Text != "today we cook" {
		t.Errorf("Unexpected text for the last frame: %q", out.Frames[2].Text)
	}
}

func TestProcessVideoSkipsCompletedStages(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	if _, err := env.svc.ProcessVideo(ctx, testVideoID); err != nil {
		t.Fatalf("First ProcessVideo failed: %v", err)
	}
	res, err := env.svc.ProcessVideo(ctx, testVideoID)
	if err != nil {
		t.Fatalf("Second ProcessVideo failed: %v", err)
	}

	if !res.Skipped {
		t.Error("Expected extraction to be skipped")
	}
	if res.Stage != StageCompleted {
		t.Errorf("Expected stage %s, got %s", StageCompleted, res.Stage)
	}
	if env.dl.calls != 1 {
		t.Errorf("Expected one download, got %d", env.dl.calls)
	}
	if env.opener.Opens() != 1 {
		t.Errorf("Expected one decode, got %d", env.opener.Opens())
	}
	if len(res.FrameKeys) != 3 {
		t.Errorf("Expected the 3 existing frames, got %d", len(res.FrameKeys))
	}
}

func TestProcessVideoDownloadFailure(t *testing.T) {
	env := setupTestService(t)
	env.dl.err = errors.New("video unavailable")

	res, err := env.svc.ProcessVideo(context.Background(), testVideoID)
	if err != nil {
		t.Fatalf("Stage failures should be reported in the result, got error %v", err)
	}
	if res.Stage != StageDownload {
		t.Errorf("Expected stage %s, got %s", StageDownload, res.Stage)
	}
	if !strings.Contains(res.ErrorMessage, "video unavailable") {
		t.Errorf("Unexpected error message %q", res.ErrorMessage)
	}
}

func TestProcessVideoWithoutCaptions(t *testing.T) {
	env := setupTestService(t)
	env.dl.captions = false

	res, err := env.svc.ProcessVideo(context.Background(), testVideoID)
	if err != nil {
		t.Fatalf("ProcessVideo failed: %v", err)
	}
	if res.Stage != StageAlign {
		t.Errorf("Expected failure at %s, got %s", StageAlign, res.Stage)
	}
	if len(res.FrameKeys) == 0 {
		t.Error("Frames should still have been extracted")
	}
}

func TestProcessVideoRejectsShortID(t *testing.T) {
	env := setupTestService(t)

	_, err := env.svc.ProcessVideo(context.Background(), " abc ")
	if !models.IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
}

func TestProcessVideoCancelled(t *testing.T) {
	env := setupTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := env.svc.ProcessVideo(ctx, testVideoID); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

// flakyStore fails the nth frame upload once.
type flakyStore struct {
	*blob.Local
	mu      sync.Mutex
	failAt  int
	uploads int
}

func (f *flakyStore) SaveFile(ctx context.Context, path, key string) error {
	if strings.HasPrefix(key, "frames/") && strings.HasSuffix(key, ".jpg") {
		f.mu.Lock()
		f.uploads++
		fail := f.uploads == f.failAt
		f.mu.Unlock()
		if fail {
			return errors.New("connection reset")
		}
	}
	return f.Local.SaveFile(ctx, path, key)
}

func frameKeys(t *testing.T, store blob.Storage) []string {
	t.Helper()
	var keys []string
	for key, err := range store.ListFiles(context.Background(), FramesPrefix(testVideoID)) {
		if err != nil {
			t.Fatalf("ListFiles failed: %v", err)
		}
		keys = append(keys, key)
	}
	return keys
}

func TestProcessVideoDiscardsPartialFrameUpload(t *testing.T) {
	dir := t.TempDir()
	local, err := blob.NewLocal(filepath.Join(dir, "shared"))
	if err != nil {
		t.Fatalf("Failed to create blob storage: %v", err)
	}
	store := &flakyStore{Local: local, failAt: 2}
	env := setupTestService(t, WithBlobStorage(store))
	ctx := context.Background()

	res, err := env.svc.ProcessVideo(ctx, testVideoID)
	if err != nil {
		t.Fatalf("ProcessVideo failed: %v", err)
	}
	if res.Stage != StageExtract {
		t.Fatalf("Expected failure at %s, got %s", StageExtract, res.Stage)
	}
	if !strings.Contains(res.ErrorMessage, "connection reset") {
		t.Errorf("Unexpected error message %q", res.ErrorMessage)
	}
	if keys := frameKeys(t, store); len(keys) != 0 {
		t.Errorf("Expected partial frames to be removed, found %v", keys)
	}
	if ok, _ := store.Exists(ctx, FramesManifestKey(testVideoID)); ok {
		t.Error("Manifest should not be written after a failed upload")
	}

	res, err = env.svc.ProcessVideo(ctx, testVideoID)
	if err != nil {
		t.Fatalf("Second ProcessVideo failed: %v", err)
	}
	if res.Stage != StageCompleted {
		t.Fatalf("Expected stage %s, got %s: %s", StageCompleted, res.Stage, res.ErrorMessage)
	}
	if res.Skipped {
		t.Error("Extraction should rerun after a failed upload")
	}
	if len(res.FrameKeys) != 3 {
		t.Errorf("Expected 3 frames, got %d", len(res.FrameKeys))
	}
}

func TestProcessVideoReextractsWithoutManifest(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	stray := filepath.Join(env.store.Root, filepath.FromSlash(FramesPrefix(testVideoID)), "frame-0007-00_00_09_000-00_00_10_000.jpg")
	if err := os.MkdirAll(filepath.Dir(stray), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(stray, []byte("partial"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	res, err := env.svc.ProcessVideo(ctx, testVideoID)
	if err != nil {
		t.Fatalf("ProcessVideo failed: %v", err)
	}
	if res.Skipped {
		t.Error("Frames without a manifest should not be reused")
	}
	keys := frameKeys(t, env.store)
	if len(keys) != 3 {
		t.Fatalf("Expected 3 frames after re-extraction, got %v", keys)
	}
	for _, key := range keys {
		if strings.Contains(key, "frame-0007") {
			t.Errorf("Stray frame %s was not removed", key)
		}
	}
}
