package scenes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/himanishpuri/SceneScribe/pkg/logger"
	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/utils"
)

// ResultStore caches detection results as JSON files next to each other in Dir.
type ResultStore struct {
	Dir string
	Log logger.Leveled
}

func NewResultStore(dir string, log logger.Leveled) *ResultStore {
	if log == nil {
		log = logger.Nop()
	}
	return &ResultStore{Dir: dir, Log: log}
}

// ResultFileName is the cache file name for a detector's parameters.
func ResultFileName(d Detector) string {
	return fmt.Sprintf("scene-detection-%s.json", d.CacheKey())
}

func (s *ResultStore) path(d Detector) string {
	return filepath.Join(s.Dir, ResultFileName(d))
}

// Save writes res under the detector's cache key and returns the path.
func (s *ResultStore) Save(d Detector, res *models.SceneDetectionResult) (string, error) {
	if err := utils.MakeDir(s.Dir); err != nil {
		return "", err
	}
	path := s.path(d)
	if err := SaveResult(path, res); err != nil {
		return "", err
	}
	return path, nil
}

// Load returns the cached result of d for videoPath, or a NotFoundError when
// nothing is cached or the cached run was for another video.
func (s *ResultStore) Load(d Detector, videoPath string) (*models.SceneDetectionResult, error) {
	res, err := LoadResult(s.path(d))
	if err != nil {
		return nil, err
	}
	if filepath.Clean(res.VideoFilePath) != filepath.Clean(videoPath) {
		return nil, models.NewNotFoundError(
			fmt.Sprintf("%s holds a result for %s", ResultFileName(d), res.VideoFilePath), nil)
	}
	return res, nil
}

// LoadOrDetect returns the cached result when present, otherwise runs the
// detector and caches a complete result.
func (s *ResultStore) LoadOrDetect(ctx context.Context, d Detector, videoPath string) (*models.SceneDetectionResult, bool, error) {
	res, err := s.Load(d, videoPath)
	if err == nil {
		s.Log.Debugf("using cached %s", ResultFileName(d))
		return res, true, nil
	}
	if !models.IsNotFound(err) {
		return nil, false, err
	}

	res, err = d.Detect(ctx, videoPath)
	if err != nil {
		return nil, false, err
	}
	if _, err := s.Save(d, res); err != nil {
		return nil, false, err
	}
	return res, false, nil
}

// SaveResult writes res as indented JSON via a temporary file so readers
// never observe a partial result.
func SaveResult(path string, res *models.SceneDetectionResult) error {
	return writeJSON(path, res)
}

func LoadResult(path string) (*models.SceneDetectionResult, error) {
	var res models.SceneDetectionResult
	if err := readJSON(path, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func SaveAnnotation(path string, a *models.VideoSceneAnnotation) error {
	return writeJSON(path, a)
}

func LoadAnnotation(path string) (*models.VideoSceneAnnotation, error) {
	var a models.VideoSceneAnnotation
	if err := readJSON(path, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func SaveEvaluation(path string, e *models.SceneDetectorEvaluationResult) error {
	return writeJSON(path, e)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := utils.MakeDir(dir); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewNotFoundError(path, err)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return models.NewParseError(fmt.Sprintf("decode %s", path), err)
	}
	return nil
}
