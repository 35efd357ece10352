package scenescribe

import (
	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/storage"
)

// catalogAdapter adapts storage.DBClient to the Catalog interface.
type catalogAdapter struct {
	db *storage.DBClient
}

// NewSQLiteCatalog opens (or creates) the SQLite run catalog at dbPath.
func NewSQLiteCatalog(dbPath string) (Catalog, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &catalogAdapter{db: db}, nil
}

func (c *catalogAdapter) RegisterVideo(path, youtubeID string, fps, durationSec float64) (string, error) {
	return c.db.RegisterVideo(path, youtubeID, fps, durationSec)
}

func (c *catalogAdapter) RecordDetection(videoID, cacheKey, resultPath string, res *models.SceneDetectionResult) (string, error) {
	return c.db.RecordDetection(videoID, cacheKey, resultPath, res)
}

func (c *catalogAdapter) RecordEvaluation(runID string, e *models.SceneDetectorEvaluationResult) (string, error) {
	return c.db.RecordEvaluation(runID, e)
}

func (c *catalogAdapter) FindRunByResultPath(resultPath string) (*Run, error) {
	run, err := c.db.FindRunByResultPath(resultPath)
	if err != nil {
		return nil, err
	}
	out := toRun(*run)
	return &out, nil
}

func (c *catalogAdapter) GetRun(runID string) (*Run, error) {
	run, err := c.db.GetRun(runID)
	if err != nil {
		return nil, err
	}
	out := toRun(*run)
	return &out, nil
}

func (c *catalogAdapter) GetScenes(runID string) ([]SceneRow, error) {
	rows, err := c.db.GetScenes(runID)
	if err != nil {
		return nil, err
	}
	out := make([]SceneRow, len(rows))
	for i, r := range rows {
		out[i] = SceneRow{
			Index:      r.Index,
			StartFrame: r.StartFrame,
			EndFrame:   r.EndFrame,
			StartMs:    r.StartMs,
			EndMs:      r.EndMs,
		}
	}
	return out, nil
}

func (c *catalogAdapter) ListEvaluations(runID string) ([]Evaluation, error) {
	rows, err := c.db.ListEvaluations(runID)
	if err != nil {
		return nil, err
	}
	out := make([]Evaluation, len(rows))
	for i, r := range rows {
		out[i] = Evaluation{
			ID:             r.ID,
			RunID:          r.RunID,
			ToleranceSecs:  r.ToleranceSecs,
			MatchedCount:   r.MatchedCount,
			AnnotatedCount: r.AnnotatedCount,
			DetectedCount:  r.DetectedCount,
			Accuracy:       r.Accuracy,
			Precision:      r.Precision,
			Recall:         r.Recall,
			F1Score:        r.F1Score,
			CreatedAt:      r.CreatedAt,
		}
	}
	return out, nil
}

func (c *catalogAdapter) ListVideos() ([]Video, error) {
	rows, err := c.db.ListVideos()
	if err != nil {
		return nil, err
	}
	out := make([]Video, len(rows))
	for i, v := range rows {
		out[i] = Video{
			ID:          v.ID,
			Path:        v.Path,
			YouTubeID:   v.YouTubeID,
			FPS:         v.FPS,
			DurationSec: v.DurationSec,
			CreatedAt:   v.CreatedAt,
		}
	}
	return out, nil
}

func (c *catalogAdapter) ListRuns(videoID string) ([]Run, error) {
	rows, err := c.db.ListRuns(videoID)
	if err != nil {
		return nil, err
	}
	out := make([]Run, len(rows))
	for i, r := range rows {
		out[i] = toRun(r)
	}
	return out, nil
}

func (c *catalogAdapter) DeleteVideo(videoID string) error {
	return c.db.DeleteVideoByID(videoID)
}

func (c *catalogAdapter) Close() error {
	return c.db.Close()
}

func toRun(r storage.DetectionRun) Run {
	return Run{
		ID:                   r.ID,
		VideoID:              r.VideoID,
		Detector:             r.Detector,
		CacheKey:             r.CacheKey,
		AdaptiveThreshold:    r.AdaptiveThreshold,
		MinContentVal:        r.MinContentVal,
		SSIMThreshold:        r.SSIMThreshold,
		MinSceneLengthSecs:   r.MinSceneLengthSecs,
		MinSceneLengthFrames: r.MinSceneLengthFrames,
		SceneCount:           r.SceneCount,
		ProcessingTimeMs:     r.ProcessingTimeMs,
		ResultPath:           r.ResultPath,
		CreatedAt:            r.CreatedAt,
	}
}
