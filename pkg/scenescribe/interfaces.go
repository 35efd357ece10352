package scenescribe

import (
	"context"

	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/download"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/scenes"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/video"
)

type Service interface {
	Download(ctx context.Context, youtubeURL, outputDir string) (*download.Result, error)
	ExtractFrames(ctx context.Context, videoPath, outputDir string) (*video.ExtractionResult, error)
	DetectScenes(ctx context.Context, videoPath, detector, outputDir string) (*Detection, error)
	Evaluate(ctx context.Context, annotationPath, resultPath string) (*models.SceneDetectorEvaluationResult, error)
	Annotate(resultPath, annotationPath string) (*models.VideoSceneAnnotation, error)
	AlignFrames(ctx context.Context, captionsPath, framesDir, outputPath string) (*models.FrameOutput, error)
	AlignScenes(ctx context.Context, captionsPath, resultPath, outputPath string) (*models.FrameOutput, error)
	ProcessVideo(ctx context.Context, videoID string) (*ProcessResult, error)
	Detector(name string) (scenes.Detector, error)
	ListVideos() ([]Video, error)
	ListRuns(videoID string) ([]Run, error)
	GetRun(runID string) (*RunDetail, error)
	DeleteVideo(videoID string) error
	Close() error
}

// Catalog records videos, detection runs and evaluations.
type Catalog interface {
	RegisterVideo(path, youtubeID string, fps, durationSec float64) (string, error)
	RecordDetection(videoID, cacheKey, resultPath string, res *models.SceneDetectionResult) (string, error)
	RecordEvaluation(runID string, e *models.SceneDetectorEvaluationResult) (string, error)
	FindRunByResultPath(resultPath string) (*Run, error)
	GetRun(runID string) (*Run, error)
	GetScenes(runID string) ([]SceneRow, error)
	ListEvaluations(runID string) ([]Evaluation, error)
	ListVideos() ([]Video, error)
	ListRuns(videoID string) ([]Run, error)
	DeleteVideo(videoID string) error
	Close() error
}

type Downloader interface {
	Download(ctx context.Context, youtubeURL, outputDir string) (*download.Result, error)
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
