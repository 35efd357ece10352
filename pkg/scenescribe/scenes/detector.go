// Package scenes splits a video into shot-level scenes and scores detector
// output against hand-made annotations.
package scenes

import (
	"context"
	"time"

	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/timecode"
	"github.com/himanishpuri/SceneScribe/pkg/utils"
)

const (
	DetectorAdaptive = "adaptive"
	DetectorSSIM     = "ssim"
)

// Detector finds scene boundaries in a video. Implementations are
// deterministic: the same file and parameters give the same scenes.
type Detector interface {
	Name() string
	Detect(ctx context.Context, videoPath string) (*models.SceneDetectionResult, error)
	// CacheKey identifies the detector and all parameters that affect its output.
	CacheKey() string
}

// sceneInfo builds a scene spanning [startFrame, endFrame).
func sceneInfo(index, startFrame, endFrame int, startMs, endMs int64) models.SceneInfo {
	return models.SceneInfo{
		Index:      index,
		StartTime:  timecode.Format(startMs),
		EndTime:    timecode.Format(endMs),
		StartFrame: startFrame,
		EndFrame:   endFrame,
	}
}

func stampElapsed(res *models.SceneDetectionResult, started time.Time) {
	elapsed := time.Since(started)
	res.ProcessingTimeHuman = utils.FormatElapsed(elapsed)
	res.ProcessingTimeMs = float64(elapsed.Microseconds()) / 1000
}
