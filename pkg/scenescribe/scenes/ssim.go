package scenes

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/himanishpuri/SceneScribe/pkg/logger"
	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/timecode"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/video"
)

type SSIMConfig struct {
	// Threshold is the similarity below which consecutive samples start a new scene.
	Threshold          float64
	MinSceneLengthSecs float64
	SampleIntervalSecs float64
}

func DefaultSSIMConfig() SSIMConfig {
	return SSIMConfig{
		Threshold:          0.5,
		MinSceneLengthSecs: 2,
		SampleIntervalSecs: 0.5,
	}
}

// StructuralSimilarityDetector compares periodic samples and cuts where
// consecutive samples stop looking alike.
type StructuralSimilarityDetector struct {
	opener video.Opener
	cfg    SSIMConfig
	log    logger.Leveled
}

func NewStructuralSimilarityDetector(opener video.Opener, cfg SSIMConfig, log logger.Leveled) *StructuralSimilarityDetector {
	if log == nil {
		log = logger.Nop()
	}
	return &StructuralSimilarityDetector{opener: opener, cfg: cfg, log: log}
}

func (d *StructuralSimilarityDetector) Name() string { return DetectorSSIM }

func (d *StructuralSimilarityDetector) CacheKey() string {
	return fmt.Sprintf("%s-t%s-m%s-i%s",
		DetectorSSIM,
		formatParam(d.cfg.Threshold),
		formatParam(d.cfg.MinSceneLengthSecs),
		formatParam(d.cfg.SampleIntervalSecs),
	)
}

// Detect emits only closed scenes; the span after the last boundary is not reported.
func (d *StructuralSimilarityDetector) Detect(ctx context.Context, videoPath string) (*models.SceneDetectionResult, error) {
	started := time.Now()

	stream, err := d.opener.Open(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	meta := stream.Metadata()
	stride := video.SampleStride(meta.FPS, d.cfg.SampleIntervalSecs)
	minLen := timecode.SecondsToFrames(d.cfg.MinSceneLengthSecs, meta.FPS)

	var (
		scenes       = []models.SceneInfo{}
		lastSample   *image.Gray
		sceneStart   int
		sceneStartMs int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if frame.Ordinal%stride != 0 {
			continue
		}

		gray := frame.Gray()
		if lastSample != nil && frame.Ordinal-sceneStart >= minLen {
			score, err := video.SSIM(lastSample, gray)
			if err != nil {
				return nil, fmt.Errorf("compare frame %d: %w", frame.Ordinal, err)
			}
			if score < d.cfg.Threshold {
				scenes = append(scenes, sceneInfo(len(scenes), sceneStart, frame.Ordinal, sceneStartMs, frame.TimestampMs))
				sceneStart = frame.Ordinal
				sceneStartMs = frame.TimestampMs
			}
		}
		lastSample = gray
	}

	res := &models.SceneDetectionResult{
		VideoFilePath:        videoPath,
		DetectorName:         DetectorSSIM,
		SceneCount:           len(scenes),
		FrameRateSecs:        meta.FPS,
		MinSceneLengthSecs:   d.cfg.MinSceneLengthSecs,
		MinSceneLengthFrames: minLen,
		SSIMThreshold:        d.cfg.Threshold,
		SampleIntervalSecs:   d.cfg.SampleIntervalSecs,
		Scenes:               scenes,
	}
	stampElapsed(res, started)

	d.log.Infof("ssim: %d scenes in %s", res.SceneCount, videoPath)
	return res, nil
}
