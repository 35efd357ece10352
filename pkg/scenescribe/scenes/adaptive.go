package scenes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/himanishpuri/SceneScribe/pkg/logger"
	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/timecode"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/video"
)

// maxAdaptiveRatio caps the ratio when the surrounding frames are static.
const maxAdaptiveRatio = 255.0

type AdaptiveConfig struct {
	// AdaptiveThreshold is the minimum ratio of a frame's content change to
	// the average change of its neighbours.
	AdaptiveThreshold float64
	// MinContentValue is the smallest absolute change considered a candidate.
	MinContentValue    float64
	MinSceneLengthSecs float64
	// WindowWidth is the number of neighbours averaged on each side.
	WindowWidth int
}

func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		AdaptiveThreshold:  3.0,
		MinContentValue:    15.0,
		MinSceneLengthSecs: 2,
		WindowWidth:        2,
	}
}

// AdaptiveDetector cuts where the HSV content change of a frame is large
// relative to its rolling neighbourhood.
type AdaptiveDetector struct {
	opener video.Opener
	cfg    AdaptiveConfig
	log    logger.Leveled
}

func NewAdaptiveDetector(opener video.Opener, cfg AdaptiveConfig, log logger.Leveled) *AdaptiveDetector {
	if cfg.WindowWidth < 1 {
		cfg.WindowWidth = 2
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AdaptiveDetector{opener: opener, cfg: cfg, log: log}
}

func (d *AdaptiveDetector) Name() string { return DetectorAdaptive }

func (d *AdaptiveDetector) CacheKey() string {
	return fmt.Sprintf("%s-t%s-c%s-m%s-w%d",
		DetectorAdaptive,
		formatParam(d.cfg.AdaptiveThreshold),
		formatParam(d.cfg.MinContentValue),
		formatParam(d.cfg.MinSceneLengthSecs),
		d.cfg.WindowWidth,
	)
}

func (d *AdaptiveDetector) Detect(ctx context.Context, videoPath string) (*models.SceneDetectionResult, error) {
	started := time.Now()

	stream, err := d.opener.Open(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	meta := stream.Metadata()
	content, err := contentValues(ctx, stream)
	if err != nil {
		return nil, err
	}

	minLen := timecode.SecondsToFrames(d.cfg.MinSceneLengthSecs, meta.FPS)
	cuts := adaptiveCuts(content, d.cfg.AdaptiveThreshold, d.cfg.MinContentValue, d.cfg.WindowWidth, minLen)

	res := &models.SceneDetectionResult{
		VideoFilePath:        videoPath,
		DetectorName:         DetectorAdaptive,
		FrameRateSecs:        meta.FPS,
		MinSceneLengthSecs:   d.cfg.MinSceneLengthSecs,
		MinSceneLengthFrames: minLen,
		AdaptiveThreshold:    d.cfg.AdaptiveThreshold,
		MinContentVal:        d.cfg.MinContentValue,
		Scenes:               scenesFromCuts(cuts, len(content), meta),
	}
	res.SceneCount = len(res.Scenes)
	stampElapsed(res, started)

	d.log.Infof("adaptive: %d scenes in %s (%d frames)", res.SceneCount, videoPath, len(content))
	return res, nil
}

// contentValues decodes the whole stream and returns the content change of
// every frame relative to its predecessor. Frame 0 has no predecessor and scores 0.
func contentValues(ctx context.Context, stream video.Stream) ([]float64, error) {
	var (
		values    []float64
		prev, cur hsvPlanes
		havePrev  bool
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return values, nil
		}
		if err != nil {
			return nil, err
		}

		toHSV(frame.Pix, frame.Width*frame.Height, &cur)
		if havePrev {
			values = append(values, contentDelta(&prev, &cur))
		} else {
			values = append(values, 0)
			havePrev = true
		}
		prev, cur = cur, prev
	}
}

// adaptiveCuts returns the frame ordinals that start a new scene. Frames
// without a full neighbourhood on both sides are never cuts.
func adaptiveCuts(content []float64, threshold, minContent float64, window, minLen int) []int {
	var cuts []int
	lastCut := 0
	for t := window; t < len(content)-window; t++ {
		var sum float64
		for k := 1; k <= window; k++ {
			sum += content[t-k] + content[t+k]
		}
		avg := sum / float64(2*window)

		var ratio float64
		switch {
		case avg >= 1e-5:
			ratio = content[t] / avg
			if ratio > maxAdaptiveRatio {
				ratio = maxAdaptiveRatio
			}
		case content[t] >= minContent:
			ratio = maxAdaptiveRatio
		}

		if ratio >= threshold && content[t] >= minContent && t-lastCut >= minLen {
			cuts = append(cuts, t)
			lastCut = t
		}
	}
	return cuts
}

func scenesFromCuts(cuts []int, total int, meta video.Metadata) []models.SceneInfo {
	if total == 0 {
		return []models.SceneInfo{}
	}
	bounds := append([]int{0}, cuts...)
	bounds = append(bounds, total)

	out := make([]models.SceneInfo, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		start, end := bounds[i], bounds[i+1]
		out = append(out, sceneInfo(i, start, end, meta.TimestampMs(start), meta.TimestampMs(end)))
	}
	return out
}

func formatParam(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
