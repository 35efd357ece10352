package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"time"

	"github.com/himanishpuri/SceneScribe/pkg/logger"
	"github.com/himanishpuri/SceneScribe/pkg/utils"
)

// ExtractorConfig controls which frames are kept.
type ExtractorConfig struct {
	// Threshold is the SSIM score below which a sample counts as new content.
	Threshold          float64
	SampleIntervalSecs float64
	ImageFormat        ImageFormat
	JPEGQuality        int
}

// DefaultExtractorConfig samples once a second and keeps frames scoring below 0.9.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Threshold:          0.9,
		SampleIntervalSecs: 1.0,
		ImageFormat:        FormatJPEG,
		JPEGQuality:        90,
	}
}

// ExtractionResult lists the frames written by one extraction, in order.
type ExtractionResult struct {
	VideoPath      string
	OutputDir      string
	Frames         []FrameFile
	FramesDecoded  int
	FramesSampled  int
	FPS            float64
	ProcessingTime time.Duration
}

// SampleStride is the number of decoded frames between samples, never less than 1.
func SampleStride(fps, intervalSecs float64) int {
	stride := int(fps*intervalSecs + 0.5)
	if stride < 1 {
		return 1
	}
	return stride
}

// Extractor keeps frames that differ visually from the last kept frame.
type Extractor struct {
	opener Opener
	cfg    ExtractorConfig
	log    logger.Leveled
}

func NewExtractor(opener Opener, cfg ExtractorConfig, log logger.Leveled) *Extractor {
	if cfg.ImageFormat == "" {
		cfg.ImageFormat = FormatJPEG
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{opener: opener, cfg: cfg, log: log}
}

// Extract writes the kept frames of videoPath into outputDir. The first
// sampled frame is always kept. On error every file written by this call is
// removed.
func (e *Extractor) Extract(ctx context.Context, videoPath, outputDir string) (res *ExtractionResult, err error) {
	started := time.Now()

	if err := utils.MakeDir(outputDir); err != nil {
		return nil, err
	}

	stream, err := e.opener.Open(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	meta := stream.Metadata()
	stride := SampleStride(meta.FPS, e.cfg.SampleIntervalSecs)
	e.log.Debugf("extracting %s: %dx%d @ %.3f fps, stride %d", videoPath, meta.Width, meta.Height, meta.FPS, stride)

	res = &ExtractionResult{
		VideoPath: videoPath,
		OutputDir: outputDir,
		FPS:       meta.FPS,
	}
	defer func() {
		if err != nil {
			for _, f := range res.Frames {
				_ = utils.DeleteFile(f.Path)
			}
			res = nil
		}
	}()

	var (
		lastKept   *image.Gray
		lastKeptMs int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		frame, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}
		res.FramesDecoded++

		if frame.Ordinal%stride != 0 {
			continue
		}
		res.FramesSampled++

		gray := frame.Gray()
		keep := lastKept == nil
		if !keep {
			score, err := SSIM(lastKept, gray)
			if err != nil {
				return res, fmt.Errorf("compare frame %d: %w", frame.Ordinal, err)
			}
			keep = score < e.cfg.Threshold
		}
		if !keep {
			continue
		}

		startMs := lastKeptMs
		if lastKept == nil {
			startMs = frame.TimestampMs
		}
		name := FrameFileName(len(res.Frames), startMs, frame.TimestampMs, string(e.cfg.ImageFormat))
		path := filepath.Join(outputDir, name)
		if err := WriteImage(path, frame.RGBA(), e.cfg.ImageFormat, e.cfg.JPEGQuality); err != nil {
			return res, err
		}

		res.Frames = append(res.Frames, FrameFile{
			Path:    path,
			Index:   len(res.Frames),
			StartMs: startMs,
			EndMs:   frame.TimestampMs,
			Ext:     string(e.cfg.ImageFormat),
		})
		lastKept = gray
		lastKeptMs = frame.TimestampMs
	}

	res.ProcessingTime = time.Since(started)
	e.log.Infof("kept %d of %d sampled frames from %s", len(res.Frames), res.FramesSampled, filepath.Base(videoPath))
	return res, nil
}
