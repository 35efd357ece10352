package scenescribe

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/SceneScribe/internal/metrics"
	"github.com/himanishpuri/SceneScribe/internal/tracing"
	"github.com/himanishpuri/SceneScribe/pkg/logger"
	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/alignment"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/blob"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/captions"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/download"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/scenes"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/video"
)

// sceneService is the default implementation of the Service interface.
type sceneService struct {
	catalog    Catalog
	blob       blob.Storage
	opener     video.Opener
	downloader Downloader
	log        Logger
	config     *Config
}

// NewService builds a service from the built-in defaults and opts.
func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return NewServiceFromConfig(cfg)
}

// NewServiceFromConfig builds a service from a fully populated Config,
// typically the result of LoadConfig.
func NewServiceFromConfig(cfg *Config) (Service, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	var err error
	catalog := cfg.Catalog
	if catalog == nil {
		catalog, err = NewSQLiteCatalog(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
	}

	store := cfg.Blob
	if store == nil {
		store, err = newBlobStorage(cfg)
		if err != nil {
			catalog.Close()
			return nil, fmt.Errorf("failed to create blob storage: %w", err)
		}
	}

	opener := cfg.Opener
	if opener == nil {
		opener = video.NewFFmpegOpener(cfg.FFmpegPath, cfg.FFprobePath)
	}

	dl := cfg.Downloader
	if dl == nil {
		dl = download.New(download.Config{
			AutoInstall:        cfg.YTDLPAutoInstall,
			CookiesFromBrowser: cfg.CookiesFromBrowser,
		}, cfg.Logger)
	}

	return &sceneService{
		catalog:    catalog,
		blob:       store,
		opener:     opener,
		downloader: dl,
		log:        cfg.Logger,
		config:     cfg,
	}, nil
}

func newBlobStorage(cfg *Config) (blob.Storage, error) {
	switch cfg.BlobBackend {
	case "", "local":
		return blob.NewLocal(cfg.BlobRoot)
	case "minio":
		store, err := blob.NewMinIO(blob.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.MinIOBucket,
		})
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

func (s *sceneService) Download(ctx context.Context, youtubeURL, outputDir string) (res *download.Result, err error) {
	ctx, span := tracing.Start(ctx, StageDownload)
	defer func() { tracing.End(span, err) }()

	started := time.Now()
	res, err = s.downloader.Download(ctx, youtubeURL, outputDir)
	metrics.StageDuration.WithLabelValues(StageDownload).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", youtubeURL, err)
	}

	if _, err := s.catalog.RegisterVideo(res.VideoPath, res.Metadata.ID, 0, res.Metadata.Duration); err != nil {
		s.log.Warnf("could not catalog %s: %v", res.VideoPath, err)
	}
	return res, nil
}

func (s *sceneService) extractor() (*video.Extractor, error) {
	format, err := video.ParseImageFormat(s.config.FrameFormat)
	if err != nil {
		return nil, err
	}
	return video.NewExtractor(s.opener, video.ExtractorConfig{
		Threshold:          s.config.FrameThreshold,
		SampleIntervalSecs: s.config.FrameSampleIntervalSecs,
		ImageFormat:        format,
		JPEGQuality:        s.config.JPEGQuality,
	}, s.log), nil
}

func (s *sceneService) ExtractFrames(ctx context.Context, videoPath, outputDir string) (res *video.ExtractionResult, err error) {
	ctx, span := tracing.Start(ctx, StageExtract)
	defer func() { tracing.End(span, err) }()

	ex, err := s.extractor()
	if err != nil {
		return nil, err
	}
	res, err = ex.Extract(ctx, videoPath, outputDir)
	if err != nil {
		return nil, err
	}

	metrics.StageDuration.WithLabelValues(StageExtract).Observe(res.ProcessingTime.Seconds())
	metrics.FramesSampledTotal.Add(float64(res.FramesSampled))
	metrics.FramesKeptTotal.Add(float64(len(res.Frames)))
	s.log.Infof("extracted %s frames from %s into %s",
		humanize.Comma(int64(len(res.Frames))), filepath.Base(videoPath), outputDir)
	return res, nil
}

// Detector builds the named detector from the service configuration.
func (s *sceneService) Detector(name string) (scenes.Detector, error) {
	switch name {
	case scenes.DetectorAdaptive:
		return scenes.NewAdaptiveDetector(s.opener, scenes.AdaptiveConfig{
			AdaptiveThreshold:  s.config.AdaptiveThreshold,
			MinContentValue:    s.config.MinContentValue,
			MinSceneLengthSecs: s.config.MinSceneLengthSecs,
			WindowWidth:        s.config.AdaptiveWindowWidth,
		}, s.log), nil
	case scenes.DetectorSSIM:
		return scenes.NewStructuralSimilarityDetector(s.opener, scenes.SSIMConfig{
			Threshold:          s.config.SSIMThreshold,
			MinSceneLengthSecs: s.config.MinSceneLengthSecs,
			SampleIntervalSecs: s.config.SSIMSampleIntervalSecs,
		}, s.log), nil
	default:
		return nil, models.NewValidationError(
			fmt.Sprintf("unknown detector %q, expected %q or %q", name, scenes.DetectorAdaptive, scenes.DetectorSSIM), nil)
	}
}

func (s *sceneService) DetectScenes(ctx context.Context, videoPath, detectorName, outputDir string) (det *Detection, err error) {
	ctx, span := tracing.Start(ctx, "detect_scenes")
	defer func() { tracing.End(span, err) }()

	d, err := s.Detector(detectorName)
	if err != nil {
		return nil, err
	}

	store := scenes.NewResultStore(outputDir, s.log)
	res, cached, err := store.LoadOrDetect(ctx, d, videoPath)
	if err != nil {
		return nil, err
	}

	det = &Detection{
		Result:     res,
		ResultPath: filepath.Join(outputDir, scenes.ResultFileName(d)),
		Cached:     cached,
	}
	if cached {
		metrics.DetectionCacheHitsTotal.WithLabelValues(d.Name()).Inc()
		run, err := s.catalog.FindRunByResultPath(det.ResultPath)
		if err == nil {
			det.RunID = run.ID
			return det, nil
		}
		if !models.IsNotFound(err) {
			return nil, err
		}
		// A result file from before the catalog existed is recorded now.
	} else {
		metrics.ScenesDetectedTotal.WithLabelValues(d.Name()).Add(float64(res.SceneCount))
		metrics.StageDuration.WithLabelValues("detect_" + d.Name()).Observe(res.ProcessingTimeMs / 1000)
	}

	videoID, err := s.catalog.RegisterVideo(videoPath, "", res.FrameRateSecs, 0)
	if err != nil {
		return nil, fmt.Errorf("register video: %w", err)
	}
	det.RunID, err = s.catalog.RecordDetection(videoID, d.CacheKey(), det.ResultPath, res)
	if err != nil {
		return nil, fmt.Errorf("record detection: %w", err)
	}

	s.log.Infof("%s found %d scenes in %s (%s)", d.Name(), res.SceneCount, filepath.Base(videoPath), res.ProcessingTimeHuman)
	return det, nil
}

func (s *sceneService) Evaluate(ctx context.Context, annotationPath, resultPath string) (*models.SceneDetectorEvaluationResult, error) {
	_, span := tracing.Start(ctx, "evaluate")
	defer span.End()

	annotation, err := scenes.LoadAnnotation(annotationPath)
	if err != nil {
		return nil, err
	}
	result, err := scenes.LoadResult(resultPath)
	if err != nil {
		return nil, err
	}

	eval, err := scenes.NewEvaluator(s.config.ToleranceSecs).Evaluate(annotation, result)
	if err != nil {
		return nil, err
	}
	metrics.EvaluationF1.WithLabelValues(eval.DetectorName).Observe(eval.F1Score)

	run, err := s.catalog.FindRunByResultPath(resultPath)
	switch {
	case err == nil:
		if _, err := s.catalog.RecordEvaluation(run.ID, eval); err != nil {
			return nil, fmt.Errorf("record evaluation: %w", err)
		}
	case models.IsNotFound(err):
		s.log.Debugf("no catalogued run for %s; evaluation not recorded", resultPath)
	default:
		return nil, err
	}
	return eval, nil
}

func (s *sceneService) Annotate(resultPath, annotationPath string) (*models.VideoSceneAnnotation, error) {
	result, err := scenes.LoadResult(resultPath)
	if err != nil {
		return nil, err
	}
	annotation := scenes.AnnotationFromResult(result)
	if err := scenes.SaveAnnotation(annotationPath, annotation); err != nil {
		return nil, err
	}
	s.log.Infof("wrote %d annotated scenes to %s", len(annotation.Scenes), annotationPath)
	return annotation, nil
}

func (s *sceneService) AlignFrames(ctx context.Context, captionsPath, framesDir, outputPath string) (*models.FrameOutput, error) {
	windows, err := alignment.ListFrameWindows(framesDir)
	if err != nil {
		return nil, err
	}
	return s.align(ctx, captionsPath, windows, outputPath)
}

func (s *sceneService) AlignScenes(ctx context.Context, captionsPath, resultPath, outputPath string) (*models.FrameOutput, error) {
	result, err := scenes.LoadResult(resultPath)
	if err != nil {
		return nil, err
	}
	windows, err := alignment.WindowsFromScenes(result)
	if err != nil {
		return nil, err
	}
	return s.align(ctx, captionsPath, windows, outputPath)
}

func (s *sceneService) align(ctx context.Context, captionsPath string, windows []alignment.Window, outputPath string) (out *models.FrameOutput, err error) {
	_, span := tracing.Start(ctx, StageAlign)
	defer func() { tracing.End(span, err) }()

	transcript, err := captions.ParseFile(captionsPath)
	if err != nil {
		return nil, err
	}
	out = alignment.Align(transcript, windows)
	if outputPath != "" {
		if err := alignment.SaveFrameOutput(outputPath, out); err != nil {
			return nil, err
		}
	}
	s.log.Infof("aligned %d phrases to %d windows", len(transcript.Phrases), len(out.Frames))
	return out, nil
}

func (s *sceneService) ListVideos() ([]Video, error) {
	return s.catalog.ListVideos()
}

func (s *sceneService) ListRuns(videoID string) ([]Run, error) {
	return s.catalog.ListRuns(videoID)
}

func (s *sceneService) GetRun(runID string) (*RunDetail, error) {
	run, err := s.catalog.GetRun(runID)
	if err != nil {
		return nil, err
	}
	sceneRows, err := s.catalog.GetScenes(runID)
	if err != nil {
		return nil, err
	}
	evals, err := s.catalog.ListEvaluations(runID)
	if err != nil {
		return nil, err
	}
	return &RunDetail{Run: *run, Scenes: sceneRows, Evaluations: evals}, nil
}

// DeleteVideo removes a video with its runs, scenes and evaluations from the
// catalog. Result files on disk are left alone.
func (s *sceneService) DeleteVideo(videoID string) error {
	return s.catalog.DeleteVideo(videoID)
}

func (s *sceneService) Close() error {
	return s.catalog.Close()
}
