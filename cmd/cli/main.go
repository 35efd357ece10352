package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/SceneScribe/internal/metrics"
	"github.com/himanishpuri/SceneScribe/internal/tracing"
	"github.com/himanishpuri/SceneScribe/pkg/logger"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/scenes"
	"github.com/himanishpuri/SceneScribe/pkg/utils"
)

// Global flags. Empty values fall back to the SCENESCRIBE_* environment.
var (
	dbPath      string
	tempDir     string
	dataDir     string
	logLevel    string
	metricsPort int
)

func init() {
	flag.StringVar(&dbPath, "db", "", "Path to the SQLite run catalog (env: SCENESCRIBE_DB_PATH)")
	flag.StringVar(&tempDir, "temp", "", "Directory for temporary files (env: SCENESCRIBE_TEMP_DIR)")
	flag.StringVar(&dataDir, "data", "", "Default output directory (env: SCENESCRIBE_DATA_DIR)")
	flag.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (env: SCENESCRIBE_LOG_LEVEL)")
	flag.IntVar(&metricsPort, "metrics-port", 0, "Serve Prometheus metrics on this port while the command runs")
}

type command struct {
	usage string
	run   func(ctx context.Context, svc scenescribe.Service, cfg *scenescribe.Config, args []string) error
}

var commands = map[string]command{
	"download": {"download [-out <dir>] <youtube_url>", handleDownload},
	"extract":  {"extract [-out <dir>] [-threshold <0-1>] [-interval <secs>] [-format jpg|png] <video>", handleExtract},
	"detect":   {"detect [-detector adaptive|ssim] [-out <dir>] [-min-scene-len <secs>] <video>", handleDetect},
	"evaluate": {"evaluate [-tolerance <secs>] <annotation.json> <result.json>", handleEvaluate},
	"annotate": {"annotate <result.json> <annotation.json>", handleAnnotate},
	"align":    {"align (-frames <dir> | -scenes <result.json>) [-out <file>] <captions.vtt>", handleAlign},
	"process":  {"process <youtube_video_id>", handleProcess},
	"runs":     {"runs [-run <run_id>] [video_id]", handleRuns},
	"delete":   {"delete <video_id>", handleDelete},
}

// loadConfig layers the global flags over the environment.
func loadConfig() (*scenescribe.Config, error) {
	var opts []scenescribe.Option
	if dbPath != "" {
		opts = append(opts, scenescribe.WithDBPath(dbPath))
	}
	if tempDir != "" {
		opts = append(opts, scenescribe.WithTempDir(tempDir))
	}
	if dataDir != "" {
		opts = append(opts, scenescribe.WithDataDir(dataDir))
	}
	cfg, err := scenescribe.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if metricsPort > 0 {
		cfg.MetricsPort = metricsPort
	}
	return cfg, nil
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	name := flag.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Printf("Unknown command: %s\n", name)
		printUsage()
		os.Exit(1)
	}

	os.Exit(run(name, cmd, flag.Args()[1:]))
}

func run(name string, cmd command, args []string) int {
	log := logger.GetLogger()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		return 1
	}
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint, "scenescribe-cli")
		if err != nil {
			log.Warnf("Tracing disabled: %v", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				tp.Shutdown(shutdownCtx)
			}()
		}
	}
	if cfg.MetricsPort > 0 {
		metrics.StartMetricsServer(ctx, cfg.MetricsPort, log.Zap())
	}

	log.Infof("Executing command: %s", name)

	svc, err := scenescribe.NewServiceFromConfig(cfg)
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		return 1
	}
	defer svc.Close()

	if err := cmd.run(ctx, svc, cfg, args); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Printf("Usage: scenescribe %s\n", cmd.usage)
			return 2
		}
		fmt.Printf("\n❌ %s failed: %v\n", name, err)
		log.Errorf("%s failed: %v", name, err)
		return 1
	}
	return 0
}

type usageError struct{}

func (usageError) Error() string { return "usage" }

// parse parses fs and checks that exactly want positional arguments remain.
func parse(fs *flag.FlagSet, args []string, want int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, usageError{}
	}
	if fs.NArg() != want {
		return nil, usageError{}
	}
	return fs.Args(), nil
}

func handleDownload(ctx context.Context, svc scenescribe.Service, cfg *scenescribe.Config, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	out := fs.String("out", cfg.DataDir, "Output directory")
	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	if !utils.IsYouTubeURL(pos[0]) {
		return fmt.Errorf("%q is not a YouTube URL", pos[0])
	}

	fmt.Println("📥 Downloading video and captions from YouTube...")
	fmt.Println("   This may take a few moments depending on video length")

	res, err := svc.Download(ctx, pos[0], *out)
	if err != nil {
		return err
	}

	fmt.Println("\n✅ Download complete")
	fmt.Printf("   Title:    %s\n", res.Metadata.Title)
	fmt.Printf("   Video:    %s\n", res.VideoPath)
	if res.CaptionsPath != "" {
		fmt.Printf("   Captions: %s\n", res.CaptionsPath)
	} else {
		fmt.Println("   Captions: none available")
	}
	if res.Metadata.Duration > 0 {
		fmt.Printf("   Duration: %s\n", time.Duration(res.Metadata.Duration*float64(time.Second)).Round(time.Second))
	}
	return nil
}

func handleExtract(ctx context.Context, svc scenescribe.Service, cfg *scenescribe.Config, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	out := fs.String("out", "", "Output directory (default: <data>/frames/<video name>)")
	fs.Float64Var(&cfg.FrameThreshold, "threshold", cfg.FrameThreshold, "Keep a frame when its similarity to the last kept frame is below this")
	fs.Float64Var(&cfg.FrameSampleIntervalSecs, "interval", cfg.FrameSampleIntervalSecs, "Seconds between sampled frames")
	fs.StringVar(&cfg.FrameFormat, "format", cfg.FrameFormat, "Image format: jpg or png")
	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	videoPath := pos[0]
	if *out == "" {
		*out = filepath.Join(cfg.DataDir, "frames", stem(videoPath))
	}

	fmt.Println("🎞️  Extracting distinct frames...")
	res, err := svc.ExtractFrames(ctx, videoPath, *out)
	if err != nil {
		return err
	}

	fmt.Printf("\n✅ Kept %s of %s sampled frames (%s decoded) in %s\n",
		humanize.Comma(int64(len(res.Frames))),
		humanize.Comma(int64(res.FramesSampled)),
		humanize.Comma(int64(res.FramesDecoded)),
		utils.FormatElapsed(res.ProcessingTime))
	fmt.Printf("   Output: %s\n", res.OutputDir)
	return nil
}

func handleDetect(ctx context.Context, svc scenescribe.Service, cfg *scenescribe.Config, args []string) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	detector := fs.String("detector", scenes.DetectorAdaptive, "Detector: adaptive or ssim")
	out := fs.String("out", "", "Directory for cached results (default: <data>/scenes/<video name>)")
	fs.Float64Var(&cfg.MinSceneLengthSecs, "min-scene-len", cfg.MinSceneLengthSecs, "Minimum scene length in seconds")
	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	videoPath := pos[0]
	if *out == "" {
		*out = filepath.Join(cfg.DataDir, "scenes", stem(videoPath))
	}

	fmt.Printf("🔍 Detecting scenes with the %s detector...\n", *detector)
	det, err := svc.DetectScenes(ctx, videoPath, *detector, *out)
	if err != nil {
		return err
	}

	res := det.Result
	if det.Cached {
		fmt.Println("\n♻️  Loaded cached result")
	} else {
		fmt.Printf("\n✅ Detection finished in %s\n", res.ProcessingTimeHuman)
	}
	fmt.Printf("   Scenes: %d\n", res.SceneCount)
	fmt.Printf("   Result: %s\n", det.ResultPath)
	if det.RunID != "" {
		fmt.Printf("   Run:    %s\n", det.RunID)
	}
	fmt.Println()
	for _, s := range res.Scenes {
		fmt.Printf("%4d. %s → %s  (frames %d-%d)\n", s.Index, s.StartTime, s.EndTime, s.StartFrame, s.EndFrame)
	}
	return nil
}

func handleEvaluate(ctx context.Context, svc scenescribe.Service, cfg *scenescribe.Config, args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	fs.Float64Var(&cfg.ToleranceSecs, "tolerance", cfg.ToleranceSecs, "Boundary tolerance in seconds")
	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}

	eval, err := svc.Evaluate(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}

	fmt.Printf("\n📊 %s on %s (tolerance %.2fs)\n", eval.DetectorName, eval.VideoFilePath, eval.ToleranceSecs)
	fmt.Printf("   Matched:   %d of %d annotated (%d detected)\n", eval.MatchedCount, eval.AnnotatedCount, eval.DetectedCount)
	fmt.Printf("   Accuracy:  %.1f%%\n", eval.Accuracy)
	fmt.Printf("   Precision: %.3f\n", eval.Precision)
	fmt.Printf("   Recall:    %.3f\n", eval.Recall)
	fmt.Printf("   F1:        %.3f\n", eval.F1Score)
	return nil
}

func handleAnnotate(_ context.Context, svc scenescribe.Service, _ *scenescribe.Config, args []string) error {
	fs := flag.NewFlagSet("annotate", flag.ContinueOnError)
	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}

	annotation, err := svc.Annotate(pos[0], pos[1])
	if err != nil {
		return err
	}
	fmt.Printf("✅ Wrote %d scenes to %s\n", len(annotation.Scenes), pos[1])
	fmt.Println("   Edit the boundaries by hand, then run: scenescribe evaluate")
	return nil
}

func handleAlign(ctx context.Context, svc scenescribe.Service, cfg *scenescribe.Config, args []string) error {
	fs := flag.NewFlagSet("align", flag.ContinueOnError)
	framesDir := fs.String("frames", "", "Directory of extracted frames")
	resultPath := fs.String("scenes", "", "Scene detection result file")
	out := fs.String("out", "", "Output file (default: <data>/frames.json.gz)")
	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	if (*framesDir == "") == (*resultPath == "") {
		return usageError{}
	}
	if *out == "" {
		*out = filepath.Join(cfg.DataDir, "frames.json.gz")
	}

	var frames int
	if *framesDir != "" {
		output, err := svc.AlignFrames(ctx, pos[0], *framesDir, *out)
		if err != nil {
			return err
		}
		frames = len(output.Frames)
	} else {
		output, err := svc.AlignScenes(ctx, pos[0], *resultPath, *out)
		if err != nil {
			return err
		}
		frames = len(output.Frames)
	}

	size := ""
	if info, err := os.Stat(*out); err == nil {
		size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
	}
	fmt.Printf("✅ Aligned transcript to %d windows\n", frames)
	fmt.Printf("   Output: %s%s\n", *out, size)
	return nil
}

func handleProcess(ctx context.Context, svc scenescribe.Service, _ *scenescribe.Config, args []string) error {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	videoID := pos[0]
	if utils.IsYouTubeURL(videoID) {
		if videoID, err = utils.ExtractYouTubeID(videoID); err != nil {
			return err
		}
	}

	fmt.Printf("⚙️  Processing video %s...\n", videoID)
	res, err := svc.ProcessVideo(ctx, videoID)
	if err != nil {
		return err
	}
	if res.Failed() {
		return fmt.Errorf("stage %s: %s", res.Stage, res.ErrorMessage)
	}

	fmt.Println("\n✅ Processing complete")
	if res.Skipped {
		fmt.Println("   Frames already extracted, extraction skipped")
	}
	fmt.Printf("   Frames: %d\n", len(res.FrameKeys))
	fmt.Printf("   Output: %s\n", res.OutputKey)
	return nil
}

func handleRuns(_ context.Context, svc scenescribe.Service, _ *scenescribe.Config, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	runID := fs.String("run", "", "Show one run with its scenes and evaluations")
	if err := fs.Parse(args); err != nil || fs.NArg() > 1 {
		return usageError{}
	}

	if *runID != "" {
		return printRun(svc, *runID)
	}

	if fs.NArg() == 0 {
		videos, err := svc.ListVideos()
		if err != nil {
			return err
		}
		if len(videos) == 0 {
			fmt.Println("\n📭 No videos in the catalog")
			return nil
		}
		fmt.Printf("\n📚 Found %d video(s):\n\n", len(videos))
		for i, v := range videos {
			fmt.Printf("%d. %s (ID: %s)\n", i+1, v.Path, v.ID)
			if v.YouTubeID != "" {
				fmt.Printf("   YouTube: %s\n", utils.YouTubeWatchURL(v.YouTubeID))
			}
			fmt.Printf("   Added:   %s\n\n", humanize.Time(v.CreatedAt))
		}
		return nil
	}

	runs, err := svc.ListRuns(fs.Arg(0))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("\n📭 No runs for this video")
		return nil
	}
	fmt.Printf("\n📚 Found %d run(s):\n\n", len(runs))
	for i, r := range runs {
		fmt.Printf("%d. %s  %s  %d scenes  (%s)\n", i+1, r.ID, r.CacheKey, r.SceneCount, humanize.Time(r.CreatedAt))
	}
	return nil
}

func printRun(svc scenescribe.Service, runID string) error {
	detail, err := svc.GetRun(runID)
	if err != nil {
		return err
	}
	r := detail.Run
	fmt.Printf("\nRun %s\n", r.ID)
	fmt.Printf("   Detector: %s (%s)\n", r.Detector, r.CacheKey)
	fmt.Printf("   Scenes:   %d\n", r.SceneCount)
	fmt.Printf("   Took:     %s\n", utils.FormatElapsed(time.Duration(r.ProcessingTimeMs*float64(time.Millisecond))))
	fmt.Printf("   Result:   %s\n", r.ResultPath)
	fmt.Printf("   Created:  %s\n\n", humanize.Time(r.CreatedAt))
	for _, s := range detail.Scenes {
		fmt.Printf("%4d. %8dms → %8dms\n", s.Index, s.StartMs, s.EndMs)
	}
	for _, e := range detail.Evaluations {
		fmt.Printf("\n📊 Evaluation %s: F1 %.3f (precision %.3f, recall %.3f, tolerance %.2fs)\n",
			humanize.Time(e.CreatedAt), e.F1Score, e.Precision, e.Recall, e.ToleranceSecs)
	}
	return nil
}

func handleDelete(_ context.Context, svc scenescribe.Service, _ *scenescribe.Config, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	if err := svc.DeleteVideo(pos[0]); err != nil {
		return err
	}
	fmt.Printf("✅ Deleted video %s and its runs\n", pos[0])
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func printUsage() {
	fmt.Println("SceneScribe - video segmentation and transcript alignment")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  -db <path>            SQLite run catalog (env: SCENESCRIBE_DB_PATH)")
	fmt.Println("  -temp <dir>           Temporary directory (env: SCENESCRIBE_TEMP_DIR)")
	fmt.Println("  -data <dir>           Default output directory (env: SCENESCRIBE_DATA_DIR)")
	fmt.Println("  -log-level <level>    debug, info, warn or error")
	fmt.Println("  -metrics-port <port>  Serve Prometheus metrics while running")
	fmt.Println("\nUsage:")
	for _, name := range []string{"download", "extract", "detect", "evaluate", "annotate", "align", "process", "runs", "delete"} {
		fmt.Printf("  scenescribe [global-options] %s\n", commands[name].usage)
	}
	fmt.Println("\nExamples:")
	fmt.Println("  # Detect scenes with the SSIM detector")
	fmt.Println("  scenescribe detect -detector ssim -min-scene-len 3 talk.mp4")
	fmt.Println()
	fmt.Println("  # Align auto captions to extracted frames")
	fmt.Println("  scenescribe align -frames data/frames/talk -out talk.json.gz talk.en.vtt")
	fmt.Println()
	fmt.Println("  # Run the full pipeline for a YouTube video")
	fmt.Println("  scenescribe process dQw4w9WgXcQ")
}
