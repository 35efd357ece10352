package scenescribe

import (
	"time"

	"github.com/himanishpuri/SceneScribe/pkg/models"
)

// Video is a catalogued source video.
type Video struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	YouTubeID   string    `json:"youtube_id,omitempty"`
	FPS         float64   `json:"fps"`
	DurationSec float64   `json:"duration_sec"`
	CreatedAt   time.Time `json:"created_at"`
}

// Run is one recorded detector execution.
type Run struct {
	ID                   string    `json:"id"`
	VideoID              string    `json:"video_id"`
	Detector             string    `json:"detector"`
	CacheKey             string    `json:"cache_key"`
	AdaptiveThreshold    float64   `json:"adaptive_threshold,omitempty"`
	MinContentVal        float64   `json:"min_content_val,omitempty"`
	SSIMThreshold        float64   `json:"ssim_threshold,omitempty"`
	MinSceneLengthSecs   float64   `json:"min_scene_length_secs"`
	MinSceneLengthFrames int       `json:"min_scene_length_frames"`
	SceneCount           int       `json:"scene_count"`
	ProcessingTimeMs     float64   `json:"processing_time_ms"`
	ResultPath           string    `json:"result_path"`
	CreatedAt            time.Time `json:"created_at"`
}

// SceneRow is a catalogued scene with millisecond bounds.
type SceneRow struct {
	Index      int   `json:"index"`
	StartFrame int   `json:"start_frame"`
	EndFrame   int   `json:"end_frame"`
	StartMs    int64 `json:"start_ms"`
	EndMs      int64 `json:"end_ms"`
}

type Evaluation struct {
	ID             string    `json:"id"`
	RunID          string    `json:"run_id"`
	ToleranceSecs  float64   `json:"tolerance_secs"`
	MatchedCount   int       `json:"matched_count"`
	AnnotatedCount int       `json:"annotated_count"`
	DetectedCount  int       `json:"detected_count"`
	Accuracy       float64   `json:"accuracy"`
	Precision      float64   `json:"precision"`
	Recall         float64   `json:"recall"`
	F1Score        float64   `json:"f1_score"`
	CreatedAt      time.Time `json:"created_at"`
}

// RunDetail is a run with its scenes and evaluations.
type RunDetail struct {
	Run         Run          `json:"run"`
	Scenes      []SceneRow   `json:"scenes"`
	Evaluations []Evaluation `json:"evaluations"`
}

// Detection is the outcome of DetectScenes.
type Detection struct {
	Result     *models.SceneDetectionResult
	ResultPath string
	RunID      string
	Cached     bool
}

// Pipeline stages reported by ProcessVideo.
const (
	StageDownload  = "download_youtube_video"
	StageExtract   = "extract_frames"
	StageAlign     = "align_transcript"
	StageCompleted = "completed"
)

// ProcessResult reports how far ProcessVideo got for one video.
type ProcessResult struct {
	VideoID      string   `json:"video_id"`
	Stage        string   `json:"stage"`
	ErrorMessage string   `json:"error_message,omitempty"`
	FrameKeys    []string `json:"frame_keys,omitempty"`
	OutputKey    string   `json:"output_key,omitempty"`
	Skipped      bool     `json:"skipped"`
}

func (r *ProcessResult) Failed() bool { return r.ErrorMessage != "" }
