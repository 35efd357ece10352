package models

// SceneInfo is one detected scene. Times are "HH:MM:SS.mmm".
type SceneInfo struct {
	Index      int    `json:"index"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	StartFrame int    `json:"start_frame"`
	EndFrame   int    `json:"end_frame"`
}

// SceneDetectionResult is an immutable snapshot of a single detector run,
// including the configuration that produced it.
type SceneDetectionResult struct {
	VideoFilePath        string      `json:"video_file_path"`
	DetectorName         string      `json:"detector_name"`
	SceneCount           int         `json:"scene_count"`
	FrameRateSecs        float64     `json:"frame_rate_secs"`
	MinSceneLengthSecs   float64     `json:"min_scene_length_secs"`
	MinSceneLengthFrames int         `json:"min_scene_length_frames"`
	AdaptiveThreshold    float64     `json:"adaptive_threshold"`
	MinContentVal        float64     `json:"min_content_val"`
	SSIMThreshold        float64     `json:"ssim_threshold,omitempty"`
	SampleIntervalSecs   float64     `json:"sample_interval_secs,omitempty"`
	Scenes               []SceneInfo `json:"scenes"`
	ProcessingTimeHuman  string      `json:"processing_time_human"`
	ProcessingTimeMs     float64     `json:"processing_time_ms"`
}

// AnnotatedSceneInfo is a human-labelled scene boundary pair.
type AnnotatedSceneInfo struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// VideoSceneAnnotation is externally authored ground truth for one video.
type VideoSceneAnnotation struct {
	VideoFilePath string               `json:"video_file_path"`
	FrameRateSecs float64              `json:"frame_rate_secs"`
	Scenes        []AnnotatedSceneInfo `json:"scenes"`
}

// SceneDetectorEvaluationResult scores a detection result against an annotation.
type SceneDetectorEvaluationResult struct {
	VideoFilePath      string  `json:"video_file_path"`
	DetectorName       string  `json:"detector_name"`
	MinSceneLengthSecs float64 `json:"min_scene_length_secs"`
	AdaptiveThreshold  float64 `json:"adaptive_threshold"`
	MinContentVal      float64 `json:"min_content_val"`
	SSIMThreshold      float64 `json:"ssim_threshold,omitempty"`
	ToleranceSecs      float64 `json:"tolerance_secs"`
	MatchedCount       int     `json:"matched_count"`
	AnnotatedCount     int     `json:"annotated_count"`
	DetectedCount      int     `json:"detected_count"`
	Accuracy           float64 `json:"accuracy"`
	Precision          float64 `json:"precision"`
	Recall             float64 `json:"recall"`
	F1Score            float64 `json:"f1_score"`
}
