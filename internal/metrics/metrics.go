package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesSampledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenescribe_frames_sampled_total",
		Help: "Total number of sampled frames compared by the extractor",
	})

	FramesKeptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenescribe_frames_kept_total",
		Help: "Total number of frames written by the extractor",
	})

	ScenesDetectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenescribe_scenes_detected_total",
		Help: "Total number of scenes detected, by detector",
	}, []string{"detector"})

	DetectionCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenescribe_detection_cache_hits_total",
		Help: "Detection requests served from the result cache, by detector",
	}, []string{"detector"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scenescribe_stage_duration_seconds",
		Help:    "Duration of pipeline stages",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	EvaluationF1 = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scenescribe_evaluation_f1",
		Help:    "F1 score of scene detector evaluations",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	}, []string{"detector"})

	PipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenescribe_pipeline_runs_total",
		Help: "Total number of ProcessVideo runs, by final stage and status",
	}, []string{"stage", "status"})
)
