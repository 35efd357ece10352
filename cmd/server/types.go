package main

import (
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe"
)

// ListVideosResponse is the response for GET /api/videos
type ListVideosResponse struct {
	Videos []scenescribe.Video `json:"videos"`
	Count  int                 `json:"count"`
}

// ListRunsResponse is the response for GET /api/videos/{id}/runs and GET /api/runs
type ListRunsResponse struct {
	Runs  []scenescribe.Run `json:"runs"`
	Count int               `json:"count"`
}

// MetricsResponse provides server health and catalog counts
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	VideoCount   int    `json:"video_count"`
	RunCount     int    `json:"run_count"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
