package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/himanishpuri/SceneScribe/pkg/logger"
	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service scenescribe.Service
	config  *ServerConfig
	log     scenescribe.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service scenescribe.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "SceneScribe API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":     "GET /health",
			"metrics":    "GET /api/health/metrics",
			"prometheus": "GET /metrics",
			"videos":     "GET /api/videos",
			"videoRuns":  "GET /api/videos/{id}/runs",
			"runs":       "GET /api/runs",
			"run":        "GET /api/runs/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	videos, err := s.service.ListVideos()
	if err != nil {
		s.log.Errorf("Failed to count videos: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}
	runs, err := s.service.ListRuns("")
	if err != nil {
		s.log.Errorf("Failed to count runs: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		VideoCount:   len(videos),
		RunCount:     len(runs),
	})
}

// handleListVideos handles GET /api/videos
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.service.ListVideos()
	if err != nil {
		s.log.Errorf("Failed to list videos: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve videos")
		return
	}
	if videos == nil {
		videos = []scenescribe.Video{}
	}
	s.respondJSON(w, http.StatusOK, ListVideosResponse{Videos: videos, Count: len(videos)})
}

// handleListRuns handles GET /api/runs and GET /api/videos/{id}/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("id")
	if videoID == "" {
		videoID = r.URL.Query().Get("video_id")
	}

	runs, err := s.service.ListRuns(videoID)
	if err != nil {
		s.log.Errorf("Failed to list runs: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}
	if runs == nil {
		runs = []scenescribe.Run{}
	}
	s.respondJSON(w, http.StatusOK, ListRunsResponse{Runs: runs, Count: len(runs)})
}

// handleGetRun handles GET /api/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	detail, err := s.service.GetRun(runID)
	if err != nil {
		if models.IsNotFound(err) {
			s.log.Warnf("Run not found: %s", runID)
			s.respondError(w, http.StatusNotFound, fmt.Sprintf("Run with ID %s not found", runID))
			return
		}
		s.log.Errorf("Failed to get run %s: %v", runID, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}
	s.respondJSON(w, http.StatusOK, detail)
}
