//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/timecode"
)

const DefaultDBFile = "scenescribe.sqlite3"
const errDBClientNil = "db client is nil"

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Video struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Path        string    `gorm:"uniqueIndex:idx_video_path" json:"path"`
	YouTubeID   string    `gorm:"index:idx_youtube_id" json:"youtube_id"`
	FPS         float64   `json:"fps"`
	DurationSec float64   `json:"duration_sec"`
	CreatedAt   time.Time `json:"created_at"`
}

type DetectionRun struct {
	ID                   string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	VideoID              string    `gorm:"type:varchar(36);index:idx_run_video" json:"video_id"`
	Detector             string    `gorm:"index:idx_run_detector" json:"detector"`
	CacheKey             string    `json:"cache_key"`
	AdaptiveThreshold    float64   `json:"adaptive_threshold"`
	MinContentVal        float64   `json:"min_content_val"`
	SSIMThreshold        float64   `json:"ssim_threshold"`
	MinSceneLengthSecs   float64   `json:"min_scene_length_secs"`
	MinSceneLengthFrames int       `json:"min_scene_length_frames"`
	SceneCount           int       `json:"scene_count"`
	ProcessingTimeMs     float64   `json:"processing_time_ms"`
	ResultPath           string    `json:"result_path"`
	CreatedAt            time.Time `json:"created_at"`
}

type Scene struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	RunID      string `gorm:"type:varchar(36);index:idx_scene_run" json:"run_id"`
	Index      int    `gorm:"column:scene_index" json:"index"`
	StartFrame int    `json:"start_frame"`
	EndFrame   int    `json:"end_frame"`
	StartMs    int64  `json:"start_ms"`
	EndMs      int64  `json:"end_ms"`
}

type Evaluation struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RunID          string    `gorm:"type:varchar(36);index:idx_eval_run" json:"run_id"`
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

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("SCENESCRIBE_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !os.IsExist(err) {
		if filepath.Dir(dbPath) != "." {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Video{}, &DetectionRun{}, &Scene{}, &Evaluation{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RegisterVideo returns the id of the video at path, creating it on first
// sight. A missing YouTube id or frame rate is filled in on later calls.
func (c *DBClient) RegisterVideo(path, youtubeID string, fps, durationSec float64) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}
	path = filepath.Clean(path)

	var video Video
	err := c.DB.Where("path = ?", path).First(&video).Error
	if err == nil {
		updates := map[string]any{}
		if video.YouTubeID == "" && youtubeID != "" {
			updates["YouTubeID"] = youtubeID
		}
		if video.FPS == 0 && fps > 0 {
			updates["FPS"] = fps
		}
		if video.DurationSec == 0 && durationSec > 0 {
			updates["DurationSec"] = durationSec
		}
		if len(updates) > 0 {
			if err := c.DB.Model(&video).Updates(updates).Error; err != nil {
				return "", fmt.Errorf("updating video: %w", err)
			}
		}
		return video.ID, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("querying existing video: %w", err)
	}

	video = Video{ID: uuid.NewString(), Path: path, YouTubeID: youtubeID, FPS: fps, DurationSec: durationSec}
	err = c.DB.Create(&video).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			(err.Error() != "" && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
				strings.Contains(err.Error(), "constraint failed"))) {
			if fetchErr := c.DB.Where("path = ?", path).First(&video).Error; fetchErr != nil {
				return "", fmt.Errorf("fetching video after constraint violation: %w", fetchErr)
			}
			return video.ID, nil
		}
		return "", fmt.Errorf("creating video: %w", err)
	}

	return video.ID, nil
}

func (c *DBClient) GetVideo(id string) (*Video, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var video Video
	if err := c.DB.Where("id = ?", id).First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(fmt.Sprintf("video %s", id), err)
		}
		return nil, fmt.Errorf("querying video: %w", err)
	}
	return &video, nil
}

func (c *DBClient) ListVideos() ([]Video, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var videos []Video
	if err := c.DB.Order("created_at asc").Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	return videos, nil
}

// RecordDetection stores a detection run and its scenes in one transaction.
func (c *DBClient) RecordDetection(videoID, cacheKey, resultPath string, res *models.SceneDetectionResult) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	run := DetectionRun{
		ID:                   uuid.NewString(),
		VideoID:              videoID,
		Detector:             res.DetectorName,
		CacheKey:             cacheKey,
		AdaptiveThreshold:    res.AdaptiveThreshold,
		MinContentVal:        res.MinContentVal,
		SSIMThreshold:        res.SSIMThreshold,
		MinSceneLengthSecs:   res.MinSceneLengthSecs,
		MinSceneLengthFrames: res.MinSceneLengthFrames,
		SceneCount:           res.SceneCount,
		ProcessingTimeMs:     res.ProcessingTimeMs,
		ResultPath:           cleanPath(resultPath),
	}

	rows := make([]Scene, 0, len(res.Scenes))
	for _, s := range res.Scenes {
		startMs, err := timecode.ToMs(s.StartTime)
		if err != nil {
			return "", err
		}
		endMs, err := timecode.ToMs(s.EndTime)
		if err != nil {
			return "", err
		}
		rows = append(rows, Scene{
			RunID:      run.ID,
			Index:      s.Index,
			StartFrame: s.StartFrame,
			EndFrame:   s.EndFrame,
			StartMs:    startMs,
			EndMs:      endMs,
		})
	}

	err := c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("creating run: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 500).Error; err != nil {
				return fmt.Errorf("batch insert scenes: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

func (c *DBClient) GetRun(id string) (*DetectionRun, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var run DetectionRun
	if err := c.DB.Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(fmt.Sprintf("run %s", id), err)
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return &run, nil
}

// FindRunByResultPath returns the most recent run that wrote resultPath.
func (c *DBClient) FindRunByResultPath(resultPath string) (*DetectionRun, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var run DetectionRun
	err := c.DB.Where("result_path = ?", filepath.Clean(resultPath)).Order("created_at desc").First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(fmt.Sprintf("run for %s", resultPath), err)
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return &run, nil
}

// ListRuns returns runs newest first. An empty videoID lists every run.
func (c *DBClient) ListRuns(videoID string) ([]DetectionRun, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	q := c.DB.Order("created_at desc")
	if videoID != "" {
		q = q.Where("video_id = ?", videoID)
	}
	var runs []DetectionRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

func (c *DBClient) GetScenes(runID string) ([]Scene, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []Scene
	if err := c.DB.Where("run_id = ?", runID).Order("scene_index asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying scenes: %w", err)
	}
	return rows, nil
}

func (c *DBClient) RecordEvaluation(runID string, e *models.SceneDetectorEvaluationResult) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}
	row := Evaluation{
		ID:             uuid.NewString(),
		RunID:          runID,
		ToleranceSecs:  e.ToleranceSecs,
		MatchedCount:   e.MatchedCount,
		AnnotatedCount: e.AnnotatedCount,
		DetectedCount:  e.DetectedCount,
		Accuracy:       e.Accuracy,
		Precision:      e.Precision,
		Recall:         e.Recall,
		F1Score:        e.F1Score,
	}
	if err := c.DB.Create(&row).Error; err != nil {
		return "", fmt.Errorf("creating evaluation: %w", err)
	}
	return row.ID, nil
}

func (c *DBClient) ListEvaluations(runID string) ([]Evaluation, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []Evaluation
	if err := c.DB.Where("run_id = ?", runID).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing evaluations: %w", err)
	}
	return rows, nil
}

// DeleteVideoByID removes a video with all its runs, scenes and evaluations.
func (c *DBClient) DeleteVideoByID(videoID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		runIDs := tx.Model(&DetectionRun{}).Select("id").Where("video_id = ?", videoID)
		if err := tx.Where("run_id IN (?)", runIDs).Delete(&Evaluation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id IN (?)", runIDs).Delete(&Scene{}).Error; err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", videoID).Delete(&DetectionRun{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", videoID).Delete(&Video{}).Error
	})
}
