// Package download fetches a YouTube video together with its
// auto-generated English captions.
package download

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/himanishpuri/SceneScribe/pkg/logger"
	"github.com/himanishpuri/SceneScribe/pkg/utils"
)

// YTMetadata is the subset of yt-dlp's info JSON that is kept.
type YTMetadata struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Channel    string  `json:"channel"`
	Duration   float64 `json:"duration"`
	WebpageURL string  `json:"webpage_url"`
}

// Result locates the downloaded files. CaptionsPath is empty when the video
// has no English auto captions.
type Result struct {
	VideoPath    string
	CaptionsPath string
	Metadata     YTMetadata
}

type Config struct {
	// AutoInstall fetches a yt-dlp binary when none is on PATH.
	AutoInstall        bool
	CookiesFromBrowser string
	Timeout            time.Duration
	SubtitleLang       string
}

type Downloader struct {
	cfg Config
	log logger.Leveled
}

func New(cfg Config, log logger.Leveled) *Downloader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if cfg.SubtitleLang == "" {
		cfg.SubtitleLang = "en"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Downloader{cfg: cfg, log: log}
}

func (d *Downloader) command() *ytdlp.Command {
	cmd := ytdlp.New().
		NoPlaylist().
		NoWarnings()
	if d.cfg.CookiesFromBrowser != "" {
		cmd = cmd.CookiesFromBrowser(d.cfg.CookiesFromBrowser)
	}
	return cmd
}

// Download stores the video as <id>.mp4 and its captions as <id>.<lang>.vtt in outputDir.
func (d *Downloader) Download(ctx context.Context, youtubeURL, outputDir string) (*Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if d.cfg.AutoInstall {
		if _, err := ytdlp.Install(ctx, nil); err != nil {
			return nil, fmt.Errorf("install yt-dlp: %w", err)
		}
	}

	// Step 1: metadata
	metaRun, err := d.command().DumpSingleJSON().Run(ctx, youtubeURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("yt-dlp metadata extraction failed: %w", err)
	}
	meta, err := parseMetadata([]byte(metaRun.Stdout))
	if err != nil {
		return nil, err
	}
	d.log.Infof("downloading %s (%s)", meta.ID, meta.Title)

	// Step 2: video and captions
	_, err = d.command().
		Format("bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/bv*+ba/b").
		MergeOutputFormat("mp4").
		WriteAutoSubs().
		SubLangs(d.cfg.SubtitleLang).
		SubFormat("vtt").
		Output(filepath.Join(outputDir, meta.ID+".%(ext)s")).
		Run(ctx, youtubeURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("yt-dlp download failed: %w", err)
	}

	return locate(outputDir, meta, d.cfg.SubtitleLang)
}

func parseMetadata(data []byte) (YTMetadata, error) {
	var meta YTMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("failed to parse yt-dlp JSON: %w", err)
	}
	if strings.TrimSpace(meta.ID) == "" {
		return meta, errors.New("missing video ID in yt-dlp output")
	}
	return meta, nil
}

var videoExtensions = []string{".mp4", ".mkv", ".webm", ".mov"}

// locate finds the files yt-dlp wrote for meta.ID.
func locate(outputDir string, meta YTMetadata, lang string) (*Result, error) {
	res := &Result{Metadata: meta}
	for _, ext := range videoExtensions {
		candidate := filepath.Join(outputDir, meta.ID+ext)
		if utils.FileExists(candidate) {
			res.VideoPath = candidate
			break
		}
	}
	if res.VideoPath == "" {
		return nil, fmt.Errorf("downloaded video file not found for %s (checked extensions: %v)", meta.ID, videoExtensions)
	}

	captions := filepath.Join(outputDir, fmt.Sprintf("%s.%s.vtt", meta.ID, lang))
	if _, err := os.Stat(captions); err == nil {
		res.CaptionsPath = captions
	}
	return res, nil
}
