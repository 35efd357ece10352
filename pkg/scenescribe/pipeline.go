package scenescribe

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/himanishpuri/SceneScribe/internal/metrics"
	"github.com/himanishpuri/SceneScribe/internal/tracing"
	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/alignment"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/captions"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/video"
	"github.com/himanishpuri/SceneScribe/pkg/utils"
)

// Blob key layout used by ProcessVideo.
func VideoKey(videoID string) string { return videoID + "/" + videoID + ".mp4" }
func CaptionsKey(videoID string) string { return videoID + "/" + videoID + ".en.vtt" }
func FramesPrefix(videoID string) string { return "frames/" + videoID + "/" }
func AlignedKey(videoID string) string { return "aligned/" + videoID + ".json.gz" }

// FramesManifestKey lists the uploaded frame keys, one per line. It is written
// after the last frame, so frames without a manifest are an incomplete upload.
func FramesManifestKey(videoID string) string { return "frames/" + videoID + ".manifest" }

// ProcessVideo runs download, frame extraction and transcript alignment for
// one YouTube video against blob storage. Stages whose output already exists
// are skipped. A stage failure is reported in the result, not as an error.
func (s *sceneService) ProcessVideo(ctx context.Context, videoID string) (*ProcessResult, error) {
	videoID = strings.TrimSpace(videoID)
	if len(videoID) < 5 {
		return nil, models.NewValidationError(fmt.Sprintf("the provided YouTube video ID %q is not valid", videoID), nil)
	}

	ctx, span := tracing.Start(ctx, "process_video")
	defer span.End()

	if err := utils.MakeDir(s.config.TempDir); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	workDir, err := os.MkdirTemp(s.config.TempDir, videoID+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	res := &ProcessResult{VideoID: videoID}
	p := &pipeline{s: s, videoID: videoID, workDir: workDir, res: res}

	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{StageDownload, p.download},
		{StageExtract, p.extract},
		{StageAlign, p.align},
	}
	for _, st := range stages {
		started := time.Now()
		stageCtx, stageSpan := tracing.Start(ctx, st.name)
		err := st.run(stageCtx)
		tracing.End(stageSpan, err)
		metrics.StageDuration.WithLabelValues(st.name).Observe(time.Since(started).Seconds())

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			res.Stage = st.name
			res.ErrorMessage = err.Error()
			metrics.PipelineRunsTotal.WithLabelValues(st.name, "failed").Inc()
			s.log.Errorf("video %s failed at %s: %v", videoID, st.name, err)
			return res, nil
		}
	}

	res.Stage = StageCompleted
	metrics.PipelineRunsTotal.WithLabelValues(StageCompleted, "ok").Inc()
	s.log.Infof("video %s processed: %d frames, output %s", videoID, len(res.FrameKeys), res.OutputKey)
	return res, nil
}

type pipeline struct {
	s       *sceneService
	videoID string
	workDir string
	res     *ProcessResult
}

func (p *pipeline) download(ctx context.Context) error {
	exists, err := p.s.blob.Exists(ctx, VideoKey(p.videoID))
	if err != nil {
		return err
	}
	if exists {
		p.s.log.Debugf("video %s already in storage, skipping download", p.videoID)
		return nil
	}

	dl, err := p.s.downloader.Download(ctx, utils.YouTubeWatchURL(p.videoID), filepath.Join(p.workDir, "download"))
	if err != nil {
		return fmt.Errorf("failed to download YouTube video: %w", err)
	}
	if filepath.Ext(dl.VideoPath) != ".mp4" {
		return fmt.Errorf("expected an mp4 file after download, got %s", filepath.Base(dl.VideoPath))
	}
	if err := p.s.blob.SaveFile(ctx, dl.VideoPath, VideoKey(p.videoID)); err != nil {
		return fmt.Errorf("upload video: %w", err)
	}
	if dl.CaptionsPath != "" {
		if err := p.s.blob.SaveFile(ctx, dl.CaptionsPath, CaptionsKey(p.videoID)); err != nil {
			return fmt.Errorf("upload captions: %w", err)
		}
	}

	if _, err := p.s.catalog.RegisterVideo(VideoKey(p.videoID), p.videoID, 0, dl.Metadata.Duration); err != nil {
		p.s.log.Warnf("could not catalog video %s: %v", p.videoID, err)
	}
	return nil
}

func (p *pipeline) extract(ctx context.Context) error {
	keys, ok, err := p.readManifest(ctx)
	if err != nil {
		return err
	}
	if ok {
		p.s.log.Infof("%d frames already exist for video %s, skipping extraction", len(keys), p.videoID)
		p.res.FrameKeys = keys
		p.res.Skipped = true
		return nil
	}

	prefix := FramesPrefix(p.videoID)
	var stale []string
	for key, err := range p.s.blob.ListFiles(ctx, prefix) {
		if err != nil {
			return err
		}
		stale = append(stale, key)
	}
	if len(stale) > 0 {
		p.s.log.Warnf("discarding %d frames of an incomplete upload for video %s", len(stale), p.videoID)
		if err := p.deleteKeys(ctx, stale); err != nil {
			return err
		}
	}

	localVideo := filepath.Join(p.workDir, "input", p.videoID+".mp4")
	if err := p.s.blob.DownloadFile(ctx, VideoKey(p.videoID), localVideo); err != nil {
		return fmt.Errorf("video file %s: %w", VideoKey(p.videoID), err)
	}

	out, err := p.s.ExtractFrames(ctx, localVideo, filepath.Join(p.workDir, "frames"))
	if err != nil {
		return err
	}
	uploaded := make([]string, 0, len(out.Frames))
	for _, f := range out.Frames {
		key := path.Join(prefix, filepath.Base(f.Path))
		if err := p.s.blob.SaveFile(ctx, f.Path, key); err != nil {
			p.discard(ctx, uploaded)
			return fmt.Errorf("upload %s: %w", key, err)
		}
		uploaded = append(uploaded, key)
	}
	if err := p.writeManifest(ctx, uploaded); err != nil {
		p.discard(ctx, uploaded)
		return err
	}
	p.res.FrameKeys = uploaded
	return nil
}

func (p *pipeline) readManifest(ctx context.Context) ([]string, bool, error) {
	text, err := p.s.blob.ReadText(ctx, FramesManifestKey(p.videoID))
	if models.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("frames manifest: %w", err)
	}
	var keys []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			keys = append(keys, line)
		}
	}
	return keys, true, nil
}

func (p *pipeline) writeManifest(ctx context.Context, keys []string) error {
	local := filepath.Join(p.workDir, "frames.manifest")
	if err := os.WriteFile(local, []byte(strings.Join(keys, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("write frames manifest: %w", err)
	}
	if err := p.s.blob.SaveFile(ctx, local, FramesManifestKey(p.videoID)); err != nil {
		return fmt.Errorf("upload frames manifest: %w", err)
	}
	return nil
}

// discard removes frames of a failed upload. It runs even when ctx is cancelled.
func (p *pipeline) discard(ctx context.Context, keys []string) {
	if err := p.deleteKeys(context.WithoutCancel(ctx), keys); err != nil {
		p.s.log.Errorf("could not remove partial frames for video %s: %v", p.videoID, err)
	}
}

func (p *pipeline) deleteKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := p.s.blob.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

func (p *pipeline) align(ctx context.Context) error {
	text, err := p.s.blob.ReadText(ctx, CaptionsKey(p.videoID))
	if err != nil {
		return fmt.Errorf("captions %s: %w", CaptionsKey(p.videoID), err)
	}
	transcript, err := captions.Parse(text)
	if err != nil {
		return err
	}

	var names []string
	for _, key := range p.res.FrameKeys {
		if _, ok := video.ParseFrameFileName(key); ok {
			names = append(names, key)
		}
	}
	windows, err := alignment.WindowsFromFrameFiles(names)
	if err != nil {
		return err
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].Index < windows[j].Index })

	out := alignment.Align(transcript, windows)
	local := filepath.Join(p.workDir, alignment.OutputFileName)
	if err := alignment.SaveFrameOutput(local, out); err != nil {
		return err
	}
	if err := p.s.blob.SaveFile(ctx, local, AlignedKey(p.videoID)); err != nil {
		return fmt.Errorf("upload aligned output: %w", err)
	}
	p.res.OutputKey = AlignedKey(p.videoID)
	return nil
}
