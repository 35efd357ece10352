// Package alignment attaches transcript phrases to the time windows of
// extracted frames or detected scenes.
package alignment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/timecode"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/video"
)

// Window is a half-open time span [StartMs, EndMs).
type Window struct {
	Index   int
	StartMs int64
	EndMs   int64
}

// WindowsFromFrameFiles converts extractor output file names to windows.
func WindowsFromFrameFiles(paths []string) ([]Window, error) {
	windows := make([]Window, 0, len(paths))
	for _, p := range paths {
		ff, ok := video.ParseFrameFileName(p)
		if !ok {
			return nil, models.NewParseError(fmt.Sprintf("%s is not an extracted frame file", filepath.Base(p)), nil)
		}
		windows = append(windows, Window{Index: ff.Index, StartMs: ff.StartMs, EndMs: ff.EndMs})
	}
	return windows, nil
}

// ListFrameWindows reads the extracted frames in dir, ordered by frame index.
func ListFrameWindows(dir string) ([]Window, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, models.NewNotFoundError(fmt.Sprintf("frame directory %s", dir), err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "frame-*-*-*.*"))
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, m := range matches {
		if _, ok := video.ParseFrameFileName(m); ok {
			paths = append(paths, m)
		}
	}
	windows, err := WindowsFromFrameFiles(paths)
	if err != nil {
		return nil, err
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].Index < windows[j].Index })
	return windows, nil
}

// WindowsFromScenes converts detected scenes to windows.
func WindowsFromScenes(result *models.SceneDetectionResult) ([]Window, error) {
	windows := make([]Window, 0, len(result.Scenes))
	for _, s := range result.Scenes {
		start, err := timecode.ToMs(s.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := timecode.ToMs(s.EndTime)
		if err != nil {
			return nil, err
		}
		windows = append(windows, Window{Index: s.Index, StartMs: start, EndMs: end})
	}
	return windows, nil
}

// Align attaches every phrase to the window whose span contains its start.
// Windows must be sorted by start and must not overlap. The last window is
// redefined to end one second past the latest phrase start.
func Align(transcript *models.Transcript, windows []Window) *models.FrameOutput {
	out := &models.FrameOutput{Frames: make([]models.Frame, 0, len(windows))}
	for _, w := range windows {
		out.Frames = append(out.Frames, frameFor(transcript, w))
	}
	if len(out.Frames) == 0 {
		return out
	}

	end, ok := transcript.EndTimeMs()
	if !ok {
		return out
	}
	last := windows[len(windows)-1]
	last.EndMs = end
	out.Frames[len(out.Frames)-1] = frameFor(transcript, last)
	return out
}

func frameFor(transcript *models.Transcript, w Window) models.Frame {
	phrases := transcript.PhrasesInRange(w.StartMs, w.EndMs)
	if phrases == nil {
		phrases = []models.TranscribedPhrase{}
	}
	return models.Frame{
		Index:      w.Index,
		StartsAtMs: w.StartMs,
		EndsAtMs:   w.EndMs,
		Phrases:    phrases,
		Text:       models.JoinPhrases(phrases),
	}
}
