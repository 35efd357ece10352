// Package timecode converts between millisecond offsets and the textual
// timestamps used in captions, scene results and frame file names.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/himanishpuri/SceneScribe/pkg/models"
)

// ToMs converts "HH:MM:SS.mmm", "HH:MM:SS:mmm" or "HH_MM_SS_mmm" to milliseconds.
func ToMs(timestamp string) (int64, error) {
	normalized := strings.NewReplacer(".", ":", "_", ":").Replace(strings.TrimSpace(timestamp))
	parts := strings.Split(normalized, ":")
	if len(parts) != 4 {
		return 0, models.NewParseError(fmt.Sprintf("timestamp %q does not have 4 fields", timestamp), nil)
	}

	var fields [4]int64
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil || v < 0 {
			return 0, models.NewParseError(fmt.Sprintf("timestamp %q has a non-numeric field %q", timestamp, p), err)
		}
		fields[i] = v
	}

	h, m, s, ms := fields[0], fields[1], fields[2], fields[3]
	return h*3_600_000 + m*60_000 + s*1000 + ms, nil
}

// split breaks ms into clock fields. Negative input is clamped to zero.
func split(ms int64) (h, m, s, milli int64) {
	if ms < 0 {
		ms = 0
	}
	h = ms / 3_600_000
	m = ms / 60_000 % 60
	s = ms / 1000 % 60
	milli = ms % 1000
	return
}

// Format renders ms as zero-padded "HH:MM:SS.mmm".
func Format(ms int64) string {
	h, m, s, milli := split(ms)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, milli)
}

// FormatFilename renders ms as "HH_MM_SS_mmm", safe for file names.
func FormatFilename(ms int64) string {
	h, m, s, milli := split(ms)
	return fmt.Sprintf("%02d_%02d_%02d_%03d", h, m, s, milli)
}

// FrameToMs returns the presentation time of a 0-based frame ordinal.
func FrameToMs(frame int, fps float64) int64 {
	if fps <= 0 {
		return 0
	}
	return int64(math.Round(float64(frame) * 1000 / fps))
}

// SecondsToFrames converts a duration in seconds to a whole number of frames.
func SecondsToFrames(secs, fps float64) int {
	return int(math.Round(secs * fps))
}
