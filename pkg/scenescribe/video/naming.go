package video

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/timecode"
)

// FrameFile describes a kept frame as encoded in its file name.
type FrameFile struct {
	Path    string
	Index   int
	StartMs int64
	EndMs   int64
	Ext     string
}

var frameFilePattern = regexp.MustCompile(
	`^frame-(\d+)-(\d{2,}_\d{2}_\d{2}_\d{3})-(\d{2,}_\d{2}_\d{2}_\d{3})\.([A-Za-z0-9]+)$`,
)

// FrameFileName builds "frame-0001-00_00_01_000-00_00_02_500.jpg".
func FrameFileName(index int, startMs, endMs int64, ext string) string {
	return fmt.Sprintf("frame-%04d-%s-%s.%s",
		index,
		timecode.FormatFilename(startMs),
		timecode.FormatFilename(endMs),
		strings.TrimPrefix(ext, "."),
	)
}

// ParseFrameFileName decodes a name produced by FrameFileName.
// ok is false for names that do not follow the pattern.
func ParseFrameFileName(path string) (FrameFile, bool) {
	m := frameFilePattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return FrameFile{}, false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return FrameFile{}, false
	}
	start, err := timecode.ToMs(m[2])
	if err != nil {
		return FrameFile{}, false
	}
	end, err := timecode.ToMs(m[3])
	if err != nil {
		return FrameFile{}, false
	}
	return FrameFile{
		Path:    path,
		Index:   idx,
		StartMs: start,
		EndMs:   end,
		Ext:     strings.ToLower(m[4]),
	}, true
}
