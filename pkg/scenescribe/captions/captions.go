// Package captions parses machine-generated WebVTT captions with inline
// word timing into a Transcript.
package captions

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/timecode"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
	phrasePattern  = regexp.MustCompile(`<(\d{2}:\d{2}:\d{2}\.\d{3})>(?:<c>)?([^<]+)(?:</c>)?`)
	cueTimePattern = regexp.MustCompile(`^(?:(\d{2,}):)?(\d{2}):(\d{2})\.(\d{3})$`)
	blockSplit     = regexp.MustCompile(`\n{2,}`)
)

// TimestampToMs converts "HH:MM:SS.mmm", "HH:MM:SS:mmm" or "HH_MM_SS_mmm" to milliseconds.
func TimestampToMs(s string) (int64, error) {
	return timecode.ToMs(s)
}

// ParseFile reads and parses the WebVTT file at path.
func ParseFile(path string) (*models.Transcript, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, models.NewNotFoundError(fmt.Sprintf("caption file %s", path), err)
	}
	if info.IsDir() {
		return nil, models.NewNotFoundError(fmt.Sprintf("caption path %s is a directory", path), nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read captions %s: %w", path, err)
	}
	return Parse(string(data))
}

// Parse extracts timed phrases from WebVTT text. Only cue lines carrying
// inline timing tags contribute; plain repeated lines are ignored.
func Parse(text string) (*models.Transcript, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	transcript := &models.Transcript{}
	for _, block := range blockSplit.Split(text, -1) {
		lines := strings.Split(strings.Trim(block, "\n"), "\n")

		timing := -1
		for i, line := range lines {
			if strings.Contains(line, "-->") {
				timing = i
				break
			}
		}
		if timing < 0 {
			// Header, NOTE, STYLE and REGION blocks.
			continue
		}

		start, err := cueStart(lines[timing])
		if err != nil {
			return nil, err
		}

		for _, line := range lines[timing+1:] {
			if !tagPattern.MatchString(line) {
				continue
			}
			line = "<" + start + ">" + line
			for _, m := range phrasePattern.FindAllStringSubmatch(line, -1) {
				phrase := strings.TrimSpace(m[2])
				if phrase == "" {
					continue
				}
				ms, err := timecode.ToMs(m[1])
				if err != nil {
					return nil, err
				}
				transcript.Phrases = append(transcript.Phrases, models.TranscribedPhrase{
					Text:        phrase,
					StartTimeMs: ms,
				})
			}
		}
	}

	sort.SliceStable(transcript.Phrases, func(i, j int) bool {
		return transcript.Phrases[i].StartTimeMs < transcript.Phrases[j].StartTimeMs
	})
	return transcript, nil
}

// cueStart returns the cue start of a timing line as "HH:MM:SS.mmm".
func cueStart(line string) (string, error) {
	left, _, _ := strings.Cut(line, "-->")
	raw := strings.TrimSpace(left)
	m := cueTimePattern.FindStringSubmatch(raw)
	if m == nil {
		return "", models.NewParseError(fmt.Sprintf("malformed cue timing line %q", line), nil)
	}
	hours := m[1]
	if hours == "" {
		hours = "00"
	}
	return fmt.Sprintf("%s:%s:%s.%s", hours, m[2], m[3], m[4]), nil
}
