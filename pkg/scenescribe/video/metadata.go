package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/timecode"
)

// Metadata describes the primary video stream of a container.
type Metadata struct {
	Filename    string
	Width       int
	Height      int
	FPS         float64
	FrameCount  int
	DurationSec float64
	Codec       string
	Format      string
}

// TimestampMs is the presentation time of a 0-based frame ordinal.
func (m Metadata) TimestampMs(ordinal int) int64 {
	return timecode.FrameToMs(ordinal, m.FPS)
}

type ffprobeOutput struct {
	Format struct {
		Filename string `json:"filename"`
		Duration string `json:"duration"`
		Format   string `json:"format_name"`
	} `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	NbFrames     string `json:"nb_frames"`
}

func (p *ffprobeOutput) firstVideoStream() *ffprobeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "video" {
			return &p.Streams[i]
		}
	}
	return nil
}

// parseRate parses ffprobe rationals such as "30000/1001" or "25".
func parseRate(rate string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(rate), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// ReadMetadata runs ffprobe against path and returns its first video stream.
func ReadMetadata(ctx context.Context, ffprobePath, path string) (*Metadata, error) {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(
		ctx,
		ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	return parseProbe(path, out)
}

func parseProbe(path string, out []byte) (*Metadata, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}

	stream := probe.firstVideoStream()
	if stream == nil {
		return nil, errors.New("no video stream found")
	}

	fps := parseRate(stream.AvgFrameRate)
	if fps <= 0 {
		fps = parseRate(stream.RFrameRate)
	}
	duration, _ := strconv.ParseFloat(probe.Format.Duration, 64)
	frameCount, _ := strconv.Atoi(stream.NbFrames)

	return &Metadata{
		Filename:    filepath.Base(path),
		Width:       stream.Width,
		Height:      stream.Height,
		FPS:         fps,
		FrameCount:  frameCount,
		DurationSec: duration,
		Codec:       stream.CodecName,
		Format:      probe.Format.Format,
	}, nil
}
