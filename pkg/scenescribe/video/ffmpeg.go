package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/himanishpuri/SceneScribe/pkg/models"
)

// FFmpegOpener decodes videos by piping raw RGB24 frames out of ffmpeg.
type FFmpegOpener struct {
	FFmpegPath  string
	FFprobePath string
}

// NewFFmpegOpener returns an opener using the given binaries, falling back to PATH lookups.
func NewFFmpegOpener(ffmpegPath, ffprobePath string) *FFmpegOpener {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegOpener{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

func (o *FFmpegOpener) Open(ctx context.Context, path string) (Stream, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, models.NewVideoOpenError(fmt.Sprintf("cannot open %s", path), err)
	}
	if info.IsDir() {
		return nil, models.NewVideoOpenError(fmt.Sprintf("%s is a directory", path), nil)
	}

	meta, err := ReadMetadata(ctx, o.FFprobePath, path)
	if err != nil {
		return nil, models.NewVideoOpenError(fmt.Sprintf("cannot probe %s", path), err)
	}
	if meta.FPS <= 0 {
		return nil, models.NewVideoOpenError(fmt.Sprintf("%s reports no usable frame rate", path), nil)
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, models.NewVideoOpenError(fmt.Sprintf("%s reports invalid dimensions %dx%d", path, meta.Width, meta.Height), nil)
	}

	cmd := exec.CommandContext(
		ctx,
		o.FFmpegPath,
		"-v", "error",
		"-nostdin",
		"-i", path,
		"-map", "0:v:0",
		"-an", "-sn",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, models.NewVideoOpenError("ffmpeg stdout pipe", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, models.NewVideoOpenError("start ffmpeg", err)
	}

	return &ffmpegStream{
		meta:      *meta,
		cmd:       cmd,
		stdout:    stdout,
		stderr:    &stderr,
		frameSize: meta.Width * meta.Height * 3,
	}, nil
}

type ffmpegStream struct {
	meta      Metadata
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	stderr    *bytes.Buffer
	frameSize int
	ordinal   int
	done      bool
}

func (s *ffmpegStream) Metadata() Metadata { return s.meta }

func (s *ffmpegStream) Next() (*Frame, error) {
	if s.done {
		return nil, io.EOF
	}

	buf := make([]byte, s.frameSize)
	_, err := io.ReadFull(s.stdout, buf)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		s.done = true
		if werr := s.cmd.Wait(); werr != nil {
			return nil, s.decodeError(werr)
		}
		return nil, io.EOF
	default:
		s.done = true
		_ = s.cmd.Wait()
		return nil, s.decodeError(err)
	}

	f := &Frame{
		Ordinal:     s.ordinal,
		TimestampMs: s.meta.TimestampMs(s.ordinal),
		Width:       s.meta.Width,
		Height:      s.meta.Height,
		Pix:         buf,
	}
	s.ordinal++
	return f, nil
}

func (s *ffmpegStream) decodeError(err error) error {
	msg := strings.TrimSpace(s.stderr.String())
	if msg == "" {
		return fmt.Errorf("decode %s at frame %d: %w", s.meta.Filename, s.ordinal, err)
	}
	return fmt.Errorf("decode %s at frame %d: %w: %s", s.meta.Filename, s.ordinal, err, msg)
}

// Close releases the decoder. It is safe to call after the stream is drained.
func (s *ffmpegStream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	_ = s.stdout.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	return nil
}
