// Package videotest provides an in-memory video.Opener for tests.
package videotest

import (
	"context"
	"errors"
	"image/color"
	"io"
	"sync"

	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/video"
)

// ErrDecode is returned by Next at the configured FailAt ordinal.
var ErrDecode = errors.New("videotest: decode failure")

// Opener serves solid-colour frames. Every Open call replays the same frames.
type Opener struct {
	Width  int
	Height int
	FPS    float64
	Colors []color.RGBA
	// FailAt makes Next fail at this ordinal. Negative disables it.
	FailAt  int
	OpenErr error

	mu     sync.Mutex
	opens  int
	closes int
}

// New returns an opener of w x h frames at fps, one frame per colour.
func New(w, h int, fps float64, colors ...color.RGBA) *Opener {
	return &Opener{Width: w, Height: h, FPS: fps, Colors: colors, FailAt: -1}
}

// Repeat returns n copies of c.
func Repeat(c color.RGBA, n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		out[i] = c
	}
	return out
}

// Concat joins colour runs.
func Concat(runs ...[]color.RGBA) []color.RGBA {
	var out []color.RGBA
	for _, r := range runs {
		out = append(out, r...)
	}
	return out
}

func (o *Opener) Open(ctx context.Context, path string) (video.Stream, error) {
	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.opens++
	o.mu.Unlock()
	return &stream{o: o, meta: video.Metadata{
		Filename:   path,
		Width:      o.Width,
		Height:     o.Height,
		FPS:        o.FPS,
		FrameCount: len(o.Colors),
	}}, nil
}

// Opens reports how many streams were opened.
func (o *Opener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

// Closes reports how many streams were closed.
func (o *Opener) Closes() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closes
}

type stream struct {
	o      *Opener
	meta   video.Metadata
	next   int
	closed bool
}

func (s *stream) Metadata() video.Metadata { return s.meta }

func (s *stream) Next() (*video.Frame, error) {
	if s.o.FailAt >= 0 && s.next == s.o.FailAt {
		return nil, ErrDecode
	}
	if s.next >= len(s.o.Colors) {
		return nil, io.EOF
	}
	c := s.o.Colors[s.next]
	pix := make([]byte, s.meta.Width*s.meta.Height*3)
	for i := 0; i < len(pix); i += 3 {
		pix[i], pix[i+1], pix[i+2] = c.R, c.G, c.B
	}
	f := &video.Frame{
		Ordinal:     s.next,
		TimestampMs: s.meta.TimestampMs(s.next),
		Width:       s.meta.Width,
		Height:      s.meta.Height,
		Pix:         pix,
	}
	s.next++
	return f, nil
}

func (s *stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.o.mu.Lock()
	s.o.closes++
	s.o.mu.Unlock()
	return nil
}
