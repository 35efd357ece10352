package video

import (
	"context"
	"image"
)

// Frame is one decoded video frame in packed RGB24 layout.
type Frame struct {
	Ordinal     int
	TimestampMs int64
	Width       int
	Height      int
	Pix         []byte
}

// Gray converts the frame to 8-bit BT.601 luminance.
func (f *Frame) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	n := f.Width * f.Height
	for i := 0; i < n; i++ {
		r := uint32(f.Pix[i*3])
		gr := uint32(f.Pix[i*3+1])
		b := uint32(f.Pix[i*3+2])
		g.Pix[i] = uint8((299*r + 587*gr + 114*b + 500) / 1000)
	}
	return g
}

// RGBA returns the frame as an image suitable for encoding.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	n := f.Width * f.Height
	for i := 0; i < n; i++ {
		img.Pix[i*4] = f.Pix[i*3]
		img.Pix[i*4+1] = f.Pix[i*3+1]
		img.Pix[i*4+2] = f.Pix[i*3+2]
		img.Pix[i*4+3] = 0xff
	}
	return img
}

// Stream yields frames in presentation order. Next returns io.EOF after the last frame.
type Stream interface {
	Metadata() Metadata
	Next() (*Frame, error)
	Close() error
}

// Opener opens a video file for sequential decoding.
type Opener interface {
	Open(ctx context.Context, path string) (Stream, error)
}
