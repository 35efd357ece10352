package video

import (
	"fmt"
	"image"
)

const (
	ssimWindow = 7
	ssimK1     = 0.01
	ssimK2     = 0.03
	ssimL      = 255.0
)

// SSIM computes the mean structural similarity of two equally sized
// grayscale images using a 7x7 uniform window. The result is in [-1, 1]
// and identical images score 1.
func SSIM(a, b *image.Gray) (float64, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return 0, fmt.Errorf("ssim: size mismatch %dx%d vs %dx%d", ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}
	w, h := ab.Dx(), ab.Dy()
	if w < ssimWindow || h < ssimWindow {
		return 0, fmt.Errorf("ssim: image %dx%d smaller than %dx%d window", w, h, ssimWindow, ssimWindow)
	}

	const (
		np     = ssimWindow * ssimWindow
		covNrm = float64(np) / float64(np-1)
		c1     = (ssimK1 * ssimL) * (ssimK1 * ssimL)
		c2     = (ssimK2 * ssimL) * (ssimK2 * ssimL)
	)

	at := func(img *image.Gray, r image.Rectangle, x, y int) float64 {
		return float64(img.Pix[img.PixOffset(r.Min.X+x, r.Min.Y+y)])
	}

	// Column sums over the current band of ssimWindow rows.
	sx := make([]float64, w)
	sy := make([]float64, w)
	sxx := make([]float64, w)
	syy := make([]float64, w)
	sxy := make([]float64, w)

	addRow := func(y int, sign float64) {
		for x := 0; x < w; x++ {
			px := at(a, ab, x, y)
			py := at(b, bb, x, y)
			sx[x] += sign * px
			sy[x] += sign * py
			sxx[x] += sign * px * px
			syy[x] += sign * py * py
			sxy[x] += sign * px * py
		}
	}

	for y := 0; y < ssimWindow-1; y++ {
		addRow(y, 1)
	}

	var total float64
	var count int
	for y := ssimWindow - 1; y < h; y++ {
		addRow(y, 1)

		var wx, wy, wxx, wyy, wxy float64
		for x := 0; x < ssimWindow-1; x++ {
			wx += sx[x]
			wy += sy[x]
			wxx += sxx[x]
			wyy += syy[x]
			wxy += sxy[x]
		}
		for x := ssimWindow - 1; x < w; x++ {
			wx += sx[x]
			wy += sy[x]
			wxx += sxx[x]
			wyy += syy[x]
			wxy += sxy[x]

			ux := wx / np
			uy := wy / np
			vx := covNrm * (wxx/np - ux*ux)
			vy := covNrm * (wyy/np - uy*uy)
			vxy := covNrm * (wxy/np - ux*uy)

			num := (2*ux*uy + c1) * (2*vxy + c2)
			den := (ux*ux + uy*uy + c1) * (vx + vy + c2)
			total += num / den
			count++

			left := x - (ssimWindow - 1)
			wx -= sx[left]
			wy -= sy[left]
			wxx -= sxx[left]
			wyy -= syy[left]
			wxy -= sxy[left]
		}

		addRow(y-(ssimWindow-1), -1)
	}

	return total / float64(count), nil
}
