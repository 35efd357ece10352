package scenes

import "math"

// hsvPlanes holds a frame converted to OpenCV's 8-bit HSV ranges
// (H in [0,180), S and V in [0,255]).
type hsvPlanes struct {
	h, s, v []uint8
}

func toHSV(rgb []byte, n int, dst *hsvPlanes) {
	if len(dst.h) != n {
		dst.h = make([]uint8, n)
		dst.s = make([]uint8, n)
		dst.v = make([]uint8, n)
	}
	for i := 0; i < n; i++ {
		r := float64(rgb[i*3])
		g := float64(rgb[i*3+1])
		b := float64(rgb[i*3+2])

		v := math.Max(r, math.Max(g, b))
		lo := math.Min(r, math.Min(g, b))
		diff := v - lo

		var s, h float64
		if v > 0 {
			s = 255 * diff / v
		}
		if diff > 0 {
			switch v {
			case r:
				h = 60 * (g - b) / diff
			case g:
				h = 120 + 60*(b-r)/diff
			default:
				h = 240 + 60*(r-g)/diff
			}
			if h < 0 {
				h += 360
			}
		}

		hh := math.Round(h / 2)
		if hh >= 180 {
			hh -= 180
		}
		dst.h[i] = uint8(hh)
		dst.s[i] = uint8(math.Round(s))
		dst.v[i] = uint8(v)
	}
}

// contentDelta is the mean absolute per-channel difference of two frames,
// averaged over hue, saturation and value.
func contentDelta(a, b *hsvPlanes) float64 {
	n := len(a.h)
	if n == 0 {
		return 0
	}
	var dh, ds, dv int64
	for i := 0; i < n; i++ {
		dh += absDiff(a.h[i], b.h[i])
		ds += absDiff(a.s[i], b.s[i])
		dv += absDiff(a.v[i], b.v[i])
	}
	total := float64(dh+ds+dv) / 3
	return total / float64(n)
}

func absDiff(x, y uint8) int64 {
	if x > y {
		return int64(x - y)
	}
	return int64(y - x)
}
