package imath

import (
	"fmt"
	"math"
)

// Convolve runs a direct linear convolution of src with a unit-sum
// kernel. Edges extend the nearest pixel. NaN (blank) source pixels
// are left out of the sum and the remaining weights renormalized, so
// blank borders from an earlier warp don't eat into the image.
func Convolve(src Grid, kernel Grid) (Grid, error) {
	kw, kh := kernel.Dx(), kernel.Dy()
	if kw%2 == 0 || kh%2 == 0 {
		return Grid{}, fmt.Errorf("convolve: kernel must be odd-sized, got %dx%d", kw, kh)
	}

	w, h := src.Dx(), src.Dy()
	cx, cy := kw/2, kh/2
	out := NewGrid(w, h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if math.IsNaN(src.Get(x, y)) {
				out.Set(x, y, math.NaN())
				continue
			}

			sum, wsum := 0.0, 0.0
			for ky := 0; ky < kh; ky++ {
				for kx := 0; kx < kw; kx++ {
					sx := clamp(x+kx-cx, 0, w-1)
					sy := clamp(y+ky-cy, 0, h-1)
					v := src.Get(sx, sy)
					if math.IsNaN(v) {
						continue
					}
					kv := kernel.Get(kx, ky)
					sum += v * kv
					wsum += kv
				}
			}
			if wsum > 0 {
				out.Set(x, y, sum/wsum)
			} else {
				out.Set(x, y, math.NaN())
			}
		}
	}

	return out, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
