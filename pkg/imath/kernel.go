package imath

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// GaussianKernel builds an odd-sized 2-D Gaussian normalized to unit
// sum, so convolution preserves total flux. The kernel spans at least
// +/-3 sigma; a sub-pixel sigma still gets the minimum 3x3 footprint.
func GaussianKernel(sigma float64) (Grid, error) {
	if sigma <= 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return Grid{}, fmt.Errorf("gaussian kernel: bad sigma %v", sigma)
	}

	n := int(math.Ceil(6*sigma)) + 1
	if n%2 == 0 {
		n++
	}
	if n < 3 {
		n = 3
	}

	k := NewGrid(n, n)
	c := n / 2
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			dx, dy := float64(x-c), float64(y-c)
			k.Set(x, y, math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma)))
		}
	}

	sum := floats.Sum(k.values)
	floats.Scale(1/sum, k.values)

	return k, nil
}
