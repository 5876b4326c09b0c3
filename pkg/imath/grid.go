// Package imath holds the small amount of raster math the pipeline
// needs: a float grid, Gaussian kernels, and spatial convolution.
package imath

import (
	"fmt"
	"math"
)

// A Grid is a rectangle of float64s, with some operations
type Grid struct {
	stride int
	values []float64
}

func NewGrid(w, h int) Grid {
	return Grid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (g *Grid)Set(x, y int, v float64) { g.values[g.stride*y+x] = v }
func (g *Grid)Get(x, y int) float64    { return g.values[g.stride*y+x] }
func (g *Grid)Dx() int                 { return g.stride }
func (g *Grid)Dy() int                 { return len(g.values) / g.stride }
func (g *Grid)Values() []float64       { return g.values }

func (g *Grid)Stats() string {
	lo, hi := math.MaxFloat64, -math.MaxFloat64
	for i := 0; i < len(g.values); i++ {
		if g.values[i] > hi {
			hi = g.values[i]
		}
		if g.values[i] < lo {
			lo = g.values[i]
		}
	}
	return fmt.Sprintf("grid[%dx%d, vals{%f,%f}]", g.Dx(), g.Dy(), lo, hi)
}
