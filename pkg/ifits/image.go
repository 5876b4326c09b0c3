package ifits

import (
	"math"
)

// An Image is one science image: a 2-D float64 pixel raster plus its
// header envelope. Pixels are row-major, y*Nx+x.
type Image struct {
	Nx, Ny int
	Pix    []float64

	Header Header

	// Path is where the image was read from (or last written to);
	// stages derive their output names from its stem.
	Path string
}

func NewImage(nx, ny int) *Image {
	return &Image{
		Nx:  nx,
		Ny:  ny,
		Pix: make([]float64, nx*ny),
	}
}

func (im *Image)At(x, y int) float64     { return im.Pix[y*im.Nx+x] }
func (im *Image)SetAt(x, y int, v float64) { im.Pix[y*im.Nx+x] = v }

// Scale multiplies every pixel in place, e.g. applying a flux unit
// conversion factor.
func (im *Image)Scale(factor float64) {
	for i := range im.Pix {
		im.Pix[i] *= factor
	}
}

// MinMax ignores NaN (blank) pixels.
func (im *Image)MinMax() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range im.Pix {
		if math.IsNaN(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
