package iwarp

import (
	"fmt"
	"math"

	"imagecube/pkg/ifits"
)

// A GridSpec describes the synthetic reference grid a science image
// gets warped onto: pixel counts, pixel scales (arcsec/pixel), and
// the reference sky position at the grid center. Built fresh per
// stage, never mutated.
type GridSpec struct {
	Nx, Ny         int
	ScaleX, ScaleY float64 // arcsec/pixel
	RefRA, RefDec  float64 // deg
	Projection     string  // "tan"
	Epoch          string  // "j2000"
}

func (gs GridSpec)String() string {
	return fmt.Sprintf("grid[%dx%d @ %.3f\"/pix, ref (%.5f,%.5f)]",
		gs.Nx, gs.Ny, gs.ScaleX, gs.RefRA, gs.RefDec)
}

func (gs GridSpec)wcs() WCS {
	return WCS{
		RefRA:  gs.RefRA,
		RefDec: gs.RefDec,
		RefX:   float64(gs.Nx) / 2,
		RefY:   float64(gs.Ny) / 2,
		ScaleX: -gs.ScaleX * degPerArcsec,
		ScaleY: gs.ScaleY * degPerArcsec,
	}
}

// Engine is the real registration service.
type Engine struct{}

// SyntheticGrid builds the constant-pattern reference image with the
// desired WCS tagged into it (the mkpattern + ccsetwcs step).
func (e Engine)SyntheticGrid(spec GridSpec) *ifits.Image {
	grid := ifits.NewImage(spec.Nx, spec.Ny)
	spec.wcs().Tag(grid)
	grid.Header.Set("OBJECT", "pixelgrid", "synthetic reference grid")
	return grid
}

// Warp registers a science image onto the grid. Target pixels are
// inverse-mapped through the source WCS and sampled bilinearly;
// pixels falling outside the source stay blank (NaN). With
// fluxConserving set, values are scaled by the pixel solid-angle
// ratio so total flux survives the change of pixel size.
func (e Engine)Warp(src *ifits.Image, spec GridSpec, fluxConserving bool) (*ifits.Image, error) {
	if spec.Nx <= 0 || spec.Ny <= 0 {
		return nil, fmt.Errorf("warp %s: degenerate grid %s", src.Path, spec)
	}

	srcWCS, err := FromHeader(src, 0)
	if err != nil {
		return nil, fmt.Errorf("warp %s: %v", src.Path, err)
	}

	dstWCS := spec.wcs()

	scale := 1.0
	if fluxConserving {
		srcArea := math.Abs(srcWCS.ScaleX * srcWCS.ScaleY)
		dstArea := math.Abs(dstWCS.ScaleX * dstWCS.ScaleY)
		if srcArea == 0 {
			return nil, fmt.Errorf("warp %s: source pixel area is zero", src.Path)
		}
		scale = dstArea / srcArea
	}

	out := ifits.NewImage(spec.Nx, spec.Ny)
	out.Header = src.Header.Clone()
	dstWCS.Tag(out)

	for y := 0; y < spec.Ny; y++ {
		for x := 0; x < spec.Nx; x++ {
			ra, dec := dstWCS.PixToSky(float64(x), float64(y))
			sx, sy, ok := srcWCS.SkyToPix(ra, dec)
			if !ok {
				out.SetAt(x, y, math.NaN())
				continue
			}
			out.SetAt(x, y, scale*sample(src, sx, sy))
		}
	}

	return out, nil
}

// sample interpolates bilinearly, dropping NaN corners from the
// weighting. Entirely outside the image gives NaN.
func sample(im *ifits.Image, x, y float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	if x0 < -1 || y0 < -1 || x0 > im.Nx-1 || y0 > im.Ny-1 {
		return math.NaN()
	}

	fx := x - float64(x0)
	fy := y - float64(y0)

	sum, wsum := 0.0, 0.0
	for dy := 0; dy <= 1; dy++ {
		for dx := 0; dx <= 1; dx++ {
			px, py := x0+dx, y0+dy
			if px < 0 || py < 0 || px >= im.Nx || py >= im.Ny {
				continue
			}
			v := im.At(px, py)
			if math.IsNaN(v) {
				continue
			}
			w := (1 - math.Abs(float64(dx)-fx)) * (1 - math.Abs(float64(dy)-fy))
			sum += v * w
			wsum += w
		}
	}
	if wsum <= 0 {
		return math.NaN()
	}
	return sum / wsum
}
