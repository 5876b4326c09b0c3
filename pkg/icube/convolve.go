package icube

import (
	"fmt"
	"log"
	"math"

	"imagecube/pkg/ifits"
	"imagecube/pkg/imath"
)

// Convolver is the external convolution routine. The kernel arrives
// already normalized to unit sum; NaN and edge handling are the
// routine's own business.
type Convolver interface {
	Convolve(src *ifits.Image, kernel imath.Grid) (*ifits.Image, error)
}

// KernelConvolver is the default, in-process Convolver.
type KernelConvolver struct{}

func (kc KernelConvolver)Convolve(src *ifits.Image, kernel imath.Grid) (*ifits.Image, error) {
	g := imath.NewGrid(src.Nx, src.Ny)
	copy(g.Values(), src.Pix)

	out, err := imath.Convolve(g, kernel)
	if err != nil {
		return nil, err
	}

	im := ifits.NewImage(src.Nx, src.Ny)
	im.Header = src.Header.Clone()
	copy(im.Pix, out.Values())
	return im, nil
}

// fwhmRule is one row of the common-resolution lookup: if the named
// instrument has a wavelength inside [lo, hi] microns, the whole set
// convolves to this FWHM. Order matters; the first match wins.
// Values follow Aniano et al. 2011.
type fwhmRule struct {
	inst   Instrument
	lo, hi float64
	fwhm   float64
}

var fwhmRules = []fwhmRule{
	{MIPS, 140, 170, 76},
	{SPIRE, 490, 510, 43},
	{MIPS, 50, 90, 37},
	{SPIRE, 300, 400, 30},
	{SPIRE, 200, 299, 22},
	{PACS, 140, 180, 18},
	{MIPS, 18, 30, 13},
	{PACS, 90, 110, 12.5},
	{PACS, 60, 80, 10.5},
}

func wavelengthRange(wavelengths []float64, lo, hi float64) bool {
	for _, w := range wavelengths {
		if w >= lo && w <= hi {
			return true
		}
	}
	return false
}

// CommonFWHM picks the one target resolution (arcsec) for the whole
// collection. Zero means no rule matched: there is no valid common
// resolution and the run cannot proceed.
func CommonFWHM(s *Stack) float64 {
	byInst := map[Instrument][]float64{}
	for _, r := range s.Records {
		byInst[r.Instrument] = append(byInst[r.Instrument], r.WavelengthUm)
	}

	for _, rule := range fwhmRules {
		if ws, ok := byInst[rule.inst]; ok && wavelengthRange(ws, rule.lo, rule.hi) {
			return rule.fwhm
		}
	}
	return 0
}

// convolveStage brings every image to the common resolution with a
// Gaussian kernel sized from its own native pixel scale.
func (p *Pipeline)convolveStage() error {
	log.Printf("Convolving images")

	fwhm := CommonFWHM(p.Stack)
	if fwhm == 0 {
		return ErrNoCommonFWHM
	}
	log.Printf("Common FWHM: %.1f arcsec", fwhm)

	in := p.stageInput(StageConvolution)
	failed := 0

	for _, r := range p.Stack.Records {
		if err := p.loadInput(r, in); err != nil {
			if ferr := p.perImage(StageConvolution, r.Stem, err, &failed); ferr != nil {
				return ferr
			}
			continue
		}

		scale := r.Instrument.PixelScale(&r.Image.Header)
		if scale == 0 {
			err := fmt.Errorf("native pixel scale unresolved")
			if ferr := p.perImage(StageConvolution, r.Stem, err, &failed); ferr != nil {
				return ferr
			}
			continue
		}

		sigma := fwhm / (2 * math.Sqrt(2*math.Log(2)) * scale)
		kernel, err := imath.GaussianKernel(sigma)
		if err != nil {
			if ferr := p.perImage(StageConvolution, r.Stem, err, &failed); ferr != nil {
				return ferr
			}
			continue
		}

		out, err := p.Convolver.Convolve(r.Image, kernel)
		if err != nil {
			if ferr := p.perImage(StageConvolution, r.Stem, err, &failed); ferr != nil {
				return ferr
			}
			continue
		}
		out.Header.Set("FWHM", fwhm, "The FWHM value used in the convolution step.")

		path, err := p.artifactPath(StageConvolution, r.Stem)
		if err != nil {
			return err
		}
		log.Printf("Creating %s", path)
		if err := ifits.Write(out, path); err != nil {
			return err
		}
		r.Image = out
		p.quicklook(out, path)
	}

	if failed > 0 {
		log.Printf("convolution: %d image(s) failed and were skipped", failed)
	}
	return nil
}
