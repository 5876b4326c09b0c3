package icube

import (
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/mdouchement/hdr/tmo"
	"github.com/skypies/util/histogram"
	"golang.org/x/image/draw"

	"imagecube/pkg/ifits"
)

const quicklookMaxDim = 512

// grayHDR wraps a science image as an hdr.Image: flux normalized to
// [0,1] on all three channels, NaN pixels rendered black. Tone mapping
// operators can then squeeze the dynamic range into something a human
// can look at.
type grayHDR struct {
	im     *ifits.Image
	lo, hi float64
}

func newGrayHDR(im *ifits.Image) grayHDR {
	lo, hi := im.MinMax()
	if math.IsInf(lo, 1) || hi <= lo {
		lo, hi = 0, 1
	}
	return grayHDR{im: im, lo: lo, hi: hi}
}

// Implement image.Image
func (g grayHDR)ColorModel() color.Model { return hdrcolor.RGBModel }
func (g grayHDR)Bounds() image.Rectangle { return image.Rect(0, 0, g.im.Nx, g.im.Ny) }
func (g grayHDR)At(x, y int) color.Color { return g.HDRAt(x, y) }

// Implement hdr.Image
func (g grayHDR)Size() int { return g.im.Nx * g.im.Ny }
func (g grayHDR)HDRAt(x, y int) hdrcolor.Color {
	v := g.im.At(x, y)
	if math.IsNaN(v) {
		v = g.lo
	}
	n := (v - g.lo) / (g.hi - g.lo)
	return hdrcolor.RGB{R: n, G: n, B: n}
}

func setupTonemapper(name string, m hdr.Image) tmo.ToneMappingOperator {
	switch name {
	case "linear":
		return tmo.NewLinear(m)
	case "reinhard05":
		return tmo.NewDefaultReinhard05(m)
	default: // drago03
		return tmo.NewDefaultDrago03(m)
	}
}

// quicklook renders a small tonemapped PNG preview alongside a stage
// artifact. Previews are cosmetic, so failures only get logged.
func (p *Pipeline)quicklook(im *ifits.Image, artifactPath string) {
	if !p.Cfg.Quicklook {
		return
	}
	filename := strings.TrimSuffix(artifactPath, ".fits") + ".png"
	if err := renderQuicklook(im, p.Cfg.Tonemapper, filename); err != nil {
		log.Printf("quicklook %s: %v", filename, err)
	}
}

func renderQuicklook(im *ifits.Image, tonemapper, filename string) error {
	img := setupTonemapper(tonemapper, newGrayHDR(im)).Perform()

	// Downscale big images so previews stay cheap to open.
	b := img.Bounds()
	if b.Dx() > quicklookMaxDim || b.Dy() > quicklookMaxDim {
		scale := float64(quicklookMaxDim) / math.Max(float64(b.Dx()), float64(b.Dy()))
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(b.Dx())*scale), int(float64(b.Dy())*scale)))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		img = dst
	}

	return WritePNG(img, filename)
}

func WritePNG(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// logFluxHistogram logs a coarse histogram of the converted fluxes,
// bucketed by half-decades of log10, as a sanity check on the
// calibration.
func (p *Pipeline)logFluxHistogram(r *Record) {
	if p.Cfg.Verbosity == 0 {
		return
	}

	h := histogram.Histogram{NumBuckets: 60, ValMin: 0, ValMax: 60}
	for _, v := range r.Image.Pix {
		if v <= 0 || math.IsNaN(v) {
			continue
		}
		bucket := int(math.Log10(v)*2 + 30)
		if bucket < 0 {
			bucket = 0
		}
		if bucket > 59 {
			bucket = 59
		}
		h.Add(histogram.ScalarVal(bucket))
	}
	log.Printf("%s converted flux histogram: %v", r.Stem, h)
}
