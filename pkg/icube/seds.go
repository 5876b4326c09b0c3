package icube

import (
	"bufio"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/fogleman/gg"
)

// An SEDSample is one point of one spectral energy distribution: the
// flux at one wavelength for one spatial pixel.
type SEDSample struct {
	X, Y         int
	WavelengthUm float64
	FluxJy       float64
}

// sedStage reads the resampled set and emits the flat SED table, one
// (wavelength, flux) row per image per pixel, sorted by (x, y,
// wavelength). Since the collection is wavelength-sorted and all
// planes share one grid, each (x, y) group is one SED curve.
func (p *Pipeline)sedStage() error {
	log.Printf("Outputting SEDs")

	in := p.stageInput(StageSEDs)
	for _, r := range p.Stack.Records {
		if err := p.loadInput(r, in); err != nil {
			return err
		}
	}

	nx, ny := p.Stack.Records[0].Image.Nx, p.Stack.Records[0].Image.Ny
	for _, r := range p.Stack.Records {
		if r.Image.Nx != nx || r.Image.Ny != ny {
			return fmt.Errorf("seds: %s is %dx%d, want %dx%d (not on the shared grid?)",
				r.Stem, r.Image.Nx, r.Image.Ny, nx, ny)
		}
	}

	samples := make([]SEDSample, 0, nx*ny*len(p.Stack.Records))
	for _, r := range p.Stack.Records {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				samples = append(samples, SEDSample{
					X:            x,
					Y:            y,
					WavelengthUm: r.WavelengthUm,
					FluxJy:       r.Image.At(x, y),
				})
			}
		}
	}

	sort.Slice(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.WavelengthUm < b.WavelengthUm
	})

	dir := filepath.Join(p.Cfg.Directory, stageOut[StageSEDs].dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %v", dir, err)
	}

	path := filepath.Join(dir, "seds.txt")
	if err := writeSEDTable(samples, path); err != nil {
		return err
	}
	log.Printf("Created %s (%d samples)", path, len(samples))

	if p.Cfg.SEDPlots {
		return p.plotSEDs(samples, len(p.Stack.Records), dir)
	}
	return nil
}

// writeSEDTable is the canonical exchange format: a comment header
// then x,y,wavelength,flux rows.
func writeSEDTable(samples []SEDSample, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %v", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# x, y, wavelength (um), flux units (Jy/pixel)\n")
	for _, s := range samples {
		fmt.Fprintf(w, "%d,%d,%f,%f\n", s.X, s.Y, s.WavelengthUm, s.FluxJy)
	}
	return w.Flush()
}

// plotSEDs renders one figure per spatial pixel. The table is already
// sorted, so each consecutive run of nWavelengths samples is one SED.
func (p *Pipeline)plotSEDs(samples []SEDSample, nWavelengths int, dir string) error {
	if nWavelengths == 0 {
		return nil
	}
	nSEDs := len(samples) / nWavelengths
	log.Printf("Creating %d SED figures", nSEDs)

	for i := 0; i < nSEDs; i++ {
		group := samples[i*nWavelengths : (i+1)*nWavelengths]
		name := filepath.Join(dir, fmt.Sprintf("%d_%d_sed.png", group[0].X, group[0].Y))
		if err := plotSED(group, name); err != nil {
			return err
		}
	}
	return nil
}

// plotSED scatters flux against log wavelength.
func plotSED(group []SEDSample, filename string) error {
	const w, h = 640.0, 480.0
	const margin = 60.0

	dc := gg.NewContext(int(w), int(h))
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	wLo, wHi := math.Inf(1), math.Inf(-1)
	fLo, fHi := math.Inf(1), math.Inf(-1)
	for _, s := range group {
		wLo = math.Min(wLo, s.WavelengthUm)
		wHi = math.Max(wHi, s.WavelengthUm)
		if !math.IsNaN(s.FluxJy) {
			fLo = math.Min(fLo, s.FluxJy)
			fHi = math.Max(fHi, s.FluxJy)
		}
	}
	if wHi <= wLo {
		wHi = wLo + 1
	}
	if math.IsInf(fLo, 1) || fHi <= fLo {
		fLo, fHi = 0, 1
	}

	xOf := func(um float64) float64 {
		return margin + (math.Log10(um)-math.Log10(wLo))/(math.Log10(wHi)-math.Log10(wLo))*(w-2*margin)
	}
	yOf := func(flux float64) float64 {
		return h - margin - (flux-fLo)/(fHi-fLo)*(h-2*margin)
	}

	// Axes
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(2)
	dc.DrawLine(margin, h-margin, w-margin, h-margin)
	dc.DrawLine(margin, margin, margin, h-margin)
	dc.Stroke()
	dc.DrawStringAnchored("log(Wavelength) (um)", w/2, h-margin/3, 0.5, 0.5)
	dc.DrawStringAnchored("Flux (Jy/pixel)", margin/3, margin/2, 0, 0.5)

	for _, s := range group {
		if math.IsNaN(s.FluxJy) {
			continue
		}
		dc.DrawCircle(xOf(s.WavelengthUm), yOf(s.FluxJy), 4)
		dc.Fill()
	}

	return dc.SavePNG(filename)
}
