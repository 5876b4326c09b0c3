package icube

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"imagecube/pkg/iwarp"
)

// BuildGrid sizes a synthetic reference grid to cover angularSize
// arcsec of sky at the given pixel scale, centered on the reference
// position. The same quotient sizes the grid and places its center,
// so the two can never disagree.
func BuildGrid(angularSize, pixScale, ra, dec float64) (iwarp.GridSpec, error) {
	if pixScale <= 0 || math.IsNaN(pixScale) {
		return iwarp.GridSpec{}, fmt.Errorf("grid: bad pixel scale %v", pixScale)
	}

	n := int(angularSize / pixScale)
	if n < 1 {
		return iwarp.GridSpec{}, fmt.Errorf("grid: angular size %v arcsec covers no pixels at %v arcsec/pixel", angularSize, pixScale)
	}

	return iwarp.GridSpec{
		Nx:         n,
		Ny:         n,
		ScaleX:     pixScale,
		ScaleY:     pixScale,
		RefRA:      ra,
		RefDec:     dec,
		Projection: "tan",
		Epoch:      "j2000",
	}, nil
}

// herschelMean averages a pointing keyword over the images from
// instruments known to carry reliable pointing (PACS and SPIRE).
// With neither present the mean is undefined, which is fatal for
// the run.
func herschelMean(s *Stack, keyword string) (float64, error) {
	values := []float64{}
	for _, r := range s.Records {
		if !r.Instrument.IsHerschel() {
			continue
		}
		if v, ok := r.Image.Header.Float(keyword); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("%w (keyword %s)", ErrNoReference, keyword)
	}
	return stat.Mean(values, nil), nil
}

// ReferenceSky is the single sky position everything gets registered
// and resampled around: the user's override if given, else the
// Herschel pointing mean.
func ReferenceSky(cfg *Config, s *Stack) (float64, float64, error) {
	if cfg.HasRefSky() {
		return cfg.RA, cfg.Dec, nil
	}

	ra, err := herschelMean(s, "CRVAL1")
	if err != nil {
		return 0, 0, err
	}
	dec, err := herschelMean(s, "CRVAL2")
	if err != nil {
		return 0, 0, err
	}
	return ra, dec, nil
}
