package icube

import (
	"fmt"
	"io"
	"log"
	"math"
	"strings"

	"imagecube/pkg/ifits"
)

// Calibration constants. Sources: Spitzer handbooks (MJy/sr), the
// GALEX FAQ (CPS -> erg/s/cm^2/AA), the 2MASS Vega zero points, and
// the SPIRE Observer's Manual v2.4 beam areas.
const (
	// Factor for converting Spitzer (MIPS and IRAC) units from
	// MJy/sr to Jy/(pixel area).
	MJyPerSrToJyPerPixel = 2.3504e-5

	// GALEX CPS -> erg/s/cm^2/AA, per filter.
	FUVLambdaCon = 1.40e-15
	NUVLambdaCon = 2.06e-16

	// erg/s/cm^2/Hz -> Jy.
	JyConversion = 1e23

	// Flux of Vega (Jy) through the 2MASS filters.
	FVegaJ  = 1594.0
	FVegaH  = 1024.0
	FVegaKs = 666.7

	// Speed of light in angstrom/s.
	speedOfLightAAPerSec = 2.99792458e18

	// SPIRE beam areas, arcsec^2.
	S250BeamArea = 423.0
	S350BeamArea = 751.0
	S500BeamArea = 1587.0
)

// ConversionFactor returns the scalar that takes this image's native
// flux units to Jy/pixel. A zero factor means the calibration could
// not be determined, and the caller must treat that as fatal rather
// than ever applying it.
func (in Instrument)ConversionFactor(hdr *ifits.Header) float64 {
	factor := 0.0

	switch in {

	case IRAC, MIPS:
		// Native unit is MJy/sr.
		pixelscale := in.PixelScale(hdr)
		factor = MJyPerSrToJyPerPixel * pixelscale * pixelscale

	case GALEX:
		// WAVELENG has been normalized to microns at ingestion.
		um, ok := hdr.Float("WAVELENG")
		if !ok {
			return 0
		}
		wavelengthAA := um * 1e4
		// A < comparison, so near-boundary values still land on the
		// right filter (the filters sit at 1520 and 2310 AA).
		fLambdaCon := NUVLambdaCon
		if wavelengthAA < 2000 {
			fLambdaCon = FUVLambdaCon
		}
		factor = JyConversion * fLambdaCon * wavelengthAA * wavelengthAA / speedOfLightAAPerSec

	case TwoMASS:
		// Straight out of the definition of the magnitude system.
		filter, _ := hdr.Str("FILTER")
		fvega := 0.0
		switch strings.ToLower(strings.TrimSpace(filter)) {
		case "j":
			fvega = FVegaJ
		case "h":
			fvega = FVegaH
		case "k", "ks":
			fvega = FVegaKs
		}
		magzp, ok := hdr.Float("MAGZP")
		if !ok {
			return 0
		}
		factor = fvega * math.Pow(10, -0.4*magzp)

	case PACS:
		// PACS data should already be Jy/pixel; check, warn, carry on.
		if bunit, ok := hdr.Str("BUNIT"); ok {
			if strings.ToLower(bunit) != "jy/pixel" {
				log.Printf("instrument is PACS, but BUNIT is %q rather than Jy/pixel", bunit)
			}
		}
		factor = 1

	case SPIRE:
		pixelscale := in.PixelScale(hdr)
		um, ok := hdr.Float("WAVELENG")
		if !ok {
			return 0
		}
		switch um {
		case 250:
			factor = pixelscale * pixelscale / S250BeamArea
		case 350:
			factor = pixelscale * pixelscale / S350BeamArea
		case 500:
			factor = pixelscale * pixelscale / S500BeamArea
		}
	}

	return factor
}

// ConvertRecord applies the Jy/pixel conversion in place and writes
// the provenance keywords back into the envelope.
func ConvertRecord(r *Record) error {
	factor := r.Instrument.ConversionFactor(&r.Image.Header)
	if factor == 0 {
		return fmt.Errorf("%w: %s (%s)", ErrNoConversion, r.Stem, r.Instrument)
	}

	r.Image.Scale(factor)
	r.Image.Header.Set("BUNIT", "Jy/pixel", "")
	r.Image.Header.Set("JYPXFACT", factor, "Factor to convert original BUNIT into Jy/pixel.")

	return nil
}

// convertStage normalizes every image to Jy/pixel. An indeterminable
// factor is a calibration failure and aborts the run; it never gets
// silently applied as zero.
func (p *Pipeline)convertStage() error {
	log.Printf("Converting images")

	for _, r := range p.Stack.Records {
		if err := p.loadInput(r, p.stageInput(StageConversion)); err != nil {
			return err
		}
		if err := ConvertRecord(r); err != nil {
			return err
		}

		path, err := p.artifactPath(StageConversion, r.Stem)
		if err != nil {
			return err
		}
		log.Printf("Creating %s", path)
		if err := ifits.Write(r.Image, path); err != nil {
			return err
		}

		p.logFluxHistogram(r)
		p.quicklook(r.Image, path)
	}

	return nil
}

// ListConversionFactors prints the instrument/wavelength/factor table
// without writing anything; a dry-run view of the calibration.
func (p *Pipeline)ListConversionFactors(w io.Writer) error {
	if p.Stack == nil {
		s, err := LoadStack(p.Cfg.Directory)
		if err != nil {
			return err
		}
		p.Stack = s
	}

	fmt.Fprintf(w, "Instrument\tWavelength\tConversion factor (to Jy/pixel)\n")
	for _, r := range p.Stack.Records {
		factor := r.Instrument.ConversionFactor(&r.Image.Header)
		fmt.Fprintf(w, "%s\t%g\t%g\n", r.Instrument, r.WavelengthUm, factor)
	}
	return nil
}
