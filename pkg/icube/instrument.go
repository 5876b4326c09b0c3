package icube

import (
	"fmt"
	"log"
	"math"
	"strings"

	"imagecube/pkg/ifits"
)

// An Instrument is the closed set of cameras we know how to
// calibrate. Each variant carries its own pixel-scale lookup and flux
// conversion formula, so instrument-specific logic lives here rather
// than in string comparisons scattered across the stages.
type Instrument int

const (
	Unknown Instrument = iota
	IRAC
	MIPS
	GALEX
	TwoMASS
	PACS
	SPIRE
)

var instrumentNames = map[Instrument]string{
	Unknown: "UNKNOWN",
	IRAC:    "IRAC",
	MIPS:    "MIPS",
	GALEX:   "GALEX",
	TwoMASS: "2MASS",
	PACS:    "PACS",
	SPIRE:   "SPIRE",
}

func (in Instrument)String() string { return instrumentNames[in] }

// Herschel instruments are the ones trusted to carry reliable
// pointing keywords; the auto reference position averages over them
// only.
func (in Instrument)IsHerschel() bool { return in == PACS || in == SPIRE }

func parseInstrument(s string) Instrument {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IRAC":
		return IRAC
	case "MIPS":
		return MIPS
	case "GALEX":
		return GALEX
	case "2MASS":
		return TwoMASS
	case "PACS":
		return PACS
	case "SPIRE":
		return SPIRE
	}
	return Unknown
}

// ResolveInstrument works out which camera took the image: the
// INSTRUME keyword first, then the GALEX mission-info keyword, then
// the 2MASS origin keyword. Nothing recognizable is fatal for the
// whole run.
func ResolveInstrument(hdr *ifits.Header) (Instrument, error) {
	if s, ok := hdr.Str("INSTRUME"); ok {
		if in := parseInstrument(s); in != Unknown {
			return in, nil
		}
		return Unknown, fmt.Errorf("%w: INSTRUME=%q", ErrUnknownInstrument, s)
	}
	if s, ok := hdr.Str("INF0001"); ok {
		if strings.Contains(strings.ToLower(s), "galex") {
			return GALEX, nil
		}
	} else if s, ok := hdr.Str("ORIGIN"); ok {
		if strings.Contains(s, "2MASS") {
			return TwoMASS, nil
		}
	}
	return Unknown, ErrUnknownInstrument
}

// Representative wavelengths (micron) for the 2MASS filters.
const (
	Wavelength2MASSJ  = 1.2409
	Wavelength2MASSH  = 1.6514
	Wavelength2MASSKs = 2.1656
)

// filterWavelength2MASS maps a 2MASS FILTER keyword value to microns.
func filterWavelength2MASS(filter string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "j":
		return Wavelength2MASSJ, true
	case "h":
		return Wavelength2MASSH, true
	case "k", "ks":
		return Wavelength2MASSKs, true
	}
	return 0, false
}

// ResolveWavelength returns the representative wavelength of the
// image and its unit: WAVELENG with the unit in its comment, else
// WAVELNTH assumed micron, else the instrument's filter table
// (2MASS only). Nothing resolvable rejects the image.
func ResolveWavelength(hdr *ifits.Header) (float64, string, error) {
	if v, ok := hdr.Float("WAVELENG"); ok {
		unit := hdr.Comment("WAVELENG")
		if unit == "" {
			unit = "micron"
		}
		return v, unit, nil
	}
	if v, ok := hdr.Float("WAVELNTH"); ok {
		return v, "micron", nil
	}
	if filter, ok := hdr.Str("FILTER"); ok {
		inst, err := ResolveInstrument(hdr)
		if err != nil {
			return 0, "", err
		}
		if inst == TwoMASS {
			if v, ok := filterWavelength2MASS(filter); ok {
				return v, "micron", nil
			}
		}
		return 0, "", fmt.Errorf("%w: filter %q on %s has no wavelength table", ErrNoWavelength, filter, inst)
	}
	return 0, "", ErrNoWavelength
}

// ToMicrons normalizes a wavelength to microns. Only micron and
// angstrom units are trusted; anything else falls back to the
// historical placeholder value of 1 micron, and the returned flag
// tells the caller the value is not to be believed.
func ToMicrons(value float64, unit string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "micron", "microns", "um":
		return value, false
	case "angstrom", "angstroms", "aa":
		return value * 1e-4, false
	}
	return 1, true
}

// PixelScale is the instrument's native pixel scale in arcsec/pixel.
// A zero return means the header carried nothing usable; callers log
// it and the conversion/registration math will surface the failure.
func (in Instrument)PixelScale(hdr *ifits.Header) float64 {
	pixelscale := 0.0

	switch in {
	case IRAC:
		if v, ok := hdr.Float("PXSCAL1"); ok {
			pixelscale = math.Abs(v)
		}
	case MIPS:
		if v, ok := hdr.Float("PLTSCALE"); ok {
			pixelscale = v
		}
	case SPIRE:
		if v, ok := hdr.Float("CDELT2"); ok {
			pixelscale = math.Abs(v) * 3600
		}
	default:
		if v, ok := hdr.Float("CDELT2"); ok {
			pixelscale = math.Abs(v) * 3600
		}
	}

	if pixelscale == 0 {
		log.Printf("%s: native pixelscale is 0, so something may have gone wrong here", in)
	}

	return pixelscale
}
