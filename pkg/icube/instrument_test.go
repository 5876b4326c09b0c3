package icube

import (
	"errors"
	"math"
	"testing"

	"imagecube/pkg/ifits"
)

func TestResolveInstrument(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *ifits.Header)
		want  Instrument
	}{
		{"irac", func(h *ifits.Header) { h.Set("INSTRUME", "IRAC", "") }, IRAC},
		{"mips lowercase", func(h *ifits.Header) { h.Set("INSTRUME", "mips", "") }, MIPS},
		{"spire padded", func(h *ifits.Header) { h.Set("INSTRUME", " SPIRE ", "") }, SPIRE},
		{"pacs", func(h *ifits.Header) { h.Set("INSTRUME", "PACS", "") }, PACS},
		{"galex mission info", func(h *ifits.Header) { h.Set("INF0001", "Mission: GALEX, survey AIS", "") }, GALEX},
		{"2mass origin", func(h *ifits.Header) { h.Set("ORIGIN", "2MASS IPAC", "") }, TwoMASS},
	}

	for _, tc := range tests {
		h := ifits.Header{}
		tc.setup(&h)
		got, err := ResolveInstrument(&h)
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestResolveInstrumentUnresolvable(t *testing.T) {
	h := ifits.Header{}
	h.Set("OBJECT", "NGC1569", "")
	if _, err := ResolveInstrument(&h); !errors.Is(err, ErrUnknownInstrument) {
		t.Fatalf("empty-of-identity header: got %v, want ErrUnknownInstrument", err)
	}

	// A present but unrecognized INSTRUME must not silently default.
	h2 := ifits.Header{}
	h2.Set("INSTRUME", "WFPC2", "")
	if _, err := ResolveInstrument(&h2); !errors.Is(err, ErrUnknownInstrument) {
		t.Fatalf("INSTRUME=WFPC2: got %v, want ErrUnknownInstrument", err)
	}
}

func TestResolveWavelength(t *testing.T) {
	// WAVELENG with the unit in its comment wins.
	h := ifits.Header{}
	h.Set("WAVELENG", 1516.0, "Angstroms")
	v, unit, err := ResolveWavelength(&h)
	if err != nil || v != 1516.0 || unit != "Angstroms" {
		t.Errorf("WAVELENG: got (%v, %q, %v)", v, unit, err)
	}

	// WAVELENG with no comment is assumed micron.
	h = ifits.Header{}
	h.Set("WAVELENG", 8.0, "")
	if v, unit, _ := ResolveWavelength(&h); v != 8.0 || unit != "micron" {
		t.Errorf("bare WAVELENG: got (%v, %q)", v, unit)
	}

	// WAVELNTH is the Herschel spelling, always micron.
	h = ifits.Header{}
	h.Set("WAVELNTH", 250.0, "")
	if v, unit, _ := ResolveWavelength(&h); v != 250.0 || unit != "micron" {
		t.Errorf("WAVELNTH: got (%v, %q)", v, unit)
	}

	// FILTER goes through the 2MASS table.
	h = ifits.Header{}
	h.Set("ORIGIN", "2MASS", "")
	h.Set("FILTER", "j", "")
	if v, _, _ := ResolveWavelength(&h); v != Wavelength2MASSJ {
		t.Errorf("2MASS j: got %v, want %v", v, Wavelength2MASSJ)
	}

	h = ifits.Header{}
	if _, _, err := ResolveWavelength(&h); !errors.Is(err, ErrNoWavelength) {
		t.Errorf("empty header: got %v, want ErrNoWavelength", err)
	}
}

func TestToMicrons(t *testing.T) {
	tests := []struct {
		value      float64
		unit       string
		want       float64
		unverified bool
	}{
		{8, "micron", 8, false},
		{24, "Microns", 24, false},
		{70, "um", 70, false},
		{1516, "Angstroms", 0.1516, false},
		{2267, "angstrom", 0.2267, false},
		{160, "furlongs", 1, true},
		{160, "", 1, true},
	}
	for _, tc := range tests {
		got, unverified := ToMicrons(tc.value, tc.unit)
		if math.Abs(got-tc.want) > 1e-12 || unverified != tc.unverified {
			t.Errorf("ToMicrons(%v, %q) = (%v, %v), want (%v, %v)",
				tc.value, tc.unit, got, unverified, tc.want, tc.unverified)
		}
	}
}

func TestPixelScale(t *testing.T) {
	h := ifits.Header{}
	h.Set("PXSCAL1", -1.2, "")
	if got := IRAC.PixelScale(&h); got != 1.2 {
		t.Errorf("IRAC: got %v, want 1.2 (absolute value of PXSCAL1)", got)
	}

	h = ifits.Header{}
	h.Set("PLTSCALE", 2.45, "")
	if got := MIPS.PixelScale(&h); got != 2.45 {
		t.Errorf("MIPS: got %v, want 2.45", got)
	}

	h = ifits.Header{}
	h.Set("CDELT2", -6.0/3600, "")
	if got := SPIRE.PixelScale(&h); math.Abs(got-6.0) > 1e-9 {
		t.Errorf("SPIRE: got %v, want 6 arcsec", got)
	}

	h = ifits.Header{}
	h.Set("CDELT2", 1.5/3600, "")
	if got := PACS.PixelScale(&h); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("PACS: got %v, want 1.5 arcsec", got)
	}

	// Nothing usable resolves to 0, which callers treat as a failure.
	h = ifits.Header{}
	if got := IRAC.PixelScale(&h); got != 0 {
		t.Errorf("bare header: got %v, want 0", got)
	}
}
