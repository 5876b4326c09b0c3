package icube

import (
	"errors"
	"math"
	"testing"

	"imagecube/pkg/ifits"
)

func TestConversionFactorIRAC(t *testing.T) {
	h := ifits.Header{}
	h.Set("PXSCAL1", 1.2, "")
	got := IRAC.ConversionFactor(&h)
	want := 2.3504e-5 * 1.44
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestConversionFactorMIPS(t *testing.T) {
	h := ifits.Header{}
	h.Set("PLTSCALE", 2.45, "")
	got := MIPS.ConversionFactor(&h)
	want := 2.3504e-5 * 2.45 * 2.45
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestConversionFactorSPIRE(t *testing.T) {
	h := ifits.Header{}
	h.Set("CDELT2", 6.0/3600, "")
	h.Set("WAVELENG", 250.0, "micron")
	got := SPIRE.ConversionFactor(&h)
	want := 36.0 / 423.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("250um: got %v, want %v", got, want)
	}

	h.Set("WAVELENG", 500.0, "micron")
	want = 36.0 / 1587.0
	if got := SPIRE.ConversionFactor(&h); math.Abs(got-want) > 1e-9 {
		t.Fatalf("500um: got %v, want %v", got, want)
	}

	// A wavelength off the three bands has no beam area.
	h.Set("WAVELENG", 260.0, "micron")
	if got := SPIRE.ConversionFactor(&h); got != 0 {
		t.Fatalf("260um: got %v, want 0", got)
	}
}

func TestConversionFactor2MASS(t *testing.T) {
	h := ifits.Header{}
	h.Set("FILTER", "j", "")
	h.Set("MAGZP", 20.0, "")
	got := TwoMASS.ConversionFactor(&h)
	want := 1594.0 * 1e-8
	if math.Abs(got-want) > 1e-15 {
		t.Fatalf("j: got %v, want %v", got, want)
	}

	h.Set("FILTER", "Ks", "")
	want = 666.7 * 1e-8
	if got := TwoMASS.ConversionFactor(&h); math.Abs(got-want) > 1e-15 {
		t.Fatalf("Ks: got %v, want %v", got, want)
	}
}

func TestConversionFactorGALEX(t *testing.T) {
	// FUV side of the 2000 AA boundary.
	h := ifits.Header{}
	h.Set("WAVELENG", 0.1516, "micron")
	got := GALEX.ConversionFactor(&h)
	want := JyConversion * FUVLambdaCon * 1516 * 1516 / 2.99792458e18
	if math.Abs(got-want)/want > 1e-12 {
		t.Fatalf("FUV: got %v, want %v", got, want)
	}

	// 2000 AA exactly is NUV; the comparison is strict.
	h.Set("WAVELENG", 0.2, "micron")
	got = GALEX.ConversionFactor(&h)
	want = JyConversion * NUVLambdaCon * 2000 * 2000 / 2.99792458e18
	if math.Abs(got-want)/want > 1e-12 {
		t.Fatalf("NUV boundary: got %v, want %v", got, want)
	}
}

func TestConversionFactorPACS(t *testing.T) {
	// PACS is assumed pre-calibrated; a surprising BUNIT is only a
	// warning and never changes the factor.
	h := ifits.Header{}
	h.Set("BUNIT", "Jy/pixel", "")
	if got := PACS.ConversionFactor(&h); got != 1 {
		t.Fatalf("got %v, want 1", got)
	}
	h.Set("BUNIT", "MJy/sr", "")
	if got := PACS.ConversionFactor(&h); got != 1 {
		t.Fatalf("mismatched BUNIT: got %v, want 1", got)
	}
}

func TestConversionFactorUnknown(t *testing.T) {
	h := ifits.Header{}
	if got := Unknown.ConversionFactor(&h); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestConvertRecord(t *testing.T) {
	im := ifits.NewImage(2, 2)
	for i := range im.Pix {
		im.Pix[i] = 10.0
	}
	im.Header.Set("PXSCAL1", 1.2, "")
	r := &Record{Image: im, Stem: "irac8", Instrument: IRAC, WavelengthUm: 8}

	if err := ConvertRecord(r); err != nil {
		t.Fatalf("ConvertRecord: %v", err)
	}

	want := 10.0 * 2.3504e-5 * 1.44
	if math.Abs(im.At(0, 0)-want) > 1e-12 {
		t.Errorf("pixel = %v, want %v", im.At(0, 0), want)
	}
	if s, _ := im.Header.Str("BUNIT"); s != "Jy/pixel" {
		t.Errorf("BUNIT = %q, want Jy/pixel", s)
	}
	if _, ok := im.Header.Float("JYPXFACT"); !ok {
		t.Error("JYPXFACT provenance keyword missing")
	}
}

func TestConvertRecordZeroFactorIsFatal(t *testing.T) {
	im := ifits.NewImage(2, 2)
	im.Pix[0] = 10.0
	r := &Record{Image: im, Stem: "mystery", Instrument: Unknown}

	if err := ConvertRecord(r); !errors.Is(err, ErrNoConversion) {
		t.Fatalf("got %v, want ErrNoConversion", err)
	}
	if im.Pix[0] != 10.0 {
		t.Errorf("pixels were scaled by a zero factor: %v", im.Pix[0])
	}
}
