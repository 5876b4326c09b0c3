package ifits

import (
	"math"
	"path/filepath"
	"testing"
)

func TestHeaderSetReplacesInPlace(t *testing.T) {
	h := Header{}
	h.Set("INSTRUME", "IRAC", "")
	h.Set("WAVELENG", 8.0, "micron")
	h.Set("INSTRUME", "MIPS", "")

	if len(h.Cards()) != 2 {
		t.Fatalf("got %d cards, want 2", len(h.Cards()))
	}
	if h.Cards()[0].Name != "INSTRUME" {
		t.Errorf("replace moved the card; first card is %s", h.Cards()[0].Name)
	}
	if s, _ := h.Str("INSTRUME"); s != "MIPS" {
		t.Errorf("INSTRUME = %q, want MIPS", s)
	}
}

func TestHeaderFloatCoercion(t *testing.T) {
	h := Header{}
	h.Set("A", 42, "")
	h.Set("B", "2.45", "")
	h.Set("C", float32(1.5), "")
	h.Set("D", "not a number", "")

	for _, tc := range []struct {
		key  string
		want float64
		ok   bool
	}{
		{"A", 42, true},
		{"B", 2.45, true},
		{"C", 1.5, true},
		{"D", 0, false},
		{"MISSING", 0, false},
	} {
		got, ok := h.Float(tc.key)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Float(%s) = (%v, %v), want (%v, %v)", tc.key, got, ok, tc.want, tc.ok)
		}
	}
}

func TestHeaderCommentCarriesUnit(t *testing.T) {
	h := Header{}
	h.Set("WAVELENG", 1516.0, "Angstroms")
	if got := h.Comment("WAVELENG"); got != "Angstroms" {
		t.Errorf("Comment(WAVELENG) = %q, want Angstroms", got)
	}
	if got := h.Comment("MISSING"); got != "" {
		t.Errorf("Comment(MISSING) = %q, want empty", got)
	}
}

func TestWriteReadRoundtrip(t *testing.T) {
	dir := t.TempDir()

	im := NewImage(4, 3)
	for i := range im.Pix {
		im.Pix[i] = float64(i) * 0.5
	}
	im.SetAt(2, 1, math.NaN())
	im.Header.Set("INSTRUME", "SPIRE", "")
	im.Header.Set("WAVELENG", 250.0, "micron")

	path := filepath.Join(dir, "roundtrip.fits")
	if err := Write(im, path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Nx != 4 || got.Ny != 3 {
		t.Fatalf("dimensions %dx%d, want 4x3", got.Nx, got.Ny)
	}
	for i := range im.Pix {
		if math.IsNaN(im.Pix[i]) {
			if !math.IsNaN(got.Pix[i]) {
				t.Errorf("pix[%d] = %v, want NaN", i, got.Pix[i])
			}
			continue
		}
		if got.Pix[i] != im.Pix[i] {
			t.Errorf("pix[%d] = %v, want %v", i, got.Pix[i], im.Pix[i])
		}
	}
	if s, _ := got.Header.Str("INSTRUME"); s != "SPIRE" {
		t.Errorf("INSTRUME = %q, want SPIRE", s)
	}
	if v, ok := got.Header.Float("WAVELENG"); !ok || v != 250.0 {
		t.Errorf("WAVELENG = (%v, %v), want (250, true)", v, ok)
	}
	if c := got.Header.Comment("WAVELENG"); c != "micron" {
		t.Errorf("WAVELENG comment = %q, want micron", c)
	}
}

func TestWriteOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "twice.fits")

	im := NewImage(2, 2)
	im.Pix[0] = 1
	if err := Write(im, path); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	im.Pix[0] = 7
	if err := Write(im, path); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Pix[0] != 7 {
		t.Errorf("pix[0] = %v, want 7 (overwrite, not append)", got.Pix[0])
	}
}

func TestWriteCubeRejectsMismatchedPlanes(t *testing.T) {
	dir := t.TempDir()
	a := NewImage(4, 4)
	b := NewImage(5, 4)
	err := WriteCube([]*Image{a, b}, filepath.Join(dir, "cube.fits"))
	if err == nil {
		t.Fatal("expected an error for mismatched plane sizes")
	}
}

func TestWriteCubeReadsBackFirstPlane(t *testing.T) {
	dir := t.TempDir()

	a := NewImage(3, 2)
	b := NewImage(3, 2)
	for i := range a.Pix {
		a.Pix[i] = float64(i)
		b.Pix[i] = float64(i) + 100
	}
	a.Header.Set("WAVELENG", 8.0, "micron")

	path := filepath.Join(dir, "cube.fits")
	if err := WriteCube([]*Image{a, b}, path); err != nil {
		t.Fatalf("WriteCube: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Nx != 3 || got.Ny != 2 {
		t.Fatalf("dimensions %dx%d, want 3x2", got.Nx, got.Ny)
	}
	for i := range a.Pix {
		if got.Pix[i] != a.Pix[i] {
			t.Errorf("plane 0 pix[%d] = %v, want %v", i, got.Pix[i], a.Pix[i])
		}
	}
	if v, ok := got.Header.Float("WAVELENG"); !ok || v != 8.0 {
		t.Errorf("cube header WAVELENG = (%v, %v), want first plane's (8, true)", v, ok)
	}
}
