package ifits

import (
	"fmt"
	"os"

	"github.com/astrogo/fitsio"
)

// Keywords owned by the container layout itself; these are never
// copied into our envelope, the writer regenerates them.
var structuralKeys = map[string]bool{
	"SIMPLE": true, "BITPIX": true, "NAXIS": true,
	"NAXIS1": true, "NAXIS2": true, "NAXIS3": true, "NAXIS4": true,
	"EXTEND": true, "XTENSION": true, "PCOUNT": true, "GCOUNT": true,
	"BZERO": true, "BSCALE": true, "END": true,
	"COMMENT": true, "HISTORY": true, "": true,
}

// Read loads the first HDU of a FITS file. Higher-dimensional data
// keeps only the first science plane. BZERO/BSCALE are applied so
// Pix always holds true physical values.
func Read(path string) (*Image, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", path, err)
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("fits open %s: %v", path, err)
	}
	defer f.Close()

	hdu := f.HDU(0)
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("fits %s: primary HDU is not an image", path)
	}

	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) < 2 {
		return nil, fmt.Errorf("fits %s: need a 2-D image, got %d axes", path, len(axes))
	}
	nx, ny := axes[0], axes[1]
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("fits %s: degenerate axes %v", path, axes)
	}

	pix, err := readPixels(img, hdr.Bitpix(), nx*ny)
	if err != nil {
		return nil, fmt.Errorf("fits %s: %v", path, err)
	}

	out := &Image{Nx: nx, Ny: ny, Pix: pix, Path: path}

	bzero, bscale := 0.0, 1.0
	if v, ok := headerFloat(hdr, "BZERO"); ok {
		bzero = v
	}
	if v, ok := headerFloat(hdr, "BSCALE"); ok && v != 0 {
		bscale = v
	}
	if bzero != 0 || bscale != 1 {
		for i := range out.Pix {
			out.Pix[i] = bzero + bscale*out.Pix[i]
		}
	}

	for _, key := range hdr.Keys() {
		if structuralKeys[key] {
			continue
		}
		if card := hdr.Get(key); card != nil {
			out.Header.Set(card.Name, card.Value, card.Comment)
		}
	}

	return out, nil
}

// readPixels pulls the raw data out at whatever BITPIX the file uses,
// and widens to float64. Only the first n values (one plane) are kept.
func readPixels(img fitsio.Image, bitpix, n int) ([]float64, error) {
	pix := make([]float64, n)

	switch bitpix {
	case 8:
		var data []int8
		if err := img.Read(&data); err != nil {
			return nil, err
		}
		if len(data) < n {
			return nil, fmt.Errorf("short data: %d < %d", len(data), n)
		}
		for i := 0; i < n; i++ {
			pix[i] = float64(data[i])
		}
	case 16:
		var data []int16
		if err := img.Read(&data); err != nil {
			return nil, err
		}
		if len(data) < n {
			return nil, fmt.Errorf("short data: %d < %d", len(data), n)
		}
		for i := 0; i < n; i++ {
			pix[i] = float64(data[i])
		}
	case 32:
		var data []int32
		if err := img.Read(&data); err != nil {
			return nil, err
		}
		if len(data) < n {
			return nil, fmt.Errorf("short data: %d < %d", len(data), n)
		}
		for i := 0; i < n; i++ {
			pix[i] = float64(data[i])
		}
	case 64:
		var data []int64
		if err := img.Read(&data); err != nil {
			return nil, err
		}
		if len(data) < n {
			return nil, fmt.Errorf("short data: %d < %d", len(data), n)
		}
		for i := 0; i < n; i++ {
			pix[i] = float64(data[i])
		}
	case -32:
		var data []float32
		if err := img.Read(&data); err != nil {
			return nil, err
		}
		if len(data) < n {
			return nil, fmt.Errorf("short data: %d < %d", len(data), n)
		}
		for i := 0; i < n; i++ {
			pix[i] = float64(data[i])
		}
	case -64:
		var data []float64
		if err := img.Read(&data); err != nil {
			return nil, err
		}
		if len(data) < n {
			return nil, fmt.Errorf("short data: %d < %d", len(data), n)
		}
		copy(pix, data)
	default:
		return nil, fmt.Errorf("unhandled BITPIX %d", bitpix)
	}

	return pix, nil
}

func headerFloat(hdr *fitsio.Header, key string) (float64, bool) {
	card := hdr.Get(key)
	if card == nil {
		return 0, false
	}
	switch v := card.Value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Write persists the image as a BITPIX=-64 primary HDU, overwriting
// any previous artifact at the same path.
func Write(im *Image, path string) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %v", path, err)
	}
	defer w.Close()

	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("fits create %s: %v", path, err)
	}
	defer f.Close()

	img := fitsio.NewImage(-64, []int{im.Nx, im.Ny})
	defer img.Close()

	for _, c := range im.Header.Cards() {
		if structuralKeys[c.Name] {
			continue
		}
		if err := img.Header().Append(fitsio.Card{Name: c.Name, Value: c.Value, Comment: c.Comment}); err != nil {
			return fmt.Errorf("fits %s: card %s: %v", path, c.Name, err)
		}
	}

	data := make([]float64, len(im.Pix))
	copy(data, im.Pix)
	if err := img.Write(&data); err != nil {
		return fmt.Errorf("fits %s: write data: %v", path, err)
	}
	if err := f.Write(img); err != nil {
		return fmt.Errorf("fits %s: write hdu: %v", path, err)
	}

	im.Path = path
	return nil
}

// WriteCube stacks equally-sized planes into one BITPIX=-64 cube,
// with the first plane's envelope as the cube's header.
func WriteCube(planes []*Image, path string) error {
	if len(planes) == 0 {
		return fmt.Errorf("cube %s: no planes", path)
	}
	nx, ny := planes[0].Nx, planes[0].Ny
	for _, p := range planes[1:] {
		if p.Nx != nx || p.Ny != ny {
			return fmt.Errorf("cube %s: plane %s is %dx%d, want %dx%d",
				path, p.Path, p.Nx, p.Ny, nx, ny)
		}
	}

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %v", path, err)
	}
	defer w.Close()

	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("fits create %s: %v", path, err)
	}
	defer f.Close()

	img := fitsio.NewImage(-64, []int{nx, ny, len(planes)})
	defer img.Close()

	for _, c := range planes[0].Header.Cards() {
		if structuralKeys[c.Name] {
			continue
		}
		if err := img.Header().Append(fitsio.Card{Name: c.Name, Value: c.Value, Comment: c.Comment}); err != nil {
			return fmt.Errorf("fits %s: card %s: %v", path, c.Name, err)
		}
	}

	data := make([]float64, 0, nx*ny*len(planes))
	for _, p := range planes {
		data = append(data, p.Pix...)
	}
	if err := img.Write(&data); err != nil {
		return fmt.Errorf("fits %s: write data: %v", path, err)
	}
	if err := f.Write(img); err != nil {
		return fmt.Errorf("fits %s: write hdu: %v", path, err)
	}

	return nil
}
