// Package iwarp is the WCS registration service: it builds synthetic
// reference grids, tags them with a tangent-projection world
// coordinate system, and warps science images onto them. The pipeline
// consumes it through an interface, so it can be swapped for a fake
// in tests (or for an external reprojection tool).
package iwarp

import (
	"fmt"
	"math"

	"imagecube/pkg/ifits"
)

const degPerArcsec = 1.0 / 3600.0

// A WCS maps pixel coordinates to J2000 sky coordinates through a
// tangent (gnomonic) projection with zero rotation. Scales are in
// degrees per pixel; ScaleX is negative in the usual FITS convention
// (RA grows to the left).
type WCS struct {
	RefRA, RefDec  float64 // deg, at the reference pixel
	RefX, RefY     float64 // 0-based reference pixel
	ScaleX, ScaleY float64 // deg/pixel
}

// FromHeader builds the WCS recorded in an image's envelope. There is
// no astrometric solving here: CRVAL must be present, CRPIX defaults
// to the image center, CDELT falls back to the supplied native scale
// (arcsec/pixel) when the header carries none.
func FromHeader(im *ifits.Image, fallbackScaleArcsec float64) (WCS, error) {
	w := WCS{}

	ra, ok1 := im.Header.Float("CRVAL1")
	dec, ok2 := im.Header.Float("CRVAL2")
	if !ok1 || !ok2 {
		return w, fmt.Errorf("no CRVAL1/CRVAL2 in header of %s", im.Path)
	}
	w.RefRA, w.RefDec = ra, dec

	if x, ok := im.Header.Float("CRPIX1"); ok {
		w.RefX = x - 1 // FITS pixels are 1-based
	} else {
		w.RefX = float64(im.Nx) / 2
	}
	if y, ok := im.Header.Float("CRPIX2"); ok {
		w.RefY = y - 1
	} else {
		w.RefY = float64(im.Ny) / 2
	}

	if d, ok := im.Header.Float("CDELT1"); ok && d != 0 {
		w.ScaleX = d
	} else if fallbackScaleArcsec > 0 {
		w.ScaleX = -fallbackScaleArcsec * degPerArcsec
	} else {
		return w, fmt.Errorf("no CDELT1 and no fallback scale for %s", im.Path)
	}
	if d, ok := im.Header.Float("CDELT2"); ok && d != 0 {
		w.ScaleY = d
	} else {
		w.ScaleY = fallbackScaleArcsec * degPerArcsec
	}

	return w, nil
}

// PixToSky maps a (0-based) pixel position to RA/Dec in degrees.
func (w WCS)PixToSky(x, y float64) (float64, float64) {
	xi := (x - w.RefX) * w.ScaleX * math.Pi / 180
	eta := (y - w.RefY) * w.ScaleY * math.Pi / 180

	ra0 := w.RefRA * math.Pi / 180
	dec0 := w.RefDec * math.Pi / 180
	sinDec0, cosDec0 := math.Sin(dec0), math.Cos(dec0)

	ra := ra0 + math.Atan2(xi, cosDec0-eta*sinDec0)
	dec := math.Atan2(sinDec0+eta*cosDec0,
		math.Hypot(xi, cosDec0-eta*sinDec0))

	return math.Mod(ra*180/math.Pi+360, 360), dec * 180 / math.Pi
}

// SkyToPix maps RA/Dec in degrees to a (0-based) pixel position. The
// bool is false when the sky position is on the far side of the
// projection plane (a singular WCS for this image).
func (w WCS)SkyToPix(ra, dec float64) (float64, float64, bool) {
	ra0 := w.RefRA * math.Pi / 180
	dec0 := w.RefDec * math.Pi / 180
	raR := ra * math.Pi / 180
	decR := dec * math.Pi / 180

	sinDec, cosDec := math.Sin(decR), math.Cos(decR)
	sinDec0, cosDec0 := math.Sin(dec0), math.Cos(dec0)
	cosDRA := math.Cos(raR - ra0)

	d := sinDec*sinDec0 + cosDec*cosDec0*cosDRA
	if d <= 1e-9 {
		return 0, 0, false
	}

	xi := cosDec * math.Sin(raR-ra0) / d
	eta := (sinDec*cosDec0 - cosDec*sinDec0*cosDRA) / d

	x := w.RefX + xi*180/math.Pi/w.ScaleX
	y := w.RefY + eta*180/math.Pi/w.ScaleY
	return x, y, true
}

// Tag writes the WCS into an image envelope.
func (w WCS)Tag(im *ifits.Image) {
	im.Header.Set("CTYPE1", "RA---TAN", "gnomonic projection")
	im.Header.Set("CTYPE2", "DEC--TAN", "gnomonic projection")
	im.Header.Set("CRVAL1", w.RefRA, "[deg] RA at reference pixel")
	im.Header.Set("CRVAL2", w.RefDec, "[deg] DEC at reference pixel")
	im.Header.Set("CRPIX1", w.RefX+1, "reference pixel, x")
	im.Header.Set("CRPIX2", w.RefY+1, "reference pixel, y")
	im.Header.Set("CDELT1", w.ScaleX, "[deg/pixel]")
	im.Header.Set("CDELT2", w.ScaleY, "[deg/pixel]")
	im.Header.Set("EQUINOX", 2000.0, "J2000")
}
