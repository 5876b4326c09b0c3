package icube

import "errors"

// Calibration failures are terminal for a run: they mean the physics
// can't be worked out, not that something transient went wrong, so
// nothing retries them.
var (
	ErrUnknownInstrument = errors.New("instrument could not be determined from the header")
	ErrNoConversion      = errors.New("no flux conversion factor could be determined")
	ErrNoCommonFWHM      = errors.New("no common resolution for this instrument/wavelength set")
	ErrNoReference       = errors.New("no reference sky position: no PACS/SPIRE pointing and no ra/dec given")
	ErrNoWavelength      = errors.New("no wavelength could be determined from the header")
)
