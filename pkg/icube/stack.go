package icube

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"imagecube/pkg/ifits"
)

// A Record is one image's trip through the pipeline: the current
// in-memory pixels+envelope, and the identity worked out at
// ingestion. The Image field is replaced whenever a stage re-reads a
// freshly written artifact.
type Record struct {
	Image *ifits.Image

	// Stem is the original filename without extension; every stage
	// derives its artifact name from it.
	Stem string

	Instrument   Instrument
	WavelengthUm float64

	// Unverified marks the 1-micron placeholder substituted for an
	// unrecognized wavelength unit. Downstream must not trust it.
	Unverified bool
}

// A Stack is the working image collection, kept sorted ascending by
// wavelength from ingestion onwards.
type Stack struct {
	Records []*Record
}

func (s Stack)String() string {
	str := "Stack[\n"
	for _, r := range s.Records {
		str += fmt.Sprintf("  %s: %s %.4fum\n", r.Stem, r.Instrument, r.WavelengthUm)
	}
	return str + "]\n"
}

func (s *Stack)Add(r *Record) {
	s.Records = append(s.Records, r)
	sort.Slice(s.Records, func(i, j int) bool {
		return s.Records[i].WavelengthUm < s.Records[j].WavelengthUm
	})
}

// LoadStack ingests every FITS file in the directory: resolve the
// instrument (fatal when impossible), resolve the wavelength and
// rewrite the WAVELENG keyword in microns, then keep the collection
// wavelength-sorted. Input file order never matters after this.
func LoadStack(dir string) (*Stack, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.fit*"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %v", dir, err)
	}
	// Glob also matches our own artifacts if someone points the
	// pipeline at a stage directory; it never matches subdirectories,
	// so stage outputs under converted/ etc are not re-ingested.

	s := &Stack{}
	for _, path := range paths {
		if !strings.HasSuffix(path, ".fit") && !strings.HasSuffix(path, ".fits") {
			continue
		}

		im, err := ifits.Read(path)
		if err != nil {
			return nil, err
		}

		inst, err := ResolveInstrument(&im.Header)
		if err != nil {
			return nil, fmt.Errorf("%s: %w; please insert appropriate information in the header", path, err)
		}

		value, unit, err := ResolveWavelength(&im.Header)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		um, unverified := ToMicrons(value, unit)
		if unverified {
			log.Printf("%s: wavelength unit %q not recognized; using the 1 micron placeholder, do not trust it", path, unit)
		}

		im.Header.Set("WAVELENG", um, "micron")

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		s.Add(&Record{
			Image:        im,
			Stem:         stem,
			Instrument:   inst,
			WavelengthUm: um,
			Unverified:   unverified,
		})
	}

	if len(s.Records) == 0 {
		return nil, fmt.Errorf("no FITS images found in %s", dir)
	}

	return s, nil
}

// Wavelengths lists the (sorted) wavelengths of the collection.
func (s *Stack)Wavelengths() []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.WavelengthUm
	}
	return out
}
