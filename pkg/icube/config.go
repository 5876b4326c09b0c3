package icube

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

/* Example config file ...

directory: ./ngc1569
angularsize: 300
conversion: true
registration: true
convolution: true
resampling: true
seds: true
ra: 67.70
dec: 64.85
quicklook: true
tonemapper: drago03

*/

// Config is the per-run configuration. It is finalized once, up
// front, and then passed by pointer into every stage; nothing
// mutates it afterwards.
type Config struct {
	Directory   string  // input directory of raw images
	AngularSize float64 // target sky coverage, arcsec

	// Stage selection
	DoConversion   bool `yaml:"conversion"`
	DoRegistration bool `yaml:"registration"`
	DoConvolution  bool `yaml:"convolution"`
	DoResampling   bool `yaml:"resampling"`
	DoSEDs         bool `yaml:"seds"`

	// Reference sky position override; NaN means "average the
	// Herschel pointing keywords instead".
	RA  float64
	Dec float64

	// User-supplied reference images, existence-checked against
	// the input directory.
	ReferenceImage            string `yaml:"referenceimage"`
	ConvolutionReferenceImage string `yaml:"convolutionreferenceimage"`

	// FailFast aborts the whole run on the first per-image stage
	// error, instead of the default continue-and-report.
	FailFast bool

	// Quicklook renders a tonemapped PNG preview next to each
	// stage artifact.
	Quicklook  bool
	Tonemapper string // linear | drago03 | reinhard05

	// SEDPlots renders one figure per spatial pixel in the seds
	// stage. Expensive; off by default.
	SEDPlots bool

	Verbosity int
}

func NewConfig() Config {
	return Config{
		RA:         math.NaN(),
		Dec:        math.NaN(),
		Tonemapper: "drago03",
	}
}

func LoadConfig(filename string) (Config, error) {
	c := NewConfig()

	contents, err := os.ReadFile(filename)
	if err != nil {
		return c, fmt.Errorf("config read %s: %v", filename, err)
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("config parse %s: %v", filename, err)
	}

	return c, nil
}

// Finalize does sanity checks and other post-processing.
func (c *Config)Finalize() error {
	if c.Directory == "" {
		return fmt.Errorf("no input directory given")
	}
	if fi, err := os.Stat(c.Directory); err != nil || !fi.IsDir() {
		return fmt.Errorf("the directory cannot be found: %s", c.Directory)
	}
	if c.AngularSize <= 0 || math.IsNaN(c.AngularSize) {
		return fmt.Errorf("angular_size must be a positive number of arcsec, got %v", c.AngularSize)
	}
	if math.IsNaN(c.RA) != math.IsNaN(c.Dec) {
		return fmt.Errorf("ra and dec must be given together")
	}

	for _, ref := range []string{c.ReferenceImage, c.ConvolutionReferenceImage} {
		if ref == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(c.Directory, ref)); err != nil {
			return fmt.Errorf("the file %s could not be found in the directory %s", ref, c.Directory)
		}
	}

	switch c.Tonemapper {
	case "", "linear", "drago03", "reinhard05":
	default:
		return fmt.Errorf("no tonemapper named %q", c.Tonemapper)
	}

	return nil
}

// HasRefSky reports whether the user pinned the reference position.
func (c *Config)HasRefSky() bool {
	return !math.IsNaN(c.RA) && !math.IsNaN(c.Dec)
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config marshal failed: %v", err)
	}
	return string(b)
}
