package main

import(
	"flag"
	"log"
	"math"
	"os"

	"imagecube/pkg/icube"
)

var(
	fConfigFilename string
	fDirectory string
	fAngularSize float64

	fConversion bool
	fRegistration bool
	fConvolution bool
	fResampling bool
	fSEDs bool

	fRA float64
	fDec float64
	fReferenceImage string
	fConvolutionReferenceImage string

	fCleanup bool
	fConversionFactors bool
	fFailFast bool
	fQuicklook bool
	fTonemapper string
	fSEDPlots bool
	fVerbosity int
)

func init() {
	flag.StringVar(&fConfigFilename, "config", "", "yaml config file; command line flags override it")
	flag.StringVar(&fDirectory, "directory", "", "directory of FITS images to process")
	flag.Float64Var(&fAngularSize, "angular_size", 0, "angular size of the region of interest, in arcsec")

	flag.BoolVar(&fConversion, "conversion", false, "convert images to Jy/pixel")
	flag.BoolVar(&fRegistration, "registration", false, "register images onto a common pixel grid")
	flag.BoolVar(&fConvolution, "convolution", false, "convolve images to a common resolution")
	flag.BoolVar(&fResampling, "resampling", false, "resample images at the Nyquist rate and build the data cube")
	flag.BoolVar(&fSEDs, "seds", false, "output the per-pixel SED table")

	flag.Float64Var(&fRA, "ra", math.NaN(), "right ascension of the region of interest, in degrees")
	flag.Float64Var(&fDec, "dec", math.NaN(), "declination of the region of interest, in degrees")
	flag.StringVar(&fReferenceImage, "reference_image", "", "image whose pointing defines the grid center")
	flag.StringVar(&fConvolutionReferenceImage, "convolution_reference_image", "", "image whose resolution defines the common FWHM")

	flag.BoolVar(&fCleanup, "cleanup", false, "remove the output directories of a previous run, then exit")
	flag.BoolVar(&fConversionFactors, "conversion_factors", false, "print the flux conversion factor of each image, then exit")
	flag.BoolVar(&fFailFast, "failfast", false, "abort on the first per-image failure instead of skipping it")
	flag.BoolVar(&fQuicklook, "quicklook", false, "render a PNG preview next to each stage artifact")
	flag.StringVar(&fTonemapper, "tonemapper", "", "how to tonemap preview PNGs (linear, drago03, reinhard05)")
	flag.BoolVar(&fSEDPlots, "sedplots", false, "render one SED figure per spatial pixel")
	flag.IntVar(&fVerbosity, "v", 0, "verbosity level")
	flag.Parse()

	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate|log.Ltime)
}

func main() {
	cfg := icube.NewConfig()
	if fConfigFilename != "" {
		var err error
		if cfg, err = icube.LoadConfig(fConfigFilename); err != nil {
			log.Fatal(err)
		}
	}

	// Override the config file with command line args, if relevant
	if fDirectory != "" { cfg.Directory = fDirectory }
	if fAngularSize > 0 { cfg.AngularSize = fAngularSize }
	if !math.IsNaN(fRA) { cfg.RA = fRA }
	if !math.IsNaN(fDec) { cfg.Dec = fDec }
	if fReferenceImage != "" { cfg.ReferenceImage = fReferenceImage }
	if fConvolutionReferenceImage != "" { cfg.ConvolutionReferenceImage = fConvolutionReferenceImage }
	if fTonemapper != "" { cfg.Tonemapper = fTonemapper }
	if fVerbosity > 0 { cfg.Verbosity = fVerbosity }

	// Just set the bool vars
	if fConversion { cfg.DoConversion = true }
	if fRegistration { cfg.DoRegistration = true }
	if fConvolution { cfg.DoConvolution = true }
	if fResampling { cfg.DoResampling = true }
	if fSEDs { cfg.DoSEDs = true }
	if fFailFast { cfg.FailFast = true }
	if fQuicklook { cfg.Quicklook = true }
	if fSEDPlots { cfg.SEDPlots = true }

	if err := cfg.Finalize(); err != nil {
		log.Fatalf("Bad configuration: %v\n", err)
	}

	if fCleanup {
		if err := icube.Cleanup(&cfg); err != nil {
			log.Fatal(err)
		}
		log.Printf("Cleaned up output directories under %s\n", cfg.Directory)
		return
	}

	p := icube.NewPipeline(&cfg)

	if fConversionFactors {
		if err := p.ListConversionFactors(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	if cfg.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}

	if err := p.Run(); err != nil {
		log.Fatal(err)
	}
	log.Printf("Good bye\n")
}
