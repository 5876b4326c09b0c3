package icube

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"imagecube/pkg/ifits"
	"imagecube/pkg/iwarp"
)

// A Stage is one step of the pipeline. Stages run in this fixed
// order; each is independently selectable.
type Stage int

const (
	StageConversion Stage = iota
	StageRegistration
	StageConvolution
	StageResampling
	StageSEDs
)

var stageNames = map[Stage]string{
	StageConversion:   "conversion",
	StageRegistration: "registration",
	StageConvolution:  "convolution",
	StageResampling:   "resampling",
	StageSEDs:         "seds",
}

func (st Stage)String() string { return stageNames[st] }

// stageIO names a stage's output directory and artifact suffix.
type stageIO struct {
	dir    string
	suffix string
}

var stageOut = map[Stage]stageIO{
	StageConversion:   {"converted", "_converted"},
	StageRegistration: {"registered", "_registered"},
	StageConvolution:  {"convolved", "_convolved"},
	StageResampling:   {"resampled", "_resampled"},
	StageSEDs:         {"seds", ""},
}

// fixedInput is where a stage reads from when no earlier stage ran in
// this process: the on-disk output of its natural predecessor. This
// is what makes a partial rerun resumable.
var fixedInput = map[Stage]stageIO{
	StageConversion:   {"", ""}, // raw images, already in memory
	StageRegistration: {"converted", "_converted"},
	StageConvolution:  {"registered", "_registered"},
	StageResampling:   {"convolved", "_convolved"},
	StageSEDs:         {"resampled", "_resampled"},
}

// OutputDirs is every directory a run may create; cleanup removes
// exactly these.
var OutputDirs = []string{"converted", "registered", "convolved", "resampled", "seds", "datacube"}

// A Pipeline owns the configuration, the image collection, and the
// stage sequencing. The warp and convolution engines are injected so
// the sequencing logic can be tested against fakes.
type Pipeline struct {
	Cfg   *Config
	Stack *Stack

	Warper    Warper
	Convolver Convolver

	// Completed tracks stage completion for this run explicitly,
	// rather than re-deriving it from what's on disk.
	Completed map[Stage]bool

	lastOut stageIO // output of the most recent enabled stage
}

func NewPipeline(cfg *Config) *Pipeline {
	return &Pipeline{
		Cfg:       cfg,
		Warper:    iwarp.Engine{},
		Convolver: KernelConvolver{},
		Completed: map[Stage]bool{},
	}
}

// Run ingests the image collection and executes every enabled stage
// in order. Calibration failures abort; per-image stage failures are
// reported and skipped unless FailFast is set.
func (p *Pipeline)Run() error {
	s, err := LoadStack(p.Cfg.Directory)
	if err != nil {
		return err
	}
	p.Stack = s

	if p.Cfg.Verbosity > 0 {
		log.Printf("Images loaded: %s", s)
	}

	type step struct {
		stage   Stage
		enabled bool
		run     func() error
	}
	steps := []step{
		{StageConversion, p.Cfg.DoConversion, p.convertStage},
		{StageRegistration, p.Cfg.DoRegistration, p.registerStage},
		{StageConvolution, p.Cfg.DoConvolution, p.convolveStage},
		{StageResampling, p.Cfg.DoResampling, p.resampleStage},
		{StageSEDs, p.Cfg.DoSEDs, p.sedStage},
	}

	for _, st := range steps {
		if !st.enabled {
			continue
		}
		if err := st.run(); err != nil {
			return fmt.Errorf("stage %s: %w", st.stage, err)
		}
		p.Completed[st.stage] = true
		p.lastOut = stageOut[st.stage]
	}

	return nil
}

// stageInput is where a stage reads its images from: the most recent
// enabled predecessor in this run, else the fixed on-disk chain.
func (p *Pipeline)stageInput(st Stage) stageIO {
	if p.lastOut.dir != "" {
		return p.lastOut
	}
	return fixedInput[st]
}

// loadInput refreshes a record from the stage input directory. An
// empty dir means the raw ingested image is the input.
func (p *Pipeline)loadInput(r *Record, in stageIO) error {
	if in.dir == "" {
		return nil
	}
	path := filepath.Join(p.Cfg.Directory, in.dir, r.Stem+in.suffix+".fits")
	im, err := ifits.Read(path)
	if err != nil {
		return err
	}
	r.Image = im
	return nil
}

// artifactPath also makes sure the stage directory exists; creating
// it twice is not an error.
func (p *Pipeline)artifactPath(st Stage, name string) (string, error) {
	out := stageOut[st]
	dir := filepath.Join(p.Cfg.Directory, out.dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("mkdir %s: %v", dir, err)
	}
	return filepath.Join(dir, name+out.suffix+".fits"), nil
}

// perImage applies the configured per-image failure policy: report
// and continue by default, abort under FailFast.
func (p *Pipeline)perImage(st Stage, stem string, err error, failed *int) error {
	log.Printf("stage %s: %s: %v", st, stem, err)
	*failed++
	if p.Cfg.FailFast {
		return fmt.Errorf("%s: %w", stem, err)
	}
	return nil
}

// Cleanup removes the output directories from previous executions
// and performs no processing.
func Cleanup(cfg *Config) error {
	log.Printf("Cleaning up output files")
	for _, d := range OutputDirs {
		subdir := filepath.Join(cfg.Directory, d)
		if _, err := os.Stat(subdir); err != nil {
			continue
		}
		log.Printf("Removing %s", subdir)
		if err := os.RemoveAll(subdir); err != nil {
			return fmt.Errorf("cleanup %s: %v", subdir, err)
		}
	}
	return nil
}
