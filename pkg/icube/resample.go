package icube

import (
	"log"
	"path/filepath"

	"imagecube/pkg/ifits"
	"imagecube/pkg/iwarp"
)

// NyquistSamplingRate is the oversampling factor relating the common
// resolution element to the final pixel scale, so the resampled grid
// critically samples the common PSF.
const NyquistSamplingRate = 3.3

// resampleStage re-grids every convolved image onto one shared grid,
// sized by Nyquist sampling of the common resolution. Unlike
// registration this changes the pixel solid angle, so interpolation
// is flux-conserving. The data cube is assembled at the end.
func (p *Pipeline)resampleStage() error {
	log.Printf("Resampling images")

	fwhm := CommonFWHM(p.Stack)
	if fwhm == 0 {
		return ErrNoCommonFWHM
	}

	ra, dec, err := ReferenceSky(p.Cfg, p.Stack)
	if err != nil {
		return err
	}

	pixScale := fwhm / NyquistSamplingRate
	spec, err := BuildGrid(p.Cfg.AngularSize, pixScale, ra, dec)
	if err != nil {
		return err
	}
	log.Printf("Shared resampling grid: %s", spec)

	// One shared grid for the whole set, persisted once.
	gridPath, err := p.artifactPath(StageResampling, "grid_final_resample")
	if err != nil {
		return err
	}
	gridPath = filepath.Join(filepath.Dir(gridPath), "grid_final_resample.fits")
	if err := ifits.Write(iwarp.Engine{}.SyntheticGrid(spec), gridPath); err != nil {
		return err
	}

	in := p.stageInput(StageResampling)
	failed := 0

	for _, r := range p.Stack.Records {
		if err := p.loadInput(r, in); err != nil {
			if ferr := p.perImage(StageResampling, r.Stem, err, &failed); ferr != nil {
				return ferr
			}
			continue
		}

		out, err := p.Warper.Warp(r.Image, spec, true)
		if err != nil {
			if ferr := p.perImage(StageResampling, r.Stem, err, &failed); ferr != nil {
				return ferr
			}
			continue
		}

		path, err := p.artifactPath(StageResampling, r.Stem)
		if err != nil {
			return err
		}
		log.Printf("Creating %s", path)
		if err := ifits.Write(out, path); err != nil {
			return err
		}
		r.Image = out
		p.quicklook(out, path)
	}

	if failed > 0 {
		log.Printf("resampling: %d image(s) failed and were skipped", failed)
	}

	return p.buildCube()
}
