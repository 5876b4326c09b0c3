package icube

import (
	"fmt"
	"log"
	"path/filepath"

	"imagecube/pkg/ifits"
	"imagecube/pkg/iwarp"
)

// Warper is the external WCS registration service: build the
// synthetic grid the GridSpec describes, tag it with the desired WCS,
// and warp the science image onto it. Injected so the pipeline can be
// exercised without real reprojection.
type Warper interface {
	Warp(src *ifits.Image, spec iwarp.GridSpec, fluxConserving bool) (*ifits.Image, error)
}

// registerStage warps every image onto its own synthetic grid at its
// native pixel scale, centered on the common reference position.
// Interpolation is flux-non-conserving here: the pixel scale doesn't
// change, only the alignment.
func (p *Pipeline)registerStage() error {
	log.Printf("Registering images")

	ra, dec, err := ReferenceSky(p.Cfg, p.Stack)
	if err != nil {
		return err
	}
	log.Printf("Reference sky position: (%.5f, %.5f)", ra, dec)

	in := p.stageInput(StageRegistration)
	failed := 0

	for _, r := range p.Stack.Records {
		if err := p.loadInput(r, in); err != nil {
			if ferr := p.perImage(StageRegistration, r.Stem, err, &failed); ferr != nil {
				return ferr
			}
			continue
		}

		scale := r.Instrument.PixelScale(&r.Image.Header)
		if scale == 0 {
			err := fmt.Errorf("native pixel scale unresolved")
			if ferr := p.perImage(StageRegistration, r.Stem, err, &failed); ferr != nil {
				return ferr
			}
			continue
		}

		spec, err := BuildGrid(p.Cfg.AngularSize, scale, ra, dec)
		if err != nil {
			if ferr := p.perImage(StageRegistration, r.Stem, err, &failed); ferr != nil {
				return ferr
			}
			continue
		}

		// Spitzer headers carry the pixel scale in their own keywords
		// rather than CDELT; stamp it in so the warp can invert the
		// source WCS.
		if _, ok := r.Image.Header.Float("CDELT1"); !ok {
			r.Image.Header.Set("CDELT1", -scale/3600, "[deg/pixel] from native pixel scale")
		}
		if _, ok := r.Image.Header.Float("CDELT2"); !ok {
			r.Image.Header.Set("CDELT2", scale/3600, "[deg/pixel] from native pixel scale")
		}

		// Persist the tagged synthetic grid next to the output, the
		// way the IRAF flow kept its mkpattern artifacts around.
		grid := iwarp.Engine{}.SyntheticGrid(spec)
		gridPath, err := p.artifactPath(StageRegistration, r.Stem)
		if err != nil {
			return err
		}
		gridPath = filepath.Join(filepath.Dir(gridPath), r.Stem+"_pixelgrid.fits")
		if err := ifits.Write(grid, gridPath); err != nil {
			return err
		}

		out, err := p.Warper.Warp(r.Image, spec, false)
		if err != nil {
			if ferr := p.perImage(StageRegistration, r.Stem, err, &failed); ferr != nil {
				return ferr
			}
			continue
		}

		path, err := p.artifactPath(StageRegistration, r.Stem)
		if err != nil {
			return err
		}
		if err := ifits.Write(out, path); err != nil {
			return err
		}
		r.Image = out
		p.quicklook(out, path)

		if p.Cfg.Verbosity > 0 {
			log.Printf("registered %s onto %s", r.Stem, spec)
		}
	}

	if failed > 0 {
		log.Printf("registration: %d image(s) failed and were skipped", failed)
	}
	return nil
}
