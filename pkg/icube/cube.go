package icube

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"imagecube/pkg/ifits"
)

// buildCube stacks the resampled images into a 3-D cube, wavelength
// ascending along the outer axis. The first image's envelope stands
// in for the cube's header.
func (p *Pipeline)buildCube() error {
	log.Printf("Creating a data cube")

	planes := make([]*ifits.Image, 0, len(p.Stack.Records))
	out := stageOut[StageResampling]
	for _, r := range p.Stack.Records {
		path := filepath.Join(p.Cfg.Directory, out.dir, r.Stem+out.suffix+".fits")
		im, err := ifits.Read(path)
		if err != nil {
			return fmt.Errorf("cube: %w", err)
		}
		planes = append(planes, im)
	}

	dir := filepath.Join(p.Cfg.Directory, "datacube")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %v", dir, err)
	}

	path := filepath.Join(dir, "datacube.fits")
	log.Printf("Creating %s", path)
	return ifits.WriteCube(planes, path)
}
