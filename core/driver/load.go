package driver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/emenda-labs/mergeassist/core/mergespec"
)

// Paths locates the three packages of a merge session.
type Paths struct {
	Base       string
	Customized string
	Vendor     string
}

// LoadTriple loads the three packages concurrently. The first failure cancels
// the remaining loads and is returned.
func LoadTriple(ctx context.Context, l PackageLoader, p Paths) (mergespec.Triple, error) {
	var t mergespec.Triple
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		t.Base, err = l.Load(gctx, mergespec.PackageBase, p.Base)
		return err
	})
	g.Go(func() (err error) {
		t.Customized, err = l.Load(gctx, mergespec.PackageCustomized, p.Customized)
		return err
	})
	g.Go(func() (err error) {
		t.Vendor, err = l.Load(gctx, mergespec.PackageVendor, p.Vendor)
		return err
	})

	if err := g.Wait(); err != nil {
		return mergespec.Triple{}, err
	}
	return t, nil
}
