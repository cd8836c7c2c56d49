// Package appian is the object-platform driver for normalized low-code
// application packages: it loads package documents and supplies the
// per-type differ registry.
package appian

import (
	"context"
	"log/slog"
	"os"

	"github.com/emenda-labs/mergeassist/core/driver"
	mergeerr "github.com/emenda-labs/mergeassist/core/errors"
	"github.com/emenda-labs/mergeassist/core/mergespec"
	"github.com/emenda-labs/mergeassist/drivers/appian/objdiff"
	"github.com/emenda-labs/mergeassist/drivers/appian/objects"
	"github.com/emenda-labs/mergeassist/pkg/archive"
	"github.com/emenda-labs/mergeassist/pkg/logging"
)

var _ driver.PackageLoader = (*Driver)(nil)

// Driver implements driver.PackageLoader for package documents and zip archives of them.
type Driver struct {
	catalogue *objects.Catalogue
	limits    archive.Limits
	logger    *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver's logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithArchiveLimits overrides the zip read limits.
func WithArchiveLimits(l archive.Limits) Option {
	return func(d *Driver) { d.limits = l }
}

// NewDriver creates a Driver over catalogue; nil means the built-in catalogue.
func NewDriver(catalogue *objects.Catalogue, opts ...Option) *Driver {
	if catalogue == nil {
		catalogue = objects.NewCatalogue()
	}
	d := &Driver{
		catalogue: catalogue,
		limits:    archive.DefaultLimits(),
		logger:    logging.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns a differ registry over the driver's catalogue.
func (d *Driver) Registry() *objdiff.Registry {
	return objdiff.NewRegistry(d.catalogue)
}

// Catalogue returns the driver's object type catalogue.
func (d *Driver) Catalogue() *objects.Catalogue {
	return d.catalogue
}

// Load reads a package document or a zip archive of package documents.
func (d *Driver) Load(ctx context.Context, label mergespec.PackageLabel, path string) (mergespec.Package, error) {
	fail := func(err error) (mergespec.Package, error) {
		return mergespec.Package{}, &mergeerr.LoadError{Label: string(label), Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}

	var sources []archive.Entry
	if archive.IsZip(data) {
		if sources, err = archive.ReadZipWithLimits(data, d.limits); err != nil {
			return fail(err)
		}
	} else {
		sources = []archive.Entry{{Name: path, Data: data}}
	}

	b := newBuilder(label)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return mergespec.Package{}, err
		}
		if !isDocument(src.Name) && len(sources) > 1 {
			d.logger.Debug("Skipping non-document archive entry", "package", label, "entry", src.Name)
			continue
		}
		if err := b.add(src.Name, src.Data); err != nil {
			return fail(err)
		}
	}

	pkg := b.build()
	d.logger.Info("Loaded package",
		"package", label,
		"path", path,
		"version", pkg.Version,
		"objects", len(pkg.Objects),
		"documents", b.documents,
	)
	return pkg, nil
}

// Decode parses a single package document into a package labelled label.
func Decode(label mergespec.PackageLabel, source string, data []byte) (mergespec.Package, error) {
	b := newBuilder(label)
	if err := b.add(source, data); err != nil {
		return mergespec.Package{}, err
	}
	return b.build(), nil
}
