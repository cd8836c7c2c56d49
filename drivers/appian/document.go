package appian

import (
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/emenda-labs/mergeassist/core/mergespec"
)

// document is the on-disk form of a package or a slice of one.
// JSON documents are accepted as YAML.
type document struct {
	Package string                    `yaml:"package"`
	Version string                    `yaml:"version"`
	Objects []mergespec.ObjectVersion `yaml:"objects"`
}

var documentExts = map[string]bool{".yaml": true, ".yml": true, ".json": true}

func isDocument(name string) bool {
	return documentExts[strings.ToLower(path.Ext(name))]
}

// builder accumulates documents into one package.
type builder struct {
	pkg       mergespec.Package
	origin    map[string]string
	documents int
}

func newBuilder(label mergespec.PackageLabel) *builder {
	return &builder{pkg: mergespec.NewPackage(label), origin: make(map[string]string)}
}

func (b *builder) add(source string, data []byte) error {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding %s: %w", source, err)
	}
	b.documents++

	if doc.Package != "" && doc.Package != string(b.pkg.Label) {
		return fmt.Errorf("%s declares package %s", source, doc.Package)
	}
	if doc.Version != "" {
		if b.pkg.Version != "" && b.pkg.Version != doc.Version {
			return fmt.Errorf("%s declares version %s, already loaded %s", source, doc.Version, b.pkg.Version)
		}
		b.pkg.Version = doc.Version
	}

	for i, obj := range doc.Objects {
		if obj.UUID == "" {
			return fmt.Errorf("%s: objects[%d] has no uuid", source, i)
		}
		if obj.ObjectType == "" {
			return fmt.Errorf("%s: object %s has no object_type", source, obj.UUID)
		}
		if prev, ok := b.origin[obj.UUID]; ok {
			return fmt.Errorf("%s: object %s already defined in %s", source, obj.UUID, prev)
		}
		if obj.Attributes == nil {
			obj.Attributes = map[string]any{}
		}
		b.origin[obj.UUID] = source
		b.pkg.Objects[obj.UUID] = obj
	}
	return nil
}

func (b *builder) build() mergespec.Package {
	return b.pkg
}
