package mergespec

import "sort"

// ObjectVersion is one package's snapshot of an object, as produced by ingestion.
type ObjectVersion struct {
	UUID        string         `json:"uuid" yaml:"uuid"`
	ObjectType  string         `json:"object_type" yaml:"object_type"`
	Name        string         `json:"name" yaml:"name"`
	VersionUUID string         `json:"version_uuid" yaml:"version_uuid"`
	Attributes  map[string]any `json:"attributes" yaml:"attributes"`
}

// Package is one normalized release: object versions keyed by object uuid.
type Package struct {
	Label   PackageLabel             `json:"label" yaml:"label"`
	Version string                   `json:"version,omitempty" yaml:"version,omitempty"`
	Objects map[string]ObjectVersion `json:"objects" yaml:"objects"`
}

// NewPackage returns an empty package with the given label.
func NewPackage(label PackageLabel) Package {
	return Package{Label: label, Objects: make(map[string]ObjectVersion)}
}

// Lookup returns the object version for uuid, if present.
func (p Package) Lookup(uuid string) (*ObjectVersion, bool) {
	v, ok := p.Objects[uuid]
	if !ok {
		return nil, false
	}
	return &v, true
}

// SortedUUIDs returns the package's object uuids in lexical order.
func (p Package) SortedUUIDs() []string {
	uuids := make([]string, 0, len(p.Objects))
	for u := range p.Objects {
		uuids = append(uuids, u)
	}
	sort.Strings(uuids)
	return uuids
}

// Triple is the three packages of one merge session.
type Triple struct {
	Base       Package `json:"base" yaml:"base"`
	Customized Package `json:"customized" yaml:"customized"`
	Vendor     Package `json:"vendor" yaml:"vendor"`
}

// Packages returns the three packages in A, B, C order.
func (t Triple) Packages() []Package {
	return []Package{t.Base, t.Customized, t.Vendor}
}

// Versions is an identity's object version in each package; nil means absent.
type Versions struct {
	Base       *ObjectVersion
	Customized *ObjectVersion
	Vendor     *ObjectVersion
}

// Versions collects uuid's object version from each package.
func (t Triple) Versions(uuid string) Versions {
	var v Versions
	v.Base, _ = t.Base.Lookup(uuid)
	v.Customized, _ = t.Customized.Lookup(uuid)
	v.Vendor, _ = t.Vendor.Lookup(uuid)
	return v
}
