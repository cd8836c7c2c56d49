package objects

import "sort"

// Capability selects how an object type is diffed and estimated.
type Capability string

const (
	// LineBased types carry one text content field compared line by line.
	LineBased Capability = "line"
	// GraphBased types carry process model nodes and flows.
	GraphBased Capability = "graph"
	// AlwaysLow types are diffed over their attribute bag and always estimate LOW.
	AlwaysLow Capability = "always_low"
)

// Unknown is the object type assigned to objects whose identity is inconsistent across packages.
const Unknown = "Unknown"

// TypeSpec describes what is compared for one object type.
type TypeSpec struct {
	Name       string     `json:"name" yaml:"name" mapstructure:"name"`
	Capability Capability `json:"capability" yaml:"capability" mapstructure:"capability"`
	// ContentField is the attribute holding the line-diffed text. Empty means the
	// whole attribute bag is rendered canonically and diffed instead.
	ContentField string `json:"contentField,omitempty" yaml:"contentField,omitempty" mapstructure:"contentField"`
	// ComparedFields are further attributes whose inequality counts as a change.
	ComparedFields []string `json:"comparedFields,omitempty" yaml:"comparedFields,omitempty" mapstructure:"comparedFields"`
}

// Builtin returns the built-in object type catalogue.
func Builtin() []TypeSpec {
	return []TypeSpec{
		{Name: "Interface", Capability: LineBased, ContentField: "sail_code", ComparedFields: []string{"description", "rule_inputs"}},
		{Name: "Expression Rule", Capability: LineBased, ContentField: "definition", ComparedFields: []string{"description", "rule_inputs"}},
		{Name: "Constant", Capability: LineBased, ContentField: "value", ComparedFields: []string{"constant_type", "is_array", "description"}},
		{Name: "Decision", Capability: LineBased, ContentField: "definition", ComparedFields: []string{"description", "inputs", "outputs"}},
		{Name: "Integration", Capability: LineBased, ContentField: "definition", ComparedFields: []string{"description", "connected_system", "rule_inputs"}},
		{Name: "Web API", Capability: LineBased, ContentField: "definition", ComparedFields: []string{"description", "url_alias", "http_method"}},
		{Name: "Record Type", Capability: LineBased, ContentField: "definition", ComparedFields: []string{"description", "fields", "relationships", "actions"}},
		{Name: "Data Type", Capability: LineBased, ContentField: "xsd", ComparedFields: []string{"description", "namespace"}},
		{Name: "Query Rule", Capability: LineBased, ContentField: "definition", ComparedFields: []string{"description", "rule_inputs"}},
		{Name: "Process Model", Capability: GraphBased, ComparedFields: []string{"description", "variables"}},
		{Name: "Group", Capability: AlwaysLow},
		{Name: "Folder", Capability: AlwaysLow},
		{Name: "Document", Capability: AlwaysLow},
		{Name: "Connected System", Capability: AlwaysLow},
		{Name: "Translation Set", Capability: AlwaysLow},
	}
}

// Catalogue maps object type names to their TypeSpec.
type Catalogue struct {
	specs map[string]TypeSpec
}

// NewCatalogue builds a catalogue from the built-in types, then applies extra
// entries which replace built-ins of the same name.
func NewCatalogue(extra ...TypeSpec) *Catalogue {
	c := &Catalogue{specs: make(map[string]TypeSpec)}
	for _, s := range Builtin() {
		c.specs[s.Name] = s
	}
	for _, s := range extra {
		c.specs[s.Name] = s
	}
	return c
}

// Lookup returns the TypeSpec for objectType. Unregistered types, including
// Unknown, get a line-based TypeSpec over the whole attribute bag.
func (c *Catalogue) Lookup(objectType string) TypeSpec {
	if s, ok := c.specs[objectType]; ok {
		return s
	}
	return TypeSpec{Name: objectType, Capability: LineBased}
}

// Known reports whether objectType is registered.
func (c *Catalogue) Known(objectType string) bool {
	_, ok := c.specs[objectType]
	return ok
}

// Names returns all registered type names in lexical order.
func (c *Catalogue) Names() []string {
	names := make([]string, 0, len(c.specs))
	for n := range c.specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Valid reports whether c is a recognised capability.
func (c Capability) Valid() bool {
	switch c {
	case LineBased, GraphBased, AlwaysLow:
		return true
	}
	return false
}
