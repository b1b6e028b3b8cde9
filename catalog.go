package calc

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// CatalogEntry is one function as listed in a catalog: its declaration and
// the descriptor chosen for the catalog's locale
type CatalogEntry struct {
	Declaration FunctionDeclaration `json:"declaration" yaml:"declaration"`
	Descriptor  *FunctionDescriptor `json:"descriptor,omitempty" yaml:"descriptor,omitempty"`
}

// Catalog is a serializable listing of registered functions
type Catalog struct {
	Locale    string         `json:"locale" yaml:"locale"`
	Functions []CatalogEntry `json:"functions" yaml:"functions"`
}

// NewCatalog lists the functions of reg in name order, with descriptors
// matched to tag. hidden functions are left out unless includeHidden.
func NewCatalog(reg *FunctionRegistry, tag language.Tag, includeHidden bool) *Catalog {
	c := &Catalog{Locale: tag.String()}
	for _, name := range reg.Names() {
		f, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		entry := CatalogEntry{Declaration: f.Declaration}
		if d, ok := f.Descriptor(tag); ok {
			if d.Hidden && !includeHidden {
				continue
			}
			entry.Descriptor = &d
		}
		c.Functions = append(c.Functions, entry)
	}
	return c
}

// WriteJSON writes the catalog as indented JSON
func (c *Catalog) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// WriteYAML writes the catalog as YAML
func (c *Catalog) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// ParseCatalog reads a YAML (or JSON) catalog and validates every
// declaration in it
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, wrapApplicationError(InvalidArgument, err, "parsing catalog")
	}
	for i := range c.Functions {
		decl := &c.Functions[i].Declaration
		if err := decl.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		for j, p := range decl.Parameters {
			for k, v := range p.LegalValues {
				// yaml decodes integers as int
				decl.Parameters[j].LegalValues[k], _ = NormalizeScalar(v)
			}
		}
	}
	return &c, nil
}

// Register adds every catalog declaration to reg, binding implementations
// by name. declarations without an implementation are registered anyway
// and fail with #CALC! when called.
func (c *Catalog) Register(reg *FunctionRegistry, impls map[string]FunctionImpl) error {
	for _, e := range c.Functions {
		var descriptors []FunctionDescriptor
		if e.Descriptor != nil {
			descriptors = append(descriptors, *e.Descriptor)
		}
		if err := reg.Register(e.Declaration, impls[e.Declaration.Name], descriptors...); err != nil {
			return err
		}
	}
	return nil
}
