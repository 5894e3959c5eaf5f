package plate

import (
	"fmt"
	"sort"
)

// Catalog is an ordered registry of plate specs.
// It is safe for concurrent reads once populated.
type Catalog struct {
	specs  []*Spec
	byName map[string]*Spec
}

// Built-in plate specs, registered by init.
var builtins []func() *Spec

func registerBuiltin(fn func() *Spec) {
	builtins = append(builtins, fn)
}

func init() {
	registerBuiltin(Plate96Spec)
}

// NewCatalog creates a catalog holding the given specs in order.
func NewCatalog(specs ...*Spec) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Spec)}
	for _, s := range specs {
		if err := c.Register(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DefaultCatalog returns a catalog of the built-in plate specs.
func DefaultCatalog() *Catalog {
	c := &Catalog{byName: make(map[string]*Spec)}
	for _, fn := range builtins {
		if err := c.Register(fn()); err != nil {
			panic(fmt.Sprintf("built-in plate spec: %v", err))
		}
	}
	return c
}

// Register validates spec and adds it to the catalog.
func (c *Catalog) Register(spec *Spec) error {
	if spec == nil {
		return fmt.Errorf("nil plate spec")
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	if _, dup := c.byName[spec.Name]; dup {
		return fmt.Errorf("plate spec %q already registered", spec.Name)
	}
	c.specs = append(c.specs, spec)
	c.byName[spec.Name] = spec
	return nil
}

// Get returns a plate spec by name.
func (c *Catalog) Get(name string) (*Spec, bool) {
	spec, ok := c.byName[name]
	return spec, ok
}

// Names returns the registered spec names in registration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.specs))
	for i, s := range c.specs {
		names[i] = s.Name
	}
	return names
}

// Specs returns the registered specs in registration order.
func (c *Catalog) Specs() []*Spec {
	out := make([]*Spec, len(c.specs))
	copy(out, c.specs)
	return out
}

// Len returns the number of registered specs.
func (c *Catalog) Len() int {
	return len(c.specs)
}

// Candidates returns the specs in resolution priority order: ascending
// nominal extent area, registration order among equals.
func (c *Catalog) Candidates() []*Spec {
	out := c.Specs()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NominalExtent().Area() < out[j].NominalExtent().Area()
	})
	return out
}
