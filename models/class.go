package models

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Column is a property exposed in tabular views, with its display type.
type Column struct {
	Name string   `json:"name" yaml:"name"`
	Type DataType `json:"type" yaml:"type"`
}

// ClassLists are the per-class lists derived from the merged property intel.
type ClassLists struct {
	Observables  []string `yaml:"observables"`
	Storables    []string `yaml:"storables"`
	Columns      []Column `yaml:"columns"`
	Inheritables []string `yaml:"inheritables"`
	Refinables   []string `yaml:"refinables"`
	NoWidget     []string `yaml:"no_widget"`
}

func (l ClassLists) clone() ClassLists {
	return ClassLists{
		Observables:  append([]string(nil), l.Observables...),
		Storables:    append([]string(nil), l.Storables...),
		Columns:      append([]Column(nil), l.Columns...),
		Inheritables: append([]string(nil), l.Inheritables...),
		Refinables:   append([]string(nil), l.Refinables...),
		NoWidget:     append([]string(nil), l.NoWidget...),
	}
}

// MultiProperty is a default value for a property that takes one of a fixed set of
// options. Declaring one replaces the plain property by an accessor pair over a
// backing value and an options list.
type MultiProperty struct {
	Value   any
	Options []any
}

// ClassDef is the declaration of a model class.
type ClassDef struct {
	Name  string
	Bases []*Class
	Intel []PropIntel

	// Defaults holds initial property values, or a MultiProperty.
	Defaults map[string]any

	// Lists seeds the derived lists with extra names ahead of the computed ones.
	Lists ClassLists
}

// Class is a registered model type. Classes are immutable after registration.
type Class struct {
	name   string
	bases  []*Class
	intel  []PropIntel
	index  map[string]int
	lists  ClassLists
	goType reflect.Type

	observable map[string]struct{}
	defaults   map[string]any
	accessors  map[string]*Accessor
	members    map[string]*Accessor
}

func (c *Class) Name() string { return c.name }
func (c *Class) Bases() []*Class { return append([]*Class(nil), c.bases...) }
func (c *Class) Lists() ClassLists { return c.lists.clone() }
func (c *Class) String() string { return c.name }

// Intel returns the merged property intel of the class and all of its bases.
func (c *Class) Intel() []PropIntel {
	return append([]PropIntel(nil), c.intel...)
}

// Prop returns the intel of the named property.
func (c *Class) Prop(name string) (PropIntel, bool) {
	if i, ok := c.index[name]; ok {
		return c.intel[i], true
	}
	return PropIntel{}, false
}

// Accessor returns the accessor for a property.
func (c *Class) Accessor(name string) (*Accessor, bool) {
	a, ok := c.accessors[name]
	return a, ok
}

// Member looks up an accessor by one of its generated member names: the backing
// field "_<name>", the options field "_<name>s" or the getter and setter names.
func (c *Class) Member(member string) (*Accessor, bool) {
	a, ok := c.members[member]
	return a, ok
}

// Default returns the class level value stored under name. For multi-option
// properties these are the backing and options fields.
func (c *Class) Default(name string) (any, bool) {
	v, ok := c.defaults[name]
	return v, ok
}

// IsObservable reports whether changes to the property are notified.
func (c *Class) IsObservable(name string) bool {
	_, ok := c.observable[name]
	return ok
}

// Is reports whether c is other or derives from it.
func (c *Class) Is(other *Class) bool {
	if c == other {
		return true
	}
	for _, b := range c.bases {
		if b.Is(other) {
			return true
		}
	}
	return false
}

func newClass(def ClassDef, fields map[string][]int, t reflect.Type) (*Class, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("models: class name is required")
	}
	for _, b := range def.Bases {
		if b == nil {
			return nil, fmt.Errorf("class %s: nil base class", def.Name)
		}
	}

	own := uniqueIntel(def.Intel)
	if err := validateIntel(def.Name, own); err != nil {
		return nil, err
	}

	c := &Class{
		name:       def.Name,
		bases:      append([]*Class(nil), def.Bases...),
		goType:     t,
		observable: make(map[string]struct{}),
		defaults:   make(map[string]any),
		accessors:  make(map[string]*Accessor),
		members:    make(map[string]*Accessor),
	}

	// Refinement info companions start out as an empty class level slot.
	var companions []PropIntel
	for _, p := range own {
		if p.needsRefInfo() {
			ri := p.refInfoIntel()
			companions = append(companions, ri)
			c.defaults[ri.Name] = (*RefinementInfo)(nil)
		}
	}
	own = uniqueIntel(append(own, companions...))

	for _, p := range own {
		mp, ok := def.Defaults[p.Name].(MultiProperty)
		if !ok {
			continue
		}
		if _, isField := fields[p.Name]; isField {
			return nil, fmt.Errorf("class %s: multi-option property %q cannot be a struct field", c.name, p.Name)
		}
		a := newMultiAccessor(p, mp.Options)
		c.defaults[a.Backing] = mp.Value
		c.defaults[a.OptionsField] = append([]any(nil), mp.Options...)
		c.accessors[p.Name] = a
	}

	baseIntel := make([][]PropIntel, 0, len(c.bases))
	for _, b := range c.bases {
		baseIntel = append(baseIntel, b.intel)
	}
	c.intel = MergeIntel(own, baseIntel...)
	c.index = make(map[string]int, len(c.intel))
	for i, p := range c.intel {
		c.index[p.Name] = i
	}

	for _, p := range c.intel {
		if _, done := c.accessors[p.Name]; done {
			continue
		}
		if index, isField := fields[p.Name]; isField {
			c.accessors[p.Name] = newFieldAccessor(p, index)
			continue
		}
		if a := c.baseAccessor(p.Name); a != nil && a.kind == slotMulti {
			c.accessors[p.Name] = a
			continue
		}
		c.accessors[p.Name] = newValueAccessor(p)
	}
	for _, a := range c.accessors {
		for _, m := range a.memberNames() {
			c.members[m] = a
		}
	}

	// Own defaults first, then anything only a base provides.
	for name, v := range def.Defaults {
		if _, isMulti := v.(MultiProperty); isMulti {
			continue
		}
		p, ok := c.Prop(name)
		if !ok {
			return nil, fmt.Errorf("class %s: default for unknown property %q", c.name, name)
		}
		cv, ok := coerce(p.Type, v)
		if !ok {
			return nil, fmt.Errorf("class %s: default %v is not a valid %s for %q", c.name, v, p.Type, name)
		}
		c.defaults[name] = cv
	}
	for _, b := range c.bases {
		for name, v := range b.defaults {
			if _, set := c.defaults[name]; !set {
				c.defaults[name] = v
			}
		}
	}

	lists := def.Lists.clone()
	for _, p := range c.intel {
		if p.Observable {
			lists.Observables = append(lists.Observables, p.Name)
		}
		if p.Storable {
			lists.Storables = append(lists.Storables, p.Name)
		}
		if p.Column {
			lists.Columns = append(lists.Columns, Column{Name: p.Name, Type: p.Type.columnType()})
		}
		if p.Inheritable {
			lists.Inheritables = append(lists.Inheritables, p.Name)
		}
		if p.Refinable {
			lists.Refinables = append(lists.Refinables, p.Name)
		}
		if !p.HasWidget {
			lists.NoWidget = append(lists.NoWidget, p.Name)
		}
	}
	c.lists = ClassLists{
		Observables:  uniqueStrings(lists.Observables),
		Storables:    uniqueStrings(lists.Storables),
		Columns:      uniqueColumns(lists.Columns),
		Inheritables: uniqueStrings(lists.Inheritables),
		Refinables:   uniqueStrings(lists.Refinables),
		NoWidget:     uniqueStrings(lists.NoWidget),
	}
	for _, name := range c.lists.Observables {
		c.observable[name] = struct{}{}
	}

	return c, nil
}

func (c *Class) baseAccessor(name string) *Accessor {
	for _, b := range c.bases {
		if a, ok := b.accessors[name]; ok {
			return a
		}
	}
	return nil
}

// Registry maps class names to registered classes.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
	types   map[reflect.Type]*Class
}

// DefaultRegistry is used by the package level Register functions.
var DefaultRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*Class),
		types:   make(map[reflect.Type]*Class),
	}
}

// Register builds a class from its definition and adds it to the registry.
func (r *Registry) Register(def ClassDef) (*Class, error) {
	c, err := newClass(def, nil, nil)
	if err != nil {
		return nil, err
	}
	return c, r.add(c)
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(def ClassDef) *Class {
	c, err := r.Register(def)
	if err != nil {
		panic(err)
	}
	return c
}

func (r *Registry) add(c *Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classes[c.name]; exists {
		return fmt.Errorf("models: class %q already registered", c.name)
	}
	if c.goType != nil {
		if _, exists := r.types[c.goType]; exists {
			return fmt.Errorf("models: type %s already registered", c.goType)
		}
		r.types[c.goType] = c
	}
	r.classes[c.name] = c
	return nil
}

// Get retrieves a class by name.
func (r *Registry) Get(name string) (*Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.classes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, name)
	}
	return c, nil
}

// Names returns the sorted names of all registered classes.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) classForType(t reflect.Type) *Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[t]
}

// Register adds a class to the DefaultRegistry.
func Register(def ClassDef) (*Class, error) {
	return DefaultRegistry.Register(def)
}

// MustRegister adds a class to the DefaultRegistry and panics on failure.
func MustRegister(def ClassDef) *Class {
	return DefaultRegistry.MustRegister(def)
}
