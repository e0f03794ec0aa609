package models

import (
	"fmt"
	"reflect"
)

type slotKind int

const (
	slotValue slotKind = iota
	slotMulti
	slotField
)

// Accessor reads and writes one property of an object. Values live either in the
// object itself, under a backing field for multi-option properties, or in an exported
// field of the struct the object is embedded in.
type Accessor struct {
	Name string

	// Backing is the key the value is stored under: "_<name>" for multi-option
	// properties, otherwise Name. Empty when the value lives in a struct field.
	Backing string

	// OptionsField is "_<name>s" for multi-option properties.
	OptionsField string
	Getter       string
	Setter       string
	Options      []any

	intel PropIntel
	kind  slotKind
	index []int
}

func generatedNames(name string) (backing, options, getter, setter string) {
	return "_" + name, "_" + name + "s",
		fmt.Sprintf("get_%s_value", name), fmt.Sprintf("set_%s_value", name)
}

func newValueAccessor(p PropIntel) *Accessor {
	_, _, getter, setter := generatedNames(p.Name)
	return &Accessor{Name: p.Name, Backing: p.Name, Getter: getter, Setter: setter, intel: p, kind: slotValue}
}

func newMultiAccessor(p PropIntel, options []any) *Accessor {
	backing, optionsField, getter, setter := generatedNames(p.Name)
	return &Accessor{
		Name:         p.Name,
		Backing:      backing,
		OptionsField: optionsField,
		Getter:       getter,
		Setter:       setter,
		Options:      append([]any(nil), options...),
		intel:        p,
		kind:         slotMulti,
	}
}

func newFieldAccessor(p PropIntel, index []int) *Accessor {
	_, _, getter, setter := generatedNames(p.Name)
	return &Accessor{Name: p.Name, Getter: getter, Setter: setter, intel: p, kind: slotField, index: index}
}

// Intel is the descriptor of the accessed property.
func (a *Accessor) Intel() PropIntel { return a.intel }

// Multi reports whether the property takes one of a fixed set of options.
func (a *Accessor) Multi() bool { return a.kind == slotMulti }

func (a *Accessor) memberNames() []string {
	names := []string{a.Getter, a.Setter}
	if a.kind == slotMulti {
		names = append(names, a.Backing, a.OptionsField)
	}
	return names
}

// Get returns the current value of the property on o.
func (a *Accessor) Get(o *Object) any {
	if a.kind == slotField {
		if f, ok := o.field(a.index); ok {
			return f.Interface()
		}
		return nil
	}
	return o.values[a.Backing]
}

// Set assigns the property on o, notifying observers like Object.Set.
func (a *Accessor) Set(o *Object, v any) {
	o.Set(a.Name, v)
}

// set stores v and returns the previous value. Values that cannot be converted to
// the property type, or are not one of the options, leave the property untouched.
func (a *Accessor) set(o *Object, v any) (old any, changed bool) {
	cv, ok := coerce(a.intel.Type, v)
	if !ok {
		return nil, false
	}
	old = a.Get(o)

	switch a.kind {
	case slotMulti:
		if !a.allows(cv) {
			return old, false
		}
		if sameValue(old, cv) {
			return old, false
		}
		o.values[a.Backing] = cv
		return old, true

	case slotField:
		f, ok := o.field(a.index)
		if !ok || !f.CanSet() {
			return old, false
		}
		nv, ok := fieldValue(f.Type(), cv)
		if !ok {
			return old, false
		}
		if sameValue(old, nv.Interface()) {
			return old, false
		}
		f.Set(nv)
		return old, true

	default:
		if sameValue(old, cv) {
			return old, false
		}
		o.values[a.Backing] = cv
		return old, true
	}
}

func (a *Accessor) allows(v any) bool {
	for _, opt := range a.Options {
		if sameValue(opt, v) {
			return true
		}
		// Options declared as literals may not match the canonical type.
		if co, ok := coerce(a.intel.Type, opt); ok && sameValue(co, v) {
			return true
		}
	}
	return false
}

func fieldValue(t reflect.Type, v any) (reflect.Value, bool) {
	if isNil(v) {
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}
	if rv.Type().ConvertibleTo(t) && kindClass(rv.Kind()) != 0 && kindClass(rv.Kind()) == kindClass(t.Kind()) {
		return rv.Convert(t), true
	}
	return reflect.Value{}, false
}

// kindClass groups kinds that convert into each other without changing meaning.
func kindClass(k reflect.Kind) int {
	switch k {
	case reflect.Bool:
		return 1
	case reflect.String:
		return 2
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 3
	}
	return 0
}
