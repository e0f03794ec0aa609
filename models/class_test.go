package models

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func intelNames(props []PropIntel) []string {
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	return names
}

func TestMergeIntel(t *testing.T) {
	base := []PropIntel{
		{Name: "name", Label: "Base name", Type: TypeString},
		{Name: "color", Type: TypeString},
	}
	own := []PropIntel{
		{Name: "value", Type: TypeFloat, Refinable: true},
		{Name: "name", Label: "Own name", Type: TypeUnicode},
		{Name: "value", Label: "Duplicate", Type: TypeInt},
	}

	merged := MergeIntel(own, base)
	expect := []string{"value", "name", "value_ref_info", "color"}
	if diff := cmp.Diff(expect, intelNames(merged)); diff != "" {
		t.Errorf("merged order mismatch (-want +got):\n%s", diff)
	}
	if merged[1].Label != "Own name" {
		t.Errorf("own descriptor should shadow the base one, got label %q", merged[1].Label)
	}
	if merged[0].Type != TypeFloat {
		t.Errorf("first own descriptor should win, got %s", merged[0].Type)
	}
}

func TestRegisterLists(t *testing.T) {
	reg := NewRegistry()
	base := reg.MustRegister(ClassDef{
		Name: "Base",
		Intel: []PropIntel{
			{Name: "name", Type: TypeUnicode, Column: true, Storable: true, Observable: true, HasWidget: true},
			{Name: "color", Type: TypeString, Storable: true, Inheritable: true},
		},
	})
	c, err := reg.Register(ClassDef{
		Name:  "Derived",
		Bases: []*Class{base},
		Intel: []PropIntel{
			{Name: "value", Type: TypeFloat, Column: true, Storable: true, Refinable: true, Observable: true, HasWidget: true},
		},
		Lists: ClassLists{Storables: []string{"extra", "value"}},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	expect := ClassLists{
		Observables:  []string{"value", "name"},
		Storables:    []string{"extra", "value", "value_ref_info", "name", "color"},
		Columns:      []Column{{Name: "value", Type: TypeFloat}, {Name: "name", Type: TypeString}},
		Inheritables: []string{"color"},
		Refinables:   []string{"value"},
		NoWidget:     []string{"value_ref_info", "color"},
	}
	if diff := cmp.Diff(expect, c.Lists()); diff != "" {
		t.Errorf("lists mismatch (-want +got):\n%s", diff)
	}
	if !c.Is(base) || base.Is(c) {
		t.Error("Is does not follow the base chain")
	}
	if names := reg.Names(); !cmp.Equal(names, []string{"Base", "Derived"}) {
		t.Errorf("unexpected registry names %v", names)
	}
	if got, err := reg.Get("Derived"); err != nil || got != c {
		t.Errorf("Get returned %v, %v", got, err)
	}
}

func TestRegisterErrors(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(ClassDef{Name: "Taken"})

	cases := map[string]ClassDef{
		"empty name":      {},
		"duplicate":       {Name: "Taken"},
		"missing type":    {Name: "A", Intel: []PropIntel{{Name: "x"}}},
		"unknown type":    {Name: "B", Intel: []PropIntel{{Name: "x", Type: "complex"}}},
		"missing name":    {Name: "C", Intel: []PropIntel{{Type: TypeInt}}},
		"inverted bounds": {Name: "D", Intel: []PropIntel{{Name: "x", Type: TypeFloat, Minimum: 2, Maximum: 1}}},
		"unknown default": {Name: "E", Defaults: map[string]any{"x": 1}},
		"bad default":     {Name: "F", Intel: []PropIntel{{Name: "x", Type: TypeInt}}, Defaults: map[string]any{"x": "many"}},
		"nil base":        {Name: "G", Bases: []*Class{nil}},
	}
	for name, def := range cases {
		if _, err := reg.Register(def); err == nil {
			t.Errorf("%s: expected registration to fail", name)
		}
	}

	if _, err := reg.Get("Missing"); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("expected ErrUnknownClass, got %v", err)
	}
}

func TestMultiProperty(t *testing.T) {
	reg := NewRegistry()
	base := reg.MustRegister(ClassDef{
		Name:  "Mode",
		Intel: []PropIntel{{Name: "mode", Type: TypeString, Storable: true, Observable: true}},
		Defaults: map[string]any{
			"mode": MultiProperty{Value: "simple", Options: []any{"simple", "expanded"}},
		},
	})
	derived := reg.MustRegister(ClassDef{Name: "DerivedMode", Bases: []*Class{base}})

	for _, c := range []*Class{base, derived} {
		a, ok := c.Accessor("mode")
		if !ok || !a.Multi() {
			t.Fatalf("%s: expected a multi-option accessor", c)
		}
		for _, member := range []string{"_mode", "_modes", "get_mode_value", "set_mode_value"} {
			if m, ok := c.Member(member); !ok || m != a {
				t.Errorf("%s: member %s does not resolve to the mode accessor", c, member)
			}
		}
		if v, _ := c.Default("_mode"); v != "simple" {
			t.Errorf("%s: expected backing default 'simple', got %v", c, v)
		}
		if v, _ := c.Default("_modes"); !cmp.Equal(v, []any{"simple", "expanded"}) {
			t.Errorf("%s: unexpected options default %v", c, v)
		}
		if _, ok := c.Default("mode"); ok {
			t.Errorf("%s: plain default should be replaced by the backing field", c)
		}
	}

	o, err := derived.New(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if o.Get("mode") != "simple" {
		t.Errorf("expected initial mode 'simple', got %v", o.Get("mode"))
	}
	if o.Set("mode", "unsupported") || o.Get("mode") != "simple" {
		t.Error("value outside the options should be ignored")
	}
	if !o.Set("mode", "expanded") || o.Get("mode") != "expanded" {
		t.Error("value among the options should be accepted")
	}
}

func TestRefInfoCompanion(t *testing.T) {
	c := NewRegistry().MustRegister(ClassDef{
		Name: "Cell",
		Intel: []PropIntel{
			{Name: "a", Type: TypeFloat, Refinable: true, Minimum: 1, Maximum: 5},
			{Name: "count", Type: TypeInt, Refinable: true},
			{Name: "label", Type: TypeString, Refinable: true},
		},
	})

	for _, name := range []string{"a_ref_info", "count_ref_info"} {
		p, ok := c.Prop(name)
		if !ok {
			t.Errorf("missing companion %s", name)
			continue
		}
		if p.Type != TypeRefInfo || !p.Storable {
			t.Errorf("companion %s should be a storable ref_info, got %+v", name, p)
		}
		if v, ok := c.Default(name); !ok || v != (*RefinementInfo)(nil) {
			t.Errorf("companion %s should start with an empty class slot, got %v", name, v)
		}
	}
	if _, ok := c.Prop("label_ref_info"); ok {
		t.Error("non-scalar refinable properties get no companion")
	}
}
