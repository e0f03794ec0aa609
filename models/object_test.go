package models

import (
	"errors"
	"math"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newCellClass(t *testing.T, reg *Registry) *Class {
	t.Helper()
	c, err := reg.Register(ClassDef{
		Name: "Cell",
		Intel: []PropIntel{
			{Name: "name", Type: TypeUnicode, Storable: true, Observable: true},
			{Name: "value", Type: TypeFloat, Storable: true, Refinable: true, Observable: true, Minimum: 0, Maximum: 2},
			{Name: "count", Type: TypeInt, Storable: true},
			{Name: "enabled", Type: TypeBool, Storable: true, Observable: true},
			{Name: "target", Type: TypeObject},
		},
		Defaults: map[string]any{"value": 1, "name": "cell"},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return c
}

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestObjectNew(t *testing.T) {
	c := newCellClass(t, NewRegistry())
	o, err := c.New(nil, Args{"count": 3})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if !uuidPattern.MatchString(o.UUID()) {
		t.Errorf("identifier %q is not 32 hex digits", o.UUID())
	}
	if o.Class() != c || o.Owner() != o {
		t.Error("dynamic object should be its own owner")
	}
	if o.GetFloat("value") != 1.0 || o.Get("value") != 1.0 {
		t.Errorf("expected default value 1.0 as a float, got %#v", o.Get("value"))
	}
	if o.GetString("name") != "cell" || o.GetInt("count") != 3 || o.GetBool("enabled") {
		t.Errorf("unexpected initial values %q %d %t", o.GetString("name"), o.GetInt("count"), o.GetBool("enabled"))
	}
	if o.Get("missing") != nil || o.Set("missing", 1) {
		t.Error("unknown properties should read as nil and ignore writes")
	}
}

func TestObjectIdentifiers(t *testing.T) {
	c := newCellClass(t, NewRegistry())

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		o, err := c.New(nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if seen[o.UUID()] {
			t.Fatalf("identifier %s generated twice", o.UUID())
		}
		seen[o.UUID()] = true
	}

	o, err := c.New(nil, Args{ArgUUID: "abc"})
	if err != nil || o.UUID() != "abc" {
		t.Errorf("explicit identifier not used: %v %v", o, err)
	}
	o, err = c.New(nil, Args{ArgIdentifier: "def"})
	if err != nil || o.UUID() != "def" {
		t.Errorf("identifier alias not used: %v %v", o, err)
	}
	if _, err := c.New(nil, Args{ArgUUID: 12}); err == nil {
		t.Error("non-string identifier should be rejected")
	}
}

func TestObjectUnknownArgument(t *testing.T) {
	c := newCellClass(t, NewRegistry())
	if _, err := c.New(nil, Args{"colour": "red"}); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("expected ErrUnknownProperty, got %v", err)
	}
}

func TestInvalidNumericAssignment(t *testing.T) {
	c := newCellClass(t, NewRegistry())
	o, err := c.New(nil, Args{"value": "not a number", "count": "1.5x"})
	if err != nil {
		t.Fatalf("invalid values should not fail construction: %v", err)
	}
	if o.GetFloat("value") != 1.0 || o.GetInt("count") != 0 {
		t.Errorf("invalid values should leave defaults, got %v %v", o.Get("value"), o.Get("count"))
	}

	if o.Set("value", "abc") || o.GetFloat("value") != 1.0 {
		t.Error("invalid float assignment should be a no-op")
	}
	if !o.Set("value", "1.25") || o.GetFloat("value") != 1.25 {
		t.Error("numeric strings should convert")
	}
	if !o.Set("count", 2.9) || o.GetInt("count") != 2 {
		t.Errorf("floats should truncate into int properties, got %v", o.Get("count"))
	}

	for _, v := range []any{1e20, -1e20, math.NaN(), math.Inf(1), uint64(1 << 63), float64(math.MaxInt)} {
		if o.Set("count", v) || o.GetInt("count") != 2 {
			t.Errorf("out of range value %v should be a no-op, got %v", v, o.Get("count"))
		}
	}
}

type boxed struct{ X any }

func TestSetComparableWithUncomparableContent(t *testing.T) {
	c := newCellClass(t, NewRegistry())
	o, err := c.New(nil, Args{"target": boxed{X: []int{1}}})
	if err != nil {
		t.Fatal(err)
	}

	if !o.Set("target", boxed{X: []int{2}}) {
		t.Error("a different struct value should be reported as a change")
	}
	if o.Set("target", boxed{X: []int{2}}) {
		t.Error("an equal struct value should not be reported as a change")
	}
	if got := o.Get("target"); !cmp.Equal(got, boxed{X: []int{2}}) {
		t.Errorf("target = %v", got)
	}
}

func TestRefinementInfoArgs(t *testing.T) {
	c := newCellClass(t, NewRegistry())

	o, err := c.New(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	info := o.RefinementInfo("value")
	if info == nil || info.Minimum != 0 || info.Maximum != 2 || info.Refine {
		t.Fatalf("expected fresh refinement info from declared bounds, got %v", info)
	}
	if other, _ := c.New(nil, nil); other.RefinementInfo("value") == info {
		t.Error("refinement info must not be shared between instances")
	}

	for _, raw := range []any{
		[]any{0.5, 1.5, true},
		[]byte(`[0.5, 1.5, true]`),
		`[0.5, 1.5, true]`,
		map[string]any{"minimum": 0.5, "maximum": 1.5, "refine": true},
	} {
		o, err := c.New(nil, Args{"value_ref_info": raw})
		if err != nil {
			t.Errorf("restore from %T failed: %v", raw, err)
			continue
		}
		expect := &RefinementInfo{Minimum: 0.5, Maximum: 1.5, Refine: true}
		if diff := cmp.Diff(expect, o.RefinementInfo("value")); diff != "" {
			t.Errorf("restore from %T mismatch (-want +got):\n%s", raw, diff)
		}
	}

	if _, err := c.New(nil, Args{"value_ref_info": []any{"x"}}); err == nil {
		t.Error("malformed refinement info should fail construction")
	}
}

func TestObserve(t *testing.T) {
	c := newCellClass(t, NewRegistry())
	o, err := c.New(nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	var all, values []Change
	cancel := o.Observe(func(ch Change) { all = append(all, ch) })
	o.ObserveProperty("value", func(ch Change) { values = append(values, ch) })

	o.Set("value", 1.5)
	o.Set("value", 1.5)
	o.Set("name", "renamed")
	o.Set("count", 7)

	expect := []Change{
		{Object: o, Name: "value", Old: 1.0, New: 1.5},
		{Object: o, Name: "name", Old: "cell", New: "renamed"},
	}
	if diff := cmp.Diff(expect, all, cmp.Comparer(func(a, b *Object) bool { return a == b })); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	if len(values) != 1 {
		t.Errorf("expected one value change, got %d", len(values))
	}

	cancel()
	o.Set("enabled", true)
	if len(all) != 2 {
		t.Error("cancelled observer still notified")
	}
}

func TestBoundIntel(t *testing.T) {
	c := newCellClass(t, NewRegistry())
	a, _ := c.New(nil, Args{"name": "a"})
	b, _ := c.New(nil, Args{"name": "b"})

	ia, ok := a.Intel("name")
	if !ok {
		t.Fatal("missing intel for name")
	}
	ib, _ := b.Intel("name")
	if ia.Container() != a || ib.Container() != b {
		t.Error("descriptors should be bound to their own container")
	}
	if ia.Value() != "a" || ib.Value() != "b" {
		t.Errorf("unexpected bound values %v %v", ia.Value(), ib.Value())
	}
	if _, ok := a.Intel("missing"); ok {
		t.Error("unknown property should have no intel")
	}
}

type hooked struct {
	*Object
	Label string
	calls int
}

func (h *hooked) InitModel() { h.calls++ }

func TestInitHook(t *testing.T) {
	reg := NewRegistry()
	c, err := reg.RegisterType(hooked{}, ClassDef{Name: "Hooked"})
	if err != nil {
		t.Fatal(err)
	}
	pool := NewPool()

	h := &hooked{}
	if err := c.Init(h, pool, Args{"label": "x"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if h.calls != 1 || h.Label != "x" {
		t.Errorf("expected one InitModel call and label x, got %d %q", h.calls, h.Label)
	}
	if pool.Get(h.UUID()) != h.Object {
		t.Error("object should be registered before InitModel")
	}
	if err := c.Init(h, pool, nil); err == nil {
		t.Error("initializing twice should fail")
	}

	failed := &hooked{}
	if err := c.Init(failed, pool, Args{"colour": 1}); err == nil || failed.Object != nil {
		t.Error("a failed Init should leave the struct untouched")
	}
}
