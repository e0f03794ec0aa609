package models

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// Construction arguments with a special meaning.
const (
	ArgUUID       = "uuid"
	ArgIdentifier = "identifier"
)

// Args are the keyword arguments of a model constructor. Besides property values
// they may carry an identifier under ArgUUID (or ArgIdentifier) and serialized
// refinement info under "<name>_ref_info".
type Args map[string]any

func (a Args) take(key string) (any, bool) {
	v, ok := a[key]
	if ok {
		delete(a, key)
	}
	return v, ok
}

// Model is implemented by *Object and by every struct embedding *Object.
type Model interface {
	ModelObject() *Object
}

// If the owner of an object implements Initializer, InitModel is called once the
// object is fully constructed and registered. It can be used to derive fields or
// wire observers, as a form of constructor.
type Initializer interface {
	InitModel()
}

// UUIDStacker is the per-object hook used by Pool.StackAll and Pool.RestoreAll.
// Object implements it; owners may override it.
type UUIDStacker interface {
	StackUUID()
	RestoreUUID()
}

// Change describes a property change delivered to observers.
type Change struct {
	Object *Object
	Name   string
	Old    any
	New    any
}

type observer struct {
	name string
	fn   func(Change)
}

// Object is the instance state of a model: its class, identifier and property
// values. Struct models embed *Object; other models use *Object directly.
type Object struct {
	class   *Class
	uuid    string
	stacked []string
	owner   any

	values  map[string]any
	pending map[string]any

	observers []*observer
}

var errNotModel = errors.New("models: value does not embed *models.Object")

// ObjectOf returns the *Object of v, if v is an initialized model.
func ObjectOf(v any) (*Object, bool) {
	m, ok := v.(Model)
	if !ok || isNil(m) {
		return nil, false
	}
	o := m.ModelObject()
	return o, o != nil
}

func (o *Object) ModelObject() *Object { return o }

func (o *Object) Class() *Class { return o.class }
func (o *Object) UUID() string { return o.uuid }

// Owner returns the struct embedding this object, or the object itself.
func (o *Object) Owner() any {
	if o.owner != nil {
		return o.owner
	}
	return o
}

func (o *Object) String() string {
	return fmt.Sprintf("%s(%s)", o.class.name, o.uuid)
}

// New creates an instance of c. Classes registered from struct types allocate a new
// struct; use the object's Owner to get at it. A non-nil pool receives the object.
func (c *Class) New(p *Pool, args Args) (*Object, error) {
	if c.goType != nil {
		target := reflect.New(c.goType).Interface()
		if err := c.Init(target, p, args); err != nil {
			return nil, err
		}
		o, _ := ObjectOf(target)
		return o, nil
	}

	o := &Object{class: c}
	if err := o.setup(args); err != nil {
		return nil, err
	}
	o.finish(p)
	return o, nil
}

// Init initializes the *Object embedded in target, a pointer to a struct. Nothing is
// changed and an error is returned if the object was already initialized.
func (c *Class) Init(target any, p *Pool, args Args) error {
	value := reflect.ValueOf(target)
	if value.Kind() != reflect.Ptr || value.IsNil() || value.Elem().Kind() != reflect.Struct {
		return errNotModel
	}
	value = value.Elem()
	if c.goType != nil && value.Type() != c.goType {
		return fmt.Errorf("class %s: cannot initialize a %s", c.name, value.Type())
	}
	sf, ok := value.Type().FieldByName("Object")
	if !ok || !sf.Anonymous || sf.Type != reflect.TypeOf((*Object)(nil)) {
		return errNotModel
	}
	field := value.FieldByIndex(sf.Index)
	if !field.IsNil() {
		return fmt.Errorf("class %s: object %s is already initialized", c.name, field.Interface())
	}

	o := &Object{class: c, owner: target}
	// Write to the embedded field first, struct backed accessors go through it
	field.Set(reflect.ValueOf(o))
	if err := o.setup(args); err != nil {
		field.Set(reflect.Zero(field.Type()))
		return err
	}
	o.finish(p)
	return nil
}

func (o *Object) setup(in Args) error {
	c := o.class
	args := make(Args, len(in))
	for k, v := range in {
		args[k] = v
	}

	// Identifier restored from disk, or a fresh one
	var id string
	for _, key := range []string{ArgUUID, ArgIdentifier} {
		v, ok := args.take(key)
		if !ok || v == nil {
			continue
		}
		s, isString := v.(string)
		if !isString {
			return fmt.Errorf("class %s: identifier must be a string, got %T", c.name, v)
		}
		if id == "" {
			id = s
		}
	}
	if id == "" {
		id = newUUID()
	}

	refInfos := make(map[string]*RefinementInfo)
	for _, p := range c.intel {
		if !p.needsRefInfo() {
			continue
		}
		name := RefInfoName(p.Name)
		if raw, ok := args.take(name); ok && !isNil(raw) {
			info, err := RestoreRefinementInfo(raw)
			if err != nil {
				return fmt.Errorf("class %s: %s: %w", c.name, name, err)
			}
			refInfos[name] = info
		} else {
			refInfos[name] = NewRefinementInfo(p.Minimum, p.Maximum)
		}
	}

	o.values = make(map[string]any, len(c.intel))
	for _, p := range c.intel {
		a := c.accessors[p.Name]
		switch a.kind {
		case slotValue:
			o.values[a.Backing] = zeroValue(p.Type)
		case slotMulti:
			o.values[a.Backing] = c.defaults[a.Backing]
		}
		if v, ok := c.defaults[p.Name]; ok {
			a.set(o, v)
		}
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a, ok := c.accessors[name]
		if !ok {
			return fmt.Errorf("class %s: %w: %q", c.name, ErrUnknownProperty, name)
		}
		a.set(o, args[name])
	}

	o.uuid = id
	for name, info := range refInfos {
		o.values[name] = info
	}
	return nil
}

func (o *Object) finish(p *Pool) {
	if p != nil {
		// Silent registration, conflicts only surface through Pool.Add with Raise.
		_ = p.Add(o)
	}
	if init, ok := o.Owner().(Initializer); ok {
		init.InitModel()
	}
}

func (o *Object) field(index []int) (reflect.Value, bool) {
	if o.owner == nil {
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(o.owner)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, false
	}
	return v.Elem().FieldByIndex(index), true
}

// Get returns the value of a property, or nil for unknown properties.
func (o *Object) Get(name string) any {
	a, ok := o.class.accessors[name]
	if !ok {
		return nil
	}
	return a.Get(o)
}

// Set assigns a property. Values that cannot be converted to the property's type are
// ignored and the previous value is kept. Observers are notified if the value changed
// and the property is observable. Set reports whether the value changed.
func (o *Object) Set(name string, v any) bool {
	a, ok := o.class.accessors[name]
	if !ok {
		return false
	}
	old, changed := a.set(o, v)
	if changed {
		o.notify(name, old, a.Get(o))
	}
	return changed
}

func (o *Object) GetFloat(name string) float64 {
	f, _ := toFloat(o.Get(name))
	return f
}

func (o *Object) GetInt(name string) int {
	i, _ := toInt(o.Get(name))
	return i
}

func (o *Object) GetBool(name string) bool {
	b, _ := toBool(o.Get(name))
	return b
}

func (o *Object) GetString(name string) string {
	s, _ := o.Get(name).(string)
	return s
}

// RefinementInfo returns the refinement info of a refinable scalar property.
func (o *Object) RefinementInfo(name string) *RefinementInfo {
	info, _ := o.values[RefInfoName(name)].(*RefinementInfo)
	return info
}

// BoundIntel is a property descriptor bound to the object it belongs to.
type BoundIntel struct {
	PropIntel
	container *Object
}

// Container returns the owner of the object the descriptor is bound to.
func (b BoundIntel) Container() any { return b.container.Owner() }

// Value returns the current value of the property on its container.
func (b BoundIntel) Value() any { return b.container.Get(b.Name) }

// Intel returns the descriptor of a property bound to o.
func (o *Object) Intel(name string) (BoundIntel, bool) {
	p, ok := o.class.Prop(name)
	if !ok {
		return BoundIntel{}, false
	}
	return BoundIntel{PropIntel: p, container: o}, true
}

// Observe registers fn for changes to every observable property. The returned
// function unregisters it.
func (o *Object) Observe(fn func(Change)) func() {
	return o.ObserveProperty("", fn)
}

// ObserveProperty registers fn for changes to one property.
func (o *Object) ObserveProperty(name string, fn func(Change)) func() {
	obs := &observer{name: name, fn: fn}
	o.observers = append(o.observers, obs)
	return func() {
		for i, e := range o.observers {
			if e == obs {
				o.observers = append(o.observers[:i:i], o.observers[i+1:]...)
				return
			}
		}
	}
}

// Changed notifies observers of a property that was modified without Set, such as
// a struct field assigned directly.
func (o *Object) Changed(name string) {
	v := o.Get(name)
	o.notify(name, v, v)
}

func (o *Object) notify(name string, old, new any) {
	if !o.class.IsObservable(name) || len(o.observers) == 0 {
		return
	}
	change := Change{Object: o, Name: name, Old: old, New: new}
	observers := append([]*observer(nil), o.observers...)
	for _, obs := range observers {
		if obs.name == "" || obs.name == name {
			obs.fn(change)
		}
	}
}

// SetPending stores a raw, unresolved reference for an object property. It is
// consumed by the reference resolution pass after a bulk load.
func (o *Object) SetPending(name string, raw any) {
	if o.pending == nil {
		o.pending = make(map[string]any)
	}
	o.pending[name] = raw
}

// TakePending returns and clears all unresolved references.
func (o *Object) TakePending() map[string]any {
	p := o.pending
	o.pending = nil
	return p
}

// StackUUID saves the current identifier and assigns a fresh one.
func (o *Object) StackUUID() {
	o.stacked = append(o.stacked, o.uuid)
	o.uuid = newUUID()
}

// RestoreUUID restores the identifier saved by the last StackUUID.
func (o *Object) RestoreUUID() {
	if n := len(o.stacked); n > 0 {
		o.uuid = o.stacked[n-1]
		o.stacked = o.stacked[:n-1]
	}
}
