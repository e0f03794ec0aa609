package models

import (
	"log/slog"
	"sort"
	"weak"

	"github.com/prometheus/client_golang/prometheus"
)

// Pool maps identifiers to live objects. It holds weak references only: an object
// can be found through the pool exactly as long as something else keeps it alive.
//
// Pools are created once per load session and cleared explicitly; they are passed to
// constructors and decoders rather than used as global state. A Pool is not safe for
// concurrent use.
type Pool struct {
	objects map[string]weak.Pointer[Object]
	log     *slog.Logger
	metrics *poolMetrics
}

type PoolOption func(*Pool)

// WithLogger sets the logger used to report silently dropped registrations.
func WithLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) { p.log = l }
}

// WithMetrics registers pool counters with reg.
func WithMetrics(reg prometheus.Registerer) PoolOption {
	return func(p *Pool) { p.metrics = newPoolMetrics(reg) }
}

func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		objects: make(map[string]weak.Pointer[Object]),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type addOptions struct {
	force  bool
	silent bool
}

// AddOption modifies the duplicate identifier policy of Pool.Add.
type AddOption func(*addOptions)

// Force replaces any object already registered under the identifier.
func Force(o *addOptions) { o.force = true }

// Raise returns a DuplicateIdentifierError instead of ignoring a conflict.
func Raise(o *addOptions) { o.silent = false }

// live returns the object bound to id, dropping the entry if it was collected.
func (p *Pool) live(id string) *Object {
	wp, ok := p.objects[id]
	if !ok {
		return nil
	}
	o := wp.Value()
	if o == nil {
		delete(p.objects, id)
		p.metrics.setEntries(len(p.objects))
	}
	return o
}

// Add registers m under its identifier. Adding the object already bound to the
// identifier does nothing. When a different live object holds the identifier, m
// replaces it with Force, the conflict is reported with Raise, and is otherwise
// ignored.
func (p *Pool) Add(m Model, opts ...AddOption) error {
	o, ok := ObjectOf(m)
	if !ok {
		return errNotModel
	}
	ao := addOptions{silent: true}
	for _, opt := range opts {
		opt(&ao)
	}

	id := o.UUID()
	existing := p.live(id)
	switch {
	case existing == o:
		return nil
	case existing == nil || ao.force:
		p.objects[id] = weak.Make(o)
		p.metrics.added()
		p.metrics.setEntries(len(p.objects))
		return nil
	case !ao.silent:
		p.metrics.conflict("raised")
		return &DuplicateIdentifierError{ID: id, Existing: existing, Incoming: o}
	default:
		p.metrics.conflict("silent")
		p.log.Warn("pool: identifier already taken, object not added",
			"uuid", id, "existing", existing.String(), "object", o.String())
		return nil
	}
}

// Remove unregisters m, but only if m itself is the object bound to its identifier.
func (p *Pool) Remove(m Model) {
	o, ok := ObjectOf(m)
	if !ok {
		return
	}
	if existing := p.live(o.UUID()); existing != nil && existing == o {
		delete(p.objects, o.UUID())
		p.metrics.removed()
		p.metrics.setEntries(len(p.objects))
	}
}

// Get returns the object bound to id, or nil.
func (p *Pool) Get(id string) *Object {
	return p.live(id)
}

// Resolve returns the owner of the object bound to id, or nil.
func (p *Pool) Resolve(id string) any {
	if o := p.live(id); o != nil {
		return o.Owner()
	}
	return nil
}

// Clear drops all bindings.
func (p *Pool) Clear() {
	p.objects = make(map[string]weak.Pointer[Object])
	p.metrics.setEntries(0)
}

// Sweep removes entries whose objects were collected and returns how many.
func (p *Pool) Sweep() int {
	n := 0
	for id, wp := range p.objects {
		if wp.Value() == nil {
			delete(p.objects, id)
			n++
		}
	}
	if n > 0 {
		p.metrics.setEntries(len(p.objects))
	}
	return n
}

// Len returns the number of live objects.
func (p *Pool) Len() int {
	p.Sweep()
	return len(p.objects)
}

// Objects returns the live objects ordered by identifier.
func (p *Pool) Objects() []*Object {
	ids := make([]string, 0, len(p.objects))
	for id := range p.objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	objs := make([]*Object, 0, len(ids))
	for _, id := range ids {
		if o := p.live(id); o != nil {
			objs = append(objs, o)
		}
	}
	return objs
}

func stackerFor(o *Object) UUIDStacker {
	if s, ok := o.Owner().(UUIDStacker); ok {
		return s
	}
	return o
}

// StackAll calls the StackUUID hook of every live object.
func (p *Pool) StackAll() {
	for _, o := range p.Objects() {
		stackerFor(o).StackUUID()
	}
}

// RestoreAll calls the RestoreUUID hook of every live object.
func (p *Pool) RestoreAll() {
	for _, o := range p.Objects() {
		stackerFor(o).RestoreUUID()
	}
}
