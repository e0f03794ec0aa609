package persist

import (
	"log/slog"
	"sort"

	"github.com/pkg/errors"

	"github.com/Haiqian-MA/PyXRD/models"
)

// Decoder creates objects from records. New objects are registered in Pool, which
// is also used to resolve references.
type Decoder struct {
	Registry *models.Registry
	Pool     *models.Pool
	Logger   *slog.Logger
}

func NewDecoder(reg *models.Registry, pool *models.Pool) *Decoder {
	return &Decoder{Registry: reg, Pool: pool, Logger: slog.Default()}
}

func (d *Decoder) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// isReference reports whether a stored object property value still has to be
// resolved: an identifier, or a list headed by one.
func isReference(v any) bool {
	switch x := v.(type) {
	case string:
		return true
	case []any:
		if len(x) > 0 {
			_, ok := x[0].(string)
			return ok
		}
	}
	return false
}

// Decode creates the object described by rec. References to other objects are kept
// pending until ResolveReferences runs.
func (d *Decoder) Decode(rec Record) (*models.Object, error) {
	class, err := d.Registry.Get(rec.Type)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	args := make(models.Args, len(rec.Properties))
	refs := make(map[string]any)
	for name, v := range rec.Properties {
		if p, ok := class.Prop(name); ok && p.Type == models.TypeObject && isReference(v) {
			refs[name] = v
			continue
		}
		args[name] = v
	}

	o, err := class.New(d.Pool, args)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", rec.Type)
	}
	for name, raw := range refs {
		o.SetPending(name, raw)
	}
	return o, nil
}

// DecodeDocument decodes every record of doc and then resolves references once.
func (d *Decoder) DecodeDocument(doc Document) ([]*models.Object, error) {
	objs := make([]*models.Object, 0, len(doc.Objects))
	for i, rec := range doc.Objects {
		o, err := d.Decode(rec)
		if err != nil {
			return objs, errors.Wrapf(err, "object %d", i)
		}
		objs = append(objs, o)
	}
	ResolveReferences(d.Pool, d.logger(), objs...)
	return objs, nil
}

// ResolveReferences replaces the pending references of objs by the objects bound to
// the stored identifiers in pool. A reference that cannot be resolved clears the
// property. It returns the number of cleared references.
func ResolveReferences(pool *models.Pool, log *slog.Logger, objs ...*models.Object) int {
	if log == nil {
		log = slog.Default()
	}
	unresolved := 0
	for _, o := range objs {
		pending := o.TakePending()
		names := make([]string, 0, len(pending))
		for name := range pending {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			value, ok := resolve(pool, pending[name])
			if !ok {
				unresolved++
				log.Warn("persist: unresolved reference cleared",
					"object", o.String(), "property", name, "reference", pending[name])
				o.Set(name, nil)
				continue
			}
			o.Set(name, value)
		}
	}
	return unresolved
}

func resolve(pool *models.Pool, raw any) (any, bool) {
	switch x := raw.(type) {
	case string:
		target := pool.Resolve(x)
		return target, target != nil
	case []any:
		if len(x) == 0 {
			return nil, false
		}
		id, _ := x[0].(string)
		target := pool.Resolve(id)
		if target == nil {
			return nil, false
		}
		out := append([]any{target}, x[1:]...)
		return out, true
	}
	return nil, false
}
