// Package models is a declarative data-model layer: classes describe their modeled
// attributes once, and the package derives accessors, persistence lists and tabular
// metadata from that description.
//
// # Property intel
//
// Every modeled attribute is described by a PropIntel: its name, label, data type and
// a few flags saying whether it is shown as a table column, persisted, inheritable,
// refinable or edited through a widget. A class's intel is merged with the intel of
// all of its bases; the class's own descriptors come first and shadow base descriptors
// of the same name.
//
// Refinable float and int properties automatically get a companion descriptor named
// "<name>_ref_info" holding a RefinementInfo, the advisory bounds used when the value
// is optimized. The companion is storable, so bounds persist alongside the value.
//
// # Classes
//
// Classes are registered once, at startup, in a Registry:
//
//	var Phase = models.MustRegister(models.ClassDef{
//		Name: "Phase",
//		Intel: []models.PropIntel{
//			{Name: "name", Label: "Name", Type: models.TypeUnicode, Column: true, Observable: true},
//			{Name: "sigma", Label: "Sigma", Type: models.TypeFloat, Storable: true,
//				Refinable: true, Minimum: 0, Maximum: 5, Observable: true},
//		},
//	})
//
// Registration computes the six derived lists of a class (observables, storables,
// columns, inheritables, refinables and properties without a widget). Go struct types
// can be registered with RegisterType, in which case the exported struct fields hold
// the property values, and class definitions can also be loaded from YAML files with
// LoadClasses.
//
// # Objects
//
// Instances are created through their class. Creation assigns a unique identifier
// (or restores the "uuid" argument), builds a RefinementInfo for every refinable
// scalar, applies the remaining arguments as property values and registers the new
// object in a Pool:
//
//	pool := models.NewPool()
//	phase, err := Phase.New(pool, models.Args{"name": "Illite", "sigma": 1.2})
//
// Setting a property through Set emits a change notification to observers when the
// property is observable. A PropIntel in a ClassDef is observable only when its
// Observable flag is set; struct fields and YAML class files are observable unless
// they opt out with observable=false or observable: false. Tables only hear about
// observable columns. Setting a numeric property to an unparsable or out of range
// value is ignored.
//
// # Pool
//
// A Pool maps identifiers to live objects without keeping them alive. It is used to
// resolve references between objects after a bulk load; see the persist package. Pools
// are not safe for concurrent use, the whole layer assumes a single goroutine mutates
// models.
package models
