package models

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var objectPtrType = reflect.TypeOf((*Object)(nil))

func typeShouldIgnoreField(field reflect.StructField) bool {
	if field.PkgPath != "" || field.Tag.Get("pyxrd") == "-" {
		// Unexported or ignored field
		return true
	} else if field.Type.Kind() == reflect.Func || field.Type.Kind() == reflect.Chan {
		return true
	} else if field.Anonymous && field.Type == objectPtrType {
		return true
	}
	return false
}

func typeFieldName(field reflect.StructField) string {
	name := field.Name
	if len(name) > 0 {
		name = strings.ToLower(string(name[0])) + name[1:]
	}
	return name
}

// dataTypeOf maps a Go field type onto the closed set of property types.
func dataTypeOf(t reflect.Type) DataType {
	switch t.Kind() {
	case reflect.Bool:
		return TypeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInt
	case reflect.Float32, reflect.Float64:
		return TypeFloat
	case reflect.String:
		return TypeString
	default:
		return TypeObject
	}
}

// parseIntelTag reads a `pyxrd:"..."` tag into p. Flags are bare words, options are
// key=value pairs:
//
//	pyxrd:"name=value,label=Value,type=float,column,storable,inheritable,refinable,widget=float_entry,observable=false,min=0,max=2"
//
// A widget option implies has_widget. Fields are observable unless tagged
// observable=false.
func parseIntelTag(p *PropIntel, tag string) error {
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, hasValue := strings.Cut(part, "=")
		var err error
		switch key {
		case "name":
			p.Name = value
		case "label":
			p.Label = value
		case "type":
			p.Type = DataType(value)
		case "column":
			p.Column = true
		case "storable":
			p.Storable = true
		case "inheritable":
			p.Inheritable = true
		case "refinable":
			p.Refinable = true
		case "observable":
			p.Observable = true
			if hasValue {
				p.Observable, err = strconv.ParseBool(value)
			}
		case "has_widget":
			p.HasWidget = true
		case "widget":
			p.HasWidget = true
			p.WidgetType = value
		case "min":
			p.Minimum, err = strconv.ParseFloat(value, 64)
		case "max":
			p.Maximum, err = strconv.ParseFloat(value, 64)
		default:
			return fmt.Errorf("unknown option %q", key)
		}
		if err != nil {
			return fmt.Errorf("option %s: %w", key, err)
		}
		if hasValue && value == "" {
			return fmt.Errorf("option %s needs a value", key)
		}
	}
	return nil
}

// typeFieldsToIntel collects property intel from the exported fields of t. Embedded
// structs registered as classes become bases; other embedded structs are flattened
// breadth-first. fields receives the index path of every property field.
func (r *Registry) typeFieldsToIntel(t reflect.Type, index []int, fields map[string][]int) ([]PropIntel, []*Class, error) {
	var (
		intel       []PropIntel
		bases       []*Class
		anonStructs []reflect.StructField
	)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if typeShouldIgnoreField(field) {
			continue
		} else if field.Anonymous && field.Type.Kind() == reflect.Struct {
			// Recurse into these at the end for breadth-first
			anonStructs = append(anonStructs, field)
			continue
		}

		p := PropIntel{Name: typeFieldName(field), Type: dataTypeOf(field.Type), Observable: true}
		if err := parseIntelTag(&p, field.Tag.Get("pyxrd")); err != nil {
			return nil, nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		if _, exists := fields[p.Name]; exists {
			continue
		}
		fields[p.Name] = append(append([]int(nil), index...), field.Index...)
		intel = append(intel, p)
	}

	for _, ast := range anonStructs {
		path := append(append([]int(nil), index...), ast.Index...)
		if base := r.classForType(ast.Type); base != nil {
			bases = append(bases, base)
			// Base properties stay reachable through the embedded struct.
			for _, p := range base.intel {
				if a := base.accessors[p.Name]; a.kind == slotField {
					if _, exists := fields[p.Name]; !exists {
						fields[p.Name] = append(append([]int(nil), path...), a.index...)
					}
				}
			}
			continue
		}
		more, moreBases, err := r.typeFieldsToIntel(ast.Type, path, fields)
		if err != nil {
			return nil, nil, err
		}
		intel = append(intel, more...)
		bases = append(bases, moreBases...)
	}
	return intel, bases, nil
}

// RegisterType registers the struct type of v, which must embed *Object, as a class.
// Exported fields become properties named like the field with a lower case first
// letter; tags refine them (see parseIntelTag). Property values are stored in the
// fields. Extra bases and defaults may be given through def, whose Intel is added to
// the intel found on the struct.
func (r *Registry) RegisterType(v any, def ClassDef) (*Class, error) {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errNotModel
	}
	if sf, ok := t.FieldByName("Object"); !ok || !sf.Anonymous || sf.Type != objectPtrType {
		return nil, fmt.Errorf("type %s: %w", t, errNotModel)
	}
	if def.Name == "" {
		def.Name = t.Name()
	}

	fields := make(map[string][]int)
	intel, bases, err := r.typeFieldsToIntel(t, nil, fields)
	if err != nil {
		return nil, fmt.Errorf("type %s: %w", t, err)
	}
	def.Intel = append(def.Intel, intel...)
	def.Bases = append(bases, def.Bases...)

	c, err := newClass(def, fields, t)
	if err != nil {
		return nil, err
	}
	return c, r.add(c)
}

// RegisterType registers a struct type with the DefaultRegistry.
func RegisterType(v any, def ClassDef) (*Class, error) {
	return DefaultRegistry.RegisterType(v, def)
}
