package models

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// classFile is the YAML layout read by LoadClasses:
//
//	classes:
//	  - name: UnitCellProperty
//	    bases: [DataModel]
//	    properties:
//	      - {name: value, label: Value, type: float, storable: true, refinable: true,
//	         has_widget: true, widget_type: float_entry, minimum: 0, maximum: 2}
//	    defaults:
//	      value: 1.0
//	      mode: {value: simple, options: [simple, expanded]}
//
// Properties are observable unless they set observable: false.
type classFile struct {
	Classes []classEntry `yaml:"classes" validate:"dive"`
}

type classEntry struct {
	Name       string          `yaml:"name" validate:"required"`
	Bases      []string        `yaml:"bases"`
	Properties []propertyEntry `yaml:"properties"`
	Defaults   map[string]any  `yaml:"defaults"`
	Lists      ClassLists      `yaml:"lists"`
}

type propertyEntry struct {
	PropIntel  `yaml:",inline"`
	Observable *bool `yaml:"observable"`
}

// LoadClasses registers the classes declared in a YAML document, in order. Bases
// must be registered already or declared earlier in the same document.
func (r *Registry) LoadClasses(rd io.Reader) ([]*Class, error) {
	var file classFile
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("class file: %w", err)
	}
	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("class file: %w", err)
	}

	classes := make([]*Class, 0, len(file.Classes))
	for _, entry := range file.Classes {
		def := ClassDef{
			Name:     entry.Name,
			Defaults: make(map[string]any, len(entry.Defaults)),
			Lists:    entry.Lists,
		}
		for _, name := range entry.Bases {
			base, err := r.Get(name)
			if err != nil {
				return classes, fmt.Errorf("class %s: base: %w", entry.Name, err)
			}
			def.Bases = append(def.Bases, base)
		}
		for _, p := range entry.Properties {
			intel := p.PropIntel
			intel.Observable = p.Observable == nil || *p.Observable
			def.Intel = append(def.Intel, intel)
		}
		for name, v := range entry.Defaults {
			def.Defaults[name] = multiDefault(v)
		}

		c, err := r.Register(def)
		if err != nil {
			return classes, err
		}
		classes = append(classes, c)
	}
	return classes, nil
}

// multiDefault turns a {value, options} mapping into a MultiProperty.
func multiDefault(v any) any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 2 {
		return v
	}
	options, ok := m["options"].([]any)
	if !ok {
		return v
	}
	value, ok := m["value"]
	if !ok {
		return v
	}
	return MultiProperty{Value: value, Options: options}
}
