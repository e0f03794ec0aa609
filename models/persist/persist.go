// Package persist writes and reads the storable properties of model objects.
//
// Each object is written as a Record holding its class name and its storable
// properties, plus its identifier under "uuid". References to other models are
// written as their identifiers. Loading is done in two phases: all records are
// decoded into a pool first, then a single ResolveReferences pass replaces stored
// identifiers by the objects now registered under them.
package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Haiqian-MA/PyXRD/models"
)

// Version of the document layout written by Encode.
const Version = 1

// Record is the persisted form of one object.
type Record struct {
	Type       string         `json:"type" yaml:"type"`
	Properties map[string]any `json:"properties" yaml:"properties"`
}

// Document is a collection of records loaded and resolved together.
type Document struct {
	Version int      `json:"version" yaml:"version"`
	Objects []Record `json:"objects" yaml:"objects"`
}

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSON, YAML:
		return f, nil
	case "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("persist: unknown format %q", s)
	}
}

// Properties returns the storable view of o: its identifier and the value of every
// storable property, with model references replaced by identifiers.
func Properties(o *models.Object) map[string]any {
	props := map[string]any{models.ArgUUID: o.UUID()}
	for _, name := range o.Class().Lists().Storables {
		props[name] = encodeValue(o.Get(name))
	}
	return props
}

func encodeValue(v any) any {
	if info, ok := v.(*models.RefinementInfo); ok {
		if info == nil {
			return nil
		}
		return info.Args()
	}
	if o, ok := models.ObjectOf(v); ok {
		return o.UUID()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Interface {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = encodeValue(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

// NewRecord returns the record of o.
func NewRecord(o *models.Object) Record {
	return Record{Type: o.Class().Name(), Properties: Properties(o)}
}

// Encode returns a document holding the records of objs, in order.
func Encode(objs ...*models.Object) Document {
	doc := Document{Version: Version, Objects: make([]Record, 0, len(objs))}
	for _, o := range objs {
		doc.Objects = append(doc.Objects, NewRecord(o))
	}
	return doc
}

func Marshal(doc Document, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return json.MarshalIndent(doc, "", "  ")
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, errors.Wrap(err, "persist: encode yaml")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, "persist: encode yaml")
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("persist: unknown format %q", f)
	}
}

func Unmarshal(data []byte, f Format) (Document, error) {
	var doc Document
	switch f {
	case JSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return doc, errors.Wrap(err, "persist: decode json")
		}
	case YAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return doc, errors.Wrap(err, "persist: decode yaml")
		}
	default:
		return doc, fmt.Errorf("persist: unknown format %q", f)
	}
	if doc.Version > Version {
		return doc, fmt.Errorf("persist: document version %d is newer than %d", doc.Version, Version)
	}
	return doc, nil
}
