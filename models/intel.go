package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DataType is the closed set of value types a modeled property can hold.
type DataType string

const (
	TypeFloat  DataType = "float"
	TypeInt    DataType = "int"
	TypeBool   DataType = "bool"
	TypeString DataType = "string"
	// TypeUnicode is a locale-aware string. Table columns report it as TypeString.
	TypeUnicode DataType = "unicode"
	TypeObject  DataType = "object"
	// TypeRefInfo holds a *RefinementInfo; only used by synthesized companions.
	TypeRefInfo DataType = "ref_info"
)

// Scalar reports whether values of this type can be refined numerically.
func (t DataType) Scalar() bool {
	return t == TypeFloat || t == TypeInt
}

func (t DataType) columnType() DataType {
	if t == TypeUnicode {
		return TypeString
	}
	return t
}

const refInfoFormat = "%s_ref_info"

// RefInfoName returns the name of the refinement info companion of a property.
func RefInfoName(name string) string {
	return fmt.Sprintf(refInfoFormat, name)
}

// PropIntel describes one modeled attribute of a class.
type PropIntel struct {
	Name  string   `yaml:"name" validate:"required"`
	Label string   `yaml:"label"`
	Type  DataType `yaml:"type" validate:"required,oneof=float int bool string unicode object ref_info"`

	Column      bool   `yaml:"column"`
	Storable    bool   `yaml:"storable"`
	Inheritable bool   `yaml:"inheritable"`
	Refinable   bool   `yaml:"refinable"`
	HasWidget   bool   `yaml:"has_widget"`
	WidgetType  string `yaml:"widget_type"`
	Observable  bool   `yaml:"-"`

	// Declared bounds for the RefinementInfo of refinable scalars.
	Minimum float64 `yaml:"minimum"`
	Maximum float64 `yaml:"maximum" validate:"gtefield=Minimum"`
}

// needsRefInfo is true for refinable float and int properties.
func (p PropIntel) needsRefInfo() bool {
	return p.Refinable && p.Type.Scalar()
}

func (p PropIntel) refInfoIntel() PropIntel {
	return PropIntel{
		Name:     RefInfoName(p.Name),
		Label:    strings.TrimSpace(p.Label + " refinement info"),
		Type:     TypeRefInfo,
		Storable: true,
	}
}

func (p PropIntel) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Type)
}

var validate = validator.New()

func validateIntel(class string, props []PropIntel) error {
	for _, p := range props {
		if err := validate.Struct(p); err != nil {
			return fmt.Errorf("class %s: invalid property %q: %w", class, p.Name, err)
		}
	}
	return nil
}

// uniqueIntel drops descriptors whose name was already seen, keeping the first.
func uniqueIntel(props []PropIntel) []PropIntel {
	seen := make(map[string]struct{}, len(props))
	out := make([]PropIntel, 0, len(props))
	for _, p := range props {
		if _, exists := seen[p.Name]; exists {
			continue
		}
		seen[p.Name] = struct{}{}
		out = append(out, p)
	}
	return out
}

func uniqueStrings(seq []string) []string {
	seen := make(map[string]struct{}, len(seq))
	out := make([]string, 0, len(seq))
	for _, s := range seq {
		if _, exists := seen[s]; exists {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func uniqueColumns(seq []Column) []Column {
	seen := make(map[string]struct{}, len(seq))
	out := make([]Column, 0, len(seq))
	for _, c := range seq {
		if _, exists := seen[c.Name]; exists {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out
}

// MergeIntel returns own followed by every base descriptor whose name is not yet
// present. Own descriptors are deduplicated first, and each refinable scalar gets
// its refinement info companion appended right after own descriptors.
func MergeIntel(own []PropIntel, bases ...[]PropIntel) []PropIntel {
	merged := uniqueIntel(own)

	var companions []PropIntel
	for _, p := range merged {
		if p.needsRefInfo() {
			companions = append(companions, p.refInfoIntel())
		}
	}
	merged = append(merged, companions...)

	for _, base := range bases {
		merged = append(merged, base...)
	}
	return uniqueIntel(merged)
}
