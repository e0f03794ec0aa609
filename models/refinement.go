package models

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// RefinementInfo holds the advisory bounds of a refinable scalar property and
// whether the property is selected for refinement. It is owned by a single object
// and has no identity of its own.
type RefinementInfo struct {
	Minimum float64
	Maximum float64
	Refine  bool
}

func NewRefinementInfo(minimum, maximum float64) *RefinementInfo {
	return &RefinementInfo{Minimum: minimum, Maximum: maximum}
}

// Contains reports whether v lies within the bounds. Bounds are not enforced on
// assignment.
func (r *RefinementInfo) Contains(v float64) bool {
	return v >= r.Minimum && v <= r.Maximum
}

// Clamp limits v to the bounds.
func (r *RefinementInfo) Clamp(v float64) float64 {
	return math.Max(r.Minimum, math.Min(r.Maximum, v))
}

// Args returns the serialized form, [minimum, maximum, refine].
func (r *RefinementInfo) Args() []any {
	return []any{r.Minimum, r.Maximum, r.Refine}
}

func (r *RefinementInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Args())
}

func (r *RefinementInfo) UnmarshalJSON(data []byte) error {
	var args []any
	if err := json.Unmarshal(data, &args); err != nil {
		return fmt.Errorf("refinement info: %w", err)
	}
	info, err := RefinementInfoFromArgs(args...)
	if err != nil {
		return err
	}
	*r = *info
	return nil
}

// MarshalYAML writes the same flow sequence as the JSON form.
func (r *RefinementInfo) MarshalYAML() (any, error) {
	return r.Args(), nil
}

func (r *RefinementInfo) String() string {
	return fmt.Sprintf("[%g, %g] refine=%t", r.Minimum, r.Maximum, r.Refine)
}

// RefinementInfoFromArgs rebuilds a RefinementInfo from its serialized arguments:
// minimum, maximum and an optional refine flag.
func RefinementInfoFromArgs(args ...any) (*RefinementInfo, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("refinement info: expected 2 or 3 arguments, got %d", len(args))
	}
	minimum, ok := toFloat(args[0])
	if !ok {
		return nil, fmt.Errorf("refinement info: invalid minimum %v", args[0])
	}
	maximum, ok := toFloat(args[1])
	if !ok {
		return nil, fmt.Errorf("refinement info: invalid maximum %v", args[1])
	}
	info := &RefinementInfo{Minimum: minimum, Maximum: maximum}
	if len(args) == 3 && args[2] != nil {
		if info.Refine, ok = toBool(args[2]); !ok {
			return nil, fmt.Errorf("refinement info: invalid refine flag %v", args[2])
		}
	}
	return info, nil
}

// RestoreRefinementInfo rebuilds a RefinementInfo from any of the shapes its
// serialized form takes after decoding: a sequence of arguments, raw or string JSON,
// a map with minimum, maximum and refine keys, or an existing info which is copied.
func RestoreRefinementInfo(v any) (*RefinementInfo, error) {
	switch x := v.(type) {
	case *RefinementInfo:
		if x == nil {
			return nil, fmt.Errorf("refinement info: nil")
		}
		info := *x
		return &info, nil
	case RefinementInfo:
		return &x, nil
	case json.RawMessage:
		info := &RefinementInfo{}
		return info, info.UnmarshalJSON(x)
	case []byte:
		info := &RefinementInfo{}
		return info, info.UnmarshalJSON(x)
	case string:
		info := &RefinementInfo{}
		return info, info.UnmarshalJSON([]byte(x))
	case map[string]any:
		return RefinementInfoFromArgs(x["minimum"], x["maximum"], x["refine"])
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		args := make([]any, rv.Len())
		for i := range args {
			args[i] = rv.Index(i).Interface()
		}
		return RefinementInfoFromArgs(args...)
	}
	return nil, fmt.Errorf("refinement info: cannot restore from %T", v)
}
