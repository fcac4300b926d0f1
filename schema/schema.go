package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// Wire tags for the three parameter variants.
const (
	TagTime     = "time"
	TagRangeF32 = "range_f32"
	TagRangeI32 = "range_i32"
)

// Parameter is one positional argument of the guest callback.
// It is a closed union: Time, RangeF32 or RangeI32.
type Parameter interface {
	parameter()
}

// Time is the elapsed wall-clock seconds since the session was created.
// It is passed as f64 and cannot be overridden.
type Time struct{}

// RangeF32 is an f32 parameter with a declared range and default.
type RangeF32 struct {
	Min     float32
	Max     float32
	Default float32
}

// RangeI32 is an i32 parameter with a declared range and default.
type RangeI32 struct {
	Min     int32
	Max     int32
	Default int32
}

func (Time) parameter()     {}
func (RangeF32) parameter() {}
func (RangeI32) parameter() {}

// Schema is the ordered list of callback parameters. Order is the
// positional argument order; an empty Schema means a zero-arity callback.
type Schema []Parameter

// ValueTypeOf maps a parameter to the core value type it is passed as.
func ValueTypeOf(p Parameter) api.ValueType {
	switch p.(type) {
	case Time:
		return api.ValueTypeF64
	case RangeF32:
		return api.ValueTypeF32
	case RangeI32:
		return api.ValueTypeI32
	default:
		panic(fmt.Sprintf("schema: unknown parameter variant %T", p))
	}
}

// ValueTypes returns the expected callback parameter types, in order.
func (s Schema) ValueTypes() []api.ValueType {
	types := make([]api.ValueType, len(s))
	for i, p := range s {
		types[i] = ValueTypeOf(p)
	}
	return types
}

// TypeNames renders value types as their WebAssembly text names.
func TypeNames(types []api.ValueType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return names
}

// Parse decodes a JSON schema document.
func Parse(text string) (Schema, error) {
	var s Schema
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, err
	}
	return s, nil
}

// MarshalJSON encodes the schema as a JSON array. An empty schema encodes as [].
func (s Schema) MarshalJSON() ([]byte, error) {
	items := make([]json.RawMessage, len(s))
	for i, p := range s {
		b, err := MarshalParameter(p)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		items[i] = b
	}
	return json.Marshal(items)
}

// UnmarshalJSON decodes a JSON array of tagged parameter objects.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(Schema, 0, len(items))
	for i, item := range items {
		p, err := UnmarshalParameter(item)
		if err != nil {
			return fmt.Errorf("parameter %d: %w", i, err)
		}
		out = append(out, p)
	}
	*s = out
	return nil
}

type rangeF32JSON struct {
	Type    string  `json:"type"`
	Min     float32 `json:"min"`
	Max     float32 `json:"max"`
	Default float32 `json:"default"`
}

type rangeI32JSON struct {
	Type    string `json:"type"`
	Min     int32  `json:"min"`
	Max     int32  `json:"max"`
	Default int32  `json:"default"`
}

// MarshalParameter encodes one parameter as a tagged JSON object.
func MarshalParameter(p Parameter) ([]byte, error) {
	switch v := p.(type) {
	case Time:
		return []byte(`{"type":"time"}`), nil
	case RangeF32:
		return json.Marshal(rangeF32JSON{Type: TagRangeF32, Min: v.Min, Max: v.Max, Default: v.Default})
	case RangeI32:
		return json.Marshal(rangeI32JSON{Type: TagRangeI32, Min: v.Min, Max: v.Max, Default: v.Default})
	default:
		return nil, fmt.Errorf("unknown parameter variant %T", p)
	}
}

// UnmarshalParameter decodes one tagged JSON object. It fails on an unknown
// or missing tag and on missing or ill-typed fields; extra fields are ignored.
func UnmarshalParameter(data []byte) (Parameter, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("parameter must be an object, got null")
	}

	rawTag, ok := fields["type"]
	if !ok {
		return nil, fmt.Errorf("missing field %q", "type")
	}
	var tag string
	if err := json.Unmarshal(rawTag, &tag); err != nil || isNull(rawTag) {
		return nil, fmt.Errorf("field %q must be a string", "type")
	}

	switch tag {
	case TagTime:
		return Time{}, nil
	case TagRangeF32:
		var p RangeF32
		if err := decodeFields(fields, map[string]any{"min": &p.Min, "max": &p.Max, "default": &p.Default}); err != nil {
			return nil, err
		}
		return p, nil
	case TagRangeI32:
		var p RangeI32
		if err := decodeFields(fields, map[string]any{"min": &p.Min, "max": &p.Max, "default": &p.Default}); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown variant %q, expected one of %q, %q, %q", tag, TagTime, TagRangeF32, TagRangeI32)
	}
}

func decodeFields(fields map[string]json.RawMessage, targets map[string]any) error {
	for _, name := range []string{"min", "max", "default"} {
		raw, ok := fields[name]
		if !ok {
			return fmt.Errorf("missing field %q", name)
		}
		if isNull(raw) {
			return fmt.Errorf("field %q must be a number, got null", name)
		}
		if err := json.Unmarshal(raw, targets[name]); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
