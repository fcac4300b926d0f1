package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
)

func TestParameterWireFormat(t *testing.T) {
	tests := []struct {
		name  string
		param Parameter
		want  string
	}{
		{"time", Time{}, `{"type":"time"}`},
		{"range f32", RangeF32{Min: 0, Max: 1, Default: 0.5}, `{"type":"range_f32","min":0,"max":1,"default":0.5}`},
		{"range i32", RangeI32{Min: -10, Max: 100, Default: 50}, `{"type":"range_i32","min":-10,"max":100,"default":50}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MarshalParameter(tc.param)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))

			back, err := UnmarshalParameter(got)
			require.NoError(t, err)
			assert.Equal(t, tc.param, back)
		})
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	s := Schema{
		Time{},
		RangeF32{Min: -1.25, Max: 3.5, Default: 0.1},
		RangeI32{Min: -2147483648, Max: 2147483647, Default: 7},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back Schema
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}

func TestSchemaEmpty(t *testing.T) {
	data, err := json.Marshal(Schema{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	s, err := Parse("[]")
	require.NoError(t, err)
	assert.Empty(t, s)

	s, err = Parse("null")
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestParse(t *testing.T) {
	s, err := Parse(`[
		{"type": "time"},
		{"type": "range_f32", "min": 0.0, "max": 1.0, "default": 0.5},
		{"type": "range_i32", "min": -10, "max": 100, "default": 50}
	]`)
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, Time{}, s[0])
	assert.Equal(t, RangeF32{Min: 0, Max: 1, Default: 0.5}, s[1])
	assert.Equal(t, RangeI32{Min: -10, Max: 100, Default: 50}, s[2])
}

func TestParse_IgnoresExtraFields(t *testing.T) {
	s, err := Parse(`[{"type":"range_i32","min":0,"max":9,"default":3,"label":"count"},{"type":"time","unit":"s"}]`)
	require.NoError(t, err)
	assert.Equal(t, Schema{RangeI32{Min: 0, Max: 9, Default: 3}, Time{}}, s)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"unknown variant", `[{"type":"range_f64","min":0,"max":1,"default":0}]`, "unknown variant"},
		{"missing tag", `[{"min":0,"max":1,"default":0}]`, `missing field "type"`},
		{"tag not a string", `[{"type":7}]`, `field "type" must be a string`},
		{"null tag", `[{"type":null}]`, `field "type" must be a string`},
		{"missing default", `[{"type":"range_f32","min":0,"max":1}]`, `missing field "default"`},
		{"missing min", `[{"type":"range_i32","max":1,"default":0}]`, `missing field "min"`},
		{"string for number", `[{"type":"range_f32","min":"0","max":1,"default":0}]`, `field "min"`},
		{"null for number", `[{"type":"range_f32","min":0,"max":null,"default":0}]`, `field "max" must be a number`},
		{"fractional i32", `[{"type":"range_i32","min":0,"max":1,"default":0.5}]`, `field "default"`},
		{"i32 overflow", `[{"type":"range_i32","min":0,"max":3000000000,"default":0}]`, `field "max"`},
		{"entry not an object", `[1]`, "parameter 0"},
		{"null entry", `[null]`, "must be an object"},
		{"not an array", `{"type":"time"}`, ""},
		{"malformed", `[{"type":"time"`, ""},
		{"error names position", `[{"type":"time"},{"type":"bogus"}]`, "parameter 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			require.Error(t, err)
			if tc.message != "" {
				assert.Contains(t, err.Error(), tc.message)
			}
		})
	}
}

func TestValueTypes(t *testing.T) {
	s := Schema{Time{}, RangeF32{}, RangeI32{}}
	assert.Equal(t, []api.ValueType{api.ValueTypeF64, api.ValueTypeF32, api.ValueTypeI32}, s.ValueTypes())
	assert.Equal(t, []string{"f64", "f32", "i32"}, TypeNames(s.ValueTypes()))
	assert.Empty(t, Schema{}.ValueTypes())
	assert.Equal(t, []string{"i64"}, TypeNames([]api.ValueType{api.ValueTypeI64}))
}

func TestSignature(t *testing.T) {
	assert.Equal(t, "request-animation-frame: func()", Signature("request_animation_frame", nil))
	assert.Equal(t,
		"request-animation-frame: func(p0: f64, p1: f32, p2: s32)",
		Signature("request_animation_frame", Schema{Time{}, RangeF32{}, RangeI32{}}))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "time (elapsed seconds)", Describe(Time{}))
	assert.Equal(t, "range_f32 [0, 1] default 0.5", Describe(RangeF32{Min: 0, Max: 1, Default: 0.5}))
	assert.Equal(t, "range_i32 [-10, 100] default 50", Describe(RangeI32{Min: -10, Max: 100, Default: 50}))
}

func TestLint(t *testing.T) {
	assert.Empty(t, Lint(Schema{Time{}, RangeF32{Min: 0, Max: 1, Default: 1}, RangeI32{Min: 5, Max: 5, Default: 5}}))

	warnings := Lint(Schema{
		Time{},
		RangeF32{Min: 0, Max: 1, Default: 2},
		RangeI32{Min: 10, Max: 0, Default: 5},
	})
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "parameter 1: default 2 outside [0, 1]")
	assert.Contains(t, warnings[1], "parameter 2: min 10 is greater than max 0")
}

func TestJSONSchema(t *testing.T) {
	doc := JSONSchema()
	require.NotNil(t, doc.Items)
	require.Len(t, doc.Items.OneOf, 3)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "array", decoded["type"])
	assert.Equal(t, SchemaID, decoded["$id"])

	text := string(data)
	for _, tag := range []string{TagTime, TagRangeF32, TagRangeI32} {
		assert.Contains(t, text, `"const":"`+tag+`"`)
	}
	assert.Contains(t, text, `"minimum":-2147483648`)
}

func TestRangeF32_WholeNumbers(t *testing.T) {
	data, err := MarshalParameter(RangeF32{Min: 0, Max: 50, Default: 10})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"range_f32","min":0,"max":50,"default":10}`, string(data))

	p, err := UnmarshalParameter([]byte(`{"type":"range_f32","min":0.0,"max":50.0,"default":10.0}`))
	require.NoError(t, err)
	assert.Equal(t, RangeF32{Min: 0, Max: 50, Default: 10}, p)
}
