package schema

import (
	"encoding/json"
	"strconv"

	"github.com/invopop/jsonschema"
)

// SchemaID identifies the wire-format document returned by JSONSchema.
const SchemaID = "https://github.com/wippyai/wasm-renderer/schema.json"

// JSONSchema describes the SCHEMA wire format as a JSON Schema document.
func JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		ID:          SchemaID,
		Title:       "Frame callback parameters",
		Description: "Ordered positional parameters of request_animation_frame",
		Type:        "array",
		Items: &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{
				timeSchema(),
				rangeSchema(TagRangeF32, "number", "", ""),
				rangeSchema(TagRangeI32, "integer",
					strconv.FormatInt(-1<<31, 10), strconv.FormatInt(1<<31-1, 10)),
			},
		},
	}
}

func timeSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("type", &jsonschema.Schema{Const: TagTime})
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   []string{"type"},
	}
}

func rangeSchema(tag, numberType, minimum, maximum string) *jsonschema.Schema {
	field := func() *jsonschema.Schema {
		s := &jsonschema.Schema{Type: numberType}
		if minimum != "" {
			s.Minimum = json.Number(minimum)
			s.Maximum = json.Number(maximum)
		}
		return s
	}

	props := jsonschema.NewProperties()
	props.Set("type", &jsonschema.Schema{Const: tag})
	props.Set("min", field())
	props.Set("max", field())
	props.Set("default", field())
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   []string{"type", "min", "max", "default"},
	}
}
