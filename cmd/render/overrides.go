package main

import (
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/wippyai/wasm-renderer/schema"
)

// override sets one parameter by position. Exactly one of F32 and I32 is set.
type override struct {
	F32   *float64 `hcl:"f32,optional"`
	I32   *int64   `hcl:"i32,optional"`
	Name  string   `hcl:"name,label"`
	Index int      `hcl:"index"`
}

type overridesFile struct {
	Params []*override `hcl:"param,block"`
}

// overrideSetter is implemented by runtime.Session and runtime.Player.
type overrideSetter interface {
	SetF32(index int, v float32) error
	SetI32(index int, v int32) error
}

// loadOverrides parses an HCL overrides file.
func loadOverrides(path string) ([]*override, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var parsed overridesFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	for _, o := range parsed.Params {
		if (o.F32 == nil) == (o.I32 == nil) {
			return nil, fmt.Errorf("param %q: exactly one of f32 or i32 must be set", o.Name)
		}
		if o.I32 != nil && (*o.I32 < math.MinInt32 || *o.I32 > math.MaxInt32) {
			return nil, fmt.Errorf("param %q: i32 value %d out of range", o.Name, *o.I32)
		}
	}
	return parsed.Params, nil
}

// applyOverrides checks each override against the schema and applies it.
func applyOverrides(target overrideSetter, s schema.Schema, overrides []*override) error {
	for _, o := range overrides {
		if o.Index < 0 || o.Index >= len(s) {
			return fmt.Errorf("param %q: index %d outside schema of %d parameters", o.Name, o.Index, len(s))
		}
		var err error
		if o.F32 != nil {
			err = target.SetF32(o.Index, float32(*o.F32))
		} else {
			err = target.SetI32(o.Index, int32(*o.I32))
		}
		if err != nil {
			return fmt.Errorf("param %q: %w", o.Name, err)
		}
	}
	return nil
}
