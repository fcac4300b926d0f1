package schema

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"
)

// WitType returns the WIT primitive a parameter is exposed as.
func WitType(p Parameter) wit.Type {
	switch p.(type) {
	case Time:
		return wit.F64{}
	case RangeF32:
		return wit.F32{}
	case RangeI32:
		return wit.S32{}
	default:
		panic(fmt.Sprintf("schema: unknown parameter variant %T", p))
	}
}

// WitTypeName returns the WIT spelling of a primitive type.
func WitTypeName(t wit.Type) string {
	switch t.(type) {
	case wit.F64:
		return "f64"
	case wit.F32:
		return "f32"
	case wit.S32:
		return "s32"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// Signature renders the callback signature WIT-style, for example
// "request-animation-frame: func(p0: f64, p1: f32)".
func Signature(name string, s Schema) string {
	params := make([]string, len(s))
	for i, p := range s {
		params[i] = fmt.Sprintf("p%d: %s", i, WitTypeName(WitType(p)))
	}
	return strings.ReplaceAll(name, "_", "-") + ": func(" + strings.Join(params, ", ") + ")"
}

// Describe returns a short human-readable description of one parameter.
func Describe(p Parameter) string {
	switch v := p.(type) {
	case Time:
		return "time (elapsed seconds)"
	case RangeF32:
		return fmt.Sprintf("range_f32 [%g, %g] default %g", v.Min, v.Max, v.Default)
	case RangeI32:
		return fmt.Sprintf("range_i32 [%d, %d] default %d", v.Min, v.Max, v.Default)
	default:
		return fmt.Sprintf("%T", p)
	}
}
