package schema

import "fmt"

// Lint reports inconsistent range declarations. Warnings are advisory:
// the host passes defaults and overrides through without clamping.
func Lint(s Schema) []string {
	var warnings []string
	for i, p := range s {
		switch v := p.(type) {
		case RangeF32:
			if v.Min > v.Max {
				warnings = append(warnings, fmt.Sprintf("parameter %d: min %g is greater than max %g", i, v.Min, v.Max))
			} else if v.Default < v.Min || v.Default > v.Max {
				warnings = append(warnings, fmt.Sprintf("parameter %d: default %g outside [%g, %g]", i, v.Default, v.Min, v.Max))
			}
		case RangeI32:
			if v.Min > v.Max {
				warnings = append(warnings, fmt.Sprintf("parameter %d: min %d is greater than max %d", i, v.Min, v.Max))
			} else if v.Default < v.Min || v.Default > v.Max {
				warnings = append(warnings, fmt.Sprintf("parameter %d: default %d outside [%d, %d]", i, v.Default, v.Min, v.Max))
			}
		}
	}
	return warnings
}
