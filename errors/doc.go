// Package errors provides structured error types for the renderer host.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Load failures carry enough context to diagnose an ABI mismatch:
// the export involved and, for signature mismatches, both type sequences.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseValidate, errors.KindMissingExport).
//		Export("memory").
//		Detail("module must export memory").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.SchemaMismatch("request_animation_frame", []string{"f64"}, []string{"i32"})
//	err := errors.OutOfBounds(offset, size)
//
// Sentinels match by kind with errors.Is:
//
//	if errors.Is(err, errors.ErrMissingExport) { ... }
package errors
