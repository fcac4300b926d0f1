// Package runtime loads renderer guests and drives their frames.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	sess, err := rt.Load(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err) // categorized *errors.Error
//	}
//	defer sess.Close(ctx)
//
//	fmt.Println(sess.Render(ctx))
//
// # Guest ABI
//
// A guest is a core module that:
//
//	exports memory                  "memory"
//	exports function                "request_animation_frame"
//	optionally exports i32 global   "SCHEMA" -> NUL-terminated JSON schema
//	imports only                    env.render(i32) -> ()
//	declares no start function
//
// The callback's parameter types must equal the schema's value types, in
// order, and it must return nothing. Load checks these in a fixed order and
// reports the first violation:
//
//	Malformed         bytecode rejected by the engine
//	Instantiation     start function, foreign import or bad env.render type
//	MissingExport     no request_animation_frame, then no memory
//	Schema            SCHEMA not i32, bad pointer, no NUL, bad UTF-8, bad JSON
//	SchemaMismatch    callback params differ (both sequences reported)
//	InvalidSignature  callback returns values
//
// # Frames
//
// Each Render marshals the parameters (time since creation as f64, range
// overrides or defaults), calls the guest and captures whatever it last
// passed to render. Rendering nothing keeps the previous output. A trap
// marks the session failed for good: later frames replay the last output
// without calling the guest and Err reports the trap.
//
// render decoding failures (bad pointer, missing NUL, invalid UTF-8) do not
// trap. The output becomes a "<render error: ...>" placeholder and a warning
// is logged.
//
// # Overrides
//
//	sess.SetF32(1, 0.75)  // range_f32 at index 1
//	sess.SetI32(2, 3)     // range_i32 at index 2
//	sess.ClearOverride(1) // back to the default
//
// Overrides are type-checked against the schema but never clamped.
//
// # Concurrency
//
// Runtime.Load is safe for concurrent use. A Session is not; Player wraps
// one behind a mutex and swaps in newly loaded guests atomically.
//
// # Tracing
//
// Every frame runs inside a "runtime.Session.Render" span from the global
// OpenTelemetry tracer provider. Without a configured provider the spans
// are no-ops.
package runtime
