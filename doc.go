// Package wasmrenderer hosts WebAssembly frame renderers.
//
// A renderer guest is a core WebAssembly module that describes its own
// parameters and produces one UTF-8 string (typically SVG) per animation
// frame. The host loads the guest, checks it against a small ABI, feeds it
// wall-clock time and user-set parameters, and keeps the newest string the
// guest rendered.
//
// # Architecture Overview
//
//	wasmrenderer/        Root package with the guest Memory interface
//	├── runtime/         Runtime, Session and Player: load, validate, render frames
//	├── engine/          Low-level wazero integration and guest memory reads
//	├── schema/          Parameter schema model, JSON wire format, WIT names
//	├── errors/          Structured error types for debugging
//	├── guest/           Builds reference guests without an external toolchain
//	├── wasm/            Core WASM binary encoding and section scanning
//	├── record/          SQLite recording of rendered frames
//	├── telemetry/       OpenTelemetry tracer setup
//	└── cmd/render/      Command line player with an interactive TUI
//
// # Guest ABI
//
// A guest must:
//
//   - export its linear memory as "memory"
//   - export "request_animation_frame" taking the schema's parameters and
//     returning nothing
//   - optionally export an i32 global "SCHEMA" holding the address of a
//     NUL-terminated JSON array describing the parameters
//   - import nothing except env.render(i32), which receives the address of a
//     NUL-terminated UTF-8 string
//
// Schema entries are {"type":"time"}, passed as f64 elapsed seconds,
// {"type":"range_f32","min":..,"max":..,"default":..} passed as f32 and
// {"type":"range_i32",...} passed as i32.
//
// # Quick Start
//
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
//	sess.SetF32(1, 0.75)
//	svg := sess.Render(ctx)
//
// # Failure Model
//
// Load failures are returned and nothing is kept. Once loaded, a guest that
// traps is marked failed for good: every later Render returns the last
// output captured before the trap without running the guest again. A render
// call with a bad pointer stores a placeholder string and the frame goes on.
//
// # Thread Safety
//
// Runtime is safe for concurrent use. Session is NOT thread-safe and should
// be used by a single goroutine; Player wraps one Session behind a mutex and
// swaps in newly loaded guests atomically.
package wasmrenderer
