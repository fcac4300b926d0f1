// Package guest builds reference renderer guests as core WebAssembly binaries.
//
// A renderer guest imports env.render(i32), exports its linear memory as
// "memory", exports a request_animation_frame callback and, optionally, an
// i32 global SCHEMA pointing at a NUL-terminated JSON parameter schema.
// Build produces such modules from a declarative Config, which makes it
// possible to exercise every load-time and frame-time path of the host
// without an external toolchain:
//
//	bin := guest.MustBuild(guest.Config{
//	    Schema:   `[{"type":"time"}]`,
//	    Params:   []wasm.ValType{wasm.ValF64},
//	    Renders:  []string{"Hello, world!"},
//	})
//
// Demo returns a small animated guest used by the CLI.
package guest
