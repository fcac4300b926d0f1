// Package wasm provides the small slice of the WebAssembly binary format the
// renderer host needs outside the execution engine.
//
// # Scanning
//
// The loader inspects section headers before instantiation, for example to
// reject modules that declare a start function:
//
//	hasStart, err := wasm.HasStart(data)
//
// # Encoding
//
// Module is a flat, index-based description of a core module that encodes
// to a valid binary. It only covers what renderer guests use: function types,
// imports, functions, one memory, globals, exports, an optional start
// function, code and active data segments.
//
//	m := &wasm.Module{
//		Types:   []wasm.FuncType{{Params: []wasm.ValType{wasm.ValI32}}},
//		Imports: []wasm.Import{{Module: "env", Name: "render", Kind: wasm.KindFunc}},
//	}
//	bin := m.Encode()
//
// Instruction streams for function bodies are written with Writer.
package wasm
