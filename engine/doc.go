// Package engine wraps wazero for running core WebAssembly guests.
//
// The engine package provides three main types:
//
//	WazeroEngine   - Owns the wazero runtime and its host modules
//	WazeroModule   - A compiled core module, inspected before instantiation
//	WazeroInstance - A running anonymous instance with exports
//
// # Instantiation Flow
//
//  1. WazeroEngine.RegisterHostModule() installs host functions once per runtime
//  2. WazeroEngine.Compile() validates bytecode and records whether a start
//     function is declared
//  3. WazeroModule.Imports() lists imported functions and memories so callers
//     can reject anything they do not provide before running guest code
//  4. WazeroModule.Instantiate() creates an anonymous WazeroInstance; any number
//     of instances of the same module may coexist in one runtime
//
// # Guest Memory
//
// WazeroMemory reads the guest's linear memory. ReadCString scans from an
// offset to the first NUL byte and validates UTF-8, returning a structured
// memory error when the offset is out of bounds, no terminator exists, or the
// bytes are not UTF-8:
//
//	text, err := inst.Memory().ReadCString(ptr)
//
// # Memory Limits
//
// Config.MemoryLimitPages caps every instance's memory in 64KiB pages:
//
//	eng, err := engine.NewWazeroEngineWithConfig(ctx, &engine.Config{
//	    MemoryLimitPages: 256, // 16MB
//	})
//
// # Cancellation
//
// By default a context passed to an export call is handed to wazero without
// close-on-done semantics, so a guest that never returns blocks the caller.
// Config.CloseOnContextDone makes wazero abort the call when the context ends.
package engine
