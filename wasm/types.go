package wasm

// Module is an encodable description of a core WebAssembly module.
// Function indices count imported functions first, then Funcs in order.
type Module struct {
	Start    *uint32
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // type indices for declared functions
	Memories []MemoryType
	Globals  []Global
	Exports  []Export
	Code     []FuncBody
	Data     []DataSegment
}

// FuncType represents a WebAssembly function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// ValType represents a WebAssembly value type.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return "unknown"
	}
}

// Import is an imported function, memory or global.
// TypeIdx is used for functions, Memory and Global for the other kinds.
type Import struct {
	Memory  *MemoryType
	Global  *GlobalType
	Module  string
	Name    string
	TypeIdx uint32
	Kind    byte
}

// MemoryType describes memory limits in 64KiB pages.
type MemoryType struct {
	Max *uint32
	Min uint32
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValType
	Mutable bool
}

// Global is a module-defined global. Init is a constant expression
// including its terminating end opcode.
type Global struct {
	Init []byte
	Type GlobalType
}

// Export exposes a function, memory or global under Name.
type Export struct {
	Name string
	Idx  uint32
	Kind byte
}

// LocalEntry declares Count locals of one type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// FuncBody is a function's locals and instruction stream.
// Code must end with OpEnd.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// DataSegment is an active data segment copied into memory 0 at Offset.
type DataSegment struct {
	Init   []byte
	Offset uint32
}
