package guest

import (
	"fmt"

	"github.com/wippyai/wasm-renderer/wasm"
)

// Default names and layout.
const (
	RenderModule = "env"
	RenderName   = "render"
	CallbackName = "request_animation_frame"
	SchemaGlobal = "SCHEMA"
	MemoryName   = "memory"

	DefaultDataBase = 1024
	pageSize        = 65536
)

// Config describes a guest module. The zero value builds a guest that
// exports memory and a zero-arity callback that renders nothing.
type Config struct {
	// Toggle replaces Renders and Cycle while an i32 callback parameter is nonzero.
	Toggle *Toggle

	// SchemaPointer overrides the SCHEMA global's value. Combined with Data
	// it points the schema at arbitrary bytes.
	SchemaPointer *uint32

	// RenderType overrides the signature of the imported env.render.
	// Renders, Cycle and Toggle must be empty when it is set.
	RenderType *wasm.FuncType

	// Schema is the JSON text stored NUL-terminated in memory and exported
	// through SCHEMA. Empty means no SCHEMA global unless SchemaPointer is set.
	Schema string

	// CallbackName overrides the exported callback name.
	CallbackName string

	// Params and Results are the callback's core signature.
	Params  []wasm.ValType
	Results []wasm.ValType

	// Renders are rendered in order on every call.
	Renders []string

	// Cycle renders Cycle[n % len(Cycle)] on the n-th call, counting from 0.
	Cycle []string

	// RawRenders are passed to render verbatim after the string renders.
	RawRenders []uint32

	// Data holds extra active data segments.
	Data []wasm.DataSegment

	// ExtraImports are imported after env.render.
	ExtraImports []Import

	// DataBase is where the generated strings start. Defaults to DefaultDataBase.
	DataBase uint32

	// MemoryPages is the minimum memory size. Grown to fit generated data.
	MemoryPages uint32

	// SchemaType overrides the SCHEMA global's value type (default i32).
	SchemaType wasm.ValType

	// TrapOnCall makes the n-th call (1-based) and every later call execute
	// unreachable. Zero never traps.
	TrapOnCall int32

	// RenderBeforeTrap renders Renders before trapping.
	RenderBeforeTrap bool

	NoMemoryExport bool
	NoCallback     bool
	StartFunction  bool
}

// Toggle is an alternative output selected by an i32 parameter.
type Toggle struct {
	Renders []string
	Param   uint32
}

// Import is an additional import declared by the guest.
// Memory imports ignore Params and Results.
type Import struct {
	Module  string
	Name    string
	Params  []wasm.ValType
	Results []wasm.ValType
	Memory  bool
}

// layout assigns NUL-terminated strings consecutive offsets.
type layout struct {
	data []byte
	base uint32
}

func (l *layout) add(s string) uint32 {
	ptr := l.base + uint32(len(l.data))
	l.data = append(l.data, s...)
	l.data = append(l.data, 0)
	return ptr
}

// Build encodes cfg as a core WebAssembly module.
func Build(cfg Config) ([]byte, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	base := cfg.DataBase
	if base == 0 {
		base = DefaultDataBase
	}
	lay := &layout{base: base}

	mod := &wasm.Module{}

	renderType := wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}}
	if cfg.RenderType != nil {
		renderType = *cfg.RenderType
	}
	mod.Types = append(mod.Types, renderType)
	mod.Imports = append(mod.Imports, wasm.Import{Module: RenderModule, Name: RenderName, Kind: wasm.KindFunc, TypeIdx: 0})

	importMemory := false
	numFuncImports := uint32(1)
	for _, imp := range cfg.ExtraImports {
		if imp.Memory {
			importMemory = true
			mod.Imports = append(mod.Imports, wasm.Import{
				Module: imp.Module,
				Name:   imp.Name,
				Kind:   wasm.KindMemory,
				Memory: &wasm.MemoryType{Min: 1},
			})
			continue
		}
		mod.Types = append(mod.Types, wasm.FuncType{Params: imp.Params, Results: imp.Results})
		mod.Imports = append(mod.Imports, wasm.Import{
			Module:  imp.Module,
			Name:    imp.Name,
			Kind:    wasm.KindFunc,
			TypeIdx: uint32(len(mod.Types) - 1),
		})
		numFuncImports++
	}

	var schemaPtr uint32
	hasSchema := cfg.Schema != "" || cfg.SchemaPointer != nil
	if cfg.Schema != "" {
		schemaPtr = lay.add(cfg.Schema)
	}
	if cfg.SchemaPointer != nil {
		schemaPtr = *cfg.SchemaPointer
	}

	renders := addAll(lay, cfg.Renders)
	cycle := addAll(lay, cfg.Cycle)
	var toggle []uint32
	if cfg.Toggle != nil {
		toggle = addAll(lay, cfg.Toggle.Renders)
	}

	if hasSchema {
		t := cfg.SchemaType
		if t == 0 {
			t = wasm.ValI32
		}
		mod.Globals = append(mod.Globals, wasm.Global{
			Type: wasm.GlobalType{ValType: t},
			Init: wasm.ConstExpr(t, int64(int32(schemaPtr))),
		})
		mod.Exports = append(mod.Exports, wasm.Export{Name: SchemaGlobal, Kind: wasm.KindGlobal, Idx: 0})
	}

	callsGlobal := uint32(len(mod.Globals))
	mod.Globals = append(mod.Globals, wasm.Global{
		Type: wasm.GlobalType{ValType: wasm.ValI32, Mutable: true},
		Init: wasm.ConstExpr(wasm.ValI32, 0),
	})

	if !importMemory {
		pages := cfg.MemoryPages
		if pages == 0 {
			pages = 1
		}
		end := uint64(base) + uint64(len(lay.data))
		for _, d := range cfg.Data {
			if e := uint64(d.Offset) + uint64(len(d.Init)); e > end {
				end = e
			}
		}
		if need := uint32((end + pageSize - 1) / pageSize); need > pages {
			pages = need
		}
		mod.Memories = append(mod.Memories, wasm.MemoryType{Min: pages})
	}
	if !cfg.NoMemoryExport {
		mod.Exports = append(mod.Exports, wasm.Export{Name: MemoryName, Kind: wasm.KindMemory, Idx: 0})
	}

	if !cfg.NoCallback {
		mod.Types = append(mod.Types, wasm.FuncType{Params: cfg.Params, Results: cfg.Results})
		mod.Funcs = append(mod.Funcs, uint32(len(mod.Types)-1))
		mod.Code = append(mod.Code, wasm.FuncBody{Code: callbackBody(cfg, callsGlobal, renders, cycle, toggle)})

		name := cfg.CallbackName
		if name == "" {
			name = CallbackName
		}
		mod.Exports = append(mod.Exports, wasm.Export{Name: name, Kind: wasm.KindFunc, Idx: numFuncImports})
	}

	if cfg.StartFunction {
		mod.Types = append(mod.Types, wasm.FuncType{})
		mod.Funcs = append(mod.Funcs, uint32(len(mod.Types)-1))
		mod.Code = append(mod.Code, wasm.FuncBody{Code: []byte{wasm.OpEnd}})
		start := numFuncImports + uint32(len(mod.Funcs)) - 1
		mod.Start = &start
	}

	if len(lay.data) > 0 {
		mod.Data = append(mod.Data, wasm.DataSegment{Offset: base, Init: lay.data})
	}
	mod.Data = append(mod.Data, cfg.Data...)

	return mod.Encode(), nil
}

// MustBuild is like Build but panics on an invalid Config.
func MustBuild(cfg Config) []byte {
	bin, err := Build(cfg)
	if err != nil {
		panic(err)
	}
	return bin
}

func validate(cfg Config) error {
	if cfg.RenderType != nil && (len(cfg.Renders) > 0 || len(cfg.Cycle) > 0 || len(cfg.RawRenders) > 0 || cfg.Toggle != nil) {
		return fmt.Errorf("guest: renders require the default render signature")
	}
	if cfg.Toggle != nil {
		if int(cfg.Toggle.Param) >= len(cfg.Params) || cfg.Params[cfg.Toggle.Param] != wasm.ValI32 {
			return fmt.Errorf("guest: toggle parameter %d is not an i32 parameter", cfg.Toggle.Param)
		}
		if cfg.NoCallback {
			return fmt.Errorf("guest: toggle requires a callback")
		}
	}
	if cfg.TrapOnCall < 0 {
		return fmt.Errorf("guest: negative TrapOnCall %d", cfg.TrapOnCall)
	}
	return nil
}

func addAll(l *layout, strs []string) []uint32 {
	ptrs := make([]uint32, len(strs))
	for i, s := range strs {
		ptrs[i] = l.add(s)
	}
	return ptrs
}

func callbackBody(cfg Config, calls uint32, renders, cycle, toggle []uint32) []byte {
	w := wasm.NewWriter()

	if cfg.TrapOnCall > 0 {
		w.Byte(wasm.OpGlobalGet)
		w.WriteU32(calls)
		w.Byte(wasm.OpI32Const)
		w.WriteS32(cfg.TrapOnCall - 1)
		w.Byte(wasm.OpI32GeS)
		w.Byte(wasm.OpIf, wasm.BlockEmpty)
		if cfg.RenderBeforeTrap {
			emitRenders(w, renders)
		}
		w.Byte(wasm.OpUnreachable)
		w.Byte(wasm.OpEnd)
	}

	if cfg.Toggle != nil {
		w.Byte(wasm.OpLocalGet)
		w.WriteU32(cfg.Toggle.Param)
		w.Byte(wasm.OpIf, wasm.BlockEmpty)
		emitRenders(w, toggle)
		w.Byte(wasm.OpElse)
		emitRenders(w, renders)
		emitCycle(w, calls, cycle)
		w.Byte(wasm.OpEnd)
	} else {
		emitRenders(w, renders)
		emitCycle(w, calls, cycle)
	}

	for _, ptr := range cfg.RawRenders {
		emitRender(w, ptr)
	}

	w.Byte(wasm.OpGlobalGet)
	w.WriteU32(calls)
	w.Byte(wasm.OpI32Const)
	w.WriteS32(1)
	w.Byte(wasm.OpI32Add)
	w.Byte(wasm.OpGlobalSet)
	w.WriteU32(calls)

	for _, t := range cfg.Results {
		expr := wasm.ConstExpr(t, 0)
		w.WriteBytes(expr[:len(expr)-1])
	}

	w.Byte(wasm.OpEnd)
	return w.Bytes()
}

// emitCycle renders cycle[calls % len(cycle)].
func emitCycle(w *wasm.Writer, calls uint32, cycle []uint32) {
	for k, ptr := range cycle {
		w.Byte(wasm.OpGlobalGet)
		w.WriteU32(calls)
		w.Byte(wasm.OpI32Const)
		w.WriteS32(int32(len(cycle)))
		w.Byte(wasm.OpI32RemU)
		w.Byte(wasm.OpI32Const)
		w.WriteS32(int32(k))
		w.Byte(wasm.OpI32Eq)
		w.Byte(wasm.OpIf, wasm.BlockEmpty)
		emitRender(w, ptr)
		w.Byte(wasm.OpEnd)
	}
}

func emitRenders(w *wasm.Writer, ptrs []uint32) {
	for _, ptr := range ptrs {
		emitRender(w, ptr)
	}
}

func emitRender(w *wasm.Writer, ptr uint32) {
	w.Byte(wasm.OpI32Const)
	w.WriteS32(int32(ptr))
	w.Byte(wasm.OpCall)
	w.WriteU32(0)
}
