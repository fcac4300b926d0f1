package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-renderer/wasm"
)

// WazeroEngine owns a wazero runtime and the host modules registered in it.
type WazeroEngine struct {
	runtime      wazero.Runtime
	hostModuleMu sync.Mutex
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// CloseOnContextDone aborts a running guest call when its context is
	// cancelled or times out. Off by default.
	CloseOnContextDone bool
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.CloseOnContextDone {
			runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
		}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return &WazeroEngine{runtime: runtime}, nil
}

// Close releases the runtime and every module instantiated in it.
func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// HostFunc is a raw host function exported from a host module.
type HostFunc struct {
	Handler api.GoModuleFunc
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// RegisterHostModule instantiates a host module exporting funcs.
// A module already registered under name is kept, so repeated calls are no-ops.
// Safe for concurrent use.
func (e *WazeroEngine) RegisterHostModule(ctx context.Context, name string, funcs ...HostFunc) error {
	e.hostModuleMu.Lock()
	defer e.hostModuleMu.Unlock()

	if e.runtime.Module(name) != nil {
		return nil
	}

	builder := e.runtime.NewHostModuleBuilder(name)
	for _, f := range funcs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.Handler, f.Params, f.Results).
			Export(f.Name)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("instantiate host module %q: %w", name, err)
	}
	Logger().Debug("host module registered", zap.String("module", name), zap.Int("funcs", len(funcs)))
	return nil
}

// Compile validates and compiles a core module.
func (e *WazeroEngine) Compile(ctx context.Context, wasmBytes []byte) (*WazeroModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}

	// wazero does not expose the start section, so scan for it directly.
	hasStart, err := wasm.HasStart(wasmBytes)
	if err != nil {
		compiled.Close(ctx)
		return nil, fmt.Errorf("scan sections: %w", err)
	}

	return &WazeroModule{
		runtime:  e.runtime,
		compiled: compiled,
		hasStart: hasStart,
	}, nil
}

// Import describes one imported function or memory of a compiled module.
type Import struct {
	Module  string
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
	Kind    byte // wasm.KindFunc or wasm.KindMemory
}

func (i Import) String() string {
	return i.Module + "." + i.Name
}

// WazeroModule is a compiled core module
type WazeroModule struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	hasStart bool
}

// HasStart reports whether the module declares a start function.
func (m *WazeroModule) HasStart() bool {
	return m.hasStart
}

// Imports lists imported functions followed by imported memories.
// wazero does not expose imported globals or tables; those fail at instantiation.
func (m *WazeroModule) Imports() []Import {
	var imports []Import
	for _, def := range m.compiled.ImportedFunctions() {
		mod, name, _ := def.Import()
		imports = append(imports, Import{
			Module:  mod,
			Name:    name,
			Kind:    wasm.KindFunc,
			Params:  def.ParamTypes(),
			Results: def.ResultTypes(),
		})
	}
	for _, def := range m.compiled.ImportedMemories() {
		mod, name, _ := def.Import()
		imports = append(imports, Import{Module: mod, Name: name, Kind: wasm.KindMemory})
	}
	return imports
}

// ExportedFunction returns the definition of an exported function, or nil.
func (m *WazeroModule) ExportedFunction(name string) api.FunctionDefinition {
	return m.compiled.ExportedFunctions()[name]
}

// Instantiate creates an anonymous instance. Exported _start functions are
// not invoked.
func (m *WazeroModule) Instantiate(ctx context.Context) (*WazeroInstance, error) {
	modConfig := wazero.NewModuleConfig().
		WithName(""). // anonymous for parallel instantiation
		WithStartFunctions()

	instance, err := m.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		return nil, fmt.Errorf("instantiate failed: %w", err)
	}

	inst := &WazeroInstance{module: instance}
	if mem := instance.ExportedMemory(MemoryExport); mem != nil {
		inst.memory = NewMemory(mem)
	}
	return inst, nil
}

// Close releases the compiled code. Instances already created stay valid.
func (m *WazeroModule) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// MemoryExport is the export name under which guests expose linear memory.
const MemoryExport = "memory"

// WazeroInstance is a running module instance
type WazeroInstance struct {
	module api.Module
	memory *WazeroMemory
}

// Memory returns the exported "memory", or nil if the guest exports none.
func (i *WazeroInstance) Memory() *WazeroMemory {
	return i.memory
}

// Function returns an exported function, or nil.
func (i *WazeroInstance) Function(name string) api.Function {
	return i.module.ExportedFunction(name)
}

// Global returns an exported global, or nil.
func (i *WazeroInstance) Global(name string) api.Global {
	return i.module.ExportedGlobal(name)
}

// Closed reports whether the instance has been closed, including by a
// cancelled context when CloseOnContextDone is set.
func (i *WazeroInstance) Closed() bool {
	return i.module.IsClosed()
}

// Close releases the instance.
func (i *WazeroInstance) Close(ctx context.Context) error {
	return i.module.Close(ctx)
}
