package guest

import (
	"bytes"
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-renderer/wasm"
)

// harness runs a built guest with an env.render that records every string.
type harness struct {
	mod      api.Module
	rendered []string
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	ctx := context.Background()

	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })

	h := &harness{}
	_, err := r.NewHostModuleBuilder(RenderModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, m api.Module, stack []uint64) {
			ptr := api.DecodeU32(stack[0])
			mem := m.ExportedMemory(MemoryName)
			data, _ := mem.Read(ptr, mem.Size()-ptr)
			end := bytes.IndexByte(data, 0)
			h.rendered = append(h.rendered, string(data[:end]))
		}), []api.ValueType{api.ValueTypeI32}, nil).
		Export(RenderName).
		Instantiate(ctx)
	if err != nil {
		t.Fatalf("host module: %v", err)
	}

	bin, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h.mod, err = r.InstantiateWithConfig(ctx, bin, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	return h
}

func (h *harness) call(t *testing.T, params ...uint64) error {
	t.Helper()
	h.rendered = nil
	_, err := h.mod.ExportedFunction(CallbackName).Call(context.Background(), params...)
	return err
}

func TestBuild_HelloWorld(t *testing.T) {
	h := newHarness(t, Config{
		Schema:   "[]",
		Renders:  []string{"Hello, world!"},
		DataBase: 1048576,
	})

	schema := h.mod.ExportedGlobal(SchemaGlobal)
	if schema == nil {
		t.Fatal("SCHEMA not exported")
	}
	if got := api.DecodeU32(schema.Get()); got != 1048576 {
		t.Errorf("expected SCHEMA at 1048576, got %d", got)
	}

	if err := h.call(t); err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(h.rendered) != 1 || h.rendered[0] != "Hello, world!" {
		t.Errorf("unexpected renders %q", h.rendered)
	}
}

func TestBuild_Signature(t *testing.T) {
	h := newHarness(t, Config{
		Params:  []wasm.ValType{wasm.ValF64, wasm.ValF32, wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI64},
	})
	def := h.mod.ExportedFunction(CallbackName).Definition()

	want := []api.ValueType{api.ValueTypeF64, api.ValueTypeF32, api.ValueTypeI32}
	if !equalTypes(def.ParamTypes(), want) {
		t.Errorf("params: expected %v, got %v", want, def.ParamTypes())
	}
	if !equalTypes(def.ResultTypes(), []api.ValueType{api.ValueTypeI64}) {
		t.Errorf("results: got %v", def.ResultTypes())
	}
}

func TestBuild_Cycle(t *testing.T) {
	h := newHarness(t, Config{Cycle: []string{"a", "b", "c"}})

	var got []string
	for i := 0; i < 5; i++ {
		if err := h.call(t); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		got = append(got, h.rendered...)
	}
	want := []string{"a", "b", "c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestBuild_Toggle(t *testing.T) {
	h := newHarness(t, Config{
		Params:  []wasm.ValType{wasm.ValF32, wasm.ValI32},
		Renders: []string{"off"},
		Toggle:  &Toggle{Param: 1, Renders: []string{"on"}},
	})

	if err := h.call(t, api.EncodeF32(0.5), api.EncodeI32(0)); err != nil {
		t.Fatal(err)
	}
	if len(h.rendered) != 1 || h.rendered[0] != "off" {
		t.Errorf("expected off, got %q", h.rendered)
	}

	if err := h.call(t, api.EncodeF32(0.5), api.EncodeI32(1)); err != nil {
		t.Fatal(err)
	}
	if len(h.rendered) != 1 || h.rendered[0] != "on" {
		t.Errorf("expected on, got %q", h.rendered)
	}
}

func TestBuild_TrapOnCall(t *testing.T) {
	h := newHarness(t, Config{Renders: []string{"ok"}, TrapOnCall: 2})

	if err := h.call(t); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := h.call(t); err == nil {
		t.Fatal("expected second call to trap")
	}
	if len(h.rendered) != 0 {
		t.Errorf("trapping call rendered %q", h.rendered)
	}
}

func TestBuild_RenderBeforeTrap(t *testing.T) {
	h := newHarness(t, Config{Renders: []string{"partial"}, TrapOnCall: 1, RenderBeforeTrap: true})

	if err := h.call(t); err == nil {
		t.Fatal("expected trap")
	}
	if len(h.rendered) != 1 || h.rendered[0] != "partial" {
		t.Errorf("expected render before trap, got %q", h.rendered)
	}
}

func TestBuild_Demo(t *testing.T) {
	h := newHarness(t, Demo())

	if err := h.call(t, api.EncodeF64(0), api.EncodeF32(0.5), api.EncodeI32(0)); err != nil {
		t.Fatal(err)
	}
	if len(h.rendered) != 1 || h.rendered[0] != demoFrame(0, 12) {
		t.Errorf("unexpected first frame %q", h.rendered)
	}
	if err := h.call(t, api.EncodeF64(0), api.EncodeF32(0.5), api.EncodeI32(1)); err != nil {
		t.Fatal(err)
	}
	if len(h.rendered) != 1 || h.rendered[0] != "+------------+" {
		t.Errorf("unexpected toggled frame %q", h.rendered)
	}
}

func TestBuild_Sections(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantStart bool
	}{
		{"plain", Config{}, false},
		{"start function", Config{StartFunction: true}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hasStart, err := wasm.HasStart(MustBuild(tc.cfg))
			if err != nil {
				t.Fatalf("HasStart: %v", err)
			}
			if hasStart != tc.wantStart {
				t.Errorf("expected start=%v, got %v", tc.wantStart, hasStart)
			}
		})
	}
}

func TestBuild_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"toggle out of range", Config{Toggle: &Toggle{Param: 0}}},
		{"toggle on f32", Config{Params: []wasm.ValType{wasm.ValF32}, Toggle: &Toggle{Param: 0}}},
		{"renders with custom render type", Config{RenderType: &wasm.FuncType{}, Renders: []string{"x"}}},
		{"negative trap", Config{TrapOnCall: -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Build(tc.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func equalTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
