package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-renderer/errors"
	"github.com/wippyai/wasm-renderer/guest"
	"github.com/wippyai/wasm-renderer/record"
	"github.com/wippyai/wasm-renderer/runtime"
)

func writeGuest(t *testing.T, cfg guest.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guest.wasm")
	require.NoError(t, os.WriteFile(path, guest.MustBuild(cfg), 0o644))
	return path
}

func TestRun_HelloWorld(t *testing.T) {
	path := writeGuest(t, guest.Config{Renders: []string{"Hello, world!"}})

	var out bytes.Buffer
	err := run(context.Background(), Config{WasmFile: path, Frames: 2}, zap.NewNop(), &out)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!\nHello, world!\n", out.String())
}

func TestRun_Demo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.wasm")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), Config{DemoOut: path}, zap.NewNop(), &out))
	assert.Contains(t, out.String(), "Wrote demo guest")

	out.Reset()
	require.NoError(t, run(context.Background(), Config{WasmFile: path, Frames: 2}, zap.NewNop(), &out))
	assert.Equal(t, "[o           ]\n[ o          ]\n", out.String())
}

func TestRun_DemoToggleOverride(t *testing.T) {
	path := writeGuest(t, guest.Demo())
	params := writeHCL(t, `
param "boxed" {
  index = 2
  i32   = 1
}
`)

	var out bytes.Buffer
	err := run(context.Background(), Config{WasmFile: path, ParamsFile: params, Frames: 1}, zap.NewNop(), &out)
	require.NoError(t, err)
	assert.Equal(t, "+------------+\n", out.String())
}

func TestRun_Describe(t *testing.T) {
	path := writeGuest(t, guest.Demo())

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), Config{WasmFile: path, Describe: true}, zap.NewNop(), &out))

	text := out.String()
	assert.Contains(t, text, "request-animation-frame: func(p0: f64, p1: f32, p2: s32)")
	assert.Contains(t, text, "p1: range_f32 [0, 1] default 0.5")
}

func TestRun_JSONSchema(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), Config{JSONSchema: true}, zap.NewNop(), &out))
	assert.Contains(t, out.String(), `"range_f32"`)
}

func TestRun_LoadError(t *testing.T) {
	path := writeGuest(t, guest.Config{NoMemoryExport: true})

	err := run(context.Background(), Config{WasmFile: path, Frames: 1}, zap.NewNop(), &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingExport)
}

func TestRun_TrapFreezesOutput(t *testing.T) {
	path := writeGuest(t, guest.Config{Cycle: []string{"a", "b", "c"}, TrapOnCall: 2})

	var out bytes.Buffer
	err := run(context.Background(), Config{WasmFile: path, Frames: 3}, zap.NewNop(), &out)
	assert.ErrorIs(t, err, errors.ErrRuntimeTrap)
	assert.Equal(t, "a\na\na\n", out.String())
}

func TestRun_OutDirDataURI(t *testing.T) {
	path := writeGuest(t, guest.Config{Renders: []string{"<svg>#1</svg>"}})
	dir := filepath.Join(t.TempDir(), "frames")

	err := run(context.Background(), Config{WasmFile: path, Frames: 2, OutDir: dir, DataURI: true}, zap.NewNop(), &bytes.Buffer{})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "frame-000001.uri", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "data:image/svg+xml,"))
	assert.NotContains(t, string(data), "#")
}

func TestFrameFileName(t *testing.T) {
	assert.Equal(t, "frame-000003.svg", frameFileName(3, "  <svg/>", false))
	assert.Equal(t, "frame-000003.txt", frameFileName(3, "text", false))
	assert.Equal(t, "frame-000003.uri", frameFileName(3, "<svg/>", true))
}

func TestDrive_Records(t *testing.T) {
	ctx := context.Background()
	rt, err := runtime.New(ctx)
	require.NoError(t, err)
	defer rt.Close(ctx)

	sess, err := rt.Load(ctx, guest.MustBuild(guest.Config{Cycle: []string{"x", "y"}, TrapOnCall: 3}))
	require.NoError(t, err)

	store, err := record.Open(filepath.Join(t.TempDir(), "frames.db"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.CreateSession(ctx, record.Session{ID: sess.ID(), CreatedAt: sess.Created()}))

	var out bytes.Buffer
	cfg := Config{Frames: 4}
	err = drive(ctx, sess, cfg, newFrameWriter(&out, cfg), store, zap.NewNop())
	assert.ErrorIs(t, err, errors.ErrRuntimeTrap)

	frames, err := store.ListFrames(ctx, sess.ID())
	require.NoError(t, err)
	require.Len(t, frames, 4)

	var outputs []string
	var failed []bool
	for _, f := range frames {
		outputs = append(outputs, f.Output)
		failed = append(failed, f.Failed)
	}
	assert.Equal(t, []string{"x", "y", "y", "y"}, outputs)
	assert.Equal(t, []bool{false, false, true, true}, failed)
}
