package engine

import (
	"bytes"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"

	wasmrenderer "github.com/wippyai/wasm-renderer"
	"github.com/wippyai/wasm-renderer/errors"
)

var _ wasmrenderer.Memory = (*WazeroMemory)(nil)

// WazeroMemory reads a guest's linear memory.
type WazeroMemory struct {
	mem api.Memory
}

// NewMemory wraps a wazero memory.
func NewMemory(mem api.Memory) *WazeroMemory {
	return &WazeroMemory{mem: mem}
}

// ModuleMemory returns the exported memory of mod, or nil.
// Host functions use it to reach the calling guest's memory.
func ModuleMemory(mod api.Module) *WazeroMemory {
	if mod == nil {
		return nil
	}
	mem := mod.ExportedMemory(MemoryExport)
	if mem == nil {
		return nil
	}
	return NewMemory(mem)
}

// Size returns the current memory size in bytes.
func (m *WazeroMemory) Size() uint32 {
	return m.mem.Size()
}

// Read returns a view of length bytes at offset. The view aliases guest
// memory and is only valid until the guest runs again.
func (m *WazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(offset, m.mem.Size())
	}
	return data, nil
}

// ReadCString decodes the NUL-terminated UTF-8 string starting at offset.
// The result is copied out of guest memory.
func (m *WazeroMemory) ReadCString(offset uint32) (string, error) {
	size := m.mem.Size()
	if offset >= size {
		return "", errors.OutOfBounds(offset, size)
	}
	tail, ok := m.mem.Read(offset, size-offset)
	if !ok {
		return "", errors.OutOfBounds(offset, size)
	}
	end := bytes.IndexByte(tail, 0)
	if end < 0 {
		return "", errors.Unterminated(offset)
	}
	raw := tail[:end]
	if !utf8.Valid(raw) {
		return "", errors.InvalidUTF8(offset, raw)
	}
	return string(raw), nil
}
