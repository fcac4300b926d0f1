package wasmrenderer

// Memory is the read-only view of a guest's linear memory the host needs.
type Memory interface {
	// Read returns length bytes at offset.
	Read(offset uint32, length uint32) ([]byte, error)
	// ReadCString decodes a NUL-terminated UTF-8 string starting at offset.
	ReadCString(offset uint32) (string, error)
	MemorySizer
}

// MemorySizer provides the current size of WASM linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}
