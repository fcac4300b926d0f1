package wasm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrNotWasm is returned when the input lacks the WebAssembly preamble.
var ErrNotWasm = errors.New("not a WebAssembly binary")

// SectionHeader locates one section within a binary.
type SectionHeader struct {
	Offset int // offset of the section content
	Size   uint32
	ID     byte
}

// Sections walks the section headers of a core module binary without
// decoding section contents.
func Sections(data []byte) ([]SectionHeader, error) {
	if len(data) < 8 {
		return nil, ErrNotWasm
	}
	if binary.LittleEndian.Uint32(data[0:4]) != Magic {
		return nil, ErrNotWasm
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != Version {
		return nil, fmt.Errorf("unsupported binary version %d", v)
	}

	r := bytes.NewReader(data[8:])
	var headers []SectionHeader
	for r.Len() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		size, err := ReadLEB128u(r)
		if err != nil {
			return nil, fmt.Errorf("section %d size: %w", id, err)
		}
		offset := len(data) - r.Len()
		if uint64(size) > uint64(r.Len()) {
			return nil, fmt.Errorf("section %d: size %d exceeds remaining %d bytes", id, size, r.Len())
		}
		headers = append(headers, SectionHeader{ID: id, Offset: offset, Size: size})
		if _, err := r.Seek(int64(size), 1); err != nil {
			return nil, err
		}
	}
	return headers, nil
}

// HasStart reports whether the binary declares a start function.
func HasStart(data []byte) (bool, error) {
	headers, err := Sections(data)
	if err != nil {
		return false, err
	}
	for _, h := range headers {
		if h.ID == SectionStart {
			return true, nil
		}
	}
	return false, nil
}
