package runtime

import (
	"fmt"
	"time"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-renderer/errors"
	"github.com/wippyai/wasm-renderer/schema"
)

// Params builds the callback arguments for a frame rendered at now.
// Time is the elapsed seconds since the session was created, never negative.
// Range parameters use their override if set, otherwise the schema default.
// Values are never clamped to the declared range.
func (s *Session) Params(now time.Time) []uint64 {
	params := make([]uint64, len(s.schema))
	for i, p := range s.schema {
		switch v := p.(type) {
		case schema.Time:
			elapsed := now.Sub(s.created).Seconds()
			if elapsed < 0 {
				elapsed = 0
			}
			params[i] = api.EncodeF64(elapsed)
		case schema.RangeF32:
			if o, ok := s.overrides[i]; ok {
				params[i] = o
			} else {
				params[i] = api.EncodeF32(v.Default)
			}
		case schema.RangeI32:
			if o, ok := s.overrides[i]; ok {
				params[i] = o
			} else {
				params[i] = api.EncodeI32(v.Default)
			}
		}
	}
	return params
}

// SetF32 overrides the range_f32 parameter at index.
func (s *Session) SetF32(index int, v float32) error {
	if err := s.checkOverride(index, schema.TagRangeF32); err != nil {
		return err
	}
	s.overrides[index] = api.EncodeF32(v)
	return nil
}

// SetI32 overrides the range_i32 parameter at index.
func (s *Session) SetI32(index int, v int32) error {
	if err := s.checkOverride(index, schema.TagRangeI32); err != nil {
		return err
	}
	s.overrides[index] = api.EncodeI32(v)
	return nil
}

// ClearOverride restores the schema default at index.
func (s *Session) ClearOverride(index int) error {
	if index < 0 || index >= len(s.schema) {
		return errors.InvalidInput(errors.PhaseRuntime, fmt.Sprintf("parameter %d out of range (schema has %d)", index, len(s.schema)))
	}
	delete(s.overrides, index)
	return nil
}

// ResetOverrides restores every parameter to its schema default.
func (s *Session) ResetOverrides() {
	clear(s.overrides)
}

// Overrides returns the current overrides decoded as float32 or int32.
func (s *Session) Overrides() map[int]any {
	out := make(map[int]any, len(s.overrides))
	for i, raw := range s.overrides {
		switch s.schema[i].(type) {
		case schema.RangeF32:
			out[i] = api.DecodeF32(raw)
		case schema.RangeI32:
			out[i] = api.DecodeI32(raw)
		}
	}
	return out
}

func (s *Session) checkOverride(index int, want string) error {
	if index < 0 || index >= len(s.schema) {
		return errors.InvalidInput(errors.PhaseRuntime, fmt.Sprintf("parameter %d out of range (schema has %d)", index, len(s.schema)))
	}
	var got string
	switch s.schema[index].(type) {
	case schema.Time:
		got = schema.TagTime
	case schema.RangeF32:
		got = schema.TagRangeF32
	case schema.RangeI32:
		got = schema.TagRangeI32
	}
	if got != want {
		return errors.InvalidInput(errors.PhaseRuntime, fmt.Sprintf("parameter %d is %s, not %s", index, got, want))
	}
	return nil
}
