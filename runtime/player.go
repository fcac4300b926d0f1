package runtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-renderer/errors"
	"github.com/wippyai/wasm-renderer/schema"
)

// Player serializes access to the current Session and replaces it
// atomically when a new guest is loaded. It is safe for concurrent use.
type Player struct {
	runtime *Runtime
	current *Session
	mu      sync.Mutex
}

// NewPlayer creates a player with no session loaded.
func NewPlayer(r *Runtime) *Player {
	return &Player{runtime: r}
}

// Load validates a guest off-lock and, on success, swaps it in and closes
// the previous session. On failure the current session keeps running.
func (p *Player) Load(ctx context.Context, wasmBytes []byte) (*Session, error) {
	next, err := p.runtime.Load(ctx, wasmBytes)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	prev := p.current
	p.current = next
	p.mu.Unlock()

	if prev != nil {
		if err := prev.Close(ctx); err != nil {
			p.runtime.logger.Warn("close replaced session", zap.String("session", prev.id), zap.Error(err))
		}
	}
	return next, nil
}

// Frame renders one frame of the current session.
func (p *Player) Frame(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return "", errors.NotInitialized(errors.PhaseRuntime, "session")
	}
	return p.current.Render(ctx), nil
}

// SetF32 overrides a range_f32 parameter of the current session.
func (p *Player) SetF32(index int, v float32) error {
	return p.with(func(s *Session) error { return s.SetF32(index, v) })
}

// SetI32 overrides a range_i32 parameter of the current session.
func (p *Player) SetI32(index int, v int32) error {
	return p.with(func(s *Session) error { return s.SetI32(index, v) })
}

// ResetOverrides restores the current session's defaults.
func (p *Player) ResetOverrides() error {
	return p.with(func(s *Session) error {
		s.ResetOverrides()
		return nil
	})
}

// Schema returns the current session's schema.
func (p *Player) Schema() (schema.Schema, error) {
	var out schema.Schema
	err := p.with(func(s *Session) error {
		out = s.Schema()
		return nil
	})
	return out, err
}

// Status reports the current session's frame count and failure.
func (p *Player) Status() (frames uint64, failed bool, err error) {
	err = p.with(func(s *Session) error {
		frames, failed = s.Frames(), s.Failed()
		return nil
	})
	return frames, failed, err
}

// Close closes the current session, if any.
func (p *Player) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return nil
	}
	err := p.current.Close(ctx)
	p.current = nil
	return err
}

func (p *Player) with(fn func(*Session) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return errors.NotInitialized(errors.PhaseRuntime, "session")
	}
	return fn(p.current)
}
