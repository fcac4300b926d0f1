package runtime

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-renderer/engine"
	"github.com/wippyai/wasm-renderer/schema"
)

// Session is one loaded guest with its schema, parameter overrides and
// last captured output.
//
// A Session is not safe for concurrent use. Callers that share one across
// goroutines must serialize access; Player does this.
type Session struct {
	created   time.Time
	err       error
	callback  api.Function
	instance  *engine.WazeroInstance
	clock     func() time.Time
	logger    *zap.Logger
	tracer    trace.Tracer
	overrides map[int]uint64
	id        string
	output    string
	schema    schema.Schema
	frames    uint64
	failed    bool
}

// ID returns a unique identifier assigned at load time.
func (s *Session) ID() string {
	return s.id
}

// Schema returns a copy of the guest's parameter schema.
func (s *Session) Schema() schema.Schema {
	out := make(schema.Schema, len(s.schema))
	copy(out, s.schema)
	return out
}

// Created returns the session creation timestamp. Time parameters are
// measured from it.
func (s *Session) Created() time.Time {
	return s.created
}

// Output returns the last captured output without running the guest.
func (s *Session) Output() string {
	return s.output
}

// Failed reports whether the guest has trapped. Once true it stays true.
func (s *Session) Failed() bool {
	return s.failed
}

// Err returns the trap that failed the session, or nil.
func (s *Session) Err() error {
	return s.err
}

// Frames returns how many render steps invoked the guest.
func (s *Session) Frames() uint64 {
	return s.frames
}

// Close releases the guest instance. Later renders fail the session.
func (s *Session) Close(ctx context.Context) error {
	return s.instance.Close(ctx)
}
