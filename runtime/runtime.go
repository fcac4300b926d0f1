package runtime

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-renderer/engine"
	"github.com/wippyai/wasm-renderer/errors"
)

// ABI names shared by every guest.
const (
	RenderModule = "env"
	RenderName   = "render"
	CallbackName = "request_animation_frame"
	SchemaGlobal = "SCHEMA"
	MemoryExport = engine.MemoryExport
)

const tracerName = "github.com/wippyai/wasm-renderer/runtime"

// Config holds configuration for runtime creation
type Config struct {
	// Logger receives load diagnostics, render import failures and traps.
	// Defaults to the package Logger.
	Logger *zap.Logger

	// Clock supplies timestamps for session creation and frames.
	// Defaults to time.Now.
	Clock func() time.Time

	// MemoryLimitPages caps guest memory in 64KiB pages. 0 means no extra limit.
	MemoryLimitPages uint32

	// CloseOnContextDone lets a cancelled or expired context abort a running
	// frame. The session then fails like any other trap. Off by default, so a
	// guest that never returns blocks Render.
	CloseOnContextDone bool
}

// Runtime loads renderer guests. It is safe for concurrent Load calls;
// every Session it returns shares one engine and one env host module.
type Runtime struct {
	engine *engine.WazeroEngine
	logger *zap.Logger
	clock  func() time.Time
	tracer trace.Tracer
}

// New creates a runtime with default configuration.
func New(ctx context.Context) (*Runtime, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates a runtime and registers the env.render import.
func NewWithConfig(ctx context.Context, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	eng, err := engine.NewWazeroEngineWithConfig(ctx, &engine.Config{
		MemoryLimitPages:   cfg.MemoryLimitPages,
		CloseOnContextDone: cfg.CloseOnContextDone,
	})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInstantiation, err, "create engine")
	}

	r := &Runtime{
		engine: eng,
		logger: cfg.Logger,
		clock:  cfg.Clock,
		tracer: otel.Tracer(tracerName),
	}
	if r.logger == nil {
		r.logger = Logger()
	}
	if r.clock == nil {
		r.clock = time.Now
	}

	err = eng.RegisterHostModule(ctx, RenderModule, engine.HostFunc{
		Name:    RenderName,
		Handler: renderImport(r.logger),
		Params:  []api.ValueType{api.ValueTypeI32},
	})
	if err != nil {
		eng.Close(ctx)
		return nil, errors.Wrap(errors.PhaseLink, errors.KindInstantiation, err, "register env.render")
	}

	return r, nil
}

// Close releases the engine. Sessions loaded from this runtime stop working;
// their next Render fails and replays the last output.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}
