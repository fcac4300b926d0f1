package runtime

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-renderer/errors"
)

// Render runs one frame at the runtime clock's current time.
func (s *Session) Render(ctx context.Context) string {
	return s.RenderAt(ctx, s.clock())
}

// RenderAt runs one frame as if rendered at now and returns the output.
//
// A failed session returns its last output without touching the guest.
// Otherwise the callback is invoked with marshaled parameters. If the guest
// calls render, the newest string becomes the output; if it does not, the
// previous output is kept. A trap fails the session permanently; anything
// rendered before the trap, including during the trapping call, is kept
// and replayed by every later frame.
func (s *Session) RenderAt(ctx context.Context, now time.Time) string {
	ctx, span := s.tracer.Start(ctx, "runtime.Session.Render",
		trace.WithAttributes(
			attribute.String("session", s.id),
			attribute.Int("arity", len(s.schema)),
		))
	defer span.End()

	if s.failed {
		span.SetAttributes(attribute.Bool("replayed", true))
		return s.output
	}

	params := s.Params(now)
	ctx, slot := withOutputSlot(ctx)

	s.frames++
	span.SetAttributes(attribute.Int64("frame", int64(s.frames)))

	if _, err := s.callback.Call(ctx, params...); err != nil {
		if slot.renders > 0 {
			s.output = slot.text
		}
		s.failed = true
		s.err = errors.RuntimeTrap(CallbackName, s.frames, err)
		s.logger.Error("guest trapped",
			zap.String("session", s.id),
			zap.Uint64("frame", s.frames),
			zap.Error(err))
		span.RecordError(s.err)
		span.SetStatus(codes.Error, "guest trapped")
		span.SetAttributes(attribute.Bool("failed", true))
		return s.output
	}

	if slot.renders > 0 {
		s.output = slot.text
	}
	span.SetAttributes(
		attribute.Int("renders", slot.renders),
		attribute.Int("render_failures", slot.failures),
	)
	return s.output
}
