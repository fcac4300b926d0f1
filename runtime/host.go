package runtime

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-renderer/engine"
	"github.com/wippyai/wasm-renderer/errors"
)

// outputKey carries the invocation's output slot through the context.
type outputKey struct{}

// outputSlot receives render calls made during one callback invocation.
// Only the invocation that created it writes to it.
type outputSlot struct {
	text     string
	renders  int
	failures int
}

func withOutputSlot(ctx context.Context) (context.Context, *outputSlot) {
	slot := &outputSlot{}
	return context.WithValue(ctx, outputKey{}, slot), slot
}

func slotFrom(ctx context.Context) *outputSlot {
	slot, _ := ctx.Value(outputKey{}).(*outputSlot)
	return slot
}

// renderPlaceholder is stored instead of the guest's text when a render
// call cannot be decoded.
func renderPlaceholder(err error) string {
	return "<render error: " + err.Error() + ">"
}

// renderImport implements env.render(i32). The argument is an offset into
// the calling guest's exported memory holding a NUL-terminated UTF-8 string.
// Decoding failures store a placeholder and never abort the guest.
func renderImport(log *zap.Logger) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		ptr := api.DecodeU32(stack[0])

		slot := slotFrom(ctx)
		if slot == nil {
			log.Warn("render called outside a frame", zap.Uint32("ptr", ptr))
			return
		}
		slot.renders++

		mem := engine.ModuleMemory(mod)
		if mem == nil {
			err := errors.RenderImport(ptr, errors.NotInitialized(errors.PhaseMemory, "memory export"))
			slot.failures++
			slot.text = renderPlaceholder(err)
			log.Warn("render import failed", zap.Error(err))
			return
		}

		text, err := mem.ReadCString(ptr)
		if err != nil {
			rerr := errors.RenderImport(ptr, err)
			slot.failures++
			slot.text = renderPlaceholder(rerr)
			log.Warn("render import failed", zap.Error(rerr))
			return
		}
		slot.text = text
	}
}
