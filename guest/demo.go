package guest

import (
	"strings"

	"github.com/wippyai/wasm-renderer/wasm"
)

// DemoSchema is the parameter schema of the Demo guest.
const DemoSchema = `[{"type":"time"},{"type":"range_f32","min":0,"max":1,"default":0.5},{"type":"range_i32","min":0,"max":1,"default":0}]`

// Demo returns the configuration of a small animated guest: a bouncing
// marker that switches to a boxed frame while its i32 parameter is set.
func Demo() Config {
	const width = 12

	var frames []string
	for i := 0; i < width; i++ {
		frames = append(frames, demoFrame(i, width))
	}
	for i := width - 2; i > 0; i-- {
		frames = append(frames, demoFrame(i, width))
	}

	return Config{
		Schema: DemoSchema,
		Params: []wasm.ValType{wasm.ValF64, wasm.ValF32, wasm.ValI32},
		Cycle:  frames,
		Toggle: &Toggle{
			Param:   2,
			Renders: []string{"+" + strings.Repeat("-", width) + "+"},
		},
	}
}

func demoFrame(pos, width int) string {
	return "[" + strings.Repeat(" ", pos) + "o" + strings.Repeat(" ", width-pos-1) + "]"
}
