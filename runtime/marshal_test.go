package runtime

import (
	"context"
	stderrors "errors"
	"math"
	"testing"
	"time"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-renderer/errors"
	"github.com/wippyai/wasm-renderer/guest"
	"github.com/wippyai/wasm-renderer/wasm"
)

const fullSchema = `[{"type":"time"},{"type":"range_f32","min":0,"max":1,"default":0.5},{"type":"range_i32","min":0,"max":100,"default":50}]`

func loadFullSchema(t *testing.T, clock *fakeClock) *Session {
	t.Helper()
	rt := newTestRuntime(t, &Config{Clock: clock.Now})
	sess := mustLoad(t, rt, guest.Config{
		Schema: fullSchema,
		Params: []wasm.ValType{wasm.ValF64, wasm.ValF32, wasm.ValI32},
	})
	t.Cleanup(func() { sess.Close(context.Background()) })
	return sess
}

func TestParams_Defaults(t *testing.T) {
	clock := newFakeClock()
	sess := loadFullSchema(t, clock)

	params := sess.Params(clock.Now().Add(2500 * time.Millisecond))
	if len(params) != 3 {
		t.Fatalf("expected 3 params, got %d", len(params))
	}
	if got := api.DecodeF64(params[0]); got != 2.5 {
		t.Errorf("time: expected 2.5, got %v", got)
	}
	if got := api.DecodeF32(params[1]); got != 0.5 {
		t.Errorf("f32: expected 0.5, got %v", got)
	}
	if got := api.DecodeI32(params[2]); got != 50 {
		t.Errorf("i32: expected 50, got %v", got)
	}
}

func TestParams_TimeMonotonic(t *testing.T) {
	clock := newFakeClock()
	sess := loadFullSchema(t, clock)

	prev := -1.0
	for i := 0; i < 10; i++ {
		clock.Advance(16 * time.Millisecond)
		got := api.DecodeF64(sess.Params(clock.Now())[0])
		if got < prev {
			t.Fatalf("time went backwards: %v after %v", got, prev)
		}
		prev = got
	}

	if got := api.DecodeF64(sess.Params(sess.Created().Add(-time.Hour))[0]); got != 0 {
		t.Errorf("time before creation must clamp to 0, got %v", got)
	}
}

func TestParams_Overrides(t *testing.T) {
	clock := newFakeClock()
	sess := loadFullSchema(t, clock)

	if err := sess.SetF32(1, 0.75); err != nil {
		t.Fatal(err)
	}
	if err := sess.SetI32(2, -7); err != nil {
		t.Fatal(err)
	}

	params := sess.Params(clock.Now())
	if got := api.DecodeF32(params[1]); got != 0.75 {
		t.Errorf("f32 override: got %v", got)
	}
	if got := api.DecodeI32(params[2]); got != -7 {
		t.Errorf("i32 override outside range must pass through unclamped: got %v", got)
	}

	overrides := sess.Overrides()
	if len(overrides) != 2 || overrides[1] != float32(0.75) || overrides[2] != int32(-7) {
		t.Errorf("unexpected overrides %v", overrides)
	}

	if err := sess.ClearOverride(1); err != nil {
		t.Fatal(err)
	}
	if got := api.DecodeF32(sess.Params(clock.Now())[1]); got != 0.5 {
		t.Errorf("cleared override must restore default, got %v", got)
	}

	sess.ResetOverrides()
	if len(sess.Overrides()) != 0 {
		t.Error("expected no overrides after reset")
	}
	if got := api.DecodeI32(sess.Params(clock.Now())[2]); got != 50 {
		t.Errorf("reset must restore default, got %v", got)
	}
}

func TestParams_SpecialFloats(t *testing.T) {
	clock := newFakeClock()
	sess := loadFullSchema(t, clock)

	if err := sess.SetF32(1, float32(math.Inf(1))); err != nil {
		t.Fatal(err)
	}
	if got := api.DecodeF32(sess.Params(clock.Now())[1]); !math.IsInf(float64(got), 1) {
		t.Errorf("expected +Inf, got %v", got)
	}
}

func TestOverrides_Rejected(t *testing.T) {
	clock := newFakeClock()
	sess := loadFullSchema(t, clock)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"time is not overridable as f32", func() error { return sess.SetF32(0, 1) }},
		{"time is not overridable as i32", func() error { return sess.SetI32(0, 1) }},
		{"f32 set on i32", func() error { return sess.SetF32(2, 1) }},
		{"i32 set on f32", func() error { return sess.SetI32(1, 1) }},
		{"negative index", func() error { return sess.SetF32(-1, 1) }},
		{"index past end", func() error { return sess.SetI32(3, 1) }},
		{"clear past end", func() error { return sess.ClearOverride(3) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn()
			if !stderrors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("expected invalid input, got %v", err)
			}
		})
	}
	if len(sess.Overrides()) != 0 {
		t.Error("rejected overrides must not be stored")
	}
}
