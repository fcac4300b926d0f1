package record

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-renderer/schema"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "frames.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestOpen_ReappliesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	var applied int
	require.NoError(t, second.sqlDB.QueryRow("SELECT COUNT(*) FROM "+migrationTable).Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestSession_RoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sess := Session{
		ID:        "s1",
		Signature: "request-animation-frame: func(p0: f64, p1: f32)",
		Schema: schema.Schema{
			schema.Time{},
			schema.RangeF32{Min: 0, Max: 1, Default: 0.5},
		},
		CreatedAt: created,
	}
	require.NoError(t, store.CreateSession(ctx, sess))

	got, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess.Signature, got.Signature)
	assert.Equal(t, sess.Schema, got.Schema)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestCreateSession_Duplicate(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, Session{ID: "dup"}))
	err := store.CreateSession(ctx, Session{ID: "dup"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateSession_RequiresID(t *testing.T) {
	store := openTempStore(t)
	require.Error(t, store.CreateSession(context.Background(), Session{}))
}

func TestGetSession_NotFound(t *testing.T) {
	store := openTempStore(t)
	_, err := store.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFrames_AppendAndList(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateSession(ctx, Session{ID: "s1"}))

	frames := []Frame{
		{SessionID: "s1", Number: 1, Elapsed: 0, Output: "<svg>1</svg>"},
		{SessionID: "s1", Number: 2, Elapsed: 16 * time.Millisecond, Output: "<svg>2</svg>", Overrides: map[int]any{1: 0.75}},
		{SessionID: "s1", Number: 3, Elapsed: 33 * time.Millisecond, Output: "<svg>2</svg>", Failed: true},
	}
	// Insert out of order; listing sorts by frame number.
	for _, i := range []int{2, 0, 1} {
		require.NoError(t, store.AppendFrame(ctx, frames[i]))
	}

	got, err := store.ListFrames(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, f := range got {
		assert.Equal(t, frames[i].Number, f.Number)
		assert.Equal(t, frames[i].Elapsed, f.Elapsed)
		assert.Equal(t, frames[i].Output, f.Output)
		assert.Equal(t, frames[i].Failed, f.Failed)
	}
	assert.Empty(t, got[0].Overrides)
	assert.Equal(t, map[int]any{1: 0.75}, got[1].Overrides)
}

func TestAppendFrame_Duplicate(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateSession(ctx, Session{ID: "s1"}))

	f := Frame{SessionID: "s1", Number: 1, Output: "a"}
	require.NoError(t, store.AppendFrame(ctx, f))
	assert.ErrorIs(t, store.AppendFrame(ctx, f), ErrAlreadyExists)
}

func TestAppendFrame_UnknownSession(t *testing.T) {
	store := openTempStore(t)
	err := store.AppendFrame(context.Background(), Frame{SessionID: "nope", Number: 1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyExists)
}

func TestCancelledContext(t *testing.T) {
	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.CreateSession(ctx, Session{ID: "x"}), context.Canceled)
	_, err := store.ListFrames(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
