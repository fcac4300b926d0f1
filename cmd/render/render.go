package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-renderer/guest"
	"github.com/wippyai/wasm-renderer/record"
	"github.com/wippyai/wasm-renderer/runtime"
	"github.com/wippyai/wasm-renderer/schema"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\x1b[H\x1b[2J"

func run(ctx context.Context, cfg Config, logger *zap.Logger, stdout io.Writer) error {
	if cfg.JSONSchema {
		return writeJSONSchema(stdout)
	}
	if cfg.DemoOut != "" {
		return writeDemo(cfg.DemoOut, stdout)
	}

	data, err := os.ReadFile(cfg.WasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var overrides []*override
	if cfg.ParamsFile != "" {
		if overrides, err = loadOverrides(cfg.ParamsFile); err != nil {
			return err
		}
	}

	rt, err := runtime.NewWithConfig(ctx, &runtime.Config{
		Logger:             logger.Named("runtime"),
		MemoryLimitPages:   cfg.MemoryLimitPages,
		CloseOnContextDone: cfg.Timeout > 0,
	})
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(ctx)

	if cfg.Interactive {
		return runInteractive(ctx, rt, cfg, data, overrides)
	}

	sess, err := rt.Load(ctx, data)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.WasmFile, err)
	}
	defer sess.Close(ctx)

	if cfg.Describe {
		return describe(stdout, cfg.WasmFile, sess.Schema())
	}

	if err := applyOverrides(sess, sess.Schema(), overrides); err != nil {
		return err
	}

	var store *record.Store
	if cfg.RecordPath != "" {
		if store, err = record.Open(cfg.RecordPath); err != nil {
			return fmt.Errorf("open recording: %w", err)
		}
		defer store.Close()

		err = store.CreateSession(ctx, record.Session{
			ID:        sess.ID(),
			Signature: schema.Signature(runtime.CallbackName, sess.Schema()),
			Schema:    sess.Schema(),
			CreatedAt: sess.Created(),
		})
		if err != nil {
			return fmt.Errorf("record session: %w", err)
		}
	}

	out := newFrameWriter(stdout, cfg)
	return drive(ctx, sess, cfg, out, store, logger)
}

// drive renders cfg.Frames frames. A trap freezes the output; the remaining
// frames replay it and the trap is returned at the end.
func drive(ctx context.Context, sess *runtime.Session, cfg Config, out *frameWriter, store *record.Store, logger *zap.Logger) error {
	reported := false
	for i := 0; i < cfg.Frames; i++ {
		if i > 0 && cfg.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Interval):
			}
		}

		now := time.Now()
		frameCtx, cancel := ctx, context.CancelFunc(func() {})
		if cfg.Timeout > 0 {
			frameCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		}
		output := sess.RenderAt(frameCtx, now)
		cancel()

		if sess.Failed() && !reported {
			reported = true
			logger.Error("guest failed, freezing last frame", zap.Uint64("frame", sess.Frames()), zap.Error(sess.Err()))
		}

		if err := out.write(uint64(i+1), output); err != nil {
			return err
		}

		if store != nil {
			err := store.AppendFrame(ctx, record.Frame{
				SessionID: sess.ID(),
				Number:    uint64(i + 1),
				Elapsed:   now.Sub(sess.Created()),
				Overrides: sess.Overrides(),
				Output:    output,
				Failed:    sess.Failed(),
			})
			if err != nil {
				return fmt.Errorf("record frame %d: %w", i+1, err)
			}
		}
	}

	if sess.Failed() {
		return sess.Err()
	}
	return nil
}

// frameWriter sends frames to stdout or to one file per frame.
type frameWriter struct {
	w        io.Writer
	dir      string
	dataURI  bool
	animated bool
}

func newFrameWriter(stdout io.Writer, cfg Config) *frameWriter {
	fw := &frameWriter{w: stdout, dir: cfg.OutDir, dataURI: cfg.DataURI}
	if f, ok := stdout.(*os.File); ok && cfg.OutDir == "" && cfg.Frames > 1 {
		fw.animated = term.IsTerminal(int(f.Fd()))
	}
	return fw
}

func (fw *frameWriter) write(n uint64, output string) error {
	if fw.dataURI {
		output = dataURI(output)
	}

	if fw.dir != "" {
		if err := os.MkdirAll(fw.dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		path := filepath.Join(fw.dir, frameFileName(n, output, fw.dataURI))
		if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
			return fmt.Errorf("write frame %d: %w", n, err)
		}
		return nil
	}

	if fw.animated {
		_, err := io.WriteString(fw.w, clearScreen+output+"\n")
		return err
	}
	_, err := io.WriteString(fw.w, output+"\n")
	return err
}

// dataURI embeds a frame the way an <img> src would carry it.
func dataURI(output string) string {
	return "data:image/svg+xml," + url.PathEscape(output)
}

func frameFileName(n uint64, output string, isURI bool) string {
	ext := ".txt"
	switch {
	case isURI:
		ext = ".uri"
	case strings.HasPrefix(strings.TrimSpace(output), "<svg"):
		ext = ".svg"
	}
	return fmt.Sprintf("frame-%06d%s", n, ext)
}

func describe(w io.Writer, name string, s schema.Schema) error {
	fmt.Fprintf(w, "Guest: %s\n", name)
	fmt.Fprintf(w, "Callback: %s\n", schema.Signature(runtime.CallbackName, s))
	if len(s) == 0 {
		fmt.Fprintln(w, "\nNo parameters.")
	} else {
		fmt.Fprintln(w, "\nParameters:")
		for i, p := range s {
			fmt.Fprintf(w, "  p%d: %s\n", i, schema.Describe(p))
		}
	}
	if warnings := schema.Lint(s); len(warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range warnings {
			fmt.Fprintf(w, "  %s\n", warn)
		}
	}
	return nil
}

func writeJSONSchema(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(schema.JSONSchema())
}

func writeDemo(path string, w io.Writer) error {
	bin, err := guest.Build(guest.Demo())
	if err != nil {
		return fmt.Errorf("build demo: %w", err)
	}
	if err := os.WriteFile(path, bin, 0o644); err != nil {
		return fmt.Errorf("write demo: %w", err)
	}
	fmt.Fprintf(w, "Wrote demo guest (%d bytes) to %s\n", len(bin), path)
	return nil
}
