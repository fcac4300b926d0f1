// Command render loads a renderer guest and drives its frames.
//
//	render -wasm guest.wasm -describe
//	render -wasm guest.wasm -frames 120 -interval 16ms
//	render -wasm guest.wasm -params overrides.hcl -out frames/ -record frames.db
//	render -wasm guest.wasm -i
//	render -demo demo.wasm
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-renderer/engine"
	"github.com/wippyai/wasm-renderer/runtime"
	"github.com/wippyai/wasm-renderer/telemetry"
)

func main() {
	cfg, err := ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage: render -wasm <file.wasm> [-frames n] [-interval d] [-params file.hcl] [-out dir] [-record db]")
		fmt.Fprintln(os.Stderr, "       render -wasm <file.wasm> -describe")
		fmt.Fprintln(os.Stderr, "       render -wasm <file.wasm> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       render -demo <out.wasm>")
		os.Exit(2)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()
	runtime.SetLogger(logger.Named("runtime"))
	engine.SetLogger(logger.Named("engine"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{ServiceName: "wasm-renderer", Endpoint: cfg.OTelURL})
	if err != nil {
		logger.Warn("telemetry disabled", zap.Error(err))
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
