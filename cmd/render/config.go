package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var validate = validator.New()

// Config holds render command configuration.
type Config struct {
	WasmFile   string        `env:"RENDER_WASM" validate:"required_without=DemoOut"`
	DemoOut    string        `env:"RENDER_DEMO_OUT"`
	ParamsFile string        `env:"RENDER_PARAMS"`
	OutDir     string        `env:"RENDER_OUT_DIR"`
	RecordPath string        `env:"RENDER_RECORD"`
	LogLevel   string        `env:"RENDER_LOG_LEVEL" envDefault:"warn" validate:"oneof=debug info warn error"`
	LogFormat  string        `env:"RENDER_LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`
	OTelURL    string        `env:"RENDER_OTEL_ENDPOINT" validate:"omitempty,url"`
	Frames     int           `env:"RENDER_FRAMES" envDefault:"1" validate:"gte=0"`
	Interval   time.Duration `env:"RENDER_INTERVAL" envDefault:"0s" validate:"gte=0s"`
	Timeout    time.Duration `env:"RENDER_FRAME_TIMEOUT" envDefault:"0s" validate:"gte=0s"`

	MemoryLimitPages uint32 `env:"RENDER_MEMORY_PAGES" validate:"lte=65536"`

	Describe    bool `env:"RENDER_DESCRIBE"`
	JSONSchema  bool `env:"RENDER_JSON_SCHEMA"`
	DataURI     bool `env:"RENDER_DATA_URI"`
	Interactive bool `env:"RENDER_INTERACTIVE"`
}

// ParseConfig parses environment and then flags into Config. Flags win.
// A single positional argument is taken as the guest file.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	pages := uint(cfg.MemoryLimitPages)

	fs.StringVar(&cfg.WasmFile, "wasm", cfg.WasmFile, "Path to the guest wasm module")
	fs.StringVar(&cfg.DemoOut, "demo", cfg.DemoOut, "Write the built-in demo guest to this path and exit")
	fs.StringVar(&cfg.ParamsFile, "params", cfg.ParamsFile, "HCL file with parameter overrides")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Write each frame to a file in this directory instead of stdout")
	fs.StringVar(&cfg.RecordPath, "record", cfg.RecordPath, "Record frames to this SQLite database")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: console or json")
	fs.StringVar(&cfg.OTelURL, "otel-endpoint", cfg.OTelURL, "OTLP/HTTP endpoint for frame traces")
	fs.IntVar(&cfg.Frames, "frames", cfg.Frames, "Number of frames to render")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Delay between frames")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Abort a frame that runs longer than this (0 disables)")
	fs.UintVar(&pages, "memory-pages", pages, "Cap guest memory in 64KiB pages (0 means no extra limit)")
	fs.BoolVar(&cfg.Describe, "describe", cfg.Describe, "Print the parameter schema and exit")
	fs.BoolVar(&cfg.JSONSchema, "json-schema", cfg.JSONSchema, "Print the JSON Schema of the SCHEMA wire format and exit")
	fs.BoolVar(&cfg.DataURI, "data-uri", cfg.DataURI, "Emit frames as data:image/svg+xml URIs")
	fs.BoolVar(&cfg.Interactive, "i", cfg.Interactive, "Interactive mode with TUI")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.WasmFile == "" && fs.NArg() > 0 {
		cfg.WasmFile = fs.Arg(0)
	}
	if pages > 65536 {
		return Config{}, fmt.Errorf("memory-pages %d exceeds 65536", pages)
	}
	cfg.MemoryLimitPages = uint32(pages)

	if cfg.JSONSchema {
		return cfg, nil
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds a zap logger writing to stderr so frames on stdout stay clean.
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var encoder zapcore.Encoder
	switch format {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), lvl)
	return zap.New(core), nil
}
