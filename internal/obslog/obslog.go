package obslog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "connect4-agent"

var global atomic.Pointer[zap.Logger]

func init() { global.Store(zap.NewNop()) }

// L returns the process logger. It is a no-op until InitFromEnv or Set.
func L() *zap.Logger { return global.Load() }

// Set replaces the process logger; nil restores the no-op logger.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global.Store(l)
}

// Sync flushes buffered entries.
func Sync() { _ = L().Sync() }

// Options describes where agent logs go. Status lines own stdout, so every
// sink here is stderr or a file.
type Options struct {
	Level   zapcore.Level
	Format  string // legacy, json or console
	Stderr  bool
	File    string // empty disables file output
	Caller  bool
	Service string
}

// OptionsFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_TO_CONSOLE, LOG_TO_FILE,
// LOG_FILE and LOG_CALLER.
func OptionsFromEnv() Options {
	o := Options{
		Level:   parseLevel(getenvDefault("LOG_LEVEL", "info")),
		Format:  normalizeFormat(getenvDefault("LOG_FORMAT", "legacy")),
		Stderr:  envBool("LOG_TO_CONSOLE", true),
		Caller:  envBool("LOG_CALLER", false),
		Service: serviceName,
	}
	if envBool("LOG_TO_FILE", false) {
		o.File = strings.TrimSpace(getenvDefault("LOG_FILE", filepath.Join("logs", serviceName+".log")))
	}
	return o
}

// Build creates a logger tagged with the service name. With no sink enabled
// it falls back to a development encoder on stderr.
func Build(o Options) (*zap.Logger, error) {
	enc := encoderFor(o.Format)
	var cores []zapcore.Core
	if o.Stderr {
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stderr), o.Level))
	}
	if o.File != "" {
		if err := ensureDir(filepath.Dir(o.File)); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(o.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.AddSync(f), o.Level))
	}
	if len(cores) == 0 {
		dev := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(dev, zapcore.Lock(os.Stderr), o.Level))
	}

	zopts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if o.Caller || o.Format == "legacy" {
		zopts = append(zopts, zap.AddCaller())
	}
	logger := zap.New(zapcore.NewTee(cores...), zopts...)
	if o.Service != "" {
		logger = logger.With(zap.String("service", o.Service))
	}
	return logger, nil
}

// InitFromEnv builds the process logger from LOG_* variables.
func InitFromEnv() error {
	logger, err := Build(OptionsFromEnv())
	if err != nil {
		return err
	}
	Set(logger)
	return nil
}

func normalizeFormat(s string) string {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "json", "console":
		return f
	default:
		return "legacy"
	}
}

func encoderFor(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	switch format {
	case "json":
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	case "console":
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	default:
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.ConsoleSeparator = " | "
		return zapcore.NewConsoleEncoder(cfg)
	}
}

func ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		if strings.EqualFold(strings.TrimSpace(s), "warning") {
			return zapcore.WarnLevel
		}
		return zapcore.InfoLevel
	}
	return lvl
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
