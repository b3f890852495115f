// Package logger provides levelled logging for Loremaster, backed by zap.
// Debug output appears only in verbose mode (--verbose or log.verbose);
// warnings and errors are always written. An optional log file receives
// JSON records and is rotated by lumberjack.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Init.
type Options struct {
	// Level is the minimum level when not verbose: debug, info, warn, error.
	Level string

	// Verbose forces debug level.
	Verbose bool

	// File, when set, receives JSON log records in addition to the console.
	File string

	// MaxSizeMB and MaxBackups control rotation of File.
	MaxSizeMB  int
	MaxBackups int
}

var (
	mu      sync.RWMutex
	verbose bool
	base    = zapcore.WarnLevel
	output  io.Writer = os.Stderr
	file    *lumberjack.Logger
	sugar   = build()
)

// Init applies options. It may be called again to reconfigure.
func Init(opts Options) error {
	lvl := zapcore.WarnLevel
	if opts.Level != "" {
		if err := lvl.Set(strings.ToLower(opts.Level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()

	base = lvl
	verbose = opts.Verbose
	if file != nil {
		_ = file.Close()
		file = nil
	}
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: opts.MaxBackups,
		}
	}
	sugar = build()
	return nil
}

// Sync flushes buffered records and closes the log file.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = sugar.Sync()
	if file != nil {
		_ = file.Close()
	}
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	sugar = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the console writer.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	sugar = build()
}

// L returns the underlying zap logger for structured fields.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar.Desugar()
}

// Debug logs a message in verbose mode.
func Debug(format string, args ...any) {
	current().Debugf(format, args...)
}

// Section logs a section header in verbose mode.
func Section(name string) {
	current().Debugf("=== %s ===", name)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	current().Infof(format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	current().Warnf(format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	current().Errorf(format, args...)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// build assembles the zap core from package state. Callers hold mu.
func build() *zap.SugaredLogger {
	level := base
	if verbose {
		level = zapcore.DebugLevel
	}

	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey:       "msg",
			LevelKey:         "level",
			EncodeLevel:      bracketLevel,
			ConsoleSeparator: " ",
			LineEnding:       zapcore.DefaultLineEnding,
		}),
		zapcore.AddSync(output),
		level,
	)

	cores := []zapcore.Core{console}
	if file != nil {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(file), level))
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

// bracketLevel renders levels as [DEBUG], [INFO], [WARN], [ERROR].
func bracketLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}
