// Package logging is the (hook, message, level) sink every hook writes to.
//
// Output goes to a size-rotated JSON file under the project's .claude/logs
// directory, never to stdout: stdout belongs to the host protocol.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the severity of a log entry.
type Level = zapcore.Level

// Log levels accepted by Sink.Log.
const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// Sink records hook diagnostics. Implementations must be safe for
// concurrent use because hooks log from their own goroutines.
type Sink interface {
	Log(hook, msg string, level Level, fields ...zap.Field)
}

// Options configures the file sink.
type Options struct {
	// Path of the active log file. Rotated siblings live next to it.
	Path string
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// Disabled turns the sink into a no-op.
	Disabled bool

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ZapSink is a Sink backed by a zap logger.
type ZapSink struct {
	logger *zap.Logger
}

// New builds a JSON file sink rotated by lumberjack.
func New(opts Options) *ZapSink {
	if opts.Disabled || opts.Path == "" {
		return &ZapSink{logger: zap.NewNop()}
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 5
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 3
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 14
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	writer := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(writer),
		ParseLevel(opts.Level),
	)
	return &ZapSink{logger: zap.New(core).Named("hooks")}
}

// NewWithLogger wraps an existing zap logger.
func NewWithLogger(l *zap.Logger) *ZapSink {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapSink{logger: l}
}

// Log writes one entry tagged with the hook name.
func (s *ZapSink) Log(hook, msg string, level Level, fields ...zap.Field) {
	if ce := s.logger.Check(level, msg); ce != nil {
		ce.Write(append(fields, zap.String("hook", hook))...)
	}
}

// Sync flushes buffered entries. Errors are ignored: a log flush must never
// change the outcome of a hook run.
func (s *ZapSink) Sync() {
	_ = s.logger.Sync()
}

// ParseLevel maps a level name to a Level, defaulting to info.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type nopSink struct{}

func (nopSink) Log(string, string, Level, ...zap.Field) {}

// Nop returns a Sink that discards everything.
func Nop() Sink { return nopSink{} }
