package xlog

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xbst/lib/infra"
)

// XLogger is wrapper logger of Uber zap logger.
type xLogger struct {
	logger              atomic.Pointer[zap.Logger]
	dynamicLevelEnabler zap.AtomicLevel
	writer              LogOutWriterType
	encoder             LogEncoderType
}

func (l *xLogger) zap() *zap.Logger {
	return l.logger.Load()
}

// IncreaseLogLevel we can increase or decrease the log level concurrently.
func (l *xLogger) IncreaseLogLevel(level zapcore.Level) {
	l.dynamicLevelEnabler.SetLevel(level)
}

func (l *xLogger) Sync() error {
	return l.logger.Load().Sync()
}

func (l *xLogger) Level() string {
	return l.dynamicLevelEnabler.Level().String()
}

func (l *xLogger) Debug(msg string, fields ...zap.Field) {
	l.logger.Load().Debug(msg, fields...)
}

func (l *xLogger) Info(msg string, fields ...zap.Field) {
	l.logger.Load().Info(msg, fields...)
}

func (l *xLogger) Warn(msg string, fields ...zap.Field) {
	l.logger.Load().Warn(msg, fields...)
}

func (l *xLogger) Error(err error, msg string, fields ...zap.Field) {
	newFields := make([]zap.Field, 0, len(fields)+1)
	if err != nil {
		newFields = append(newFields, zap.String("error", err.Error()))
	}
	newFields = append(newFields, fields...)
	l.logger.Load().Error(msg, newFields...)
}

// ErrorStack falls back to a plain error field if err carries no frames.
func (l *xLogger) ErrorStack(err error, msg string, fields ...zap.Field) {
	newFields := make([]zap.Field, 0, len(fields)+1)
	var es infra.ErrorStack
	if errors.As(err, &es) && es != nil {
		newFields = append(newFields, zap.Inline(es))
	} else if err != nil {
		newFields = append(newFields, zap.String("error", err.Error()))
	}
	newFields = append(newFields, fields...)
	l.logger.Load().Error(msg, newFields...)
}

func (l *xLogger) Logf(lvl zapcore.Level, format string, args ...any) {
	l.logger.Load().Log(lvl, fmt.Sprintf(format, args...))
}

type loggerCfg struct {
	encoderType *LogEncoderType
	writerType  *LogOutWriterType
	lvlEncoder  zapcore.LevelEncoder
	tsEncoder   zapcore.TimeEncoder
	level       *zapcore.Level
	core        zapcore.Core
}

func (cfg *loggerCfg) apply(l *xLogger) {
	if cfg.encoderType != nil {
		l.encoder = *cfg.encoderType
	} else {
		l.encoder = JSON
	}

	if cfg.writerType != nil {
		l.writer = *cfg.writerType
	} else {
		l.writer = StdOut
	}

	if cfg.level != nil {
		l.dynamicLevelEnabler = zap.NewAtomicLevelAt(*cfg.level)
	} else {
		l.dynamicLevelEnabler = zap.NewAtomicLevelAt(getLogLevelOrDefault(os.Getenv("XLOG_LVL")))
	}

	if cfg.lvlEncoder == nil {
		cfg.lvlEncoder = zapcore.CapitalLevelEncoder
	}

	if cfg.tsEncoder == nil {
		cfg.tsEncoder = zapcore.ISO8601TimeEncoder
	}

	if core := newConsoleCore(
		l.dynamicLevelEnabler,
		l.encoder,
		l.writer,
		cfg.lvlEncoder,
		cfg.tsEncoder,
	); core != nil {
		cfg.core = core
	} else {
		cfg.core = zapcore.NewNopCore()
	}
}

type XLoggerOption func(*loggerCfg) error

func NewXLogger(opts ...XLoggerOption) XLogger {
	cfg := &loggerCfg{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(cfg); err != nil {
			panic(err)
		}
	}
	xl := &xLogger{}
	cfg.apply(xl)

	// Disable zap logger error stack.
	l := zap.New(
		cfg.core,
		zap.AddCallerSkip(1), // Use caller filename as service
		zap.AddCaller(),
	)
	xl.logger.Store(l)
	return xl
}

// named shares the level enabler, so IncreaseLogLevel on the parent
// also applies to the child.
func (l *xLogger) named(name string) *xLogger {
	child := &xLogger{
		dynamicLevelEnabler: l.dynamicLevelEnabler,
		writer:              l.writer,
		encoder:             l.encoder,
	}
	child.logger.Store(l.logger.Load().Named(name))
	return child
}

func WithXLoggerWriter(writer LogOutWriterType) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if writer >= _writerMax {
			return infra.NewErrorStack("unknown xlogger writer")
		}
		cfg.writerType = &writer
		return nil
	}
}

func WithXLoggerEncoder(logEnc LogEncoderType) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if logEnc >= _encMax {
			return infra.NewErrorStack("unknown xlogger encoder")
		}
		cfg.encoderType = &logEnc
		return nil
	}
}

func WithXLoggerLevel(lvl LogLevel) XLoggerOption {
	return func(cfg *loggerCfg) error {
		_lvl := lvl.zapLevel()
		cfg.level = &_lvl
		return nil
	}
}

func WithXLoggerLevelEncoder(lvlEnc zapcore.LevelEncoder) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if lvlEnc == nil {
			lvlEnc = zapcore.CapitalColorLevelEncoder
		}
		cfg.lvlEncoder = lvlEnc
		return nil
	}
}

func WithXLoggerTimeEncoder(tsEnc zapcore.TimeEncoder) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if tsEnc == nil {
			tsEnc = zapcore.ISO8601TimeEncoder
		}
		cfg.tsEncoder = tsEnc
		return nil
	}
}

// ParseLogTimeEncoder accepts "iso8601" (or empty), "rfc3339", "rfc3339nano"
// and "epoch_millis", case insensitive.
func ParseLogTimeEncoder(format string) (zapcore.TimeEncoder, bool) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "iso8601":
		return zapcore.ISO8601TimeEncoder, true
	case "rfc3339":
		return zapcore.RFC3339TimeEncoder, true
	case "rfc3339nano":
		return zapcore.RFC3339NanoTimeEncoder, true
	case "epoch_millis":
		return zapcore.EpochMillisTimeEncoder, true
	default:
	}
	return nil, false
}

// ParseLogLevel falls back to debug for unknown levels.
func ParseLogLevel(level string) zapcore.Level {
	return getLogLevelOrDefault(level)
}

func getLogLevelOrDefault(level string) zapcore.Level {
	if len(strings.TrimSpace(level)) == 0 {
		return zapcore.DebugLevel
	}

	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LogLevelInfo.String():
		return zapcore.InfoLevel
	case LogLevelWarn.String():
		return zapcore.WarnLevel
	case LogLevelError.String():
		return zapcore.ErrorLevel
	case LogLevelDebug.String():
		fallthrough
	default:
	}
	return zapcore.DebugLevel
}
