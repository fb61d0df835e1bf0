package xlog

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

func (lvl LogLevel) zapLevel() zapcore.Level {
	return getLogLevelOrDefault(string(lvl))
}

func (lvl LogLevel) String() string {
	return string(lvl)
}

type LogEncoderType uint8

const (
	JSON LogEncoderType = iota
	PlainText
	_encMax
)

// ParseLogEncoder accepts "json", "text" and "plaintext", case insensitive.
func ParseLogEncoder(enc string) (LogEncoderType, bool) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "json":
		return JSON, true
	case "text", "plaintext":
		return PlainText, true
	default:
	}
	return _encMax, false
}

type LogOutWriterType uint8

const (
	StdOut LogOutWriterType = iota
	StdErr
	testMemAsOut
	_writerMax
)

const (
	coreKeyIgnored = ""
)

var (
	writerLock = sync.RWMutex{}
	writerMap  = map[LogOutWriterType]zapcore.WriteSyncer{
		StdOut: &zapcore.BufferedWriteSyncer{WS: os.Stdout, Size: 512 * 1024, FlushInterval: 30 * time.Second},
		// Interleaved with interactive prompts, so never buffered.
		StdErr: zapcore.Lock(os.Stderr),
	}
	encoderMap = map[LogEncoderType]func(cfg zapcore.EncoderConfig) zapcore.Encoder{
		JSON:      zapcore.NewJSONEncoder,
		PlainText: zapcore.NewConsoleEncoder,
	}
)

func getEncoderByType(typ LogEncoderType) func(cfg zapcore.EncoderConfig) zapcore.Encoder {
	enc, ok := encoderMap[typ]
	if !ok {
		return zapcore.NewJSONEncoder
	}
	return enc
}

func getOutWriterByType(typ LogOutWriterType) zapcore.WriteSyncer {
	writerLock.RLock()
	defer writerLock.RUnlock()
	out, ok := writerMap[typ]
	if !ok {
		return zapcore.Lock(os.Stdout)
	}
	return out
}

func setOutWriterByType(typ LogOutWriterType, ws zapcore.WriteSyncer) {
	writerLock.Lock()
	defer writerLock.Unlock()
	writerMap[typ] = ws
}

type XLogCore interface {
	timeEncoder() zapcore.TimeEncoder
	levelEncoder() zapcore.LevelEncoder
	writeSyncer() zapcore.WriteSyncer
	outEncoder() func(cfg zapcore.EncoderConfig) zapcore.Encoder

	zapcore.Core
}

// XLogger mainly implemented by Uber zap logger.
//
// ErrorStack is used to print all errors throws stacks.
// Instead of using zap default error stack, it prints
// the frames captured by infra.ErrorStack in JSON format.
//
// Log format is not recommended, because it is low performance.
type XLogger interface {
	zap() *zap.Logger

	IncreaseLogLevel(level zapcore.Level)
	Level() string
	Sync() error

	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(err error, msg string, fields ...zap.Field)
	ErrorStack(err error, msg string, fields ...zap.Field)

	Logf(lvl zapcore.Level, format string, args ...any)
}
