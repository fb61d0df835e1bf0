package xlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ XLogCore = (*consoleCore)(nil)

type consoleCore struct {
	lvlEnabler zapcore.LevelEnabler
	lvlEnc     zapcore.LevelEncoder
	tsEnc      zapcore.TimeEncoder
	ws         zapcore.WriteSyncer
	enc        func(cfg zapcore.EncoderConfig) zapcore.Encoder
	core       zapcore.Core
}

func (cc *consoleCore) timeEncoder() zapcore.TimeEncoder                            { return cc.tsEnc }
func (cc *consoleCore) levelEncoder() zapcore.LevelEncoder                          { return cc.lvlEnc }
func (cc *consoleCore) writeSyncer() zapcore.WriteSyncer                            { return cc.ws }
func (cc *consoleCore) outEncoder() func(cfg zapcore.EncoderConfig) zapcore.Encoder { return cc.enc }
func (cc *consoleCore) Enabled(lvl zapcore.Level) bool                              { return cc.lvlEnabler.Enabled(lvl) }
func (cc *consoleCore) With(fields []zap.Field) zapcore.Core                        { return cc.core.With(fields) }
func (cc *consoleCore) Sync() error                                                 { return cc.core.Sync() }
func (cc *consoleCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return cc.core.Check(ent, ce)
}

func (cc *consoleCore) Write(ent zapcore.Entry, fields []zap.Field) error {
	return cc.core.Write(ent, fields)
}

func newConsoleCore(
	lvlEnabler zapcore.LevelEnabler,
	encoder LogEncoderType,
	writer LogOutWriterType,
	lvlEnc zapcore.LevelEncoder,
	tsEnc zapcore.TimeEncoder,
) XLogCore {
	if writer >= _writerMax {
		return nil
	}
	cc := &consoleCore{
		lvlEnabler: lvlEnabler,
		lvlEnc:     lvlEnc,
		tsEnc:      tsEnc,
		ws:         getOutWriterByType(writer),
		enc:        getEncoderByType(encoder),
	}
	config := zapcore.EncoderConfig{
		MessageKey:    "msg",
		LevelKey:      "lvl",
		EncodeLevel:   cc.lvlEnc,
		TimeKey:       "ts",
		EncodeTime:    cc.tsEnc,
		CallerKey:     "callAt",
		EncodeCaller:  zapcore.ShortCallerEncoder,
		FunctionKey:   coreKeyIgnored,
		NameKey:       "component",
		EncodeName:    zapcore.FullNameEncoder,
		StacktraceKey: coreKeyIgnored,
	}
	cc.core = zapcore.NewCore(cc.enc(config), cc.ws, cc.lvlEnabler)
	return cc
}
