package xlog

import (
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var _ fxevent.Logger = (*FxXLogger)(nil)

type FxXLogger struct {
	logger XLogger
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.logger.Debug("HOOK OnStart",
			zap.String("function", e.FunctionName),
			zap.String("caller", e.CallerName),
		)
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.logger.Error(e.Err, "HOOK OnStart failed",
				zap.String("function", e.FunctionName),
				zap.String("caller", e.CallerName),
				zap.Duration("in", e.Runtime),
			)
		} else {
			l.logger.Debug("HOOK OnStart successfully",
				zap.String("function", e.FunctionName),
				zap.String("caller", e.CallerName),
				zap.Duration("in", e.Runtime),
			)
		}
	case *fxevent.OnStopExecuting:
		l.logger.Debug("HOOK OnStop",
			zap.String("function", e.FunctionName),
			zap.String("caller", e.CallerName),
		)
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.logger.Error(e.Err, "HOOK OnStop failed",
				zap.String("function", e.FunctionName),
				zap.String("caller", e.CallerName),
				zap.Duration("in", e.Runtime),
			)
		} else {
			l.logger.Debug("HOOK OnStop successfully",
				zap.String("function", e.FunctionName),
				zap.String("caller", e.CallerName),
				zap.Duration("in", e.Runtime),
			)
		}
	case *fxevent.Supplied:
		if e.Err != nil {
			l.logger.Error(e.Err, "SUPPLY ERROR",
				zap.String("type", e.TypeName),
				zap.Strings("stacktrace", e.StackTrace),
			)
		} else {
			l.logger.Debug("SUPPLY", zap.String("type", e.TypeName))
		}
	case *fxevent.Provided:
		for _, rtype := range e.OutputTypeNames {
			l.logger.Debug("PROVIDE",
				zap.String("rtype", rtype),
				zap.String("constructor", e.ConstructorName),
			)
		}
		if e.Err != nil {
			l.logger.Error(e.Err, "Error after options were applied",
				zap.Strings("stacktrace", e.StackTrace),
			)
		}
	case *fxevent.Invoking:
		l.logger.Debug("INVOKING", zap.String("function", e.FunctionName))
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error(e.Err, "Error fx.Invoke",
				zap.String("function", e.FunctionName),
				zap.String("trace", e.Trace),
			)
		}
	case *fxevent.Stopping:
		l.logger.Info("STOPPING", zap.String("signal", e.Signal.String()))
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error(e.Err, "Failed to stop cleanly")
		}
	case *fxevent.RollingBack:
		l.logger.Warn("Start failed, rolling back",
			zap.Error(e.StartErr),
		)
	case *fxevent.RolledBack:
		if e.Err != nil {
			l.logger.Error(e.Err, "Couldn't roll back cleanly")
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error(e.Err, "Failed to start")
		} else {
			l.logger.Debug("RUNNING")
		}
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.logger.Error(e.Err, "Failed to initialize custom logger")
		} else {
			l.logger.Debug("LOGGER Initialized custom logger", zap.String("constructor", e.ConstructorName))
		}
	default:
	}
}

// NewFxXLogger names the fx events as the "Fx" component.
func NewFxXLogger(logger XLogger) *FxXLogger {
	if xl, ok := logger.(*xLogger); ok && xl != nil {
		return &FxXLogger{logger: xl.named("Fx")}
	}
	return &FxXLogger{logger: logger}
}
