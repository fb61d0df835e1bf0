package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xbst/internal/config"
	"github.com/benz9527/xbst/observability"
	"github.com/benz9527/xbst/xlog"
)

const sessionStatsName = "xbst/cli"

// ConfigPath is the file watched for hot reload. Empty disables watching.
type ConfigPath string

// AppParams carries what the command line resolved.
type AppParams struct {
	Mode       Mode
	ConfigPath string
	IO         SessionIO
	// MetricsOut receives the stdout exporter output, os.Stderr if nil.
	MetricsOut io.Writer
}

type metricsIn struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Logger    xlog.XLogger
	Out       io.Writer `name:"metricsOut"`
}

// sessionMetrics is the meter name for the session trees, empty if
// metrics are disabled.
type sessionMetrics struct {
	statsName string
}

func newLogger(lc fx.Lifecycle, cfg config.Config) xlog.XLogger {
	enc, ok := xlog.ParseLogEncoder(cfg.Log.Encoder)
	if !ok {
		enc = xlog.PlainText
	}
	opts := []xlog.XLoggerOption{
		xlog.WithXLoggerWriter(xlog.StdErr),
		xlog.WithXLoggerEncoder(enc),
		xlog.WithXLoggerLevel(xlog.LogLevel(strings.ToUpper(cfg.Log.Level))),
	}
	if tsEnc, ok := xlog.ParseLogTimeEncoder(cfg.Log.TimeFormat); ok {
		opts = append(opts, xlog.WithXLoggerTimeEncoder(tsEnc))
	}
	if cfg.Log.ColorLevel {
		opts = append(opts, xlog.WithXLoggerLevelEncoder(zapcore.CapitalColorLevelEncoder))
	}
	logger := xlog.NewXLogger(opts...)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Syncing a terminal fails on some platforms.
			_ = logger.Sync()
			return nil
		},
	})
	return logger
}

func newMetrics(in metricsIn) (sessionMetrics, error) {
	if !in.Config.Metrics.Enabled {
		return sessionMetrics{}, nil
	}
	shutdown, err := observability.NewMetricsExporter(in.Config.Metrics.Exporter, in.Config.Metrics.Interval(), in.Out)
	if err != nil {
		return sessionMetrics{}, err
	}
	in.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return observability.InitAppStats("cli")
		},
		OnStop: func(ctx context.Context) error {
			return shutdown(ctx)
		},
	})

	if strings.EqualFold(strings.TrimSpace(in.Config.Metrics.Exporter), observability.ExporterPrometheus) {
		var stop observability.ShutdownFunc
		in.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				addr, serveStop, err := observability.ServePrometheus(in.Config.Metrics.Listen)
				if err != nil {
					return err
				}
				stop = serveStop
				in.Logger.Info("prometheus metrics served", zap.String("addr", addr))
				return nil
			},
			OnStop: func(ctx context.Context) error {
				if stop == nil {
					return nil
				}
				return stop(ctx)
			},
		})
	}
	return sessionMetrics{statsName: sessionStatsName}, nil
}

func newAppSession(mode Mode, sio SessionIO, cfg config.Config, logger xlog.XLogger, m sessionMetrics) *Session {
	return NewSession(mode, sio, logger,
		WithSessionPace(cfg.Session.Pace()),
		WithSessionColor(cfg.Session.Color),
		WithSessionStats(m.statsName),
	)
}

// registerWatcher applies the log level and session settings of every
// valid reload.
func registerWatcher(lc fx.Lifecycle, path ConfigPath, logger xlog.XLogger, session *Session) {
	if len(strings.TrimSpace(string(path))) == 0 {
		return
	}
	var stop config.StopFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			stop, err = config.Watch(string(path), func(cfg config.Config) {
				logger.IncreaseLogLevel(xlog.ParseLogLevel(cfg.Log.Level))
				session.SetPace(cfg.Session.Pace())
				session.SetColor(cfg.Session.Color)
				logger.Info("config reloaded",
					zap.String("level", logger.Level()),
					zap.Duration("pace", session.Pace()),
				)
			}, func(err error) {
				logger.ErrorStack(err, "config reload failed")
			})
			return err
		},
		OnStop: func(ctx context.Context) error {
			if stop == nil {
				return nil
			}
			return stop()
		},
	})
}

func newApp(cfg config.Config, params AppParams, session **Session) *fx.App {
	metricsOut := params.MetricsOut
	if metricsOut == nil {
		metricsOut = os.Stderr
	}
	return fx.New(
		fx.Supply(
			cfg,
			params.Mode,
			params.IO,
			ConfigPath(params.ConfigPath),
		),
		fx.Provide(
			fx.Annotated{
				Name: "metricsOut",
				Target: func() io.Writer {
					return metricsOut
				},
			},
			newLogger,
			newMetrics,
			newAppSession,
		),
		fx.Invoke(registerWatcher),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Populate(session),
	)
}

// Run loads the config, starts the app graph and runs one session on it.
func Run(ctx context.Context, params AppParams) error {
	cfg, err := config.Load(params.ConfigPath)
	if err != nil {
		return err
	}

	var session *Session
	app := newApp(cfg, params, &session)
	if err = app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err = app.Start(startCtx); err != nil {
		return err
	}

	runErr := session.Run(ctx)
	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	return multierr.Append(runErr, app.Stop(stopCtx))
}
