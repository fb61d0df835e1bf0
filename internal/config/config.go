package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/safeopen"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xbst/lib/infra"
	"github.com/benz9527/xbst/observability"
	"github.com/benz9527/xbst/xlog"
)

var ErrInvalidConfig = errors.New("[config] invalid config")

type LogConfig struct {
	Level      string `yaml:"level"`
	Encoder    string `yaml:"encoder"`
	TimeFormat string `yaml:"time_format"`
	ColorLevel bool   `yaml:"color_level"`
}

type SessionConfig struct {
	PaceMs int  `yaml:"pace_ms"`
	Color  bool `yaml:"color"`
}

func (c SessionConfig) Pace() time.Duration {
	return time.Duration(c.PaceMs) * time.Millisecond
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Exporter   string `yaml:"exporter"`
	IntervalMs int    `yaml:"interval_ms"`
	Listen     string `yaml:"listen"`
}

func (c MetricsConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Session SessionConfig `yaml:"session"`
	Metrics MetricsConfig `yaml:"metrics"`
}

func Default() Config {
	return Config{
		Log: LogConfig{
			Level:      xlog.LogLevelInfo.String(),
			Encoder:    "text",
			TimeFormat: "iso8601",
			ColorLevel: false,
		},
		Session: SessionConfig{
			PaceMs: 800,
			Color:  true,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			Exporter:   observability.ExporterStdout,
			IntervalMs: 10000,
			Listen:     ":9464",
		},
	}
}

// Validate reports every bad field at once.
func (c Config) Validate() error {
	var merr error
	if _, ok := xlog.ParseLogEncoder(c.Log.Encoder); !ok {
		merr = multierr.Append(merr, infra.WrapErrorStackWithMessage(ErrInvalidConfig, "log.encoder: "+c.Log.Encoder))
	}
	if _, ok := xlog.ParseLogTimeEncoder(c.Log.TimeFormat); !ok {
		merr = multierr.Append(merr, infra.WrapErrorStackWithMessage(ErrInvalidConfig, "log.time_format: "+c.Log.TimeFormat))
	}
	switch strings.ToUpper(strings.TrimSpace(c.Log.Level)) {
	case xlog.LogLevelDebug.String(), xlog.LogLevelInfo.String(),
		xlog.LogLevelWarn.String(), xlog.LogLevelError.String():
	default:
		merr = multierr.Append(merr, infra.WrapErrorStackWithMessage(ErrInvalidConfig, "log.level: "+c.Log.Level))
	}
	if c.Session.PaceMs < 0 {
		merr = multierr.Append(merr, infra.WrapErrorStackWithMessage(ErrInvalidConfig, "session.pace_ms is negative"))
	}
	switch strings.ToLower(strings.TrimSpace(c.Metrics.Exporter)) {
	case observability.ExporterStdout, observability.ExporterPrometheus, observability.ExporterNone, "":
	default:
		merr = multierr.Append(merr, infra.WrapErrorStackWithMessage(ErrInvalidConfig, "metrics.exporter: "+c.Metrics.Exporter))
	}
	if c.Metrics.IntervalMs < 0 {
		merr = multierr.Append(merr, infra.WrapErrorStackWithMessage(ErrInvalidConfig, "metrics.interval_ms is negative"))
	}
	return merr
}

// Load reads the YAML file at path over the defaults.
// An empty or missing path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if len(strings.TrimSpace(path)) == 0 {
		return cfg, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return cfg, infra.WrapErrorStack(err)
	}
	if _, err = os.Stat(abs); os.IsNotExist(err) {
		return cfg, nil
	}

	f, err := safeopen.OpenBeneath(filepath.Dir(abs), filepath.Base(abs))
	if err != nil {
		return cfg, infra.WrapErrorStackWithMessage(err, "unable to open config: "+abs)
	}
	defer func() {
		_ = f.Close()
	}()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Default(), infra.WrapErrorStackWithMessage(err, "unable to decode config: "+abs)
	}
	// An explicit empty level means the default one, never the debug
	// fallback of xlog.
	if len(strings.TrimSpace(cfg.Log.Level)) == 0 {
		cfg.Log.Level = Default().Log.Level
	}
	if err = cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}
