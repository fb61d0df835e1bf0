package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/benz9527/xbst/lib/infra"
)

type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

const (
	ExporterStdout     = "stdout"
	ExporterPrometheus = "prometheus"
	ExporterNone       = "none"
)

var ErrUnknownExporter = errors.New("[observability] unknown metrics exporter")

// NewMetricsExporter installs the global meter provider of the given kind.
// The writer is only used by the stdout exporter.
func NewMetricsExporter(kind string, interval time.Duration, w io.Writer) (ShutdownFunc, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case ExporterStdout:
		opts := []stdoutmetric.Option{
			stdoutmetric.WithoutTimestamps(),
		}
		if w != nil {
			opts = append(opts, stdoutmetric.WithWriter(w))
		}
		return newConsoleMetricsExporter(interval, interval, opts...)
	case ExporterPrometheus:
		return newPrometheusMetricsExporter()
	case ExporterNone, "":
		return noopShutdown, nil
	default:
	}
	return nil, infra.WrapErrorStackWithMessage(ErrUnknownExporter, kind)
}

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (ShutdownFunc, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	callback := mp.Shutdown
	otel.SetMeterProvider(mp)
	return callback, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
func newPrometheusMetricsExporter() (ShutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	callback := mp.Shutdown
	otel.SetMeterProvider(mp)
	return callback, nil
}

// ServePrometheus exposes the default registry at /metrics in background.
// The returned listener address is useful when addr asks for a random port.
func ServePrometheus(addr string) (string, ShutdownFunc, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, infra.WrapErrorStackWithMessage(err, "listen prometheus")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		_ = srv.Serve(ln)
	}()
	return ln.Addr().String(), srv.Shutdown, nil
}
