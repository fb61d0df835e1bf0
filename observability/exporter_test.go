package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestStdoutMetricsExporter(t *testing.T) {
	buf := &bytes.Buffer{}
	shutdown, err := NewMetricsExporter("stdout", time.Hour, buf)
	require.NoError(t, err)

	counter, err := otel.Meter("xbst/test").Int64Counter("xbst.test.count")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	require.NoError(t, InitAppStats("test"))
	// Once only.
	require.NoError(t, InitAppStats("again"))

	// Shutdown flushes the last collection.
	require.NoError(t, shutdown(context.Background()))
	require.Contains(t, buf.String(), "xbst.test.count")
	require.Contains(t, buf.String(), "app.core.goroutines")
}

func TestNoneAndUnknownExporter(t *testing.T) {
	shutdown, err := NewMetricsExporter("none", time.Second, nil)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	shutdown, err = NewMetricsExporter("", time.Second, nil)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	_, err = NewMetricsExporter("statsd", time.Second, nil)
	require.ErrorIs(t, err, ErrUnknownExporter)
	require.ErrorContains(t, err, "statsd")
}

func TestPrometheusMetricsExporter(t *testing.T) {
	shutdown, err := NewMetricsExporter("prometheus", time.Second, nil)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, shutdown(context.Background()))
	}()

	addr, stop, err := ServePrometheus("127.0.0.1:0")
	require.NoError(t, err)
	defer func() {
		require.NoError(t, stop(context.Background()))
	}()

	counter, err := otel.Meter("xbst/test").Int64Counter("xbst.prom.count")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "xbst_prom_count")
}
