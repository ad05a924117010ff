package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "multinet/pkg/errors"
)

func TestCollector_PortsMetrics(t *testing.T) {
	c := NewCollector("multinet")

	c.RecordsIngested("node", 3)
	c.RecordsIngested("node", 2)
	c.RecordsIngested("edge", 4)
	c.GraphValidation(true, 0)
	c.GraphValidation(false, 3)

	assert.Equal(t, 5.0, testutil.ToFloat64(c.IngestedRecords.WithLabelValues("node")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.IngestedRecords.WithLabelValues("edge")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.GraphValidations.WithLabelValues("passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.GraphValidations.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.ViolationsFound))
}

func TestCollector_StoreStatus(t *testing.T) {
	c := NewCollector("multinet")

	c.ObserveStoreOperation("get_table", "t", time.Millisecond, nil)
	c.ObserveStoreOperation("get_table", "t", time.Millisecond, pkgerrors.NewNotFoundError("table"))
	c.ObserveStoreOperation("define_graph", "t", time.Millisecond, pkgerrors.NewAlreadyExists("Graph", "g"))
	c.ObserveStoreOperation("all", "t", time.Millisecond, pkgerrors.NewDatabaseError("all", errors.New("boom")))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("get_table", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("get_table", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("define_graph", "conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("all", "error")))
}

func TestCollector_BusMetrics(t *testing.T) {
	c := NewCollector("multinet")

	timer := c.StartTimer("query_duration", "GetGraphQuery")
	timer.Stop()
	c.Increment("query_count", "GetGraphQuery")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.BusEvents.WithLabelValues("query_count", "GetGraphQuery")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.BusDuration))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("multinet")
	c.ObserveHTTPRequest(http.MethodGet, "/api/workspaces", http.StatusOK, 10*time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body),
		`multinet_http_requests_total{method="GET",route="/api/workspaces",status="200"} 1`))
}

func TestCollectors_AreIndependent(t *testing.T) {
	a := NewCollector("multinet")
	b := NewCollector("multinet")
	a.RecordsIngested("node", 1)
	assert.Zero(t, testutil.ToFloat64(b.IngestedRecords.WithLabelValues("node")))
}

func TestInitTracing_Disabled(t *testing.T) {
	tp, err := InitTracing(context.Background(), TracingConfig{Enabled: false})
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestSampleRate(t *testing.T) {
	assert.Equal(t, 0.01, sampleRate("production"))
	assert.Equal(t, 0.1, sampleRate("staging"))
	assert.Equal(t, 1.0, sampleRate("development"))
}
