package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveResolveDuration("html", 15*time.Millisecond)
	pr.IncResolveResult(ResultSuccess)
	pr.IncResolveResult(ResultNotFound)
	pr.IncResolveResult(ResultNotFound)
	pr.AddMarkersRemoved(3)
	pr.AddMarkersRemoved(0)
	pr.ObserveGenerateEntry(time.Millisecond, ResultSuccess)
	pr.ObserveHTTPRequest("GET", 404, time.Millisecond)
	pr.SetLiveReloadClients(2)
	pr.IncLiveReloadBroadcast()

	assert.InDelta(t, 2, testutil.ToFloat64(pr.resolveResults.WithLabelValues("not_found")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(pr.markersRemoved), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.httpRequests.WithLabelValues("GET", "404")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(pr.lrClients), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncResolveResult(ResultSuccess)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `reqaz_resolve_results_total{result="success"} 1`)
}

func TestOrNoop(t *testing.T) {
	assert.Equal(t, NoopRecorder{}, OrNoop(nil))
	pr := NewPrometheusRecorder(nil)
	assert.Same(t, pr, OrNoop(pr))
}
