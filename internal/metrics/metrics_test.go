package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NanayasWorkshop/MakerManager/internal/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.LedgerOperation("withdrawal")
	m.LedgerOperation("withdrawal")
	m.LedgerOperation("return")
	m.MachineEvent("start")
	m.ScanResolved("material", true)
	m.ScanResolved("unknown", false)

	expected := `
# HELP makermanager_ledger_operations_total Material ledger operations by transaction type.
# TYPE makermanager_ledger_operations_total counter
makermanager_ledger_operations_total{type="return"} 1
makermanager_ledger_operations_total{type="withdrawal"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "makermanager_ledger_operations_total"))

	n, err := testutil.GatherAndCount(reg, "makermanager_scan_resolutions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.LedgerOperation("withdrawal")
		m.MachineEvent("stop")
		m.ScanResolved("job", true)
	})

	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
	assert.NotNil(t, m.Middleware(h))
}

func TestMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/materials/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", metrics.Handler(reg))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/materials/M-RAW-00001", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/materials/{id}",status="418"`)
}
