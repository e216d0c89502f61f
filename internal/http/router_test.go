package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	makerHttp "github.com/NanayasWorkshop/MakerManager/internal/http"
	"github.com/NanayasWorkshop/MakerManager/internal/http/job"
	"github.com/NanayasWorkshop/MakerManager/internal/http/machine"
	"github.com/NanayasWorkshop/MakerManager/internal/http/material"
	"github.com/NanayasWorkshop/MakerManager/internal/http/scan"
	"github.com/NanayasWorkshop/MakerManager/internal/http/session"
	"github.com/NanayasWorkshop/MakerManager/internal/http/timetrack"
	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/metrics"
)

func newRouter(t *testing.T) (http.Handler, *identity.Authenticator) {
	t.Helper()

	reg := prometheus.NewRegistry()
	auth := identity.NewAuthenticator("s3cret", "makermanager")

	// Services are never reached by these requests.
	handlers := makerHttp.Handlers{
		Session:   session.NewHandler(nil, nil, nil, nil),
		Jobs:      job.NewHandler(nil, nil, nil, nil, nil),
		Materials: material.NewHandler(nil, nil, nil, nil),
		Machines:  machine.NewHandler(nil, nil, nil),
		Time:      timetrack.NewHandler(nil, nil),
		Scan:      scan.NewHandler(nil),
	}

	return makerHttp.New(handlers, makerHttp.Options{
		AllowedOrigins: []string{"https://shop.example.com"},
		Auth:           auth,
		Metrics:        metrics.New(reg),
		MetricsHandler: metrics.Handler(reg),
	}), auth
}

func TestRouter_Health(t *testing.T) {
	r, _ := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_APIRequiresToken(t *testing.T) {
	r, auth := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := auth.Issue(identity.User{Username: "heidi"}, time.Hour)
	require.NoError(t, err)

	// A valid token reaches the handler, which rejects the malformed body.
	req := httptest.NewRequest(http.MethodPut, "/api/v1/session/active-job", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	r, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/materials/M-RAW-00001/withdraw", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := newRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "makermanager_http_request_duration_seconds")
}
