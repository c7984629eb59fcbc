package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics
	m.ObserveFetch(true)
	m.SetDoctorsLoaded(3)
	m.ObserveFilter("fee", 2)
	m.ObserveLedger("add", 1, nil)
}

func TestObserveFetch(t *testing.T) {
	m := NewMetrics()
	m.ObserveFetch(true)
	m.ObserveFetch(false)
	m.ObserveFetch(false)

	if got := testutil.ToFloat64(m.fetches.WithLabelValues("success")); got != 1 {
		t.Errorf("success fetches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.fetches.WithLabelValues("failure")); got != 2 {
		t.Errorf("failure fetches = %v, want 2", got)
	}
}

func TestObserveFilter_EmptySortLabel(t *testing.T) {
	m := NewMetrics()
	m.ObserveFilter("", 4)
	if got := testutil.ToFloat64(m.filterEvals.WithLabelValues("none")); got != 1 {
		t.Errorf("none evaluations = %v, want 1", got)
	}
}

func TestObserveLedger(t *testing.T) {
	m := NewMetrics()
	m.ObserveLedger("add", 2, nil)
	m.ObserveLedger("add", 0, errors.New("disk full"))

	if got := testutil.ToFloat64(m.ledgerSize); got != 2 {
		t.Errorf("ledger size = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ledgerOps.WithLabelValues("add", "error")); got != 1 {
		t.Errorf("error ops = %v, want 1", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := NewMetrics()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/status", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", m.Handler())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `docfinder_http_requests_total{method="GET",route="/api/status",status_code="200"} 1`) {
		t.Errorf("expected request counter in exposition, got:\n%s", body)
	}
}
