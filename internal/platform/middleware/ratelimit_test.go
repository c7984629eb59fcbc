package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func serve(e *echo.Echo, h echo.HandlerFunc, ip string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})(okHandler)

	for i := 0; i < 5; i++ {
		rec, err := serve(e, h, "10.0.0.1")
		if err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})(okHandler)

	for i := 0; i < 2; i++ {
		if _, err := serve(e, h, "10.0.0.2"); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	rec, err := serve(e, h, "10.0.0.2")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
	retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil || retry < 1 {
		t.Errorf("expected positive Retry-After, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected X-RateLimit-Remaining 0")
	}
}

func TestRateLimit_PerClient(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})(okHandler)

	if _, err := serve(e, h, "10.0.0.3"); err != nil {
		t.Fatalf("first client: %v", err)
	}
	if _, err := serve(e, h, "10.0.0.4"); err != nil {
		t.Fatalf("second client should have its own bucket: %v", err)
	}
	if _, err := serve(e, h, "10.0.0.3"); err == nil {
		t.Fatal("first client should be limited")
	}
}

func TestRateLimit_Skipper(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
		Skipper:           func(c echo.Context) bool { return true },
	})(okHandler)

	for i := 0; i < 5; i++ {
		if _, err := serve(e, h, "10.0.0.5"); err != nil {
			t.Fatalf("skipped request %d limited: %v", i+1, err)
		}
	}
}

func TestRateLimit_ZeroConfigUsesDefaults(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{})(okHandler)

	rec, err := serve(e, h, "10.0.0.6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := strconv.Itoa(int(DefaultRateLimitConfig().RequestsPerSecond))
	if got := rec.Header().Get("X-RateLimit-Limit"); got != want {
		t.Errorf("expected limit %s, got %s", want, got)
	}
}

func TestTokenBucket_Refills(t *testing.T) {
	b := newTokenBucket(1000, 1)
	if !b.allow() {
		t.Fatal("first take should succeed")
	}
	b.lastRefill = b.lastRefill.Add(-10 * time.Millisecond)
	if !b.allow() {
		t.Error("bucket should have refilled")
	}
}
