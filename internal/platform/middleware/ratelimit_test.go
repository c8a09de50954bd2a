package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mediscreen/patienthistory/internal/platform/auth"
)

func rateLimitedCall(t *testing.T, h echo.HandlerFunc, user string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/patient/note/api/add", nil)
	if user != "" {
		req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, user))
	}
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})(okHandler)

	for i := 0; i < 5; i++ {
		rec, err := rateLimitedCall(t, h, "dr-house")
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
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})(okHandler)

	for i := 0; i < 2; i++ {
		if _, err := rateLimitedCall(t, h, "dr-house"); err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
	}

	rec, err := rateLimitedCall(t, h, "dr-house")
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Error("expected X-RateLimit-Remaining 0")
	}
}

func TestRateLimit_SeparateBucketsPerUser(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})(okHandler)

	if _, err := rateLimitedCall(t, h, "dr-house"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := rateLimitedCall(t, h, "dr-cuddy"); err != nil {
		t.Fatalf("second user should have its own bucket, got %v", err)
	}
	if _, err := rateLimitedCall(t, h, "dr-house"); err == nil {
		t.Fatal("expected first user to be limited")
	}
}

func TestRateLimit_ZeroRateDisables(t *testing.T) {
	h := RateLimit(RateLimitConfig{})(okHandler)

	for i := 0; i < 50; i++ {
		if _, err := rateLimitedCall(t, h, ""); err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
	}
}

func TestLimiterStore_EvictsIdleCallers(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := 0; i < limiterSweepSize; i++ {
		store.get(fmt.Sprintf("ip:10.0.%d.%d", i/256, i%256))
	}
	if len(store.limiters) != limiterSweepSize {
		t.Fatalf("expected %d limiters, got %d", limiterSweepSize, len(store.limiters))
	}

	now = now.Add(limiterIdleTTL / 2)
	active := store.get("ip:10.0.0.1")

	now = now.Add(limiterIdleTTL/2 + time.Second)
	store.get("dr-house")

	if len(store.limiters) != 2 {
		t.Fatalf("expected idle callers evicted leaving 2, got %d", len(store.limiters))
	}
	if store.get("ip:10.0.0.1") != active {
		t.Error("recently seen caller should keep its limiter")
	}
}

func TestLimiterStore_NoSweepBelowThreshold(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.get("dr-house")
	now = now.Add(2 * limiterIdleTTL)
	store.get("dr-cuddy")

	if len(store.limiters) != 2 {
		t.Errorf("expected 2 limiters below the sweep threshold, got %d", len(store.limiters))
	}
}
