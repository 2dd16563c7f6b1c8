package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCountsDispatches(t *testing.T) {
	r := New("crm_test")
	ctx := context.Background()
	r.Observe(ctx, "cases/add", true, 3*time.Millisecond)
	r.Observe(ctx, "cases/add", true, time.Millisecond)
	r.Observe(ctx, "cases/add", false, time.Millisecond)
	r.Observe(ctx, "", true, time.Millisecond)

	if got := testutil.ToFloat64(r.dispatchTotal.WithLabelValues("cases/add", "success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(r.dispatchTotal.WithLabelValues("cases/add", "error")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if n := testutil.CollectAndCount(r.dispatchTotal); n != 2 {
		t.Fatalf("expected empty operation to be ignored, got %d series", n)
	}
}

func TestObserveUpload(t *testing.T) {
	r := New("")
	r.ObserveUpload(context.Background(), true, 128)
	r.ObserveUpload(context.Background(), false, 64)
	if got := testutil.ToFloat64(r.uploadBytes); got != 128 {
		t.Fatalf("expected only successful bytes counted, got %v", got)
	}
	if got := testutil.ToFloat64(r.uploadTotal.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed upload, got %v", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	r := New("crm_test")
	e := echo.New()
	e.Use(r.Middleware())
	e.GET("/api/cases/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", echo.WrapHandler(r.Handler()))

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cases/abc", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	if got := testutil.ToFloat64(r.httpTotal.WithLabelValues(http.MethodGet, "/api/cases/:id", "200")); got != 1 {
		t.Fatalf("expected route pattern label, got %v", got)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "crm_test_http_requests_total") {
		t.Fatalf("expected exposition to include http counter")
	}
	if !strings.Contains(string(body), `status="404"`) {
		t.Fatalf("expected unmatched route to be recorded as 404")
	}
}
