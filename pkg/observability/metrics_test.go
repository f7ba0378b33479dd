package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInitMetricsServesInstruments(t *testing.T) {
	m, err := InitMetrics(MetricsConfig{ServiceName: "pggateway"})
	if err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	defer func() { _ = m.Shutdown(context.Background()) }()

	counter, err := m.Provider.Meter("test").Int64Counter("pg_test_total")
	if err != nil {
		t.Fatalf("Int64Counter: %v", err)
	}
	counter.Add(context.Background(), 3)

	rec := httptest.NewRecorder()
	m.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "pg_test_total") {
		t.Errorf("expected pg_test_total in /metrics output")
	}
}

func TestInitTracerWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracerConfig{ServiceName: "pggateway"})
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
