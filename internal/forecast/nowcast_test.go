package forecast

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const gdpFeedXML = `<?xml version="1.0"?>
<GDPNow>
  <Series>
    <Forecast date="2026-08-28">2.9</Forecast>
  </Series>
</GDPNow>`

const cpiPageHTML = `<html><body>
<h2>Inflation Nowcasting</h2>
<p>The current month CPI nowcast is 0.25% month-over-month.</p>
</body></html>`

func TestNowcastGDP(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(gdpFeedXML))
	}))
	defer srv.Close()

	p := NewNowcast(NowcastOptions{GDPNowURL: srv.URL, Timeout: time.Second}, NewCache(time.Hour), zerolog.Nop())

	point, err := p.Forecast(context.Background(), Query{Topic: "GDP", Metric: MetricGDP})
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if point.Value != 2.9 {
		t.Fatalf("expected 2.9, got %v", point.Value)
	}
	if point.Source != "Atlanta Fed GDPNow" {
		t.Fatalf("unexpected source %q", point.Source)
	}

	// Second call is served from cache.
	if _, err := p.Forecast(context.Background(), Query{Metric: MetricGDP}); err != nil {
		t.Fatalf("cached Forecast: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", hits)
	}
}

func TestNowcastCPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(cpiPageHTML))
	}))
	defer srv.Close()

	p := NewNowcast(NowcastOptions{CPIURL: srv.URL, Timeout: time.Second}, nil, zerolog.Nop())

	point, err := p.Forecast(context.Background(), Query{Topic: "CPI", Metric: MetricCPI})
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if point.Value != 0.25 {
		t.Fatalf("expected 0.25, got %v", point.Value)
	}
}

func TestNowcastNoValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>maintenance</body></html>"))
	}))
	defer srv.Close()

	p := NewNowcast(NowcastOptions{CPIURL: srv.URL, Timeout: time.Second}, nil, zerolog.Nop())

	_, err := p.Forecast(context.Background(), Query{Metric: MetricCPI})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestNowcastUnsupportedMetric(t *testing.T) {
	p := NewNowcast(NowcastOptions{}, nil, zerolog.Nop())
	_, err := p.Forecast(context.Background(), Query{Metric: MetricSnow})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for unsupported metric, got %v", err)
	}
}

func TestNowcastUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewNowcast(NowcastOptions{GDPNowURL: srv.URL, Timeout: time.Second}, nil, zerolog.Nop())

	_, err := p.Forecast(context.Background(), Query{Metric: MetricGDP})
	if err == nil {
		t.Fatal("5xx from the source must surface as an error")
	}
	if errors.Is(err, ErrNoData) {
		t.Fatal("transport failure must not masquerade as no-data")
	}
}
