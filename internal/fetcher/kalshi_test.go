package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestKalshi(t *testing.T, handler http.Handler, pageLimit int) *Kalshi {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewKalshi(KalshiOptions{
		BaseURL:   srv.URL,
		Timeout:   2 * time.Second,
		PageLimit: pageLimit,
	}, zerolog.Nop())
}

func TestListEventsPaginates(t *testing.T) {
	var cursors []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != "open" {
			t.Fatalf("status query = %q, want open", got)
		}
		if got := r.URL.Query().Get("limit"); got != "2" {
			t.Fatalf("limit query = %q, want 2", got)
		}

		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)
		w.Header().Set("Content-Type", "application/json")
		switch cursor {
		case "":
			_, _ = w.Write([]byte(`{"events":[
				{"event_ticker":"KXHIGHNY-26SEP02","title":"High temp in NYC","category":"Climate","mutually_exclusive":true},
				{"event_ticker":"KXGDP-26Q3","title":"Q3 GDP","category":"Economics","mutually_exclusive":false}
			],"cursor":"page2"}`))
		case "page2":
			_, _ = w.Write([]byte(`{"events":[
				{"event_ticker":"KXCPI-26AUG","title":"August CPI","category":"Economics","mutually_exclusive":false}
			],"cursor":""}`))
		default:
			t.Fatalf("unexpected cursor %q", cursor)
		}
	})

	client := newTestKalshi(t, handler, 2)
	events, err := client.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events across pages, got %d", len(events))
	}
	if len(cursors) != 2 || cursors[1] != "page2" {
		t.Fatalf("expected a second request with cursor=page2, got %v", cursors)
	}
	if events[0].EventTicker != "KXHIGHNY-26SEP02" || !events[0].MutuallyExclusive {
		t.Fatalf("first event mismatch: %+v", events[0])
	}
	if events[2].EventTicker != "KXCPI-26AUG" {
		t.Fatalf("last event mismatch: %+v", events[2])
	}
}

func TestListEventsStopsOnShortPage(t *testing.T) {
	requests := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// One event on a limit-10 page with a dangling cursor. The short
		// page must end pagination anyway.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events":[{"event_ticker":"KXGDP-26Q3","title":"Q3 GDP"}],"cursor":"ghost"}`))
	})

	client := newTestKalshi(t, handler, 10)
	events, err := client.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if requests != 1 {
		t.Fatalf("expected a single request, got %d", requests)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestMarketsForEventConvertsFields(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("event_ticker"); got != "KXHIGHNY-26SEP02" {
			t.Fatalf("event_ticker query = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"markets":[{
			"ticker":"KXHIGHNY-26SEP02-B88",
			"event_ticker":"KXHIGHNY-26SEP02",
			"title":"High temp in NYC",
			"subtitle":"88° or above",
			"category":"Climate",
			"rules_primary":"Settles per the NWS daily climate report.",
			"yes_bid":44,"yes_ask":46,"no_bid":52,"no_ask":54,
			"last_price":45,"volume":12000,"volume_24h":3400,"open_interest":9000,
			"close_time":"2026-09-03T03:00:00Z"
		}],"cursor":""}`))
	})

	client := newTestKalshi(t, handler, 100)
	markets, err := client.MarketsForEvent(context.Background(), "KXHIGHNY-26SEP02")
	if err != nil {
		t.Fatalf("MarketsForEvent: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("expected 1 market, got %d", len(markets))
	}

	m := markets[0]
	if m.Ticker != "KXHIGHNY-26SEP02-B88" || m.EventTicker != "KXHIGHNY-26SEP02" {
		t.Fatalf("ticker fields mismatch: %+v", m)
	}
	if m.YesAsk != 46 || m.NoAsk != 54 || m.YesBid != 44 || m.NoBid != 52 {
		t.Fatalf("price fields mismatch: %+v", m)
	}
	if m.RulesText != "Settles per the NWS daily climate report." {
		t.Fatalf("rules_primary should map to RulesText, got %q", m.RulesText)
	}
	if m.Volume24h != 3400 || m.OpenInterest != 9000 {
		t.Fatalf("volume fields mismatch: %+v", m)
	}
	want := time.Date(2026, 9, 3, 3, 0, 0, 0, time.UTC)
	if !m.CloseTime.Equal(want) {
		t.Fatalf("close time = %v, want %v", m.CloseTime, want)
	}
}

func TestMarketDetail(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/KXGDP-26Q3-T2.5" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		payload := map[string]any{"market": map[string]any{
			"ticker":        "KXGDP-26Q3-T2.5",
			"event_ticker":  "KXGDP-26Q3",
			"title":         "GDP growth above 2.5%",
			"rules_primary": "Resolves per the BEA advance estimate.",
			"yes_ask":       60,
		}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})

	client := newTestKalshi(t, handler, 100)
	m, err := client.MarketDetail(context.Background(), "KXGDP-26Q3-T2.5")
	if err != nil {
		t.Fatalf("MarketDetail: %v", err)
	}
	if m.Ticker != "KXGDP-26Q3-T2.5" || m.YesAsk != 60 {
		t.Fatalf("detail mismatch: %+v", m)
	}
	if !m.CloseTime.IsZero() {
		t.Fatalf("missing close_time should yield zero time, got %v", m.CloseTime)
	}
}

func TestMarketDetailAPIError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	})

	client := newTestKalshi(t, handler, 100)
	if _, err := client.MarketDetail(context.Background(), "KXNOPE"); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}
