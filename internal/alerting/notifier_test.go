package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jzOcb/kalshi-trading/internal/domain"
)

func sampleNotification() Notification {
	return Notification{
		Bucket: time.Now(),
		Opportunities: []domain.Opportunity{
			{
				Type:               domain.OppEdge,
				Ticker:             "KXHIGHNY-26SEP05-T85",
				Side:               domain.SideYes,
				EntryCostCents:     70,
				ImpliedProbability: 88,
				NetEdge:            13,
				Confidence:         domain.ConfidenceHigh,
			},
			{
				Type:      domain.OppSingleParity,
				Ticker:    "KXCPI-26SEP-T3.0",
				NetProfit: decimal.NewFromFloat(0.0162),
				ProfitPct: decimal.NewFromFloat(1.65),
				Legs:      2,
				RiskScore: 45,
			},
		},
		Channels: []string{"telegram"},
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("path should contain sendMessage, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())

	if err := notifier.Notify(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("Telegram Notify should succeed: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("unexpected chat_id: %#v", received)
	}
	if !strings.Contains(received["text"], "KXHIGHNY-26SEP05-T85") {
		t.Fatalf("text should mention edge ticker, got %q", received["text"])
	}
	if !strings.Contains(received["text"], "parity profit") {
		t.Fatalf("text should mention parity finding, got %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())

	if err := notifier.Notify(context.Background(), sampleNotification()); err == nil {
		t.Fatal("ok=false should surface an error")
	}
}

func TestRenderMessageStaleWarning(t *testing.T) {
	note := Notification{
		Bucket: time.Now(),
		Opportunities: []domain.Opportunity{
			{
				Type:         domain.OppBracketParity,
				Ticker:       "KXHIGHCHI-26SEP05",
				NetProfit:    decimal.NewFromFloat(0.05),
				ProfitPct:    decimal.NewFromFloat(5.2),
				Legs:         4,
				RiskScore:    80,
				StaleWarning: true,
			},
		},
	}

	text := renderMessage(note)
	if !strings.Contains(text, "stale quotes") {
		t.Fatalf("stale warning missing from message: %q", text)
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
