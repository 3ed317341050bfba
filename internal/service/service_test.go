package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jzOcb/kalshi-trading/internal/alerting"
	"github.com/jzOcb/kalshi-trading/internal/config"
	"github.com/jzOcb/kalshi-trading/internal/domain"
	"github.com/jzOcb/kalshi-trading/internal/storage"
)

type fakeAlertStore struct {
	inserted []storage.AlertRecord
	last     map[string]time.Time
}

func (f *fakeAlertStore) InsertAlert(_ context.Context, alert storage.AlertRecord) (storage.AlertRecord, error) {
	f.inserted = append(f.inserted, alert)
	return alert, nil
}

func (f *fakeAlertStore) ListRecentAlerts(context.Context, int) ([]storage.AlertRecord, error) {
	return nil, nil
}

func (f *fakeAlertStore) LastAlertForTicker(_ context.Context, ticker string) (time.Time, bool, error) {
	ts, ok := f.last[ticker]
	return ts, ok, nil
}

func (f *fakeAlertStore) DeleteAlertsBefore(context.Context, time.Time) error {
	return nil
}

type fakeNotifier struct {
	notes []alerting.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n alerting.Notification) error {
	f.notes = append(f.notes, n)
	return nil
}

func alertingConfig() *config.Config {
	return &config.Config{Alerting: config.AlertingConfig{
		Enabled:            true,
		MinNetEdgeCents:    10,
		MinParityProfitPct: 0.5,
		Cooldown:           30 * time.Minute,
		Channels:           []string{"telegram"},
	}}
}

func TestDispatchAlertsFiltersAndPersists(t *testing.T) {
	alerts := &fakeAlertStore{last: map[string]time.Time{
		"KXCOOL-26SEP-T1": time.Now().Add(-5 * time.Minute),
	}}
	notifier := &fakeNotifier{}
	svc := New(alertingConfig(), nil, nil, nil, alerts, notifier, zerolog.Nop())

	bucket := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	opps := []domain.Opportunity{
		{Type: domain.OppEdge, Ticker: "KXBIG-26SEP-T1", NetEdge: 15},
		{Type: domain.OppEdge, Ticker: "KXSMALL-26SEP-T1", NetEdge: 3},
		{Type: domain.OppEdge, Ticker: "KXCOOL-26SEP-T1", NetEdge: 22}, // recently alerted
		{Type: domain.OppSingleParity, Ticker: "KXPAR-26SEP-W1", ProfitPct: decimal.NewFromFloat(0.8)},
		{Type: domain.OppBracketParity, Ticker: "KXPAR-26SEP", ProfitPct: decimal.NewFromFloat(0.2)},
	}

	svc.dispatchAlerts(context.Background(), bucket, opps)

	if len(notifier.notes) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.notes))
	}
	note := notifier.notes[0]
	if len(note.Opportunities) != 2 {
		t.Fatalf("expected 2 alertable opportunities, got %+v", note.Opportunities)
	}
	if note.Opportunities[0].Ticker != "KXBIG-26SEP-T1" || note.Opportunities[1].Ticker != "KXPAR-26SEP-W1" {
		t.Fatalf("unexpected alert set: %+v", note.Opportunities)
	}
	if len(alerts.inserted) != 2 {
		t.Fatalf("expected 2 alert records, got %d", len(alerts.inserted))
	}
	if !alerts.inserted[0].SampleTS.Equal(bucket) {
		t.Fatalf("alert record bucket = %v, want %v", alerts.inserted[0].SampleTS, bucket)
	}
}

func TestDispatchAlertsNothingOverThreshold(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := New(alertingConfig(), nil, nil, nil, &fakeAlertStore{}, notifier, zerolog.Nop())

	svc.dispatchAlerts(context.Background(), time.Now(), []domain.Opportunity{
		{Type: domain.OppEdge, Ticker: "KXSMALL", NetEdge: 1},
	})

	if len(notifier.notes) != 0 {
		t.Fatalf("below-threshold findings must not notify, got %+v", notifier.notes)
	}
}

func TestToRecord(t *testing.T) {
	closeAt := time.Date(2026, 9, 3, 3, 0, 0, 0, time.UTC)
	bucket := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	opp := domain.Opportunity{
		Type:               domain.OppEdge,
		Ticker:             "KXHIGHNY-26SEP02-B88",
		Side:               domain.SideYes,
		EntryCostCents:     60,
		ImpliedProbability: 90.9,
		NetEdge:            25.9,
		Confidence:         domain.ConfidenceHigh,
		Tier:               1,
		Sources:            []string{"NWS"},
		CloseTime:          closeAt,
	}

	rec := ToRecord(bucket, opp)
	if rec.OppType != string(domain.OppEdge) || rec.Side != "YES" {
		t.Fatalf("record mismatch: %+v", rec)
	}
	if !rec.Bucket.Equal(bucket) {
		t.Fatalf("bucket = %v, want %v", rec.Bucket, bucket)
	}
	if rec.NetEdgeCents.String() != "25.9" {
		t.Fatalf("net edge = %s, want 25.9", rec.NetEdgeCents)
	}
	if rec.CloseTime == nil || !rec.CloseTime.Equal(closeAt) {
		t.Fatalf("close time = %v, want %v", rec.CloseTime, closeAt)
	}

	opp.CloseTime = time.Time{}
	if rec := ToRecord(bucket, opp); rec.CloseTime != nil {
		t.Fatal("zero close time must map to NULL")
	}
}
