package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpportunityRecord is one persisted scan finding, keyed by scan bucket,
// ticker, and detection type. Edge findings carry the probability fields;
// parity findings carry NetProfit/ProfitPct/Legs.
type OpportunityRecord struct {
	ID             int64
	Bucket         time.Time
	OppType        string
	Ticker         string
	Title          string
	Side           string
	EntryCostCents int
	ImpliedProb    decimal.Decimal
	NetEdgeCents   decimal.Decimal
	AnnualizedPct  decimal.Decimal
	Confidence     string
	Tier           int
	Sources        []string
	NetProfit      decimal.Decimal
	ProfitPct      decimal.Decimal
	Legs           int
	RiskScore      int
	StaleWarning   bool
	Volume24h      int64
	CloseTime      *time.Time
	CreatedAt      time.Time
}

// AlertRecord captures an emitted alert for de-duplication/auditing.
type AlertRecord struct {
	ID           int64
	SampleTS     time.Time
	Ticker       string
	OppType      string
	NetEdgeCents decimal.Decimal
	ProfitPct    decimal.Decimal
	Channels     []string
	CreatedAt    time.Time
}
