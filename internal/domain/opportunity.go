package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpportunityType distinguishes the detection path that produced a record.
type OpportunityType string

const (
	OppEdge          OpportunityType = "FORECAST_EDGE"
	OppSingleParity  OpportunityType = "SINGLE_MARKET_PARITY"
	OppBracketParity OpportunityType = "BRACKET_PARITY"
)

// Opportunity is a final, immutable trade recommendation. Edge-path records
// populate the probability and edge fields; parity-path records populate
// NetProfit/ProfitPct and Legs.
type Opportunity struct {
	Type               OpportunityType
	Ticker             string
	Title              string
	Side               Side
	EntryCostCents     int
	ImpliedProbability float64
	GrossEdge          float64
	NetEdge            float64
	AnnualizedYield    float64
	Confidence         Confidence
	Tier               int
	Sources            []string
	Reasons            []string
	RiskScore          int

	// Parity fields, in dollars per contract set.
	NetProfit decimal.Decimal
	ProfitPct decimal.Decimal
	Legs      int

	// StaleWarning flags a parity edge large enough (>3%) that delayed or
	// incorrect price data is the more likely explanation.
	StaleWarning bool

	Volume24h int64
	CloseTime time.Time
	URL       string
}

// AnnualizedYield computes the simple annualized return of buying side
// coverage at cost cents that pays 100 cents in days days.
func AnnualizedYieldPct(costCents, days int) float64 {
	if costCents <= 0 {
		return 0
	}
	if days < 1 {
		days = 1
	}
	ret := float64(100-costCents) / float64(costCents) * 100
	return ret / float64(days) * 365
}
