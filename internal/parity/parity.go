// Package parity detects risk-free arbitrage from price parity violations.
// On Kalshi every market has YES and NO sides paying $1.00 to exactly one of
// them; when the asks sum to less than the payout after fees, buying both
// locks in profit. The same holds for an exhaustive bracket set where
// exactly one bracket settles at $1.00.
package parity

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jzOcb/kalshi-trading/internal/domain"
)

var (
	decPayout  = decimal.NewFromInt(1) // settlement payout in dollars
	decHundred = decimal.NewFromInt(100)
)

// staleEdgePct is the profit percentage above which real arbitrage is rare
// enough that delayed or wrong price data is the better explanation.
const staleEdgePct = 3.0

// Engine evaluates parity violations under a fee schedule. Fees are charged
// on the winning side's profit margin; since the winner is unknown at entry
// the worst-case margin is assumed.
type Engine struct {
	feeRate decimal.Decimal
}

// NewEngine builds a parity engine for the given per-side fee rate
// (e.g. 0.007 for Kalshi's ~0.7%).
func NewEngine(feeRate float64) (*Engine, error) {
	if feeRate < 0 || feeRate >= 1 {
		return nil, fmt.Errorf("parity: fee rate must be in [0,1), got %v", feeRate)
	}
	return &Engine{feeRate: decimal.NewFromFloat(feeRate)}, nil
}

// SingleMarket checks YES/NO parity on one market. It returns nil when
// either ask is missing or the trade is not profitable after worst-case
// fees.
func (e *Engine) SingleMarket(m domain.Market) *domain.Opportunity {
	if m.YesAsk <= 0 || m.NoAsk <= 0 {
		return nil
	}

	totalCents := m.YesAsk + m.NoAsk
	cost := centsToDollars(totalCents)

	// Fee applies to the winning side's profit; worst case is whichever
	// side has the larger margin.
	feeYesWins := e.feeOnMargin(m.YesAsk)
	feeNoWins := e.feeOnMargin(m.NoAsk)
	maxFee := decimal.Max(feeYesWins, feeNoWins)

	net := decPayout.Sub(cost).Sub(maxFee)
	if net.Sign() <= 0 {
		return nil
	}

	profitPct := net.Div(cost).Mul(decHundred)
	pct, _ := profitPct.Float64()

	return &domain.Opportunity{
		Type:           domain.OppSingleParity,
		Ticker:         m.Ticker,
		Title:          m.Title,
		EntryCostCents: totalCents,
		NetProfit:      net.Round(4),
		ProfitPct:      profitPct.Round(2),
		Legs:           2,
		RiskScore:      RiskScore(pct, m.Volume24h, 2, false),
		StaleWarning:   pct > staleEdgePct,
		Volume24h:      m.Volume24h,
		CloseTime:      m.CloseTime,
		URL:            m.URL(),
		Reasons: []string{
			fmt.Sprintf("YES %d¢ + NO %d¢ = %d¢ < 100¢ payout", m.YesAsk, m.NoAsk, totalCents),
			fmt.Sprintf("worst-case fee %s$", maxFee.Round(4)),
		},
	}
}

// Bracket checks parity across the mutually exclusive brackets of one
// event. Legs without a YES ask are skipped; fewer than two priced legs is
// not a bracket. The worst-case fee assumes the cheapest bracket (highest
// margin) wins.
func (e *Engine) Bracket(b domain.EventBracket) *domain.Opportunity {
	legs := make([]domain.Market, 0, len(b.Markets))
	for _, m := range b.Markets {
		if m.YesAsk > 0 {
			legs = append(legs, m)
		}
	}
	if len(legs) < 2 {
		return nil
	}

	totalCents := 0
	minAsk := legs[0].YesAsk
	var totalVol int64
	for _, m := range legs {
		totalCents += m.YesAsk
		if m.YesAsk < minAsk {
			minAsk = m.YesAsk
		}
		totalVol += m.Volume24h
	}

	cost := centsToDollars(totalCents)
	maxFee := e.feeOnMargin(minAsk)

	net := decPayout.Sub(cost).Sub(maxFee)
	if net.Sign() <= 0 {
		return nil
	}

	profitPct := net.Div(cost).Mul(decHundred)
	pct, _ := profitPct.Float64()

	tickers := make([]string, len(legs))
	for i, m := range legs {
		tickers[i] = m.Ticker
	}
	sort.Strings(tickers)

	return &domain.Opportunity{
		Type:           domain.OppBracketParity,
		Ticker:         b.EventTicker,
		Title:          legs[0].Title,
		EntryCostCents: totalCents,
		NetProfit:      net.Round(4),
		ProfitPct:      profitPct.Round(2),
		Legs:           len(legs),
		RiskScore:      RiskScore(pct, totalVol, len(legs), true),
		StaleWarning:   pct > staleEdgePct,
		Volume24h:      totalVol,
		CloseTime:      legs[0].CloseTime,
		Reasons: []string{
			fmt.Sprintf("%d bracket YES asks sum to %d¢ < 100¢ payout", len(legs), totalCents),
			fmt.Sprintf("legs: %v", tickers),
		},
	}
}

// feeOnMargin computes the fee in dollars charged when a side bought at
// askCents wins: fee_rate * (100 - ask) / 100.
func (e *Engine) feeOnMargin(askCents int) decimal.Decimal {
	margin := 100 - askCents
	if margin < 0 {
		margin = 0
	}
	return decimal.NewFromInt(int64(margin)).Mul(e.feeRate).Div(decHundred)
}

// RiskScore rates an arbitrage opportunity from 0 (safest) to 100. Thin
// liquidity and extra legs add risk; an unusually large edge adds more,
// because it usually means the quotes are stale.
func RiskScore(profitPct float64, volume int64, legs int, bracket bool) int {
	score := 50

	switch {
	case volume > 100_000:
		score -= 15
	case volume > 10_000:
		score -= 5
	case volume < 1_000:
		score += 20
	}

	switch {
	case profitPct > 5.0:
		score += 25
	case profitPct > 3.0:
		score += 15
	case profitPct > 1.0:
		score += 5
	case profitPct < 0.3:
		score -= 5
	}

	if legs > 4 {
		score += 15
	} else if legs > 2 {
		score += 5
	}

	if bracket {
		score += 10
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func centsToDollars(cents int) decimal.Decimal {
	return decimal.NewFromInt(int64(cents)).Div(decHundred)
}
