package parity

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jzOcb/kalshi-trading/internal/domain"
)

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(0.007)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestNewEngineRejectsBadFee(t *testing.T) {
	if _, err := NewEngine(-0.1); err == nil {
		t.Fatal("negative fee rate must be rejected")
	}
	if _, err := NewEngine(1.0); err == nil {
		t.Fatal("fee rate of 1 must be rejected")
	}
}

func TestSingleMarketParity(t *testing.T) {
	e := mustEngine(t)

	m := domain.Market{
		Ticker:    "KXCPI-26SEP-T3.0",
		YesAsk:    46,
		NoAsk:     52,
		Volume24h: 50_000,
	}

	opp := e.SingleMarket(m)
	if opp == nil {
		t.Fatal("46 + 52 = 98 cents should be a parity violation")
	}

	// Worst-case fee is on the YES side: 0.007 * (100-46)/100 = $0.00378,
	// net = 1.00 - 0.98 - 0.00378 = $0.01622.
	wantNet := decimal.RequireFromString("0.0162")
	if !opp.NetProfit.Equal(wantNet) {
		t.Fatalf("expected net profit %s, got %s", wantNet, opp.NetProfit)
	}
	wantPct := decimal.RequireFromString("1.66")
	if !opp.ProfitPct.Equal(wantPct) {
		t.Fatalf("expected profit pct %s, got %s", wantPct, opp.ProfitPct)
	}
	if opp.Legs != 2 {
		t.Fatalf("single-market parity has 2 legs, got %d", opp.Legs)
	}
	if opp.StaleWarning {
		t.Fatal("1.66%% edge should not trigger the stale warning")
	}
	if opp.EntryCostCents != 98 {
		t.Fatalf("expected entry cost 98 cents, got %d", opp.EntryCostCents)
	}
}

func TestSingleMarketNoViolation(t *testing.T) {
	e := mustEngine(t)

	if opp := e.SingleMarket(domain.Market{YesAsk: 50, NoAsk: 51}); opp != nil {
		t.Fatalf("asks summing above payout must not be flagged, got %+v", opp)
	}
	// 49 + 50 = 99 leaves a 1 cent margin, still positive after the fee.
	if opp := e.SingleMarket(domain.Market{YesAsk: 49, NoAsk: 50}); opp == nil {
		t.Fatal("99 cents with 0.7% fee still nets a profit")
	}
	if opp := e.SingleMarket(domain.Market{YesAsk: 0, NoAsk: 40}); opp != nil {
		t.Fatal("missing YES ask must be skipped")
	}
	if opp := e.SingleMarket(domain.Market{YesAsk: 40, NoAsk: 0}); opp != nil {
		t.Fatal("missing NO ask must be skipped")
	}
}

func TestSingleMarketStaleWarning(t *testing.T) {
	e := mustEngine(t)

	// 40 + 50 = 90 cents nets well above 3%, which is suspicious.
	opp := e.SingleMarket(domain.Market{Ticker: "X", YesAsk: 40, NoAsk: 50})
	if opp == nil {
		t.Fatal("expected a parity violation")
	}
	if !opp.StaleWarning {
		t.Fatalf("profit of %s%% should trigger the stale warning", opp.ProfitPct)
	}
}

func TestBracketParity(t *testing.T) {
	e := mustEngine(t)

	b := domain.EventBracket{
		EventTicker: "KXHIGHNY-26SEP05",
		Markets: []domain.Market{
			{Ticker: "KXHIGHNY-26SEP05-B70", YesAsk: 30, Volume24h: 1_000},
			{Ticker: "KXHIGHNY-26SEP05-B75", YesAsk: 32, Volume24h: 2_000},
			{Ticker: "KXHIGHNY-26SEP05-B80", YesAsk: 33, Volume24h: 3_000},
		},
	}

	opp := e.Bracket(b)
	if opp == nil {
		t.Fatal("bracket asks summing to 95 cents should be flagged")
	}

	// Fee worst case is the cheapest leg winning: 0.007 * 0.70 = $0.0049,
	// net = 1.00 - 0.95 - 0.0049 = $0.0451.
	wantNet := decimal.RequireFromString("0.0451")
	if !opp.NetProfit.Equal(wantNet) {
		t.Fatalf("expected net profit %s, got %s", wantNet, opp.NetProfit)
	}
	if opp.Legs != 3 {
		t.Fatalf("expected 3 legs, got %d", opp.Legs)
	}
	if opp.Type != domain.OppBracketParity {
		t.Fatalf("expected %s, got %s", domain.OppBracketParity, opp.Type)
	}
	if !opp.StaleWarning {
		t.Fatal("a 4.7%% bracket edge should carry the stale warning")
	}
	if opp.Volume24h != 6_000 {
		t.Fatalf("bracket volume should sum leg volumes, got %d", opp.Volume24h)
	}
}

func TestBracketSkipsUnpricedLegs(t *testing.T) {
	e := mustEngine(t)

	b := domain.EventBracket{
		EventTicker: "EVT",
		Markets: []domain.Market{
			{Ticker: "EVT-A", YesAsk: 40},
			{Ticker: "EVT-B", YesAsk: 0}, // unquoted
		},
	}
	if opp := e.Bracket(b); opp != nil {
		t.Fatal("a single priced leg is not a bracket")
	}
}

func TestRiskScore(t *testing.T) {
	cases := []struct {
		name      string
		profitPct float64
		volume    int64
		legs      int
		bracket   bool
		want      int
	}{
		{"liquid small edge", 0.2, 150_000, 2, false, 30},
		{"thin market", 1.5, 500, 2, false, 75},
		{"huge edge bracket", 6.0, 500, 5, true, 100},
		{"moderate bracket", 2.0, 20_000, 3, true, 65},
	}
	for _, tc := range cases {
		got := RiskScore(tc.profitPct, tc.volume, tc.legs, tc.bracket)
		if got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestRiskScoreBounds(t *testing.T) {
	for _, vol := range []int64{0, 5_000, 500_000} {
		for _, pct := range []float64{0.1, 2, 10} {
			for _, legs := range []int{2, 3, 6} {
				got := RiskScore(pct, vol, legs, true)
				if got < 0 || got > 100 {
					t.Fatalf("score out of range: %d", got)
				}
			}
		}
	}
}
