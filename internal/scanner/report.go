package scanner

import (
	"fmt"
	"strings"

	"github.com/jzOcb/kalshi-trading/internal/domain"
)

// RenderReport formats a scan result as a console report: parity findings
// first, then forecast edges grouped by forecast confidence, then counters.
func RenderReport(res Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "scan at %s\n", res.At.Format("2006-01-02 15:04:05 MST"))
	b.WriteString(strings.Repeat("=", 72) + "\n")

	parities := filterType(res.Opportunities, func(t domain.OpportunityType) bool {
		return t == domain.OppSingleParity || t == domain.OppBracketParity
	})
	if len(parities) > 0 {
		b.WriteString("\nPARITY ARBITRAGE\n")
		for _, o := range parities {
			renderParity(&b, o)
		}
	}

	edges := filterType(res.Opportunities, func(t domain.OpportunityType) bool {
		return t == domain.OppEdge
	})
	for _, conf := range []domain.Confidence{domain.ConfidenceHigh, domain.ConfidenceMedium, domain.ConfidenceLow} {
		group := filterConfidence(edges, conf)
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\nFORECAST EDGE [%s confidence]\n", conf)
		for _, o := range group {
			renderEdge(&b, o)
		}
	}

	if len(res.Opportunities) == 0 {
		b.WriteString("\nno opportunities found\n")
	}

	st := res.Stats
	fmt.Fprintf(&b, "\n%d events, %d markets scanned; %d edge, %d parity; %d tier-rejected, %d without forecast, %d provider errors\n",
		st.Events, st.Markets, st.EdgeFound, st.ParityFound, st.RejectedTier, st.NoForecast, st.ProviderErrors)

	return b.String()
}

func renderParity(b *strings.Builder, o domain.Opportunity) {
	label := "single"
	if o.Type == domain.OppBracketParity {
		label = fmt.Sprintf("bracket x%d", o.Legs)
	}
	fmt.Fprintf(b, "  %-28s %-10s profit $%s/set (%s%%) risk %d",
		o.Ticker, label, o.NetProfit.StringFixed(4), o.ProfitPct.StringFixed(2), o.RiskScore)
	if o.StaleWarning {
		b.WriteString("  [possible stale quote]")
	}
	b.WriteString("\n")
	if o.URL != "" {
		fmt.Fprintf(b, "      %s\n", o.URL)
	}
}

func renderEdge(b *strings.Builder, o domain.Opportunity) {
	fmt.Fprintf(b, "  %-28s %s @%d¢  prob %.1f%%  net edge %.1f¢  ann %.0f%%  tier %d\n",
		o.Ticker, o.Side, o.EntryCostCents, o.ImpliedProbability, o.NetEdge, o.AnnualizedYield, o.Tier)
	for _, r := range o.Reasons {
		fmt.Fprintf(b, "      %s\n", r)
	}
}

func filterType(opps []domain.Opportunity, keep func(domain.OpportunityType) bool) []domain.Opportunity {
	var out []domain.Opportunity
	for _, o := range opps {
		if keep(o.Type) {
			out = append(out, o)
		}
	}
	return out
}

func filterConfidence(opps []domain.Opportunity, c domain.Confidence) []domain.Opportunity {
	var out []domain.Opportunity
	for _, o := range opps {
		if o.Confidence == c {
			out = append(out, o)
		}
	}
	return out
}
