package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// Show prints recent scan findings.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show findings")
	}
	if closeStore != nil {
		defer closeStore()
	}

	records, err := store.ListRecentOpportunities(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no findings recorded")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tType\tTicker\tSide\tCost¢\tProb%\tEdge¢\tProfit%\tConf\tTier\tRisk")

	for _, rec := range records {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%d\t%d\n",
			rec.Bucket.UTC().Format(time.RFC3339),
			rec.OppType,
			sanitizeInline(rec.Ticker),
			rec.Side,
			rec.EntryCostCents,
			rec.ImpliedProb.StringFixed(1),
			rec.NetEdgeCents.StringFixed(1),
			rec.ProfitPct.StringFixed(2),
			rec.Confidence,
			rec.Tier,
			rec.RiskScore,
		)
	}

	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
