package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jzOcb/kalshi-trading/internal/scanner"
	"github.com/jzOcb/kalshi-trading/internal/service"
)

// ScanOptions configure a one-shot scan.
type ScanOptions struct {
	Persist bool
}

// Scan runs a single scan cycle and prints the report to stdout. With
// Persist set and a configured database, findings are also recorded under
// the current aligned bucket.
func (a *App) Scan(ctx context.Context, opts ScanOptions) error {
	sc, err := a.newScanner()
	if err != nil {
		return err
	}

	res, err := sc.Scan(ctx)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stdout, scanner.RenderReport(res))

	if opts.Persist {
		store, closeStore, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			a.Logger.Warn().Msg("database.dsn not configured; scan results not persisted")
			return nil
		}
		defer closeStore()

		bucket := time.Now().UTC().Truncate(a.Config.Scheduler.Interval)
		for _, opp := range res.Opportunities {
			rec := service.ToRecord(bucket, opp)
			if err := store.UpsertOpportunity(ctx, rec); err != nil {
				a.Logger.Error().Err(err).Str("ticker", opp.Ticker).Msg("failed to persist finding")
			}
		}
	}

	return nil
}
