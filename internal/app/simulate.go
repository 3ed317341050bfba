package app

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/jzOcb/kalshi-trading/internal/config"
	"github.com/jzOcb/kalshi-trading/internal/domain"
	"github.com/jzOcb/kalshi-trading/internal/edge"
	"github.com/jzOcb/kalshi-trading/internal/probability"
)

// SimulateOptions feed a literal scenario through the probability model
// and edge calculator, bypassing all network fetches.
type SimulateOptions struct {
	Series     string
	Forecast   float64
	Threshold  float64
	Direction  string
	PriceCents int
	Side       string
}

// Simulate runs the edge pipeline on a hand-entered scenario and prints
// the intermediate values, for sanity-checking series parameters.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	params, ok := a.Config.SeriesFor(opts.Series)
	if !ok {
		return fmt.Errorf("unknown series %q, configured: %v", opts.Series, seriesKeys(a.Config.Series))
	}

	dir := probability.Above
	if opts.Direction == "below" {
		dir = probability.Below
	}

	est, err := probability.Implied(opts.Forecast, opts.Threshold, dir, params.Sigma, params.Bias)
	if err != nil {
		return err
	}

	side := domain.SideYes
	if opts.Side == "no" {
		side = domain.SideNo
	}

	sizing := edge.Params{
		TxCostCents:    params.TxCostCents,
		SmallMaxCents:  a.Config.Scanner.SmallMaxCents,
		MediumMaxCents: a.Config.Scanner.MediumMaxCents,
		SmallFraction:  a.Config.Scanner.SmallFraction,
		MediumFraction: a.Config.Scanner.MediumFraction,
		LargeFraction:  a.Config.Scanner.LargeFraction,
	}
	res := edge.Compute(est.Probability, opts.PriceCents, side, est.Signal, sizing)

	fmt.Fprintf(os.Stdout, "series %s: sigma=%.3f bias=%.3f tx_cost=%.1f¢\n", opts.Series, params.Sigma, params.Bias, params.TxCostCents)
	fmt.Fprintf(os.Stdout, "z=%.3f  implied=%.1f%%  signal=%s  fair YES=%d¢ NO=%d¢\n", est.ZScore, est.Probability, est.Signal, est.FairYes, est.FairNo)
	fmt.Fprintf(os.Stdout, "%s @%d¢: gross=%.1f¢ net=%.1f¢ action=%s size=%.0f%%\n", side, opts.PriceCents, res.GrossEdge, res.NetEdge, res.Action, res.PositionSize*100)
	return nil
}

func seriesKeys(m map[string]config.SeriesParams) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
