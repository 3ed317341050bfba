package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jzOcb/kalshi-trading/internal/classifier"
	"github.com/jzOcb/kalshi-trading/internal/fetcher"
)

// ClassifyOptions select the market to classify. With Ticker set the rules
// text is fetched from the exchange; otherwise Text is classified directly.
type ClassifyOptions struct {
	Ticker string
	Text   string
}

// Classify runs the verifiability classifier on one market or on literal
// rules text and prints the verdict.
func (a *App) Classify(ctx context.Context, opts ClassifyOptions) error {
	rules := opts.Text
	title := ""

	if opts.Ticker != "" {
		var client fetcher.ExchangeClient = a.newExchange()
		market, err := client.MarketDetail(ctx, opts.Ticker)
		if err != nil {
			return fmt.Errorf("fetch market %s: %w", opts.Ticker, err)
		}
		rules = market.RulesText
		title = market.Title
	}
	if rules == "" && title == "" {
		return errors.New("either --ticker or --text is required")
	}

	res := classifier.Classify(rules, title)

	fmt.Fprintf(os.Stdout, "verifiable: %v\n", res.Verifiable)
	fmt.Fprintf(os.Stdout, "tier:       %d (%s)\n", res.Tier, classifier.TierLabel(res.Tier))
	fmt.Fprintf(os.Stdout, "method:     %s\n", res.Method)
	if len(res.Sources) > 0 {
		fmt.Fprintf(os.Stdout, "sources:    %s\n", strings.Join(res.Sources, ", "))
	}
	if res.Detection != "" {
		fmt.Fprintf(os.Stdout, "detection:  %s\n", res.Detection)
	}
	return nil
}
