package fetcher

import (
	"context"

	"github.com/jzOcb/kalshi-trading/internal/domain"
)

// Event is an exchange event grouping one or more markets. When the
// exchange marks it mutually exclusive its markets form an exhaustive
// bracket set.
type Event struct {
	EventTicker       string
	Title             string
	Category          string
	MutuallyExclusive bool
}

// EventLister retrieves the open events on the exchange.
type EventLister interface {
	ListEvents(ctx context.Context) ([]Event, error)
}

// MarketSource retrieves market snapshots. Implementations must tolerate
// partial failures market-by-market; a missing detail is an error for that
// ticker only.
type MarketSource interface {
	MarketsForEvent(ctx context.Context, eventTicker string) ([]domain.Market, error)
	MarketDetail(ctx context.Context, ticker string) (domain.Market, error)
}

// ExchangeClient is the full surface the scanner consumes.
type ExchangeClient interface {
	EventLister
	MarketSource
}
