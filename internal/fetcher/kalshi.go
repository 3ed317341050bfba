package fetcher

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/jzOcb/kalshi-trading/internal/domain"
)

// KalshiOptions parameterise the exchange client.
type KalshiOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	PageLimit int
}

// Kalshi is a read-only client for the Kalshi trade API. Retry and rate
// limit cooldown live here at the collaborator layer; the scan core never
// sees a 429.
type Kalshi struct {
	opts   KalshiOptions
	logger zerolog.Logger
	client *resty.Client
}

// NewKalshi builds the exchange client.
func NewKalshi(opts KalshiOptions, logger zerolog.Logger) *Kalshi {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.elections.kalshi.com/trade-api/v2"
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = 200
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "kalshi-scanner/1.0"
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r.StatusCode() == 429
		}).
		SetRetryAfter(func(c *resty.Client, r *resty.Response) (time.Duration, error) {
			if retryAfter := r.Header().Get("Retry-After"); retryAfter != "" {
				if secs, err := strconv.Atoi(retryAfter); err == nil {
					return time.Duration(secs) * time.Second, nil
				}
			}
			return 3 * time.Second, nil
		})

	return &Kalshi{
		opts:   opts,
		logger: logger.With().Str("component", "kalshi_client").Logger(),
		client: client,
	}
}

type eventsResponse struct {
	Events []kalshiEvent `json:"events"`
	Cursor string        `json:"cursor"`
}

type kalshiEvent struct {
	EventTicker       string `json:"event_ticker"`
	Title             string `json:"title"`
	Category          string `json:"category"`
	MutuallyExclusive bool   `json:"mutually_exclusive"`
}

type marketsResponse struct {
	Markets []kalshiMarket `json:"markets"`
	Cursor  string         `json:"cursor"`
}

type marketResponse struct {
	Market kalshiMarket `json:"market"`
}

type kalshiMarket struct {
	Ticker       string `json:"ticker"`
	EventTicker  string `json:"event_ticker"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Category     string `json:"category"`
	RulesPrimary string `json:"rules_primary"`
	YesBid       int    `json:"yes_bid"`
	YesAsk       int    `json:"yes_ask"`
	NoBid        int    `json:"no_bid"`
	NoAsk        int    `json:"no_ask"`
	LastPrice    int    `json:"last_price"`
	Volume       int64  `json:"volume"`
	Volume24h    int64  `json:"volume_24h"`
	OpenInterest int64  `json:"open_interest"`
	CloseTime    string `json:"close_time"`
}

// ListEvents pages through all open events.
func (k *Kalshi) ListEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	cursor := ""
	for {
		var page eventsResponse
		req := k.client.R().
			SetContext(ctx).
			SetQueryParam("status", "open").
			SetQueryParam("limit", strconv.Itoa(k.opts.PageLimit)).
			SetResult(&page)
		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}

		resp, err := req.Get("/events")
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("list events: kalshi api error (%d)", resp.StatusCode())
		}

		for _, e := range page.Events {
			events = append(events, Event{
				EventTicker:       e.EventTicker,
				Title:             e.Title,
				Category:          e.Category,
				MutuallyExclusive: e.MutuallyExclusive,
			})
		}

		cursor = page.Cursor
		if cursor == "" || len(page.Events) < k.opts.PageLimit {
			return events, nil
		}
	}
}

// MarketsForEvent pages through the open markets of one event.
func (k *Kalshi) MarketsForEvent(ctx context.Context, eventTicker string) ([]domain.Market, error) {
	var markets []domain.Market
	cursor := ""
	for {
		var page marketsResponse
		req := k.client.R().
			SetContext(ctx).
			SetQueryParam("status", "open").
			SetQueryParam("limit", strconv.Itoa(k.opts.PageLimit)).
			SetQueryParam("event_ticker", eventTicker).
			SetResult(&page)
		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}

		resp, err := req.Get("/markets")
		if err != nil {
			return nil, fmt.Errorf("list markets for %s: %w", eventTicker, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("list markets for %s: kalshi api error (%d)", eventTicker, resp.StatusCode())
		}

		for _, m := range page.Markets {
			markets = append(markets, m.toDomain())
		}

		cursor = page.Cursor
		if cursor == "" || len(page.Markets) < k.opts.PageLimit {
			return markets, nil
		}
	}
}

// MarketDetail fetches one market including its settlement rules text.
func (k *Kalshi) MarketDetail(ctx context.Context, ticker string) (domain.Market, error) {
	var payload marketResponse
	resp, err := k.client.R().
		SetContext(ctx).
		SetResult(&payload).
		Get("/markets/" + ticker)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market detail %s: %w", ticker, err)
	}
	if resp.IsError() {
		return domain.Market{}, fmt.Errorf("market detail %s: kalshi api error (%d)", ticker, resp.StatusCode())
	}
	return payload.Market.toDomain(), nil
}

func (m kalshiMarket) toDomain() domain.Market {
	closeTime, err := time.Parse(time.RFC3339, m.CloseTime)
	if err != nil {
		closeTime = time.Time{}
	}
	return domain.Market{
		Ticker:       m.Ticker,
		EventTicker:  m.EventTicker,
		Title:        m.Title,
		Subtitle:     m.Subtitle,
		RulesText:    m.RulesPrimary,
		Category:     m.Category,
		YesBid:       m.YesBid,
		YesAsk:       m.YesAsk,
		NoBid:        m.NoBid,
		NoAsk:        m.NoAsk,
		LastPrice:    m.LastPrice,
		Volume:       m.Volume,
		Volume24h:    m.Volume24h,
		OpenInterest: m.OpenInterest,
		CloseTime:    closeTime,
	}
}

var _ ExchangeClient = (*Kalshi)(nil)
