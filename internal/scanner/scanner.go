// Package scanner orchestrates one scan cycle: list open events, fan out
// market fetches, then run every market through the verifiability gate,
// the forecast edge pipeline, and the parity engine.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jzOcb/kalshi-trading/internal/classifier"
	"github.com/jzOcb/kalshi-trading/internal/config"
	"github.com/jzOcb/kalshi-trading/internal/domain"
	"github.com/jzOcb/kalshi-trading/internal/edge"
	"github.com/jzOcb/kalshi-trading/internal/fetcher"
	"github.com/jzOcb/kalshi-trading/internal/forecast"
	"github.com/jzOcb/kalshi-trading/internal/parity"
	"github.com/jzOcb/kalshi-trading/internal/probability"
)

// Stats counts what happened during a scan, for logging and the report
// footer.
type Stats struct {
	Events         int
	Markets        int
	Skipped        int
	RejectedTier   int
	NoForecast     int
	EdgeFound      int
	ParityFound    int
	ProviderErrors int
	ExchangeErrors int
}

// Result is the outcome of a full scan cycle.
type Result struct {
	At            time.Time
	Opportunities []domain.Opportunity
	Stats         Stats
}

// Providers bundles the forecast sources by family. Weather resolves city
// topics, Macro resolves series topics (GDP, CPI).
type Providers struct {
	Weather forecast.Provider
	Macro   forecast.Provider
}

// Scanner runs the mispricing pipeline over a market source.
type Scanner struct {
	client    fetcher.ExchangeClient
	providers Providers
	parity    *parity.Engine
	logger    zerolog.Logger

	acceptTier int
	minVolume  int64
	workers    int
	series     map[string]config.SeriesParams
	sizing     edge.Params
	now        func() time.Time
}

// Options configure a Scanner beyond its collaborators.
type Options struct {
	AcceptTier int
	MinVolume  int64
	Workers    int
	Series     map[string]config.SeriesParams
	Sizing     edge.Params
	Now        func() time.Time
}

// New constructs a Scanner. A nil Now falls back to time.Now.
func New(client fetcher.ExchangeClient, providers Providers, engine *parity.Engine, opts Options, logger zerolog.Logger) *Scanner {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	acceptTier := opts.AcceptTier
	if acceptTier <= 0 {
		acceptTier = domain.TierSchedule
	}
	sizing := opts.Sizing
	if sizing.MediumMaxCents <= 0 {
		sizing = edge.DefaultParams()
	}
	return &Scanner{
		client:     client,
		providers:  providers,
		parity:     engine,
		logger:     logger.With().Str("component", "scanner").Logger(),
		acceptTier: acceptTier,
		minVolume:  opts.MinVolume,
		workers:    workers,
		series:     opts.Series,
		sizing:     sizing,
		now:        now,
	}
}

// eventMarkets pairs an event with its fetched markets.
type eventMarkets struct {
	event   fetcher.Event
	markets []domain.Market
}

// Scan executes one full cycle. Per-event fetch failures and per-market
// provider failures are counted and skipped so one flaky endpoint cannot
// sink the cycle; only a failure to list events at all is fatal.
func (s *Scanner) Scan(ctx context.Context) (Result, error) {
	started := s.now().UTC()

	events, err := s.client.ListEvents(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list events: %w", err)
	}

	snapshots, fetchErrs := s.fetchMarkets(ctx, events)

	res := Result{At: started}
	res.Stats.Events = len(events)
	res.Stats.ExchangeErrors = fetchErrs

	for _, em := range snapshots {
		res.Stats.Markets += len(em.markets)

		for _, m := range em.markets {
			opp, stat := s.evaluateMarket(ctx, m)
			s.count(&res.Stats, stat)
			if opp != nil {
				res.Opportunities = append(res.Opportunities, *opp)
			}
			if po := s.parity.SingleMarket(m); po != nil {
				res.Stats.ParityFound++
				res.Opportunities = append(res.Opportunities, *po)
			}
		}

		if em.event.MutuallyExclusive && len(em.markets) >= 2 {
			bracket := domain.EventBracket{EventTicker: em.event.EventTicker, Markets: em.markets}
			if po := s.parity.Bracket(bracket); po != nil {
				res.Stats.ParityFound++
				res.Opportunities = append(res.Opportunities, *po)
			}
		}
	}

	sortOpportunities(res.Opportunities)

	s.logger.Info().
		Int("events", res.Stats.Events).
		Int("markets", res.Stats.Markets).
		Int("edge", res.Stats.EdgeFound).
		Int("parity", res.Stats.ParityFound).
		Int("rejected_tier", res.Stats.RejectedTier).
		Int("exchange_errors", res.Stats.ExchangeErrors).
		Dur("elapsed", s.now().UTC().Sub(started)).
		Msg("scan cycle complete")

	return res, nil
}

// fetchMarkets fans out MarketsForEvent across a bounded worker group and
// preserves the input event ordering in its output.
func (s *Scanner) fetchMarkets(ctx context.Context, events []fetcher.Event) ([]eventMarkets, int) {
	out := make([]eventMarkets, len(events))
	var mu sync.Mutex
	failures := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, ev := range events {
		i, ev := i, ev
		g.Go(func() error {
			markets, err := s.client.MarketsForEvent(gctx, ev.EventTicker)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				s.logger.Warn().Err(err).Str("event", ev.EventTicker).Msg("markets fetch failed, skipping event")
				mu.Lock()
				failures++
				mu.Unlock()
				return nil
			}
			out[i] = eventMarkets{event: ev, markets: markets}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Only context cancellation propagates here; a partial snapshot is
		// fine to evaluate.
		s.logger.Warn().Err(err).Msg("market fetch interrupted")
	}

	snapshots := out[:0:0]
	for i := range out {
		if out[i].event.EventTicker != "" {
			snapshots = append(snapshots, out[i])
		}
	}
	return snapshots, failures
}

type marketStat int

const (
	statNone marketStat = iota
	statSkipped
	statRejectedTier
	statNoForecast
	statProviderError
	statEdge
)

func (s *Scanner) count(st *Stats, stat marketStat) {
	switch stat {
	case statSkipped:
		st.Skipped++
	case statRejectedTier:
		st.RejectedTier++
	case statNoForecast:
		st.NoForecast++
	case statProviderError:
		st.ProviderErrors++
	case statEdge:
		st.EdgeFound++
	}
}

// evaluateMarket walks one market through the forecast edge pipeline:
// noise filter, verifiability gate, topic parse, forecast fetch,
// probability model, edge calculation.
func (s *Scanner) evaluateMarket(ctx context.Context, m domain.Market) (*domain.Opportunity, marketStat) {
	now := s.now().UTC()

	if !m.Tradeable(now) {
		return nil, statSkipped
	}
	if s.minVolume > 0 && m.Volume < s.minVolume {
		return nil, statSkipped
	}

	cls := classifier.Classify(m.RulesText, m.Title)
	if !cls.Accepted(s.acceptTier) {
		return nil, statRejectedTier
	}

	top, ok := parseTopic(m.Ticker)
	if !ok {
		return nil, statNoForecast
	}

	params, ok := s.series[top.Series]
	if !ok {
		return nil, statNoForecast
	}

	point, err := s.forecastFor(ctx, top)
	if err != nil {
		if errors.Is(err, forecast.ErrNoData) {
			return nil, statNoForecast
		}
		s.logger.Warn().Err(err).Str("ticker", m.Ticker).Msg("forecast provider failed")
		return nil, statProviderError
	}

	est, err := probability.Implied(point.Value, top.Threshold, top.Direction, params.Sigma, params.Bias)
	if err != nil {
		s.logger.Error().Err(err).Str("series", top.Series).Msg("probability model rejected series parameters")
		return nil, statProviderError
	}
	if est.Signal == probability.NoSignal {
		return nil, statSkipped
	}

	sizing := s.sizing
	if params.TxCostCents > 0 {
		sizing.TxCostCents = params.TxCostCents
	}

	opp := s.bestSide(m, top, est, point, cls, sizing, now)
	if opp == nil {
		return nil, statSkipped
	}
	return opp, statEdge
}

// bestSide computes the edge on both sides of the book and keeps the
// better strictly positive one. YES entries cost the yes ask, NO entries
// the complement of the yes bid.
func (s *Scanner) bestSide(m domain.Market, top topic, est probability.Estimate, point domain.ForecastPoint, cls domain.ClassificationResult, sizing edge.Params, now time.Time) *domain.Opportunity {
	type candidate struct {
		side  domain.Side
		price int
		res   edge.Result
	}

	var cands []candidate
	if m.YesAsk > 0 {
		r := edge.Compute(est.Probability, m.YesAsk, domain.SideYes, est.Signal, sizing)
		cands = append(cands, candidate{domain.SideYes, m.YesAsk, r})
	}
	if m.YesBid > 0 {
		r := edge.Compute(est.Probability, m.YesBid, domain.SideNo, est.Signal, sizing)
		cands = append(cands, candidate{domain.SideNo, 100 - m.YesBid, r})
	}

	var best *candidate
	for i := range cands {
		c := &cands[i]
		if c.res.Action == edge.Skip {
			continue
		}
		if best == nil || c.res.NetEdge > best.res.NetEdge {
			best = c
		}
	}
	if best == nil {
		return nil
	}

	days := m.DaysToSettlement(now)
	return &domain.Opportunity{
		Type:               domain.OppEdge,
		Ticker:             m.Ticker,
		Title:              m.Title,
		Side:               best.side,
		EntryCostCents:     best.price,
		ImpliedProbability: est.Probability,
		GrossEdge:          best.res.GrossEdge,
		NetEdge:            best.res.NetEdge,
		AnnualizedYield:    domain.AnnualizedYieldPct(best.price, days),
		Confidence:         point.Confidence,
		Tier:               cls.Tier,
		Sources:            cls.Sources,
		Reasons: []string{
			fmt.Sprintf("forecast %.2f from %s vs threshold %.2f %s", point.Value, point.Source, top.Threshold, top.Direction),
			fmt.Sprintf("signal %s, position %s (%.0f%%)", est.Signal, best.res.Action, best.res.PositionSize*100),
		},
		Volume24h: m.Volume24h,
		CloseTime: m.CloseTime,
		URL:       m.URL(),
	}
}

// forecastFor routes the topic to the matching provider family.
func (s *Scanner) forecastFor(ctx context.Context, top topic) (domain.ForecastPoint, error) {
	q := forecast.Query{
		Topic:   top.TopicKey,
		Metric:  top.Metric,
		Target:  top.Target,
		Monthly: top.Monthly,
	}
	if top.Weather {
		if s.providers.Weather == nil {
			return domain.ForecastPoint{}, forecast.ErrNoData
		}
		return s.providers.Weather.Forecast(ctx, q)
	}
	if s.providers.Macro == nil {
		return domain.ForecastPoint{}, forecast.ErrNoData
	}
	return s.providers.Macro.Forecast(ctx, q)
}

// sortOpportunities orders edge records by descending net edge and parity
// records by descending profit percent, edge first, tickers as the final
// tiebreak so output is deterministic across runs.
func sortOpportunities(opps []domain.Opportunity) {
	rank := func(t domain.OpportunityType) int {
		if t == domain.OppEdge {
			return 0
		}
		return 1
	}
	sort.SliceStable(opps, func(i, j int) bool {
		a, b := opps[i], opps[j]
		if ra, rb := rank(a.Type), rank(b.Type); ra != rb {
			return ra < rb
		}
		if a.Type == domain.OppEdge && b.Type == domain.OppEdge {
			if a.NetEdge != b.NetEdge {
				return a.NetEdge > b.NetEdge
			}
			return a.Ticker < b.Ticker
		}
		if cmp := a.ProfitPct.Cmp(b.ProfitPct); cmp != 0 {
			return cmp > 0
		}
		return a.Ticker < b.Ticker
	})
}
