package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jzOcb/kalshi-trading/internal/alerting"
	"github.com/jzOcb/kalshi-trading/internal/config"
	"github.com/jzOcb/kalshi-trading/internal/domain"
	"github.com/jzOcb/kalshi-trading/internal/scanner"
	"github.com/jzOcb/kalshi-trading/internal/scheduler"
	"github.com/jzOcb/kalshi-trading/internal/storage"
)

// Service orchestrates scanning, persistence, and alerting.
type Service struct {
	scheduler  *scheduler.Scheduler
	scanner    *scanner.Scanner
	store      storage.OpportunityStore
	alertStore storage.AlertStore
	notifier   alerting.Notifier
	logger     zerolog.Logger

	minEdgeAlert   float64
	minParityAlert float64
	cooldown       time.Duration
	channels       []string
	alertsOn       bool
	locker         storage.AdvisoryLocker
	lockKey        int64
}

// New constructs the scanning service.
func New(cfg *config.Config, sched *scheduler.Scheduler, sc *scanner.Scanner, store storage.OpportunityStore, alertStore storage.AlertStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		scheduler:      sched,
		scanner:        sc,
		store:          store,
		alertStore:     alertStore,
		notifier:       notifier,
		logger:         logger.With().Str("component", "service").Logger(),
		minEdgeAlert:   cfg.Alerting.MinNetEdgeCents,
		minParityAlert: cfg.Alerting.MinParityProfitPct,
		cooldown:       cfg.Alerting.Cooldown,
		channels:       cfg.Alerting.Channels,
		alertsOn:       cfg.Alerting.Enabled,
		locker:         locker,
		lockKey:        cfg.Scheduler.AdvisoryLockKey,
	}
}

// Run begins the aligned scan loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessBucket)
}

// ProcessBucket executes one scan bucket.
func (s *Service) ProcessBucket(ctx context.Context, bucket time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("bucket", bucket).Msg("skip bucket because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	return s.executeBucket(ctx, bucket)
}

func (s *Service) executeBucket(ctx context.Context, bucket time.Time) error {
	res, err := s.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan markets: %w", err)
	}

	if s.store != nil {
		for _, opp := range res.Opportunities {
			rec := ToRecord(bucket, opp)
			if err := s.store.UpsertOpportunity(ctx, rec); err != nil {
				s.logger.Error().Err(err).Str("ticker", opp.Ticker).Msg("failed to upsert opportunity")
			}
		}
	}

	s.logger.Info().Time("bucket", bucket).
		Int("opportunities", len(res.Opportunities)).
		Int("edge", res.Stats.EdgeFound).
		Int("parity", res.Stats.ParityFound).
		Msg("scan bucket recorded")

	if s.alertsOn && s.notifier != nil {
		s.dispatchAlerts(ctx, bucket, res.Opportunities)
	}

	return nil
}

// dispatchAlerts pushes findings over the alert thresholds, suppressing
// tickers alerted within the cooldown window.
func (s *Service) dispatchAlerts(ctx context.Context, bucket time.Time, opps []domain.Opportunity) {
	var alertable []domain.Opportunity
	for _, opp := range opps {
		if !s.overThreshold(opp) {
			continue
		}
		if s.inCooldown(ctx, opp.Ticker) {
			continue
		}
		alertable = append(alertable, opp)
	}
	if len(alertable) == 0 {
		return
	}

	if s.alertStore != nil {
		for _, opp := range alertable {
			record := storage.AlertRecord{
				SampleTS:     bucket,
				Ticker:       opp.Ticker,
				OppType:      string(opp.Type),
				NetEdgeCents: decimal.NewFromFloat(opp.NetEdge),
				ProfitPct:    opp.ProfitPct,
				Channels:     s.channels,
			}
			if _, err := s.alertStore.InsertAlert(ctx, record); err != nil {
				s.logger.Error().Err(err).Str("ticker", opp.Ticker).Msg("failed to persist alert record")
			}
		}
	}

	note := alerting.Notification{
		Bucket:        bucket,
		Opportunities: alertable,
		Channels:      s.channels,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Time("bucket", bucket).Msg("failed to dispatch alert")
	}
}

func (s *Service) overThreshold(opp domain.Opportunity) bool {
	switch opp.Type {
	case domain.OppEdge:
		return opp.NetEdge >= s.minEdgeAlert
	default:
		threshold := decimal.NewFromFloat(s.minParityAlert)
		return opp.ProfitPct.GreaterThanOrEqual(threshold)
	}
}

func (s *Service) inCooldown(ctx context.Context, ticker string) bool {
	if s.alertStore == nil || s.cooldown <= 0 {
		return false
	}
	last, found, err := s.alertStore.LastAlertForTicker(ctx, ticker)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("cooldown lookup failed, alerting anyway")
		return false
	}
	return found && time.Since(last) < s.cooldown
}

// ToRecord converts a scan finding into its persistence form.
func ToRecord(bucket time.Time, opp domain.Opportunity) storage.OpportunityRecord {
	rec := storage.OpportunityRecord{
		Bucket:         bucket,
		OppType:        string(opp.Type),
		Ticker:         opp.Ticker,
		Title:          opp.Title,
		Side:           string(opp.Side),
		EntryCostCents: opp.EntryCostCents,
		ImpliedProb:    decimal.NewFromFloat(opp.ImpliedProbability),
		NetEdgeCents:   decimal.NewFromFloat(opp.NetEdge),
		AnnualizedPct:  decimal.NewFromFloat(opp.AnnualizedYield),
		Confidence:     string(opp.Confidence),
		Tier:           opp.Tier,
		Sources:        opp.Sources,
		NetProfit:      opp.NetProfit,
		ProfitPct:      opp.ProfitPct,
		Legs:           opp.Legs,
		RiskScore:      opp.RiskScore,
		StaleWarning:   opp.StaleWarning,
		Volume24h:      opp.Volume24h,
	}
	if !opp.CloseTime.IsZero() {
		ct := opp.CloseTime
		rec.CloseTime = &ct
	}
	return rec
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
