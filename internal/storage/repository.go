package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertOpportunitySQL = `INSERT INTO opportunity_samples (
        bucket_ts,
        opp_type,
        ticker,
        title,
        side,
        entry_cost_cents,
        implied_prob,
        net_edge_cents,
        annualized_pct,
        confidence,
        tier,
        sources,
        net_profit,
        profit_pct,
        legs,
        risk_score,
        stale_warning,
        volume_24h,
        close_time
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19
    )
    ON CONFLICT (bucket_ts, opp_type, ticker) DO UPDATE
    SET
        title            = EXCLUDED.title,
        side             = EXCLUDED.side,
        entry_cost_cents = EXCLUDED.entry_cost_cents,
        implied_prob     = EXCLUDED.implied_prob,
        net_edge_cents   = EXCLUDED.net_edge_cents,
        annualized_pct   = EXCLUDED.annualized_pct,
        confidence       = EXCLUDED.confidence,
        tier             = EXCLUDED.tier,
        sources          = EXCLUDED.sources,
        net_profit       = EXCLUDED.net_profit,
        profit_pct       = EXCLUDED.profit_pct,
        legs             = EXCLUDED.legs,
        risk_score       = EXCLUDED.risk_score,
        stale_warning    = EXCLUDED.stale_warning,
        volume_24h       = EXCLUDED.volume_24h,
        close_time       = EXCLUDED.close_time;`

	listOpportunitiesBetweenSQL = `SELECT
        id,
        bucket_ts,
        opp_type,
        ticker,
        title,
        side,
        entry_cost_cents,
        implied_prob,
        net_edge_cents,
        annualized_pct,
        confidence,
        tier,
        sources,
        net_profit,
        profit_pct,
        legs,
        risk_score,
        stale_warning,
        volume_24h,
        close_time,
        created_at
    FROM opportunity_samples
    WHERE bucket_ts >= $1
      AND bucket_ts < $2
    ORDER BY bucket_ts, ticker;`

	listRecentOpportunitiesSQL = `SELECT
        id,
        bucket_ts,
        opp_type,
        ticker,
        title,
        side,
        entry_cost_cents,
        implied_prob,
        net_edge_cents,
        annualized_pct,
        confidence,
        tier,
        sources,
        net_profit,
        profit_pct,
        legs,
        risk_score,
        stale_warning,
        volume_24h,
        close_time,
        created_at
    FROM opportunity_samples
    ORDER BY bucket_ts DESC, net_edge_cents DESC
    LIMIT $1;`

	countOpportunitiesSQL = `SELECT COUNT(*) FROM opportunity_samples;`

	insertAlertSQL = `INSERT INTO alerts (
        sample_ts,
        ticker,
        opp_type,
        net_edge_cents,
        profit_pct,
        channels
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    ON CONFLICT (sample_ts, ticker) DO UPDATE
    SET opp_type       = EXCLUDED.opp_type,
        net_edge_cents = EXCLUDED.net_edge_cents,
        profit_pct     = EXCLUDED.profit_pct,
        channels       = EXCLUDED.channels
    RETURNING id, sample_ts, ticker, opp_type, net_edge_cents, profit_pct, channels, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        sample_ts,
        ticker,
        opp_type,
        net_edge_cents,
        profit_pct,
        channels,
        created_at
    FROM alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAlertsBeforeSQL = `DELETE FROM alerts WHERE created_at < $1;`

	lastAlertForTickerSQL = `SELECT created_at FROM alerts
    WHERE ticker = $1
    ORDER BY created_at DESC
    LIMIT 1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// OpportunityStore defines operations for scan-finding persistence.
type OpportunityStore interface {
	UpsertOpportunity(ctx context.Context, rec OpportunityRecord) error
	ListOpportunitiesBetween(ctx context.Context, from, to time.Time) ([]OpportunityRecord, error)
	ListRecentOpportunities(ctx context.Context, limit int) ([]OpportunityRecord, error)
	CountOpportunities(ctx context.Context) (int64, error)
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	LastAlertForTicker(ctx context.Context, ticker string) (time.Time, bool, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to opportunity samples and alerts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertOpportunity persists or updates one scan finding.
func (s *Store) UpsertOpportunity(ctx context.Context, rec OpportunityRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var closeTime interface{}
	if rec.CloseTime != nil {
		closeTime = *rec.CloseTime
	}

	_, execErr := pool.Exec(ctx, upsertOpportunitySQL,
		rec.Bucket,
		rec.OppType,
		rec.Ticker,
		rec.Title,
		rec.Side,
		rec.EntryCostCents,
		rec.ImpliedProb.String(),
		rec.NetEdgeCents.String(),
		rec.AnnualizedPct.String(),
		rec.Confidence,
		rec.Tier,
		rec.Sources,
		rec.NetProfit.String(),
		rec.ProfitPct.String(),
		rec.Legs,
		rec.RiskScore,
		rec.StaleWarning,
		rec.Volume24h,
		closeTime,
	)
	if execErr != nil {
		return fmt.Errorf("upsert opportunity: %w", execErr)
	}
	return nil
}

// ListOpportunitiesBetween lists findings within a time window.
func (s *Store) ListOpportunitiesBetween(ctx context.Context, from, to time.Time) ([]OpportunityRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listOpportunitiesBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list opportunities between: %w", queryErr)
	}
	defer rows.Close()

	records := make([]OpportunityRecord, 0)
	for rows.Next() {
		rec, scanErr := scanOpportunity(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// ListRecentOpportunities lists the most recent findings ordered by bucket.
func (s *Store) ListRecentOpportunities(ctx context.Context, limit int) ([]OpportunityRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentOpportunitiesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent opportunities: %w", queryErr)
	}
	defer rows.Close()

	records := make([]OpportunityRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanOpportunity(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// CountOpportunities counts stored findings.
func (s *Store) CountOpportunities(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countOpportunitiesSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count opportunities: %w", scanErr)
	}
	return count, nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.SampleTS,
		alert.Ticker,
		alert.OppType,
		alert.NetEdgeCents.String(),
		alert.ProfitPct.String(),
		alert.Channels,
	)

	rec, scanErr := scanAlert(row)
	if scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanAlert(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// LastAlertForTicker returns the timestamp of the most recent alert for a
// ticker, used for cooldown suppression.
func (s *Store) LastAlertForTicker(ctx context.Context, ticker string) (time.Time, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return time.Time{}, false, err
	}
	var at time.Time
	scanErr := pool.QueryRow(ctx, lastAlertForTickerSQL, ticker).Scan(&at)
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("last alert for ticker: %w", scanErr)
	}
	return at, true, nil
}

// DeleteAlertsBefore deletes historical alerts.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alerts before: %w", execErr)
	}
	return nil
}

func scanOpportunity(row pgx.Row) (OpportunityRecord, error) {
	var (
		rec           OpportunityRecord
		impliedStr    string
		netEdgeStr    string
		annualizedStr string
		netProfitStr  string
		profitPctStr  string
		closeTime     sql.NullTime
	)

	if err := row.Scan(
		&rec.ID,
		&rec.Bucket,
		&rec.OppType,
		&rec.Ticker,
		&rec.Title,
		&rec.Side,
		&rec.EntryCostCents,
		&impliedStr,
		&netEdgeStr,
		&annualizedStr,
		&rec.Confidence,
		&rec.Tier,
		&rec.Sources,
		&netProfitStr,
		&profitPctStr,
		&rec.Legs,
		&rec.RiskScore,
		&rec.StaleWarning,
		&rec.Volume24h,
		&closeTime,
		&rec.CreatedAt,
	); err != nil {
		return OpportunityRecord{}, err
	}

	var err error
	if rec.ImpliedProb, err = decimal.NewFromString(impliedStr); err != nil {
		return OpportunityRecord{}, fmt.Errorf("parse implied prob: %w", err)
	}
	if rec.NetEdgeCents, err = decimal.NewFromString(netEdgeStr); err != nil {
		return OpportunityRecord{}, fmt.Errorf("parse net edge: %w", err)
	}
	if rec.AnnualizedPct, err = decimal.NewFromString(annualizedStr); err != nil {
		return OpportunityRecord{}, fmt.Errorf("parse annualized pct: %w", err)
	}
	if rec.NetProfit, err = decimal.NewFromString(netProfitStr); err != nil {
		return OpportunityRecord{}, fmt.Errorf("parse net profit: %w", err)
	}
	if rec.ProfitPct, err = decimal.NewFromString(profitPctStr); err != nil {
		return OpportunityRecord{}, fmt.Errorf("parse profit pct: %w", err)
	}
	if closeTime.Valid {
		t := closeTime.Time
		rec.CloseTime = &t
	}

	return rec, nil
}

func scanAlert(row pgx.Row) (AlertRecord, error) {
	var (
		rec        AlertRecord
		netEdgeStr string
		profitStr  string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.SampleTS,
		&rec.Ticker,
		&rec.OppType,
		&netEdgeStr,
		&profitStr,
		&rec.Channels,
		&rec.CreatedAt,
	); err != nil {
		return AlertRecord{}, err
	}

	var err error
	if rec.NetEdgeCents, err = decimal.NewFromString(netEdgeStr); err != nil {
		return AlertRecord{}, fmt.Errorf("parse net edge: %w", err)
	}
	if rec.ProfitPct, err = decimal.NewFromString(profitStr); err != nil {
		return AlertRecord{}, fmt.Errorf("parse profit pct: %w", err)
	}
	return rec, nil
}
