package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jzOcb/kalshi-trading/internal/alerting"
	"github.com/jzOcb/kalshi-trading/internal/config"
	"github.com/jzOcb/kalshi-trading/internal/edge"
	"github.com/jzOcb/kalshi-trading/internal/fetcher"
	"github.com/jzOcb/kalshi-trading/internal/forecast"
	"github.com/jzOcb/kalshi-trading/internal/parity"
	"github.com/jzOcb/kalshi-trading/internal/scanner"
	"github.com/jzOcb/kalshi-trading/internal/scheduler"
	"github.com/jzOcb/kalshi-trading/internal/service"
	"github.com/jzOcb/kalshi-trading/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newExchange() fetcher.ExchangeClient {
	return fetcher.NewKalshi(fetcher.KalshiOptions{
		BaseURL:   a.Config.Exchange.BaseURL,
		UserAgent: a.Config.Exchange.UserAgent,
		Timeout:   a.Config.Exchange.RequestTimeout,
		PageLimit: a.Config.Exchange.PageLimit,
	}, a.Logger)
}

func (a *App) newProviders() scanner.Providers {
	fc := a.Config.Forecast

	cities := make(map[string]forecast.Gridpoint, len(fc.Cities))
	for key, c := range fc.Cities {
		cities[key] = forecast.Gridpoint{Office: c.Office, GridX: c.GridX, GridY: c.GridY}
	}

	weather := forecast.NewNWS(forecast.NWSOptions{
		BaseURL:   fc.NWSBaseURL,
		UserAgent: fc.UserAgent,
		Timeout:   fc.RequestTimeout,
		Cities:    cities,
	}, forecast.NewCache(fc.CacheTTL), a.Logger)

	macro := forecast.NewNowcast(forecast.NowcastOptions{
		GDPNowURL: fc.GDPNowURL,
		CPIURL:    fc.CPINowcastURL,
		UserAgent: fc.UserAgent,
		Timeout:   fc.RequestTimeout,
	}, forecast.NewCache(fc.CacheTTL), a.Logger)

	return scanner.Providers{Weather: weather, Macro: macro}
}

func (a *App) newScanner() (*scanner.Scanner, error) {
	engine, err := parity.NewEngine(a.Config.FeeRate())
	if err != nil {
		return nil, err
	}

	sc := a.Config.Scanner
	opts := scanner.Options{
		AcceptTier: sc.AcceptTier,
		MinVolume:  sc.MinVolume,
		Workers:    sc.Workers,
		Series:     a.Config.Series,
		Sizing: edge.Params{
			SmallMaxCents:  sc.SmallMaxCents,
			MediumMaxCents: sc.MediumMaxCents,
			SmallFraction:  sc.SmallFraction,
			MediumFraction: sc.MediumFraction,
			LargeFraction:  sc.LargeFraction,
		},
	}
	return scanner.New(a.newExchange(), a.newProviders(), engine, opts, a.Logger), nil
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running scanning service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	sc, err := a.newScanner()
	if err != nil {
		return err
	}
	notifier := a.newNotifier()

	var oppStore storage.OpportunityStore
	var alertStore storage.AlertStore
	if store != nil {
		oppStore = store
		alertStore = store
	}

	svc := service.New(a.Config, sched, sc, oppStore, alertStore, notifier, a.Logger)

	a.Logger.Info().Msg("starting scanning service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("scanning service stopped")
	return nil
}

// ExportOptions hold parameters for exporting historical findings.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
