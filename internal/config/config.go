package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/jzOcb/kalshi-trading/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Logging   logging.Config          `mapstructure:"logging"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Scheduler SchedulerConfig         `mapstructure:"scheduler"`
	Exchange  ExchangeConfig          `mapstructure:"exchange"`
	Forecast  ForecastConfig          `mapstructure:"forecast"`
	Scanner   ScannerConfig           `mapstructure:"scanner"`
	Series    map[string]SeriesParams `mapstructure:"series"`
	Fees      map[string]float64      `mapstructure:"fees"`
	Alerting  AlertingConfig          `mapstructure:"alerting"`
	Export    ExportConfig            `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs scan cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToBucket   bool          `mapstructure:"align_to_bucket"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// ExchangeConfig covers Kalshi API access.
type ExchangeConfig struct {
	Name           string        `mapstructure:"name"`
	BaseURL        string        `mapstructure:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PageLimit      int           `mapstructure:"page_limit"`
}

// ForecastConfig covers the external forecast providers.
type ForecastConfig struct {
	NWSBaseURL     string               `mapstructure:"nws_base_url"`
	GDPNowURL      string               `mapstructure:"gdpnow_url"`
	CPINowcastURL  string               `mapstructure:"cpi_nowcast_url"`
	UserAgent      string               `mapstructure:"user_agent"`
	RequestTimeout time.Duration        `mapstructure:"request_timeout"`
	CacheTTL       time.Duration        `mapstructure:"cache_ttl"`
	Cities         map[string]CityPoint `mapstructure:"cities"`
}

// CityPoint locates a city on the NWS forecast grid.
type CityPoint struct {
	Office string `mapstructure:"office"`
	GridX  int    `mapstructure:"grid_x"`
	GridY  int    `mapstructure:"grid_y"`
}

// ScannerConfig tunes the mispricing pipeline.
type ScannerConfig struct {
	AcceptTier     int           `mapstructure:"accept_tier"`
	MinVolume      int64         `mapstructure:"min_volume"`
	Workers        int           `mapstructure:"workers"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	SmallMaxCents  float64       `mapstructure:"small_max_cents"`
	MediumMaxCents float64       `mapstructure:"medium_max_cents"`
	SmallFraction  float64       `mapstructure:"small_fraction"`
	MediumFraction float64       `mapstructure:"medium_fraction"`
	LargeFraction  float64       `mapstructure:"large_fraction"`
}

// SeriesParams hold the forecast-error parameters for one market series.
// Sigma is the assumed forecast error standard deviation in the series'
// native units; Bias is subtracted from the raw forecast before the
// threshold comparison.
type SeriesParams struct {
	Sigma       float64 `mapstructure:"sigma"`
	Bias        float64 `mapstructure:"bias"`
	TxCostCents float64 `mapstructure:"tx_cost_cents"`
}

// AlertingConfig defines alert thresholds and routing.
type AlertingConfig struct {
	Enabled            bool           `mapstructure:"enabled"`
	MinNetEdgeCents    float64        `mapstructure:"min_net_edge_cents"`
	MinParityProfitPct float64        `mapstructure:"min_parity_profit_pct"`
	Cooldown           time.Duration  `mapstructure:"cooldown"`
	Channels           []string       `mapstructure:"channels"`
	Telegram           TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram alert channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KALSHISCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "kalshi-scanner")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "15m")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x6b736361))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("exchange.name", "kalshi")
	v.SetDefault("exchange.base_url", "https://api.elections.kalshi.com/trade-api/v2")
	v.SetDefault("exchange.user_agent", "kalshi-scanner/1.0")
	v.SetDefault("exchange.request_timeout", "15s")
	v.SetDefault("exchange.page_limit", 200)

	v.SetDefault("forecast.nws_base_url", "https://api.weather.gov")
	v.SetDefault("forecast.gdpnow_url", "https://www.atlantafed.org/-/media/documents/cqer/researchcq/gdpnow/RealGDPTrackingSlides.xml")
	v.SetDefault("forecast.cpi_nowcast_url", "https://www.clevelandfed.org/indicators-and-data/inflation-nowcasting")
	v.SetDefault("forecast.user_agent", "kalshi-scanner/1.0 (research)")
	v.SetDefault("forecast.request_timeout", "15s")
	v.SetDefault("forecast.cache_ttl", "2h")
	v.SetDefault("forecast.cities", map[string]map[string]any{
		"nyc":          {"office": "OKX", "grid_x": 33, "grid_y": 35},
		"chicago":      {"office": "LOT", "grid_x": 73, "grid_y": 70},
		"miami":        {"office": "MFL", "grid_x": 110, "grid_y": 50},
		"austin":       {"office": "EWX", "grid_x": 156, "grid_y": 91},
		"denver":       {"office": "BOU", "grid_x": 63, "grid_y": 62},
		"losangeles":   {"office": "LOX", "grid_x": 155, "grid_y": 45},
		"philadelphia": {"office": "PHI", "grid_x": 50, "grid_y": 76},
		"seattle":      {"office": "SEW", "grid_x": 125, "grid_y": 69},
		"boston":       {"office": "BOX", "grid_x": 71, "grid_y": 90},
		"houston":      {"office": "HGX", "grid_x": 65, "grid_y": 97},
		"dallas":       {"office": "FWD", "grid_x": 89, "grid_y": 104},
		"dc":           {"office": "LWX", "grid_x": 97, "grid_y": 71},
		"lasvegas":     {"office": "VEF", "grid_x": 123, "grid_y": 98},
		"neworleans":   {"office": "LIX", "grid_x": 62, "grid_y": 70},
		"detroit":      {"office": "DTX", "grid_x": 65, "grid_y": 33},
		"sanfrancisco": {"office": "MTR", "grid_x": 85, "grid_y": 105},
		"saltlakecity": {"office": "SLC", "grid_x": 100, "grid_y": 175},
	})

	v.SetDefault("scanner.accept_tier", 2)
	v.SetDefault("scanner.min_volume", 0)
	v.SetDefault("scanner.workers", 6)
	v.SetDefault("scanner.fetch_timeout", "15s")
	v.SetDefault("scanner.small_max_cents", 5.0)
	v.SetDefault("scanner.medium_max_cents", 10.0)
	v.SetDefault("scanner.small_fraction", 0.25)
	v.SetDefault("scanner.medium_fraction", 0.5)
	v.SetDefault("scanner.large_fraction", 1.0)

	// Per-series forecast error parameters, from historical calibration.
	v.SetDefault("series", map[string]map[string]any{
		"GDP":         {"sigma": 1.0, "bias": 0.3, "tx_cost_cents": 5.0},
		"CPI":         {"sigma": 0.15, "bias": 0.0, "tx_cost_cents": 5.0},
		"FED":         {"sigma": 0.25, "bias": 0.0, "tx_cost_cents": 5.0},
		"high_temp":   {"sigma": 3.0, "bias": 0.0, "tx_cost_cents": 5.0},
		"low_temp":    {"sigma": 3.0, "bias": 0.0, "tx_cost_cents": 5.0},
		"temperature": {"sigma": 3.5, "bias": 0.0, "tx_cost_cents": 5.0},
		"snow":        {"sigma": 2.0, "bias": 0.0, "tx_cost_cents": 5.0},
		"rain":        {"sigma": 0.5, "bias": 0.0, "tx_cost_cents": 5.0},
	})

	v.SetDefault("fees", map[string]float64{
		"kalshi": 0.007,
	})

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.min_net_edge_cents", 10.0)
	v.SetDefault("alerting.min_parity_profit_pct", 0.5)
	v.SetDefault("alerting.cooldown", "30m")
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs sanity checks on the configuration values. Malformed
// series parameters or fee tables are fatal here instead of being silently
// defaulted downstream.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Scanner.AcceptTier < 1 || c.Scanner.AcceptTier > 9 {
		return fmt.Errorf("scanner.accept_tier must be between 1 and 9")
	}
	if c.Scanner.Workers <= 0 {
		return fmt.Errorf("scanner.workers must be greater than zero")
	}
	if c.Scanner.SmallMaxCents >= c.Scanner.MediumMaxCents {
		return fmt.Errorf("scanner.small_max_cents must be below scanner.medium_max_cents")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}

	for name, params := range c.Series {
		if params.Sigma <= 0 {
			return fmt.Errorf("series.%s.sigma must be greater than zero", name)
		}
		if params.TxCostCents < 0 {
			return fmt.Errorf("series.%s.tx_cost_cents cannot be negative", name)
		}
	}

	if len(c.Fees) == 0 {
		return fmt.Errorf("fees table must not be empty")
	}
	for name, rate := range c.Fees {
		if rate < 0 || rate >= 1 {
			return fmt.Errorf("fees.%s must be in [0,1)", name)
		}
	}
	if _, ok := c.Fees[c.Exchange.Name]; !ok {
		return fmt.Errorf("fees table has no entry for exchange %q", c.Exchange.Name)
	}

	if c.Alerting.MinNetEdgeCents < 0 {
		return fmt.Errorf("alerting.min_net_edge_cents cannot be negative")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// FeeRate returns the fee rate for the configured exchange.
func (c *Config) FeeRate() float64 {
	return c.Fees[c.Exchange.Name]
}

// SeriesFor returns the forecast-error parameters for a series key.
func (c *Config) SeriesFor(key string) (SeriesParams, bool) {
	p, ok := c.Series[key]
	return p, ok
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
