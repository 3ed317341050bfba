package forecast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jzOcb/kalshi-trading/internal/domain"
)

// NowcastOptions parameterise the macro nowcast provider.
type NowcastOptions struct {
	GDPNowURL string
	CPIURL    string
	UserAgent string
	Timeout   time.Duration
}

// Nowcast fetches macro point estimates: the Atlanta Fed GDPNow quarterly
// growth nowcast and the Cleveland Fed monthly inflation nowcast. Both are
// republished a few times a week, so lead time does not drive confidence;
// instead the presence of an authoritative tracking index marks the series
// HIGH confidence.
type Nowcast struct {
	opts   NowcastOptions
	logger zerolog.Logger
	client *http.Client
	cache  *Cache
	now    func() time.Time
}

var (
	gdpForecastRe = regexp.MustCompile(`<Forecast[^>]*>([0-9.]+)</Forecast>`)
	gdpLooseRe    = regexp.MustCompile(`>([0-9.]+)%?\s*</`)
	cpiMonthlyRe  = regexp.MustCompile(`(?i)CPI[^0-9]*([0-9]+\.[0-9]+)%`)
)

// NewNowcast constructs the macro provider. cache may be nil.
func NewNowcast(opts NowcastOptions, cache *Cache, logger zerolog.Logger) *Nowcast {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if opts.GDPNowURL == "" {
		opts.GDPNowURL = "https://www.atlantafed.org/-/media/documents/cqer/researchcq/gdpnow/gdpnow-forecast-evolution.xml"
	}
	if opts.CPIURL == "" {
		opts.CPIURL = "https://www.clevelandfed.org/indicators-and-data/inflation-nowcasting"
	}
	return &Nowcast{
		opts:   opts,
		logger: logger.With().Str("component", "nowcast_provider").Logger(),
		client: &http.Client{Timeout: timeout},
		cache:  cache,
		now:    time.Now,
	}
}

// Forecast resolves a macro query. The target period is informational: both
// sources only publish their current-period estimate.
func (n *Nowcast) Forecast(ctx context.Context, q Query) (domain.ForecastPoint, error) {
	switch q.Metric {
	case MetricGDP:
		return n.gdpNow(ctx)
	case MetricCPI:
		return n.cpiNowcast(ctx)
	default:
		return domain.ForecastPoint{}, fmt.Errorf("%w: unsupported metric %q", ErrNoData, q.Metric)
	}
}

func (n *Nowcast) gdpNow(ctx context.Context) (domain.ForecastPoint, error) {
	if cached, ok := n.cache.Get("gdpnow"); ok {
		return cached.(domain.ForecastPoint), nil
	}

	body, err := n.get(ctx, n.opts.GDPNowURL)
	if err != nil {
		return domain.ForecastPoint{}, err
	}

	match := gdpForecastRe.FindStringSubmatch(body)
	if match == nil {
		match = gdpLooseRe.FindStringSubmatch(body)
	}
	if match == nil {
		return domain.ForecastPoint{}, fmt.Errorf("%w: no forecast value in GDPNow feed", ErrNoData)
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return domain.ForecastPoint{}, fmt.Errorf("parse gdpnow value: %w", err)
	}

	point := domain.ForecastPoint{
		Value:      value,
		Confidence: domain.ConfidenceHigh, // tracked index, republished weekly
		Source:     "Atlanta Fed GDPNow",
		Detail:     fmt.Sprintf("GDPNow %.1f%% annualized", value),
		AsOf:       n.now().UTC(),
	}
	n.cache.Set("gdpnow", point)
	return point, nil
}

func (n *Nowcast) cpiNowcast(ctx context.Context) (domain.ForecastPoint, error) {
	if cached, ok := n.cache.Get("cpi_nowcast"); ok {
		return cached.(domain.ForecastPoint), nil
	}

	body, err := n.get(ctx, n.opts.CPIURL)
	if err != nil {
		return domain.ForecastPoint{}, err
	}

	match := cpiMonthlyRe.FindStringSubmatch(body)
	if match == nil {
		return domain.ForecastPoint{}, fmt.Errorf("%w: no CPI value on nowcast page", ErrNoData)
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return domain.ForecastPoint{}, fmt.Errorf("parse cpi nowcast value: %w", err)
	}

	point := domain.ForecastPoint{
		Value:      value,
		Confidence: domain.ConfidenceHigh,
		Source:     "Cleveland Fed Inflation Nowcast",
		Detail:     fmt.Sprintf("monthly CPI nowcast %.2f%%", value),
		AsOf:       n.now().UTC(),
	}
	n.cache.Set("cpi_nowcast", point)
	return point, nil
}

func (n *Nowcast) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if ua := strings.TrimSpace(n.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("nowcast request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nowcast source error (%d)", resp.StatusCode)
	}
	return string(body), nil
}

var _ Provider = (*Nowcast)(nil)
