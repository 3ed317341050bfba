package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jzOcb/kalshi-trading/internal/domain"
)

// Gridpoint locates a city on the NWS forecast grid.
type Gridpoint struct {
	Office string
	GridX  int
	GridY  int
}

// NWSOptions parameterise the weather provider.
type NWSOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Cities    map[string]Gridpoint
}

// NWS fetches point forecasts from the National Weather Service gridpoint
// API. Quantitative gridpoint data is preferred; the human-readable
// forecast periods are the fallback.
type NWS struct {
	opts    NWSOptions
	logger  zerolog.Logger
	client  *http.Client
	cache   *Cache
	baseURL string
	now     func() time.Time
}

// NewNWS constructs the weather provider. cache may be nil to disable
// response caching.
func NewNWS(opts NWSOptions, cache *Cache, logger zerolog.Logger) *NWS {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.weather.gov"
	}
	return &NWS{
		opts:    opts,
		logger:  logger.With().Str("component", "nws_provider").Logger(),
		client:  &http.Client{Timeout: timeout},
		cache:   cache,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// Forecast resolves a weather query for a known city. Daily temperature
// queries are answered within a -1..+7 day lead window; snow and rain
// support both daily and monthly targets.
func (n *NWS) Forecast(ctx context.Context, q Query) (domain.ForecastPoint, error) {
	if _, ok := n.opts.Cities[q.Topic]; !ok {
		return domain.ForecastPoint{}, fmt.Errorf("%w: unknown city %q", ErrNoData, q.Topic)
	}

	switch q.Metric {
	case MetricHighTemp, MetricLowTemp, MetricTemperature:
		if q.Monthly {
			return domain.ForecastPoint{}, fmt.Errorf("%w: no monthly temperature forecasts", ErrNoData)
		}
		return n.tempForDate(ctx, q)
	case MetricSnow:
		if q.Monthly {
			return n.precipForMonth(ctx, q)
		}
		return n.snowForDate(ctx, q)
	case MetricRain:
		return n.precipForMonth(ctx, q)
	default:
		return domain.ForecastPoint{}, fmt.Errorf("%w: unsupported metric %q", ErrNoData, q.Metric)
	}
}

func (n *NWS) tempForDate(ctx context.Context, q Query) (domain.ForecastPoint, error) {
	now := n.now().UTC()
	daysAhead := int(q.Target.Sub(now).Hours() / 24)
	if daysAhead > 7 || daysAhead < -1 {
		return domain.ForecastPoint{}, fmt.Errorf("%w: target outside forecast window", ErrNoData)
	}
	confidence := leadConfidence(q.Target, now, false)
	dateStr := q.Target.Format("2006-01-02")

	// Quantitative gridpoint first, more precise than the text forecast.
	props, err := n.gridpointProperties(ctx, q.Topic)
	if err == nil {
		key := "maxTemperature"
		if q.Metric == MetricLowTemp {
			key = "minTemperature"
		}
		for _, entry := range props.series(key) {
			if !strings.Contains(entry.ValidTime, dateStr) || entry.Value == nil {
				continue
			}
			valF := *entry.Value*9/5 + 32 // NWS gridpoints are Celsius
			return domain.ForecastPoint{
				Value:      valF,
				Confidence: confidence,
				Source:     "NWS gridpoint",
				Detail:     fmt.Sprintf("gridpoint %s: %.1f°F for %s", q.Metric, valF, dateStr),
				AsOf:       now,
			}, nil
		}
	}

	periods, err := n.forecastPeriods(ctx, q.Topic)
	if err != nil {
		return domain.ForecastPoint{}, err
	}
	for _, p := range periods {
		if !strings.HasPrefix(p.StartTime, dateStr) {
			continue
		}
		if q.Metric == MetricHighTemp && !p.IsDaytime {
			continue
		}
		if q.Metric == MetricLowTemp && p.IsDaytime {
			continue
		}
		return domain.ForecastPoint{
			Value:      float64(p.Temperature),
			Confidence: confidence,
			Source:     "NWS forecast",
			Detail:     fmt.Sprintf("%s: %d°F", p.Name, p.Temperature),
			AsOf:       now,
		}, nil
	}

	return domain.ForecastPoint{}, fmt.Errorf("%w: no period covers %s", ErrNoData, dateStr)
}

func (n *NWS) snowForDate(ctx context.Context, q Query) (domain.ForecastPoint, error) {
	now := n.now().UTC()
	daysAhead := int(q.Target.Sub(now).Hours() / 24)
	if daysAhead > 7 || daysAhead < -1 {
		return domain.ForecastPoint{}, fmt.Errorf("%w: target outside forecast window", ErrNoData)
	}

	props, err := n.gridpointProperties(ctx, q.Topic)
	if err != nil {
		return domain.ForecastPoint{}, err
	}

	dateStr := q.Target.Format("2006-01-02")
	total, found := sumSeries(props.series("snowfallAmount"), dateStr)
	if !found {
		return domain.ForecastPoint{}, fmt.Errorf("%w: no snowfall data for %s", ErrNoData, dateStr)
	}
	return domain.ForecastPoint{
		Value:      total,
		Confidence: leadConfidence(q.Target, now, false),
		Source:     "NWS gridpoint",
		Detail:     fmt.Sprintf("gridpoint snowfall: %.1f inches for %s", total, dateStr),
		AsOf:       now,
	}, nil
}

// precipForMonth aggregates what the 7-day gridpoint window covers of the
// target month. NWS does not forecast a full month, so this is a partial
// total and always LOW confidence.
func (n *NWS) precipForMonth(ctx context.Context, q Query) (domain.ForecastPoint, error) {
	props, err := n.gridpointProperties(ctx, q.Topic)
	if err != nil {
		return domain.ForecastPoint{}, err
	}

	key := "quantitativePrecipitation"
	if q.Metric == MetricSnow {
		key = "snowfallAmount"
	}
	monthStr := q.Target.Format("2006-01")
	total, found := sumSeries(props.series(key), monthStr)
	if !found {
		return domain.ForecastPoint{}, fmt.Errorf("%w: no %s data for %s", ErrNoData, q.Metric, monthStr)
	}
	return domain.ForecastPoint{
		Value:      total,
		Confidence: domain.ConfidenceLow,
		Source:     "NWS gridpoint",
		Detail:     fmt.Sprintf("gridpoint partial month: ~%.1f inches (%s)", total, q.Metric),
		AsOf:       n.now().UTC(),
	}, nil
}

// sumSeries totals the entries whose validTime contains match, converting
// millimetres to inches.
func sumSeries(series []gridValue, match string) (float64, bool) {
	total := 0.0
	found := false
	for _, entry := range series {
		if !strings.Contains(entry.ValidTime, match) || entry.Value == nil {
			continue
		}
		total += *entry.Value / 25.4
		found = true
	}
	return total, found
}

type gridValue struct {
	ValidTime string   `json:"validTime"`
	Value     *float64 `json:"value"`
}

type gridProperties struct {
	Properties map[string]json.RawMessage `json:"properties"`
}

func (g gridProperties) series(key string) []gridValue {
	raw, ok := g.Properties[key]
	if !ok {
		return nil
	}
	var wrapper struct {
		Values []gridValue `json:"values"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil
	}
	return wrapper.Values
}

type forecastPeriod struct {
	Name        string `json:"name"`
	StartTime   string `json:"startTime"`
	Temperature int    `json:"temperature"`
	IsDaytime   bool   `json:"isDaytime"`
}

func (n *NWS) gridpointProperties(ctx context.Context, cityKey string) (gridProperties, error) {
	cacheKey := cityKey + "_quant"
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.(gridProperties), nil
	}

	gp := n.opts.Cities[cityKey]
	url := fmt.Sprintf("%s/gridpoints/%s/%d,%d", n.baseURL, gp.Office, gp.GridX, gp.GridY)

	var props gridProperties
	if err := n.getJSON(ctx, url, &props); err != nil {
		return gridProperties{}, err
	}
	n.cache.Set(cacheKey, props)
	return props, nil
}

func (n *NWS) forecastPeriods(ctx context.Context, cityKey string) ([]forecastPeriod, error) {
	cacheKey := cityKey + "_forecast"
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.([]forecastPeriod), nil
	}

	gp := n.opts.Cities[cityKey]
	url := fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast", n.baseURL, gp.Office, gp.GridX, gp.GridY)

	var payload struct {
		Properties struct {
			Periods []forecastPeriod `json:"periods"`
		} `json:"properties"`
	}
	if err := n.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	n.cache.Set(cacheKey, payload.Properties.Periods)
	return payload.Properties.Periods, nil
}

func (n *NWS) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/geo+json")
	if ua := strings.TrimSpace(n.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("nws request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nws api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}

var _ Provider = (*NWS)(nil)
