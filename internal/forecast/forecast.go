// Package forecast wraps external point-forecast sources (NWS weather
// gridpoints, Atlanta Fed GDPNow, Cleveland Fed inflation nowcast) behind a
// uniform query interface. Providers return ErrNoData when a source has
// nothing for the requested target so callers can tell "legitimately no
// data" apart from a transport failure.
package forecast

import (
	"context"
	"errors"
	"time"

	"github.com/jzOcb/kalshi-trading/internal/domain"
)

// ErrNoData indicates the provider responded but had no value for the
// requested target. Callers must treat it as "skip, cannot fact-check",
// never as a zero value.
var ErrNoData = errors.New("forecast: no data for requested target")

// Metric names the value extracted from a provider response.
const (
	MetricHighTemp    = "high_temp"
	MetricLowTemp     = "low_temp"
	MetricTemperature = "temperature"
	MetricSnow        = "snow"
	MetricRain        = "rain"
	MetricGDP         = "gdp"
	MetricCPI         = "cpi"
)

// Query identifies one forecast request. Topic is a provider-specific key
// (a city key for weather, a series name for nowcasts). Monthly queries
// target the calendar month of Target rather than the single day.
type Query struct {
	Topic   string
	Metric  string
	Target  time.Time
	Monthly bool
}

// Provider is a single forecast family.
type Provider interface {
	Forecast(ctx context.Context, q Query) (domain.ForecastPoint, error)
}

// leadConfidence derives the confidence label from lead time: forecasts
// within two days are HIGH, within five MEDIUM, beyond that LOW. Monthly
// aggregations are always LOW regardless of lead.
func leadConfidence(target time.Time, now time.Time, monthly bool) domain.Confidence {
	if monthly {
		return domain.ConfidenceLow
	}
	days := int(target.Sub(now).Hours() / 24)
	switch {
	case days <= 2:
		return domain.ConfidenceHigh
	case days <= 5:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
