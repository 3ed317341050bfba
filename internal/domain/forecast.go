package domain

import "time"

// Confidence labels the reliability of an external forecast. It is derived
// from lead time or data quality, never from market price.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// ForecastPoint is an external point estimate for a topic and target period.
type ForecastPoint struct {
	Value      float64
	Confidence Confidence
	Source     string
	Detail     string
	AsOf       time.Time
}
