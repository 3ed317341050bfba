package scanner

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jzOcb/kalshi-trading/internal/forecast"
	"github.com/jzOcb/kalshi-trading/internal/probability"
)

// topic is a forecastable subject parsed out of a Kalshi ticker: which
// series to query, the settlement threshold, and the target period.
type topic struct {
	Series    string // key into the configured series parameter table
	TopicKey  string // provider topic (city key or series name)
	Metric    string
	Threshold float64
	Direction probability.Direction
	Target    time.Time
	Monthly   bool
	Weather   bool
}

// Ticker city codes as used in Kalshi weather series names. Longest codes
// are tried first to avoid partial matches.
var tickerCityCodes = map[string]string{
	"NY":   "nyc",
	"NYC":  "nyc",
	"CHI":  "chicago",
	"DEN":  "denver",
	"LAX":  "losangeles",
	"MIA":  "miami",
	"PHIL": "philadelphia",
	"AUS":  "austin",
	"SFO":  "sanfrancisco",
	"SEA":  "seattle",
	"NOLA": "neworleans",
	"LV":   "lasvegas",
	"DC":   "dc",
	"BOS":  "boston",
	"DET":  "detroit",
	"DAL":  "dallas",
	"HOU":  "houston",
	"SLC":  "saltlakecity",
}

var monthNums = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

var (
	rainCityRe     = regexp.MustCompile(`^KXRAIN(\w+?)M(?:B)?-`)
	snowCityRe     = regexp.MustCompile(`^KX(\w+?)SNOWM(?:B)?-`)
	thresholdTagRe = regexp.MustCompile(`-[TB](\d+\.?\d*)$`)
	thresholdNumRe = regexp.MustCompile(`-(\d+\.?\d*)$`)
	dailyDateRe    = regexp.MustCompile(`-(\d{2})(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)(\d{2})-`)
	monthDateRe    = regexp.MustCompile(`-(\d{2})(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)(?:[A-Z]|-|$)`)
)

// parseTopic extracts a forecast topic from a ticker, or reports that the
// ticker is not forecastable. Title text never participates: tickers are
// the structured channel, titles are for the classifier.
func parseTopic(ticker string) (topic, bool) {
	upper := strings.ToUpper(ticker)

	if t, ok := parseMacroTopic(upper); ok {
		return t, true
	}
	return parseWeatherTopic(upper)
}

func parseMacroTopic(upper string) (topic, bool) {
	var series, metric string
	switch {
	case strings.HasPrefix(upper, "KXGDP"):
		series, metric = "GDP", forecast.MetricGDP
	case strings.HasPrefix(upper, "KXCPI"):
		series, metric = "CPI", forecast.MetricCPI
	default:
		return topic{}, false
	}

	threshold, dir, ok := parseThreshold(upper)
	if !ok {
		return topic{}, false
	}
	return topic{
		Series:    series,
		TopicKey:  series,
		Metric:    metric,
		Threshold: threshold,
		Direction: dir,
	}, true
}

func parseWeatherTopic(upper string) (topic, bool) {
	metric, city := weatherMetricAndCity(upper)
	if metric == "" || city == "" {
		return topic{}, false
	}

	threshold, dir, ok := parseThreshold(upper)
	if !ok {
		return topic{}, false
	}

	target, monthly, ok := parseTickerDate(upper)
	if !ok {
		return topic{}, false
	}

	return topic{
		Series:    metric,
		TopicKey:  city,
		Metric:    metric,
		Threshold: threshold,
		Direction: dir,
		Target:    target,
		Monthly:   monthly,
		Weather:   true,
	}, true
}

func weatherMetricAndCity(upper string) (metric, city string) {
	head := strings.SplitN(upper, "-", 2)[0]

	strip := func(prefix string) (string, bool) {
		if strings.HasPrefix(head, prefix) {
			return head[len(prefix):], true
		}
		return "", false
	}

	if code, ok := strip("KXHIGHT"); ok {
		return forecast.MetricHighTemp, cityForCode(code)
	}
	if code, ok := strip("KXHIGH"); ok {
		return forecast.MetricHighTemp, cityForCode(code)
	}
	if code, ok := strip("KXLOWT"); ok {
		return forecast.MetricLowTemp, cityForCode(code)
	}
	if m := rainCityRe.FindStringSubmatch(upper); m != nil {
		return forecast.MetricRain, cityForCode(m[1])
	}
	if m := snowCityRe.FindStringSubmatch(upper); m != nil {
		return forecast.MetricSnow, cityForCode(m[1])
	}
	return "", ""
}

func cityForCode(code string) string {
	return tickerCityCodes[code]
}

// parseThreshold reads the trailing strike from a ticker: -T{n} and -B{n}
// tags and bare -{n} suffixes all mean "settles above n".
func parseThreshold(upper string) (float64, probability.Direction, bool) {
	m := thresholdTagRe.FindStringSubmatch(upper)
	if m == nil {
		m = thresholdNumRe.FindStringSubmatch(upper)
	}
	if m == nil {
		return 0, "", false
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}
	return val, probability.Above, true
}

// parseTickerDate reads the settlement date segment: 26FEB04 is a daily
// target, a bare 26FEB is the whole month.
func parseTickerDate(upper string) (time.Time, bool, bool) {
	if m := dailyDateRe.FindStringSubmatch(upper); m != nil {
		year, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[3])
		month := monthNums[m[2]]
		t := time.Date(2000+year, month, day, 0, 0, 0, 0, time.UTC)
		if t.Day() == day { // reject normalised overflow like Feb 30
			return t, false, true
		}
		return time.Time{}, false, false
	}
	if m := monthDateRe.FindStringSubmatch(upper); m != nil {
		year, _ := strconv.Atoi(m[1])
		month := monthNums[m[2]]
		return time.Date(2000+year, month, 1, 0, 0, 0, 0, time.UTC), true, true
	}
	return time.Time{}, false, false
}
