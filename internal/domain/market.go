package domain

import (
	"fmt"
	"strings"
	"time"
)

// Side identifies which contract of a binary market is traded.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Opposite returns the complementary side.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// Market is an immutable snapshot of a tradeable Kalshi contract.
// All prices are integer cents in [0,100]. yes_ask + no_ask need not sum
// to 100; the gap is what the parity engine exploits.
type Market struct {
	Ticker       string
	EventTicker  string
	Title        string
	Subtitle     string
	RulesText    string
	Category     string
	YesBid       int
	YesAsk       int
	NoBid        int
	NoAsk        int
	LastPrice    int
	Volume       int64
	Volume24h    int64
	OpenInterest int64
	CloseTime    time.Time
}

// MidPrice returns the YES mid in cents, falling back to last price when
// either side of the book is empty.
func (m Market) MidPrice() int {
	if m.YesBid > 0 && m.YesAsk > 0 {
		return (m.YesBid + m.YesAsk) / 2
	}
	return m.LastPrice
}

// Spread returns the YES bid/ask spread in cents.
func (m Market) Spread() int {
	return m.YesAsk - m.YesBid
}

// DaysToSettlement returns whole days until close, floored at zero.
func (m Market) DaysToSettlement(now time.Time) int {
	d := int(m.CloseTime.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// Tradeable reports whether the market is still open for entry.
func (m Market) Tradeable(now time.Time) bool {
	return m.CloseTime.After(now)
}

// URL returns the public Kalshi market page.
func (m Market) URL() string {
	return fmt.Sprintf("https://kalshi.com/markets/%s", strings.ToLower(m.Ticker))
}

// EventBracket groups the mutually exclusive, collectively exhaustive
// markets of a single underlying event. In a correctly priced event the
// YES asks across all brackets sum to 100 cents.
type EventBracket struct {
	EventTicker string
	Markets     []Market
}
