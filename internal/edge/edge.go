// Package edge turns an implied probability and a market quote into a
// trade recommendation. Compute is pure so it can be unit-tested against
// literal inputs.
package edge

import (
	"github.com/jzOcb/kalshi-trading/internal/domain"
	"github.com/jzOcb/kalshi-trading/internal/probability"
)

// Action is the recommendation attached to a computed edge.
type Action string

const (
	Skip      Action = "SKIP"
	SmallPos  Action = "SMALL_POSITION"
	MediumPos Action = "MEDIUM_POSITION"
	LargePos  Action = "LARGE_POSITION"
)

// Params hold the sizing configuration. The ladder boundaries and tier
// fractions are deliberately configuration, not constants.
type Params struct {
	TxCostCents    float64
	SmallMaxCents  float64 // net edge below this is a small position
	MediumMaxCents float64 // net edge below this is a medium position
	SmallFraction  float64 // fraction of full size per tier
	MediumFraction float64
	LargeFraction  float64
}

// DefaultParams mirror the historical scanner settings: 5 cents transaction
// cost, small below 5 net, medium below 10, quarter/half/full sizing.
func DefaultParams() Params {
	return Params{
		TxCostCents:    5,
		SmallMaxCents:  5,
		MediumMaxCents: 10,
		SmallFraction:  0.25,
		MediumFraction: 0.5,
		LargeFraction:  1.0,
	}
}

// Result is the outcome of an edge computation, all amounts in cents.
type Result struct {
	GrossEdge    float64
	NetEdge      float64
	Action       Action
	PositionSize float64 // fraction of full size, 0 when skipped
}

// Compute prices side against probabilityPct. priceCents is always the YES
// price; the NO side is derived from its complement. The decision ladder is
// applied in order, first match wins: no signal, non-positive net edge,
// then the sizing boundaries.
func Compute(probabilityPct float64, priceCents int, side domain.Side, signal probability.Signal, p Params) Result {
	var gross float64
	if side == domain.SideYes {
		gross = probabilityPct - float64(priceCents)
	} else {
		gross = (100 - probabilityPct) - float64(100-priceCents)
	}

	net := gross - p.TxCostCents

	res := Result{GrossEdge: gross, NetEdge: net}
	switch {
	case signal == probability.NoSignal:
		res.Action = Skip
	case net <= 0:
		res.Action = Skip
	case net < p.SmallMaxCents:
		res.Action = SmallPos
		res.PositionSize = p.SmallFraction
	case net < p.MediumMaxCents:
		res.Action = MediumPos
		res.PositionSize = p.MediumFraction
	default:
		res.Action = LargePos
		res.PositionSize = p.LargeFraction
	}
	return res
}
