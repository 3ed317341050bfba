package edge

import (
	"math"
	"testing"

	"github.com/jzOcb/kalshi-trading/internal/domain"
	"github.com/jzOcb/kalshi-trading/internal/probability"
)

func TestComputeLargePosition(t *testing.T) {
	// 88% implied vs a 70 cent YES ask with 5 cents of friction.
	res := Compute(88, 70, domain.SideYes, probability.Strong, DefaultParams())

	if math.Abs(res.GrossEdge-18) > 1e-9 {
		t.Fatalf("expected gross edge 18, got %v", res.GrossEdge)
	}
	if math.Abs(res.NetEdge-13) > 1e-9 {
		t.Fatalf("expected net edge 13, got %v", res.NetEdge)
	}
	if res.Action != LargePos {
		t.Fatalf("net edge 13 should be %s, got %s", LargePos, res.Action)
	}
	if res.PositionSize != 1.0 {
		t.Fatalf("large position should be full size, got %v", res.PositionSize)
	}
}

func TestComputeSidesMirror(t *testing.T) {
	// The NO side's gross edge is the exact negative of the YES side's at
	// the same price.
	yes := Compute(60, 50, domain.SideYes, probability.Moderate, DefaultParams())
	no := Compute(60, 50, domain.SideNo, probability.Moderate, DefaultParams())

	if math.Abs(yes.GrossEdge+no.GrossEdge) > 1e-9 {
		t.Fatalf("gross edges should mirror: %v vs %v", yes.GrossEdge, no.GrossEdge)
	}
}

func TestComputeLadder(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		prob   float64
		price  int
		action Action
		size   float64
	}{
		{72, 70, Skip, 0},                     // net -3
		{78, 70, SmallPos, p.SmallFraction},   // net 3
		{82, 70, MediumPos, p.MediumFraction}, // net 7
		{90, 70, LargePos, p.LargeFraction},   // net 15
	}
	for _, tc := range cases {
		res := Compute(tc.prob, tc.price, domain.SideYes, probability.Strong, p)
		if res.Action != tc.action {
			t.Fatalf("prob %v price %d: expected %s, got %s (net %v)", tc.prob, tc.price, tc.action, res.Action, res.NetEdge)
		}
		if res.PositionSize != tc.size {
			t.Fatalf("prob %v price %d: expected size %v, got %v", tc.prob, tc.price, tc.size, res.PositionSize)
		}
	}
}

func TestComputeNoSignalAlwaysSkips(t *testing.T) {
	// Even a huge raw edge is skipped when the model calls it noise.
	res := Compute(95, 20, domain.SideYes, probability.NoSignal, DefaultParams())

	if res.Action != Skip {
		t.Fatalf("no-signal estimates must skip, got %s", res.Action)
	}
	if res.PositionSize != 0 {
		t.Fatalf("skip must carry zero size, got %v", res.PositionSize)
	}
	if res.NetEdge <= 0 {
		t.Fatalf("net edge is still reported for diagnostics, got %v", res.NetEdge)
	}
}

func TestComputeExactBoundaryIsSkip(t *testing.T) {
	// Net edge of exactly zero is not tradeable.
	res := Compute(75, 70, domain.SideYes, probability.Strong, DefaultParams())
	if res.Action != Skip {
		t.Fatalf("zero net edge should skip, got %s (net %v)", res.Action, res.NetEdge)
	}
}
