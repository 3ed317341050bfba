package probability

import (
	"math"
	"testing"
)

func TestImpliedAtThresholdIsCoinFlip(t *testing.T) {
	// GDP forecast 2.3 with bias 0.3 lands exactly on a 2.0 threshold.
	est, err := Implied(2.3, 2.0, Above, 1.0, 0.3)
	if err != nil {
		t.Fatalf("Implied: %v", err)
	}

	if est.ZScore != 0 {
		t.Fatalf("expected z=0, got %v", est.ZScore)
	}
	if math.Abs(est.Probability-50) > 1e-9 {
		t.Fatalf("expected 50%%, got %v", est.Probability)
	}
	if est.Signal != NoSignal {
		t.Fatalf("z=0 must be %s, got %s", NoSignal, est.Signal)
	}
	if est.FairYes != 50 || est.FairNo != 50 {
		t.Fatalf("fair prices should be 50/50, got %d/%d", est.FairYes, est.FairNo)
	}
}

func TestImpliedDirectionComplement(t *testing.T) {
	above, err := Implied(86, 85, Above, 3.0, 0)
	if err != nil {
		t.Fatalf("Implied above: %v", err)
	}
	below, err := Implied(86, 85, Below, 3.0, 0)
	if err != nil {
		t.Fatalf("Implied below: %v", err)
	}

	if math.Abs(above.Probability+below.Probability-100) > 1e-9 {
		t.Fatalf("above and below must sum to 100, got %v + %v", above.Probability, below.Probability)
	}
	if above.ZScore != below.ZScore {
		t.Fatalf("z-score must not depend on direction: %v vs %v", above.ZScore, below.ZScore)
	}
}

func TestImpliedMonotoneInForecast(t *testing.T) {
	prev := 0.0
	for _, forecast := range []float64{80, 82, 84, 86, 88, 90} {
		est, err := Implied(forecast, 85, Above, 3.0, 0)
		if err != nil {
			t.Fatalf("Implied(%v): %v", forecast, err)
		}
		if est.Probability <= prev {
			t.Fatalf("probability must increase with the forecast: %v after %v", est.Probability, prev)
		}
		prev = est.Probability
	}
}

func TestImpliedClamped(t *testing.T) {
	est, err := Implied(100, 50, Above, 0.5, 0)
	if err != nil {
		t.Fatalf("Implied: %v", err)
	}
	if est.Probability != 99 {
		t.Fatalf("extreme z must clamp to 99, got %v", est.Probability)
	}

	est, err = Implied(0, 50, Above, 0.5, 0)
	if err != nil {
		t.Fatalf("Implied: %v", err)
	}
	if est.Probability != 1 {
		t.Fatalf("extreme negative z must clamp to 1, got %v", est.Probability)
	}
}

func TestImpliedSignalBuckets(t *testing.T) {
	cases := []struct {
		forecast float64
		want     Signal
	}{
		{85.3, NoSignal}, // z = 0.3
		{85.7, Weak},     // z = 0.7
		{86.5, Moderate}, // z = 1.5
		{88.0, Strong},   // z = 3.0
	}
	for _, tc := range cases {
		est, err := Implied(tc.forecast, 85, Above, 1.0, 0)
		if err != nil {
			t.Fatalf("Implied(%v): %v", tc.forecast, err)
		}
		if est.Signal != tc.want {
			t.Fatalf("forecast %v: expected %s, got %s (z=%v)", tc.forecast, tc.want, est.Signal, est.ZScore)
		}
	}
}

func TestImpliedRejectsBadInputs(t *testing.T) {
	if _, err := Implied(1, 2, Above, 0, 0); err == nil {
		t.Fatal("sigma=0 must be rejected")
	}
	if _, err := Implied(1, 2, Above, -1, 0); err == nil {
		t.Fatal("negative sigma must be rejected")
	}
	if _, err := Implied(1, 2, "sideways", 1, 0); err == nil {
		t.Fatal("unknown direction must be rejected")
	}
}

func TestNormalCDFAnchors(t *testing.T) {
	if math.Abs(NormalCDF(0)-0.5) > 1e-12 {
		t.Fatalf("CDF(0) should be 0.5, got %v", NormalCDF(0))
	}
	if math.Abs(NormalCDF(1.0)-0.8413) > 1e-3 {
		t.Fatalf("CDF(1) should be about 0.8413, got %v", NormalCDF(1))
	}
	if math.Abs(NormalCDF(-1.0)+NormalCDF(1.0)-1) > 1e-12 {
		t.Fatalf("CDF must be symmetric around zero")
	}
}
