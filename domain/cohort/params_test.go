package cohort

import (
	"math"
	"testing"
)

func TestDefaultParametersValid(t *testing.T) {
	if err := DefaultParameters().Validate(); err != nil {
		t.Fatalf("default parameters should validate: %v", err)
	}
}

func TestParametersValidateRejectsBadRatios(t *testing.T) {
	p := DefaultParameters()
	p.VeryRegularRatio = 0.70
	if err := p.Validate(); err == nil {
		t.Error("regularity ratios not summing to 1.0 should fail validation")
	}

	p = DefaultParameters()
	p.PumpRatio = 1.2
	if err := p.Validate(); err == nil {
		t.Error("pump ratio above 1 should fail validation")
	}

	p = DefaultParameters()
	p.AgeMin = 50
	if err := p.Validate(); err == nil {
		t.Error("inverted age range should fail validation")
	}

	p = DefaultParameters()
	p.InterventionResidualEffect = -0.1
	if err := p.Validate(); err == nil {
		t.Error("negative residual effect should fail validation")
	}
}

func TestDerivedTargets(t *testing.T) {
	p := DefaultParameters()

	if got := p.GlucoseLutealMean(); math.Abs(got-126.1) > 1e-9 {
		t.Errorf("GlucoseLutealMean = %v, want 126.1", got)
	}
	if got := p.BasalLutealMean(); math.Abs(got-14.0*1.14) > 1e-9 {
		t.Errorf("BasalLutealMean = %v, want %v", got, 14.0*1.14)
	}
	if got := p.AwakeningsLutealMean(); math.Abs(got-1.4) > 1e-9 {
		t.Errorf("AwakeningsLutealMean = %v, want 1.4", got)
	}
	if got := p.InterventionLutealGlucoseTarget(); math.Abs(got-118.81) > 1e-9 {
		t.Errorf("InterventionLutealGlucoseTarget = %v, want 118.81", got)
	}
}

func TestSymptomProbByPhase(t *testing.T) {
	p := DefaultParameters()

	cases := []struct {
		symptom Symptom
		phase   Phase
		want    float64
	}{
		{SymptomNightSweats, PhaseFollicular, 0.12},
		{SymptomNightSweats, PhaseLuteal, 0.22},
		{SymptomDizziness, PhaseFollicular, 0.04},
		{SymptomDizziness, PhaseLuteal, 0.09},
		{SymptomPalpitations, PhaseFollicular, 0.05},
		{SymptomPalpitations, PhaseLuteal, 0.11},
		{SymptomFatigue, PhaseFollicular, 0.18},
		{SymptomFatigue, PhaseLuteal, 0.25},
	}

	for _, tc := range cases {
		if got := p.SymptomProb(tc.symptom, tc.phase); got != tc.want {
			t.Errorf("SymptomProb(%s, %s) = %v, want %v", tc.symptom, tc.phase, got, tc.want)
		}
	}

	if got := p.SymptomProb(Symptom("unknown"), PhaseFollicular); got != 0 {
		t.Errorf("unknown symptom should have probability 0, got %v", got)
	}
}
