package cohort

import (
	"testing"
	"time"
)

func TestParsePhase(t *testing.T) {
	for _, label := range []string{"follicular", "luteal"} {
		phase, err := ParsePhase(label)
		if err != nil {
			t.Fatalf("ParsePhase(%q) failed: %v", label, err)
		}
		if string(phase) != label {
			t.Errorf("ParsePhase(%q) = %q", label, phase)
		}
	}

	for _, label := range []string{"", "ovulatory", "Follicular", "LUTEAL"} {
		if _, err := ParsePhase(label); err == nil {
			t.Errorf("ParsePhase(%q) should fail", label)
		}
	}
}

func TestPhaseOther(t *testing.T) {
	if PhaseFollicular.Other() != PhaseLuteal {
		t.Error("Other() of follicular should be luteal")
	}
	if PhaseLuteal.Other() != PhaseFollicular {
		t.Error("Other() of luteal should be follicular")
	}
}

func TestCycleDay(t *testing.T) {
	obs := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		daysAgo int
		want    int
	}{
		{0, 1},
		{1, 2},
		{13, 14},
		{14, 15},
		{27, 28},
		{28, 1},  // wraps to a new cycle
		{35, 8},
	}

	for _, tc := range cases {
		lmp := obs.AddDate(0, 0, -tc.daysAgo)
		if got := CycleDay(lmp, obs); got != tc.want {
			t.Errorf("CycleDay with LMP %d days ago = %d, want %d", tc.daysAgo, got, tc.want)
		}
	}
}

func TestClassifyPhaseBoundaries(t *testing.T) {
	obs := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		daysAgo int
		want    Phase
	}{
		{0, PhaseFollicular},
		{13, PhaseFollicular},
		{14, PhaseLuteal},
		{27, PhaseLuteal},
		{28, PhaseFollicular},
	}

	for _, tc := range cases {
		lmp := obs.AddDate(0, 0, -tc.daysAgo)
		if got := ClassifyPhase(lmp, obs); got != tc.want {
			t.Errorf("ClassifyPhase with LMP %d days ago = %s, want %s", tc.daysAgo, got, tc.want)
		}
	}
}

// TestLMPOffsetRoundTrip verifies that every offset inside a phase's
// bounds classifies back to that phase.
func TestLMPOffsetRoundTrip(t *testing.T) {
	obs := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, phase := range []Phase{PhaseFollicular, PhaseLuteal} {
		lo, hi := LMPOffsetBounds(phase)
		for daysAgo := lo; daysAgo <= hi; daysAgo++ {
			lmp := obs.AddDate(0, 0, -daysAgo)
			if got := ClassifyPhase(lmp, obs); got != phase {
				t.Errorf("offset %d inside %s bounds classified as %s", daysAgo, phase, got)
			}
		}
	}

	if lo, hi := LMPOffsetBounds(PhaseFollicular); lo != 0 || hi != 13 {
		t.Errorf("follicular bounds = [%d, %d], want [0, 13]", lo, hi)
	}
	if lo, hi := LMPOffsetBounds(PhaseLuteal); lo != 14 || hi != 27 {
		t.Errorf("luteal bounds = [%d, %d], want [14, 27]", lo, hi)
	}
}
