package cohort

import (
	"time"

	"cohortsynth/domain/core"
)

// Phase is a half of the modeled 28-day menstrual cycle.
type Phase string

const (
	PhaseFollicular Phase = "follicular"
	PhaseLuteal     Phase = "luteal"
)

// CycleLengthDays is the fixed cycle length the phase model assumes.
const CycleLengthDays = 28

// Valid reports whether the phase label is one of the two modeled phases.
func (p Phase) Valid() bool {
	return p == PhaseFollicular || p == PhaseLuteal
}

// Other returns the opposite phase.
func (p Phase) Other() Phase {
	if p == PhaseFollicular {
		return PhaseLuteal
	}
	return PhaseFollicular
}

// ParsePhase converts a label into a Phase, failing fast on anything
// outside the two-phase model.
func ParsePhase(label string) (Phase, error) {
	p := Phase(label)
	if !p.Valid() {
		return "", core.NewInvalidPhaseError(label)
	}
	return p, nil
}

// CycleDay computes the 1-28 cycle day at observation time given the last
// menstrual period start date, wrapping on the fixed cycle length.
func CycleDay(lmp, observation time.Time) int {
	days := int(observation.Sub(lmp).Hours() / 24)
	day := days % CycleLengthDays
	if day < 0 {
		day += CycleLengthDays
	}
	return day + 1
}

// ClassifyPhase maps (LMP date, observation date) onto a phase: cycle days
// 1-14 are follicular, 15-28 luteal.
func ClassifyPhase(lmp, observation time.Time) Phase {
	if CycleDay(lmp, observation) <= CycleLengthDays/2 {
		return PhaseFollicular
	}
	return PhaseLuteal
}

// LMPOffsetBounds returns the inclusive [min, max] days-ago range an LMP
// date may fall in so that ClassifyPhase maps it back to the target phase
// at observation time. Follicular allows 0-13 days ago, luteal 14-27.
func LMPOffsetBounds(target Phase) (minDaysAgo, maxDaysAgo int) {
	if target == PhaseFollicular {
		return 0, CycleLengthDays/2 - 1
	}
	return CycleLengthDays / 2, CycleLengthDays - 1
}
