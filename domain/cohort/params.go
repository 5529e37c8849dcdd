package cohort

import (
	"math"

	"cohortsynth/domain/core"
)

// Parameters defines the population-level statistics the synthetic T1D
// cohort is generated against. Luteal-phase targets are derived from the
// follicular baseline plus the Luteal*Increase deltas.
type Parameters struct {
	// Demographics
	AgeMin  int     `json:"age_min"`
	AgeMax  int     `json:"age_max"`
	AgeMean float64 `json:"age_mean"`
	AgeStd  float64 `json:"age_std"`

	// T1D diagnosis history
	YearsSinceDiagnosisMin  int     `json:"years_since_diagnosis_min"`
	YearsSinceDiagnosisMax  int     `json:"years_since_diagnosis_max"`
	YearsSinceDiagnosisMean float64 `json:"years_since_diagnosis_mean"`
	YearsSinceDiagnosisStd  float64 `json:"years_since_diagnosis_std"`

	// Insulin delivery method distribution
	PumpRatio float64 `json:"pump_ratio"`

	// Menstrual cycle regularity distribution (partitions to 1.0)
	VeryRegularRatio     float64 `json:"very_regular_ratio"`
	SomewhatRegularRatio float64 `json:"somewhat_regular_ratio"`
	IrregularRatio       float64 `json:"irregular_ratio"`

	// Basal insulin doses (units/night), follicular baseline
	BasalInsulinMean float64 `json:"basal_insulin_mean"`
	BasalInsulinStd  float64 `json:"basal_insulin_std"`
	BasalInsulinMin  float64 `json:"basal_insulin_min"`
	BasalInsulinMax  float64 `json:"basal_insulin_max"`

	// Nighttime glucose (mg/dL), follicular baseline
	GlucoseFollicularMean float64 `json:"glucose_follicular_mean"`
	GlucoseFollicularStd  float64 `json:"glucose_follicular_std"`

	// Sleep awakenings, follicular baseline
	AwakeningsFollicularMean float64 `json:"awakenings_follicular_mean"`
	AwakeningsFollicularStd  float64 `json:"awakenings_follicular_std"`

	// Symptom probabilities, follicular phase
	NightSweatsProbFollicular  float64 `json:"night_sweats_prob_follicular"`
	DizzinessProbFollicular    float64 `json:"dizziness_prob_follicular"`
	PalpitationsProbFollicular float64 `json:"palpitations_prob_follicular"`
	FatigueProbFollicular      float64 `json:"fatigue_prob_follicular"`

	// Luteal phase adjustments
	LutealInsulinIncrease    float64 `json:"luteal_insulin_increase"`    // multiplicative, +14%
	LutealGlucoseIncrease    float64 `json:"luteal_glucose_increase"`    // additive, mg/dL
	LutealAwakeningsIncrease float64 `json:"luteal_awakenings_increase"` // additive

	// Symptom probabilities, luteal phase
	NightSweatsProbLuteal  float64 `json:"night_sweats_prob_luteal"`
	DizzinessProbLuteal    float64 `json:"dizziness_prob_luteal"`
	PalpitationsProbLuteal float64 `json:"palpitations_prob_luteal"`
	FatigueProbLuteal      float64 `json:"fatigue_prob_luteal"`

	// Fraction of the luteal glucose increase the intervention group
	// still shows after cycle-aware basal adjustment.
	InterventionResidualEffect float64 `json:"intervention_residual_effect"`
}

// DefaultParameters returns the reference population used by the study
// protocol. Values are the calibration targets, not fitted estimates.
func DefaultParameters() Parameters {
	return Parameters{
		AgeMin:  18,
		AgeMax:  45,
		AgeMean: 31.5,
		AgeStd:  7.0,

		YearsSinceDiagnosisMin:  1,
		YearsSinceDiagnosisMax:  30,
		YearsSinceDiagnosisMean: 12.0,
		YearsSinceDiagnosisStd:  8.0,

		PumpRatio: 0.65,

		VeryRegularRatio:     0.55,
		SomewhatRegularRatio: 0.30,
		IrregularRatio:       0.15,

		BasalInsulinMean: 14.0,
		BasalInsulinStd:  3.5,
		BasalInsulinMin:  5.0,
		BasalInsulinMax:  30.0,

		GlucoseFollicularMean: 118.0,
		GlucoseFollicularStd:  20.0,

		AwakeningsFollicularMean: 0.8,
		AwakeningsFollicularStd:  0.6,

		NightSweatsProbFollicular:  0.12,
		DizzinessProbFollicular:    0.04,
		PalpitationsProbFollicular: 0.05,
		FatigueProbFollicular:      0.18,

		LutealInsulinIncrease:    0.14,
		LutealGlucoseIncrease:    8.1,
		LutealAwakeningsIncrease: 0.6,

		NightSweatsProbLuteal:  0.22,
		DizzinessProbLuteal:    0.09,
		PalpitationsProbLuteal: 0.11,
		FatigueProbLuteal:      0.25,

		InterventionResidualEffect: 0.10,
	}
}

// GlucoseLutealMean is the derived luteal glucose target.
func (p Parameters) GlucoseLutealMean() float64 {
	return p.GlucoseFollicularMean + p.LutealGlucoseIncrease
}

// BasalLutealMean is the derived luteal basal insulin target.
func (p Parameters) BasalLutealMean() float64 {
	return p.BasalInsulinMean * (1 + p.LutealInsulinIncrease)
}

// AwakeningsLutealMean is the derived luteal awakenings target.
func (p Parameters) AwakeningsLutealMean() float64 {
	return p.AwakeningsFollicularMean + p.LutealAwakeningsIncrease
}

// InterventionLutealGlucoseTarget is the luteal glucose mean the
// intervention group is steered toward: baseline plus the residual
// fraction of the standard luteal increase.
func (p Parameters) InterventionLutealGlucoseTarget() float64 {
	return p.GlucoseFollicularMean + p.LutealGlucoseIncrease*p.InterventionResidualEffect
}

// SymptomProb returns the generation probability for a symptom in a phase.
func (p Parameters) SymptomProb(s Symptom, phase Phase) float64 {
	if phase == PhaseFollicular {
		switch s {
		case SymptomNightSweats:
			return p.NightSweatsProbFollicular
		case SymptomDizziness:
			return p.DizzinessProbFollicular
		case SymptomPalpitations:
			return p.PalpitationsProbFollicular
		case SymptomFatigue:
			return p.FatigueProbFollicular
		}
		return 0
	}
	switch s {
	case SymptomNightSweats:
		return p.NightSweatsProbLuteal
	case SymptomDizziness:
		return p.DizzinessProbLuteal
	case SymptomPalpitations:
		return p.PalpitationsProbLuteal
	case SymptomFatigue:
		return p.FatigueProbLuteal
	}
	return 0
}

// Validate checks internal consistency of the parameter set.
func (p Parameters) Validate() error {
	ratioSum := p.VeryRegularRatio + p.SomewhatRegularRatio + p.IrregularRatio
	if math.Abs(ratioSum-1.0) > 1e-9 {
		return core.NewValidationError("cycle_regularity_ratios", "must sum to 1.0")
	}
	if p.PumpRatio < 0 || p.PumpRatio > 1 {
		return core.NewValidationError("pump_ratio", "must be within [0, 1]")
	}
	if p.AgeMin >= p.AgeMax {
		return core.NewValidationError("age_range", "min must be below max")
	}
	if p.BasalInsulinMin >= p.BasalInsulinMax {
		return core.NewValidationError("basal_insulin_range", "min must be below max")
	}
	if p.InterventionResidualEffect < 0 || p.InterventionResidualEffect > 1 {
		return core.NewValidationError("intervention_residual_effect", "must be within [0, 1]")
	}
	return nil
}
