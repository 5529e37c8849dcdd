// Package generator holds the adaptive cohort generation core: the
// observation sampler drawing from phase-conditioned distributions and
// the tracker feeding corrective shifts back into it.
package generator

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"cohortsynth/domain/cohort"
	"cohortsynth/domain/core"
)

// Uniform range for the intervention basal reduction in luteal phase.
const (
	interventionBasalReductionMin = 0.10
	interventionBasalReductionMax = 0.20
)

// ObservationSampler draws one observation at a time from the
// parameter-conditioned distributions. It owns the per-patient traits
// cache for the lifetime of a generation run: stable attributes are
// rolled once at a patient's first observation and reused afterwards.
type ObservationSampler struct {
	params cohort.Parameters
	rng    *rand.Rand
	traits map[core.PatientID]cohort.PatientTraits
}

// NewObservationSampler creates a sampler over a shared seeded generator.
func NewObservationSampler(params cohort.Parameters, rng *rand.Rand) *ObservationSampler {
	return &ObservationSampler{
		params: params,
		rng:    rng,
		traits: make(map[core.PatientID]cohort.PatientTraits),
	}
}

// Sample draws one observation for the patient at the given date and
// phase, applying any corrective shifts. Fails only on a malformed phase.
func (s *ObservationSampler) Sample(
	patientID core.PatientID,
	date time.Time,
	phase cohort.Phase,
	inIntervention bool,
	corr cohort.Corrections,
) (cohort.Observation, error) {
	if !phase.Valid() {
		return cohort.Observation{}, core.NewInvalidPhaseError(string(phase))
	}

	traits := s.traitsFor(patientID, corr)

	obs := cohort.Observation{
		PatientID:      patientID,
		Date:           date,
		Phase:          phase,
		InIntervention: inIntervention,
		Traits:         traits,
		LMP:            s.sampleLMP(date, phase),
		BasalInsulin:   s.sampleBasalInsulin(phase, inIntervention, corr),
	}
	obs.NighttimeGlucose = s.sampleGlucose(phase, inIntervention, corr)
	obs.SleepAwakenings = s.sampleAwakenings(phase, corr)
	obs.Symptoms = s.sampleSymptoms(phase, corr)
	return obs, nil
}

// traitsFor returns the cached traits, creating them on first encounter.
// Correction factors only influence the creation draw; later observations
// never re-roll a patient's stable attributes.
func (s *ObservationSampler) traitsFor(patientID core.PatientID, corr cohort.Corrections) cohort.PatientTraits {
	if t, ok := s.traits[patientID]; ok {
		return t
	}

	age := s.sampleAge(corr.AgeShift)
	t := cohort.PatientTraits{
		Age:                 age,
		YearsSinceDiagnosis: s.sampleYearsSinceDiagnosis(age),
		DeliveryMethod:      s.sampleDeliveryMethod(corr.DeliveryPreference),
		CycleRegularity:     s.sampleCycleRegularity(),
	}
	s.traits[patientID] = t
	return t
}

func (s *ObservationSampler) sampleAge(shift float64) int {
	age := s.normal(s.params.AgeMean+shift, s.params.AgeStd)
	age = clamp(age, float64(s.params.AgeMin), float64(s.params.AgeMax))
	return int(math.Round(age))
}

// sampleYearsSinceDiagnosis draws diagnosis history, bounded so the
// patient was diagnosed after birth.
func (s *ObservationSampler) sampleYearsSinceDiagnosis(age int) int {
	years := s.normal(s.params.YearsSinceDiagnosisMean, s.params.YearsSinceDiagnosisStd)
	upper := math.Min(float64(age-1), float64(s.params.YearsSinceDiagnosisMax))
	years = clamp(years, float64(s.params.YearsSinceDiagnosisMin), upper)
	return int(math.Round(years))
}

func (s *ObservationSampler) sampleDeliveryMethod(pref *cohort.DeliveryPreference) cohort.DeliveryMethod {
	p := s.params.PumpRatio
	if pref != nil {
		if pref.Method == cohort.DeliveryPump {
			p = clamp(p*pref.Weight, 0, 1)
		} else {
			p = 1 - clamp((1-p)*pref.Weight, 0, 1)
		}
	}
	if s.rng.Float64() < p {
		return cohort.DeliveryPump
	}
	return cohort.DeliveryInjection
}

func (s *ObservationSampler) sampleCycleRegularity() cohort.CycleRegularity {
	r := s.rng.Float64()
	if r < s.params.VeryRegularRatio {
		return cohort.RegularityVeryRegular
	}
	if r < s.params.VeryRegularRatio+s.params.SomewhatRegularRatio {
		return cohort.RegularitySomewhatRegular
	}
	return cohort.RegularityIrregular
}

// sampleBasalInsulin models the intervention effect directly: in luteal
// phase an intervention patient reduces her baseline dose by a uniformly
// sampled 10-20% instead of applying the standard luteal increase.
func (s *ObservationSampler) sampleBasalInsulin(phase cohort.Phase, inIntervention bool, corr cohort.Corrections) float64 {
	var dose float64
	switch {
	case phase == cohort.PhaseFollicular:
		dose = s.normal(s.params.BasalInsulinMean, s.params.BasalInsulinStd)
	case inIntervention:
		base := s.normal(s.params.BasalInsulinMean, s.params.BasalInsulinStd)
		reduction := interventionBasalReductionMin +
			s.rng.Float64()*(interventionBasalReductionMax-interventionBasalReductionMin)
		dose = base * (1 - reduction)
	default:
		dose = s.normal(s.params.BasalLutealMean(), s.params.BasalInsulinStd)
	}
	dose += corr.BasalShiftFor(phase)
	dose = clamp(dose, s.params.BasalInsulinMin, s.params.BasalInsulinMax)
	return cohort.Round1(dose)
}

// sampleGlucose draws nighttime CGM glucose. Intervention patients in
// luteal phase show only the residual fraction of the standard luteal
// increase before any corrective shift is added.
func (s *ObservationSampler) sampleGlucose(phase cohort.Phase, inIntervention bool, corr cohort.Corrections) float64 {
	mean := s.params.GlucoseFollicularMean
	if phase == cohort.PhaseLuteal {
		if inIntervention {
			mean = s.params.InterventionLutealGlucoseTarget()
		} else {
			mean = s.params.GlucoseLutealMean()
		}
	}
	glucose := s.normal(mean, s.params.GlucoseFollicularStd)
	glucose += corr.GlucoseShift(phase)
	return cohort.Round1(math.Max(50.0, glucose))
}

func (s *ObservationSampler) sampleAwakenings(phase cohort.Phase, corr cohort.Corrections) int {
	mean := s.params.AwakeningsFollicularMean
	if phase == cohort.PhaseLuteal {
		mean = s.params.AwakeningsLutealMean()
	}
	awakenings := s.normal(mean+corr.AwakeningsShift(phase), s.params.AwakeningsFollicularStd)
	if awakenings < 0 {
		awakenings = 0
	}
	return int(math.Round(awakenings))
}

// sampleSymptoms runs an independent Bernoulli draw per symptom with the
// phase-specific probability, scaled by any corrective multiplier and
// clipped to [0, 1] before the draw.
func (s *ObservationSampler) sampleSymptoms(phase cohort.Phase, corr cohort.Corrections) []cohort.Symptom {
	var out []cohort.Symptom
	for _, symptom := range cohort.Symptoms {
		p := s.params.SymptomProb(symptom, phase) * corr.SymptomMod(symptom, phase)
		p = clamp(p, 0, 1)
		if s.rng.Float64() < p {
			out = append(out, symptom)
		}
	}
	return out
}

// sampleLMP back-computes a last-menstrual-period date whose classifier
// phase at the observation date is exactly the requested phase. The
// offset bounds make the round trip deterministic for any sampled value.
func (s *ObservationSampler) sampleLMP(date time.Time, phase cohort.Phase) time.Time {
	minDays, maxDays := cohort.LMPOffsetBounds(phase)
	daysAgo := minDays + s.rng.IntN(maxDays-minDays+1)
	return date.AddDate(0, 0, -daysAgo)
}

func (s *ObservationSampler) normal(mean, std float64) float64 {
	return distuv.Normal{Mu: mean, Sigma: std, Src: s.rng}.Rand()
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
