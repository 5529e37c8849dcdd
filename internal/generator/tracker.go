package generator

import (
	"math"
	"math/rand/v2"

	"github.com/montanaflynn/stats"

	"cohortsynth/domain/cohort"
)

// CohortStats holds the running aggregates over every recorded
// observation. Counters and lists only ever grow; the struct is reset
// only when a new tracker is constructed.
type CohortStats struct {
	TotalObservations int
	FollicularCount   int
	LutealCount       int
	InterventionCount int

	Ages []float64

	PumpCount      int
	InjectionCount int

	VeryRegularCount     int
	SomewhatRegularCount int
	IrregularCount       int

	FollicularGlucose            []float64
	LutealGlucose                []float64
	LutealGlucoseNonIntervention []float64
	LutealGlucoseIntervention    []float64

	FollicularBasal []float64
	LutealBasal     []float64

	FollicularAwakenings []float64
	LutealAwakenings     []float64

	FollicularSymptomCounts map[cohort.Symptom]int
	LutealSymptomCounts     map[cohort.Symptom]int
}

// CohortTracker consumes emitted observations, maintains running cohort
// statistics and derives correction factors by comparing the running
// aggregates with the parameter targets.
type CohortTracker struct {
	params cohort.Parameters

	targetTotal                int
	targetInterventionPatients int
	interventionAssigned       int

	stats CohortStats
}

// NewCohortTracker creates a tracker for a run producing targetTotal
// observations with targetInterventionPatients intervention patients.
func NewCohortTracker(params cohort.Parameters, targetTotal, targetInterventionPatients int) *CohortTracker {
	return &CohortTracker{
		params:                     params,
		targetTotal:                targetTotal,
		targetInterventionPatients: targetInterventionPatients,
		stats: CohortStats{
			FollicularSymptomCounts: make(map[cohort.Symptom]int),
			LutealSymptomCounts:     make(map[cohort.Symptom]int),
		},
	}
}

// Stats exposes the current running aggregates.
func (t *CohortTracker) Stats() CohortStats { return t.stats }

// Record folds one observation into the running statistics. Must be
// called in schedule order: later corrections depend on every earlier
// observation.
func (t *CohortTracker) Record(obs cohort.Observation) {
	st := &t.stats
	st.TotalObservations++

	if obs.Phase == cohort.PhaseFollicular {
		st.FollicularCount++
	} else {
		st.LutealCount++
	}
	if obs.InIntervention {
		st.InterventionCount++
	}

	st.Ages = append(st.Ages, float64(obs.Traits.Age))

	if obs.Traits.DeliveryMethod == cohort.DeliveryPump {
		st.PumpCount++
	} else {
		st.InjectionCount++
	}

	switch obs.Traits.CycleRegularity {
	case cohort.RegularityVeryRegular:
		st.VeryRegularCount++
	case cohort.RegularitySomewhatRegular:
		st.SomewhatRegularCount++
	default:
		st.IrregularCount++
	}

	if obs.Phase == cohort.PhaseFollicular {
		st.FollicularGlucose = append(st.FollicularGlucose, obs.NighttimeGlucose)
		st.FollicularBasal = append(st.FollicularBasal, obs.BasalInsulin)
		st.FollicularAwakenings = append(st.FollicularAwakenings, float64(obs.SleepAwakenings))
		for _, s := range obs.Symptoms {
			st.FollicularSymptomCounts[s]++
		}
		return
	}

	st.LutealGlucose = append(st.LutealGlucose, obs.NighttimeGlucose)
	st.LutealBasal = append(st.LutealBasal, obs.BasalInsulin)
	st.LutealAwakenings = append(st.LutealAwakenings, float64(obs.SleepAwakenings))
	if obs.InIntervention {
		st.LutealGlucoseIntervention = append(st.LutealGlucoseIntervention, obs.NighttimeGlucose)
	} else {
		st.LutealGlucoseNonIntervention = append(st.LutealGlucoseNonIntervention, obs.NighttimeGlucose)
	}
	for _, s := range obs.Symptoms {
		st.LutealSymptomCounts[s]++
	}
}

// CorrectionFactors derives the adjustment set for the next draw from the
// gap between running aggregates and parameter targets. Returns the zero
// value when nothing has been recorded yet or the target count is
// already reached.
func (t *CohortTracker) CorrectionFactors() cohort.Corrections {
	st := t.stats
	if st.TotalObservations == 0 || t.targetTotal-st.TotalObservations <= 0 {
		return cohort.Corrections{}
	}

	var corr cohort.Corrections

	// Phase balance: strict enforcement around 50/50.
	follicularRatio := float64(st.FollicularCount) / float64(st.TotalObservations)
	diff := math.Abs(follicularRatio - cohort.TargetFollicularRatio)
	if diff > cohort.PhaseBalanceTolerance {
		weight := cohort.PhasePreferenceWeight
		if diff > cohort.PhaseBalanceStrongDeviation {
			weight = cohort.PhasePreferenceStrongWeight
		}
		preferred := cohort.PhaseFollicular
		if follicularRatio > cohort.TargetFollicularRatio {
			preferred = cohort.PhaseLuteal
		}
		corr.PhasePreference = &cohort.PhasePreference{Phase: preferred, Weight: weight}
	}

	// Pump ratio.
	if total := st.PumpCount + st.InjectionCount; total > 0 {
		pumpRatio := float64(st.PumpCount) / float64(total)
		if pumpRatio < t.params.PumpRatio-cohort.DeliveryRatioTolerance {
			corr.DeliveryPreference = &cohort.DeliveryPreference{
				Method: cohort.DeliveryPump,
				Weight: cohort.DeliveryPreferenceWeight,
			}
		} else if pumpRatio > t.params.PumpRatio+cohort.DeliveryRatioTolerance {
			corr.DeliveryPreference = &cohort.DeliveryPreference{
				Method: cohort.DeliveryInjection,
				Weight: cohort.DeliveryPreferenceWeight,
			}
		}
	}

	// Continuous metrics: shift = (target - running mean) x damping, only
	// past the sample-size threshold and the per-metric noise floor.
	if len(st.Ages) > cohort.AgeSampleThreshold {
		corr.AgeShift = dampedShift(st.Ages, t.params.AgeMean, cohort.AgeNoiseFloor, cohort.AgeDamping)
	}
	if len(st.FollicularGlucose) > cohort.MeasureSampleThreshold {
		corr.FollicularGlucoseShift = dampedShift(
			st.FollicularGlucose, t.params.GlucoseFollicularMean,
			cohort.GlucoseNoiseFloor, cohort.GlucoseDamping)
	}
	if len(st.LutealGlucoseNonIntervention) > cohort.MeasureSampleThreshold {
		corr.LutealGlucoseShift = dampedShift(
			st.LutealGlucoseNonIntervention, t.params.GlucoseLutealMean(),
			cohort.GlucoseNoiseFloor, cohort.GlucoseDamping)
	}
	if len(st.FollicularBasal) > cohort.MeasureSampleThreshold {
		corr.BasalShift = dampedShift(
			st.FollicularBasal, t.params.BasalInsulinMean,
			cohort.BasalNoiseFloor, cohort.BasalDamping)
	}
	if len(st.LutealBasal) > cohort.MeasureSampleThreshold {
		corr.LutealBasalShift = dampedShift(
			st.LutealBasal, t.params.BasalLutealMean(),
			cohort.BasalNoiseFloor, cohort.LutealBasalDamping)
	}
	if len(st.FollicularAwakenings) > cohort.MeasureSampleThreshold {
		corr.FollicularAwakeningsShift = dampedShift(
			st.FollicularAwakenings, t.params.AwakeningsFollicularMean,
			cohort.AwakeningsNoiseFloor, cohort.AwakeningsDamping)
	}
	if len(st.LutealAwakenings) > cohort.MeasureSampleThreshold {
		corr.LutealAwakeningsShift = dampedShift(
			st.LutealAwakenings, t.params.AwakeningsLutealMean(),
			cohort.AwakeningsNoiseFloor, cohort.AwakeningsDamping)
	}

	// Symptom rates, per the tuning table.
	if st.FollicularCount > cohort.MeasureSampleThreshold {
		corr.FollicularSymptomMods = t.symptomMods(cohort.PhaseFollicular, st.FollicularSymptomCounts, st.FollicularCount)
	}
	if st.LutealCount > cohort.MeasureSampleThreshold {
		corr.LutealSymptomMods = t.symptomMods(cohort.PhaseLuteal, st.LutealSymptomCounts, st.LutealCount)
	}

	return corr
}

// symptomMods compares each tuned symptom's running rate with its target
// and emits a boost or reduction multiplier.
func (t *CohortTracker) symptomMods(phase cohort.Phase, counts map[cohort.Symptom]int, total int) map[cohort.Symptom]float64 {
	mods := make(map[cohort.Symptom]float64)
	for symptom, policy := range cohort.SymptomPolicies[phase] {
		rate := float64(counts[symptom]) / float64(total)
		target := t.params.SymptomProb(symptom, phase)
		switch {
		case rate < target-policy.BelowEps:
			mods[symptom] = policy.Boost
		case rate > target+policy.AboveEps:
			mods[symptom] = policy.Reduce
		}
	}
	if len(mods) == 0 {
		return nil
	}
	return mods
}

// TargetPhaseForBalance picks the next phase so the cohort stays near
// 50/50: a uniform pick on the first call, a forced pick when the ratio
// drifts beyond the force threshold, and a gently biased coin otherwise.
func (t *CohortTracker) TargetPhaseForBalance(rng *rand.Rand) cohort.Phase {
	if t.stats.TotalObservations == 0 {
		if rng.Float64() < 0.5 {
			return cohort.PhaseFollicular
		}
		return cohort.PhaseLuteal
	}

	ratio := float64(t.stats.FollicularCount) / float64(t.stats.TotalObservations)
	switch {
	case ratio < cohort.TargetFollicularRatio-cohort.PhaseForceDeviation:
		return cohort.PhaseFollicular
	case ratio > cohort.TargetFollicularRatio+cohort.PhaseForceDeviation:
		return cohort.PhaseLuteal
	}

	follicularProb := 0.5
	if ratio < cohort.TargetFollicularRatio {
		follicularProb = cohort.PhaseGentleBiasProb
	} else if ratio > cohort.TargetFollicularRatio {
		follicularProb = 1 - cohort.PhaseGentleBiasProb
	}
	if rng.Float64() < follicularProb {
		return cohort.PhaseFollicular
	}
	return cohort.PhaseLuteal
}

// ShouldUseIntervention decides intervention membership for a patient
// being seen for the first time, given how many unassigned patients
// remain (including this one). The quota fill is deterministic: refuse
// once the quota is met, force once every remaining slot is needed,
// otherwise assign when the need ratio exceeds the fill rate.
func (t *CohortTracker) ShouldUseIntervention(remaining int) bool {
	needed := t.targetInterventionPatients - t.interventionAssigned
	if needed <= 0 || remaining <= 0 {
		return false
	}
	if needed >= remaining {
		t.interventionAssigned++
		return true
	}
	if float64(needed)/float64(remaining) > cohort.InterventionFillRate {
		t.interventionAssigned++
		return true
	}
	return false
}

// dampedShift computes the corrective shift for a continuous metric.
func dampedShift(values []float64, target, noiseFloor, damping float64) float64 {
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	diff := target - mean
	if math.Abs(diff) <= noiseFloor {
		return 0
	}
	return diff * damping
}
