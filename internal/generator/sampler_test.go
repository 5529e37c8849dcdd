package generator

import (
	"math/rand/v2"
	"testing"
	"time"

	"cohortsynth/domain/cohort"
	"cohortsynth/domain/core"
)

func newTestSampler(seed uint64) *ObservationSampler {
	return NewObservationSampler(cohort.DefaultParameters(), rand.New(rand.NewPCG(seed, 0)))
}

func testDate() time.Time {
	return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
}

func TestSampleRejectsInvalidPhase(t *testing.T) {
	s := newTestSampler(1)

	_, err := s.Sample("patient-0001", testDate(), cohort.Phase("ovulatory"), false, cohort.Corrections{})
	if err == nil {
		t.Fatal("expected error for invalid phase")
	}
}

func TestSampleWithinBounds(t *testing.T) {
	s := newTestSampler(7)
	params := cohort.DefaultParameters()

	for i := 0; i < 500; i++ {
		phase := cohort.PhaseFollicular
		if i%2 == 1 {
			phase = cohort.PhaseLuteal
		}
		obs, err := s.Sample(core.NewPatientID(i+1), testDate(), phase, false, cohort.Corrections{})
		if err != nil {
			t.Fatalf("Sample failed: %v", err)
		}

		if obs.Traits.Age < params.AgeMin || obs.Traits.Age > params.AgeMax {
			t.Errorf("age %d outside [%d, %d]", obs.Traits.Age, params.AgeMin, params.AgeMax)
		}
		if obs.Traits.YearsSinceDiagnosis < params.YearsSinceDiagnosisMin ||
			obs.Traits.YearsSinceDiagnosis >= obs.Traits.Age {
			t.Errorf("years since diagnosis %d invalid for age %d", obs.Traits.YearsSinceDiagnosis, obs.Traits.Age)
		}
		if obs.BasalInsulin < params.BasalInsulinMin || obs.BasalInsulin > params.BasalInsulinMax {
			t.Errorf("basal insulin %v outside [%v, %v]", obs.BasalInsulin, params.BasalInsulinMin, params.BasalInsulinMax)
		}
		if obs.NighttimeGlucose < 50.0 {
			t.Errorf("glucose %v below floor", obs.NighttimeGlucose)
		}
		if obs.SleepAwakenings < 0 {
			t.Errorf("negative awakenings %d", obs.SleepAwakenings)
		}
	}
}

// TestSampleLMPRoundTrip verifies the sampled LMP always classifies back
// to the requested phase at observation time.
func TestSampleLMPRoundTrip(t *testing.T) {
	s := newTestSampler(11)

	for i := 0; i < 200; i++ {
		phase := cohort.PhaseFollicular
		if i%2 == 1 {
			phase = cohort.PhaseLuteal
		}
		obs, err := s.Sample(core.NewPatientID(i+1), testDate(), phase, false, cohort.Corrections{})
		if err != nil {
			t.Fatalf("Sample failed: %v", err)
		}
		if got := cohort.ClassifyPhase(obs.LMP, obs.Date); got != phase {
			t.Errorf("LMP %s classifies as %s, want %s", obs.LMP.Format("2006-01-02"), got, phase)
		}
	}
}

func TestTraitsCachedAcrossObservations(t *testing.T) {
	s := newTestSampler(3)
	patientID := core.PatientID("patient-0001")

	first, err := s.Sample(patientID, testDate(), cohort.PhaseFollicular, false, cohort.Corrections{})
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	second, err := s.Sample(patientID, testDate().AddDate(0, 0, 14), cohort.PhaseLuteal, false, cohort.Corrections{})
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}

	if first.Traits != second.Traits {
		t.Errorf("traits changed between observations: %+v vs %+v", first.Traits, second.Traits)
	}
}

func TestSampleDeterministicUnderFixedSeed(t *testing.T) {
	a := newTestSampler(42)
	b := newTestSampler(42)

	for i := 0; i < 100; i++ {
		phase := cohort.PhaseFollicular
		if i%3 == 0 {
			phase = cohort.PhaseLuteal
		}
		id := core.NewPatientID(i%10 + 1)

		obsA, errA := a.Sample(id, testDate(), phase, i%5 == 0, cohort.Corrections{})
		obsB, errB := b.Sample(id, testDate(), phase, i%5 == 0, cohort.Corrections{})
		if errA != nil || errB != nil {
			t.Fatalf("Sample failed: %v / %v", errA, errB)
		}

		if obsA.BasalInsulin != obsB.BasalInsulin ||
			obsA.NighttimeGlucose != obsB.NighttimeGlucose ||
			obsA.SleepAwakenings != obsB.SleepAwakenings ||
			!obsA.LMP.Equal(obsB.LMP) ||
			len(obsA.Symptoms) != len(obsB.Symptoms) {
			t.Fatalf("observation %d differs between identically seeded samplers", i)
		}
	}
}

// TestInterventionLutealBasalReduced checks that intervention patients
// dose below the standard luteal mean on average.
func TestInterventionLutealBasalReduced(t *testing.T) {
	s := newTestSampler(5)
	params := cohort.DefaultParameters()

	var interventionSum, standardSum float64
	const n = 400
	for i := 0; i < n; i++ {
		obsI, err := s.Sample(core.NewPatientID(i+1), testDate(), cohort.PhaseLuteal, true, cohort.Corrections{})
		if err != nil {
			t.Fatalf("Sample failed: %v", err)
		}
		obsS, err := s.Sample(core.NewPatientID(n+i+1), testDate(), cohort.PhaseLuteal, false, cohort.Corrections{})
		if err != nil {
			t.Fatalf("Sample failed: %v", err)
		}
		interventionSum += obsI.BasalInsulin
		standardSum += obsS.BasalInsulin
	}

	interventionMean := interventionSum / n
	standardMean := standardSum / n
	if interventionMean >= standardMean {
		t.Errorf("intervention luteal basal mean %v should be below standard %v", interventionMean, standardMean)
	}
	if interventionMean >= params.BasalInsulinMean {
		t.Errorf("intervention luteal basal mean %v should be below the follicular baseline %v", interventionMean, params.BasalInsulinMean)
	}
}

// TestInterventionLutealGlucoseNearBaseline checks the dampened glucose
// rise in the intervention group.
func TestInterventionLutealGlucoseNearBaseline(t *testing.T) {
	s := newTestSampler(9)
	params := cohort.DefaultParameters()

	var sum float64
	const n = 600
	for i := 0; i < n; i++ {
		obs, err := s.Sample(core.NewPatientID(i+1), testDate(), cohort.PhaseLuteal, true, cohort.Corrections{})
		if err != nil {
			t.Fatalf("Sample failed: %v", err)
		}
		sum += obs.NighttimeGlucose
	}

	mean := sum / n
	target := params.InterventionLutealGlucoseTarget()
	if mean < target-3 || mean > target+3 {
		t.Errorf("intervention luteal glucose mean %v too far from target %v", mean, target)
	}
}

func TestCorrectionShiftsMoveMeans(t *testing.T) {
	base := newTestSampler(21)
	shifted := newTestSampler(21)

	corr := cohort.Corrections{FollicularGlucoseShift: 10.0}

	var baseSum, shiftedSum float64
	const n = 300
	for i := 0; i < n; i++ {
		obsBase, err := base.Sample(core.NewPatientID(i+1), testDate(), cohort.PhaseFollicular, false, cohort.Corrections{})
		if err != nil {
			t.Fatalf("Sample failed: %v", err)
		}
		obsShift, err := shifted.Sample(core.NewPatientID(i+1), testDate(), cohort.PhaseFollicular, false, corr)
		if err != nil {
			t.Fatalf("Sample failed: %v", err)
		}
		baseSum += obsBase.NighttimeGlucose
		shiftedSum += obsShift.NighttimeGlucose
	}

	diff := (shiftedSum - baseSum) / n
	if diff < 5 || diff > 15 {
		t.Errorf("mean shift %v not near the applied +10 correction", diff)
	}
}
