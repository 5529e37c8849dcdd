package validation

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"cohortsynth/adapters/store"
	"cohortsynth/domain/cohort"
	"cohortsynth/domain/core"
	"cohortsynth/domain/survey"
	"cohortsynth/internal/generator"
)

// buildConformingCohort samples a cohort straight from the target
// distributions, large enough that every mean lands inside tolerance.
func buildConformingCohort(t *testing.T, dir string, patients int) {
	t.Helper()

	rng := rand.New(rand.NewPCG(42, 0))
	sampler := generator.NewObservationSampler(cohort.DefaultParameters(), rng)
	builder := survey.NewResponseBuilder()
	fileStore := store.NewFileStore(dir)
	date := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	var responses []*survey.Response
	for i := 0; i < patients; i++ {
		phase := cohort.PhaseFollicular
		if i%2 == 1 {
			phase = cohort.PhaseLuteal
		}
		obs, err := sampler.Sample(core.NewPatientID(i+1), date, phase, false, cohort.Corrections{})
		if err != nil {
			t.Fatalf("Sample failed: %v", err)
		}
		responses = append(responses, builder.Build(obs, fmt.Sprintf("%s-obs-0001", obs.PatientID)))
	}
	if err := fileStore.SaveAll(responses); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
}

func TestValidateAllRunsFifteenChecks(t *testing.T) {
	dir := t.TempDir()
	buildConformingCohort(t, dir, 1000)

	v := NewCohortValidator(cohort.DefaultParameters())
	passed, total, err := v.ValidateAll(store.NewFileStore(dir), 0)
	if err != nil {
		t.Fatalf("ValidateAll failed: %v", err)
	}

	if total != 15 {
		t.Fatalf("expected exactly 15 checks, got %d", total)
	}
	// A large cohort drawn from the target distributions should pass the
	// great majority of checks.
	if passed < 12 {
		t.Errorf("expected at least 12/15 passing checks, got %d", passed)
		for _, r := range v.Results() {
			if !r.Passed {
				t.Logf("failed: %s expected %.2f observed %.2f (%s)", r.Metric, r.Expected, r.Observed, r.Message)
			}
		}
	}
}

func TestValidateAllMissingDirectory(t *testing.T) {
	v := NewCohortValidator(cohort.DefaultParameters())
	_, _, err := v.ValidateAll(store.NewFileStore(t.TempDir()+"/missing"), 0)
	if err == nil {
		t.Fatal("expected error for missing cohort directory")
	}
	if !core.IsNotFoundError(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestCheckMetricRelativeTolerance(t *testing.T) {
	v := NewCohortValidator(cohort.DefaultParameters())

	v.checkMetric("inside", 100, 105, 0.10)
	v.checkMetric("outside", 100, 115, 0.10)
	v.checkMetric("zero expected inside", 0, 0.05, 0.10)
	v.checkMetric("zero expected outside", 0, 0.5, 0.10)

	results := v.Results()
	wantPassed := []bool{true, false, true, false}
	for i, want := range wantPassed {
		if results[i].Passed != want {
			t.Errorf("check %q: passed = %v, want %v", results[i].Metric, results[i].Passed, want)
		}
	}
}

func TestInterventionDetectionAndSubgroupSize(t *testing.T) {
	dir := t.TempDir()
	fileStore := store.NewFileStore(dir)
	builder := survey.NewResponseBuilder()
	date := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	var responses []*survey.Response
	for i := 0; i < 10; i++ {
		obs := cohort.Observation{
			PatientID:      core.NewPatientID(i + 1),
			Date:           date,
			Phase:          cohort.PhaseFollicular,
			InIntervention: i < 4,
			Traits: cohort.PatientTraits{
				Age:             30,
				DeliveryMethod:  cohort.DeliveryPump,
				CycleRegularity: cohort.RegularityVeryRegular,
			},
			LMP:              date.AddDate(0, 0, -5),
			BasalInsulin:     14.0,
			NighttimeGlucose: 118.0,
			SleepAwakenings:  1,
		}
		responses = append(responses, builder.Build(obs, fmt.Sprintf("%s-obs-0001", obs.PatientID)))
	}
	if err := fileStore.SaveAll(responses); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	v := NewCohortValidator(cohort.DefaultParameters())
	if _, _, err := v.ValidateAll(fileStore, 4); err != nil {
		t.Fatalf("ValidateAll failed: %v", err)
	}

	for _, r := range v.Results() {
		if r.Metric == "Intervention Subgroup Size" {
			if !r.Passed {
				t.Errorf("subgroup size check failed: expected %v observed %v", r.Expected, r.Observed)
			}
			if r.Observed != 4 {
				t.Errorf("observed subgroup size = %v, want 4", r.Observed)
			}
			return
		}
	}
	t.Fatal("subgroup size check missing from results")
}

func TestPrintReportHidesPassesByDefault(t *testing.T) {
	dir := t.TempDir()
	buildConformingCohort(t, dir, 100)

	v := NewCohortValidator(cohort.DefaultParameters())
	passed, total, err := v.ValidateAll(store.NewFileStore(dir), 0)
	if err != nil {
		t.Fatalf("ValidateAll failed: %v", err)
	}

	var quiet bytes.Buffer
	v.PrintReport(&quiet, false)
	if !strings.Contains(quiet.String(), fmt.Sprintf("%d/%d checks passed", passed, total)) {
		t.Error("summary line missing from report")
	}
	if strings.Contains(quiet.String(), "[PASS]") {
		t.Error("passing checks should be hidden without verbose")
	}

	var verbose bytes.Buffer
	v.PrintReport(&verbose, true)
	if passed > 0 && !strings.Contains(verbose.String(), "[PASS]") {
		t.Error("verbose report should include passing checks")
	}
}
