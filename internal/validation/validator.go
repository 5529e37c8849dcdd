// Package validation independently recomputes the cohort's target
// statistics from serialized documents and scores them against tolerance
// bands. It shares no derivation code with the retrofit engine: phase is
// recovered from the LMP and authored dates through the cycle
// classifier, intervention membership from the free-text keyword list.
package validation

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"

	"cohortsynth/domain/cohort"
	"cohortsynth/domain/survey"
	"cohortsynth/ports"
)

// interventionKeywords identify intervention membership in item 10.
var interventionKeywords = []string{
	"cycle-aware",
	"adjusted my basal",
	"cycle tracking",
	"menstrual phase",
	"reduced my basal",
}

// Result records the outcome of one validation check.
type Result struct {
	Metric    string
	Expected  float64
	Observed  float64
	Tolerance float64
	Passed    bool
	Message   string
}

// CohortValidator recomputes every target statistic from a loaded cohort.
type CohortValidator struct {
	params    cohort.Parameters
	responses []*survey.Response
	results   []Result
}

// NewCohortValidator creates a validator against the expected population
// parameters.
func NewCohortValidator(params cohort.Parameters) *CohortValidator {
	return &CohortValidator{params: params}
}

// Results exposes the checks accumulated by the last ValidateAll run.
func (v *CohortValidator) Results() []Result { return v.results }

// ResponseCount reports how many documents the last run analyzed.
func (v *CohortValidator) ResponseCount() int { return len(v.responses) }

// ValidateAll loads the cohort and runs the full 15-check suite.
// Validation failures are recorded, not raised; only structural problems
// (missing directory, empty cohort) return an error.
func (v *CohortValidator) ValidateAll(store ports.ResponseStore, expectedInterventionResponses int) (passed, total int, err error) {
	v.responses, err = store.LoadAll()
	if err != nil {
		return 0, 0, err
	}
	v.results = nil

	var follicular, luteal []*survey.Response
	for _, r := range v.responses {
		if phase, ok := r.Phase(); ok {
			if phase == cohort.PhaseFollicular {
				follicular = append(follicular, r)
			} else {
				luteal = append(luteal, r)
			}
		}
	}

	v.checkMeanAge()
	v.checkPumpRatio()
	v.checkPhaseRatio(len(follicular), len(follicular)+len(luteal))

	v.checkMean("Follicular Mean Glucose (mg/dL)", follicular, survey.LinkNighttimeGlucose,
		v.params.GlucoseFollicularMean, 0.10)
	v.checkMean("Luteal Mean Glucose (mg/dL)", luteal, survey.LinkNighttimeGlucose,
		v.params.GlucoseLutealMean(), 0.10)
	v.checkMean("Follicular Mean Basal Insulin (units)", follicular, survey.LinkBasalInsulin,
		v.params.BasalInsulinMean, 0.10)
	v.checkMean("Luteal Mean Basal Insulin (units)", luteal, survey.LinkBasalInsulin,
		v.params.BasalLutealMean(), 0.10)
	v.checkMean("Follicular Mean Awakenings", follicular, survey.LinkSleepAwakenings,
		v.params.AwakeningsFollicularMean, 0.15)
	v.checkMean("Luteal Mean Awakenings", luteal, survey.LinkSleepAwakenings,
		v.params.AwakeningsLutealMean(), 0.15)

	v.checkSymptomRate("Follicular Night Sweats Rate", follicular, "sweat",
		v.params.NightSweatsProbFollicular, 0.25)
	v.checkSymptomRate("Luteal Night Sweats Rate", luteal, "sweat",
		v.params.NightSweatsProbLuteal, 0.20)
	v.checkSymptomRate("Follicular Palpitations Rate", follicular, "palpitation",
		v.params.PalpitationsProbFollicular, 0.30)
	v.checkSymptomRate("Luteal Palpitations Rate", luteal, "palpitation",
		v.params.PalpitationsProbLuteal, 0.25)

	v.checkInterventionSize(expectedInterventionResponses)
	v.checkInterventionEffect(luteal)

	for _, r := range v.results {
		if r.Passed {
			passed++
		}
	}
	return passed, len(v.results), nil
}

func (v *CohortValidator) isIntervention(r *survey.Response) bool {
	text, ok := r.String(survey.LinkSubjective)
	if !ok {
		return false
	}
	lower := strings.ToLower(text)
	for _, keyword := range interventionKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func (v *CohortValidator) checkMeanAge() {
	var ages []float64
	for _, r := range v.responses {
		if age, ok := r.Integer(survey.LinkAge); ok {
			ages = append(ages, float64(age))
		}
	}
	mean, _ := stats.Mean(ages)
	v.checkMetric("Mean Age", v.params.AgeMean, mean, 0.10)
}

func (v *CohortValidator) checkPumpRatio() {
	var pump, total int
	for _, r := range v.responses {
		method, ok := r.String(survey.LinkDeliveryMethod)
		if !ok {
			continue
		}
		total++
		if method == string(cohort.DeliveryPump) {
			pump++
		}
	}
	var ratio float64
	if total > 0 {
		ratio = float64(pump) / float64(total)
	}
	v.checkMetric("Pump Usage Ratio", v.params.PumpRatio, ratio, 0.10)
}

func (v *CohortValidator) checkPhaseRatio(follicular, classified int) {
	var ratio float64
	if classified > 0 {
		ratio = float64(follicular) / float64(classified)
	}
	v.checkMetric("Follicular Phase Ratio", cohort.TargetFollicularRatio, ratio, 0.10)
}

func (v *CohortValidator) checkMean(metric string, responses []*survey.Response, linkID string, expected, tolerance float64) {
	var values []float64
	for _, r := range responses {
		if value, ok := r.Decimal(linkID); ok {
			values = append(values, value)
		} else if value, ok := r.Integer(linkID); ok {
			values = append(values, float64(value))
		}
	}
	mean, _ := stats.Mean(values)
	v.checkMetric(metric, expected, mean, tolerance)
}

func (v *CohortValidator) checkSymptomRate(metric string, responses []*survey.Response, keyword string, expected, tolerance float64) {
	var count int
	for _, r := range responses {
		for _, answer := range r.Strings(survey.LinkSymptoms) {
			if strings.Contains(strings.ToLower(answer), keyword) {
				count++
				break
			}
		}
	}
	var rate float64
	if len(responses) > 0 {
		rate = float64(count) / float64(len(responses))
	}
	v.checkMetric(metric, expected, rate, tolerance)
}

func (v *CohortValidator) checkInterventionSize(expected int) {
	var count int
	for _, r := range v.responses {
		if v.isIntervention(r) {
			count++
		}
	}
	v.checkMetric("Intervention Subgroup Size", float64(expected), float64(count), 0.10)
}

// checkInterventionEffect verifies the dampened luteal glucose increase
// in the intervention group: observed mean minus follicular baseline
// against the residual fraction of the standard increase.
func (v *CohortValidator) checkInterventionEffect(luteal []*survey.Response) {
	var glucose []float64
	for _, r := range luteal {
		if !v.isIntervention(r) {
			continue
		}
		if value, ok := r.Decimal(survey.LinkNighttimeGlucose); ok {
			glucose = append(glucose, value)
		}
	}

	metric := "Intervention Luteal Glucose Increase (mg/dL)"
	if len(glucose) == 0 {
		v.results = append(v.results, Result{
			Metric:  metric,
			Message: "insufficient data to validate intervention effect",
		})
		return
	}

	mean, _ := stats.Mean(glucose)
	observed := mean - v.params.GlucoseFollicularMean
	expected := v.params.LutealGlucoseIncrease * v.params.InterventionResidualEffect
	v.checkMetric(metric, expected, observed, 0.30)
}

// checkMetric scores one statistic: relative tolerance, or absolute when
// the expected value is exactly zero.
func (v *CohortValidator) checkMetric(metric string, expected, observed, tolerance float64) {
	var passed bool
	var message string
	if expected == 0 {
		diff := absFloat(observed - expected)
		passed = diff <= tolerance
		message = fmt.Sprintf("absolute difference: %.3f (tolerance: %.3f)", diff, tolerance)
	} else {
		diff := absFloat(observed-expected) / absFloat(expected)
		passed = diff <= tolerance
		message = fmt.Sprintf("relative difference: %.1f%% (tolerance: %.1f%%)", diff*100, tolerance*100)
	}
	v.results = append(v.results, Result{
		Metric:    metric,
		Expected:  expected,
		Observed:  observed,
		Tolerance: tolerance,
		Passed:    passed,
		Message:   message,
	})
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
