// Package retrofit edits already-serialized cohort documents in place to
// force specific aggregate statistics into their tolerance windows. It
// works purely on deserialized documents, never on generation state, so
// it can run against any previously generated output directory. Phase is
// recovered from the LMP date and authored timestamp, intervention
// membership from the free-text item 10.
package retrofit

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/montanaflynn/stats"

	"cohortsynth/domain/cohort"
	"cohortsynth/domain/survey"
	"cohortsynth/internal"
	"cohortsynth/ports"
)

// interventionKeyword marks intervention membership in the free-text
// item 10.
const interventionKeyword = "cycle-aware"

// Clamp range for retrofitted glucose values.
const (
	glucoseFloor   = 70.0
	glucoseCeiling = 180.0
)

// Mean tolerances under which an adjustment becomes a no-op.
const (
	meanTolerance         = 0.01
	rateTolerance         = 0.01
	interventionTolerance = 0.5
)

// adjustableSymptoms are rate-corrected in document order; fatigue is
// generated but never retrofitted.
var adjustableSymptoms = []cohort.Symptom{
	cohort.SymptomNightSweats,
	cohort.SymptomPalpitations,
	cohort.SymptomDizziness,
}

var symptomKeywords = map[cohort.Symptom]string{
	cohort.SymptomNightSweats:  "sweat",
	cohort.SymptomPalpitations: "palpitation",
	cohort.SymptomDizziness:    "dizz",
	cohort.SymptomFatigue:      "fatigue",
}

// Engine performs the post-generation retrofit pass.
type Engine struct {
	params cohort.Parameters
	rng    *rand.Rand
	logger *internal.Logger
}

// New creates an engine with its own seeded generator for candidate
// selection.
func New(params cohort.Parameters, seed int64, logger *internal.Logger) *Engine {
	return &Engine{
		params: params,
		rng:    rand.New(rand.NewPCG(uint64(seed), 0)),
		logger: logger,
	}
}

// Run loads the cohort, applies every adjustment and writes the edited
// documents back. All adjustments are idempotent once their statistic is
// inside tolerance.
func (e *Engine) Run(store ports.ResponseStore) error {
	responses, err := store.LoadAll()
	if err != nil {
		return err
	}

	// Grouping reads only the LMP date and authored timestamp, which no
	// adjustment ever touches, so repeated passes see identical groups
	// and a retrofitted cohort is a fixed point.
	var follicular, luteal, lutealIntervention []*survey.Response
	for _, r := range responses {
		phase, ok := r.Phase()
		if !ok {
			continue
		}
		if phase == cohort.PhaseFollicular {
			follicular = append(follicular, r)
			continue
		}
		luteal = append(luteal, r)
		if IsIntervention(r) {
			lutealIntervention = append(lutealIntervention, r)
		}
	}

	e.logger.Debug("retrofit: %d follicular, %d luteal (%d intervention)",
		len(follicular), len(luteal), len(lutealIntervention))

	n := e.AdjustAwakenings(follicular, e.params.AwakeningsFollicularMean)
	n += e.AdjustAwakenings(luteal, e.params.AwakeningsLutealMean())
	e.logger.Debug("retrofit: %d awakening edits", n)

	n = e.AdjustSymptomRates(follicular, cohort.PhaseFollicular)
	n += e.AdjustSymptomRates(luteal, cohort.PhaseLuteal)
	e.logger.Debug("retrofit: %d symptom edits", n)

	n = e.AdjustInterventionEffect(lutealIntervention)
	e.logger.Debug("retrofit: %d intervention glucose edits", n)

	return store.SaveAll(responses)
}

// AdjustAwakenings nudges integer awakening counts until the group mean
// sits on the target: round(|target-mean| x n) records are picked
// uniformly without replacement from the feasible direction and moved by
// one. Returns the number of edited records.
func (e *Engine) AdjustAwakenings(responses []*survey.Response, targetMean float64) int {
	if len(responses) == 0 {
		return 0
	}

	values := make([]float64, len(responses))
	for i, r := range responses {
		v, _ := r.Integer(survey.LinkSleepAwakenings)
		values[i] = float64(v)
	}
	mean, err := stats.Mean(values)
	if err != nil || math.Abs(mean-targetMean) < meanTolerance {
		return 0
	}

	needIncrease := targetMean > mean
	numChanges := int(math.Round(math.Abs(targetMean-mean) * float64(len(responses))))
	if numChanges == 0 {
		return 0
	}

	// Only records at the movable boundary are candidates: 0-1 awakenings
	// can go up, 2+ can come down.
	var candidates []int
	for i, v := range values {
		if (needIncrease && v <= 1) || (!needIncrease && v >= 2) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0
	}

	edited := 0
	for _, idx := range e.pick(candidates, numChanges) {
		current, _ := responses[idx].Integer(survey.LinkSleepAwakenings)
		if needIncrease {
			responses[idx].SetInteger(survey.LinkSleepAwakenings, current+1)
		} else if current > 0 {
			responses[idx].SetInteger(survey.LinkSleepAwakenings, current-1)
		}
		edited++
	}
	return edited
}

// AdjustSymptomRates flips symptom membership until each tuned symptom's
// rate matches round(target x n)/n, clamped at the number of feasible
// records. Returns the number of edited records.
func (e *Engine) AdjustSymptomRates(responses []*survey.Response, phase cohort.Phase) int {
	if len(responses) == 0 {
		return 0
	}

	edited := 0
	n := len(responses)
	for _, symptom := range adjustableSymptoms {
		target := e.params.SymptomProb(symptom, phase)

		var having, lacking []int
		for i, r := range responses {
			if hasSymptom(r, symptom) {
				having = append(having, i)
			} else {
				lacking = append(lacking, i)
			}
		}

		rate := float64(len(having)) / float64(n)
		if math.Abs(rate-target) < rateTolerance {
			continue
		}

		gap := int(math.Round(target*float64(n))) - len(having)
		switch {
		case gap > 0:
			for _, idx := range e.pick(lacking, gap) {
				addSymptom(responses[idx], symptom)
				edited++
			}
		case gap < 0:
			for _, idx := range e.pick(having, -gap) {
				removeSymptom(responses[idx], symptom)
				edited++
			}
		}
	}
	return edited
}

// AdjustInterventionEffect shifts every intervention luteal glucose value
// by the same amount so the group mean lands on baseline plus the
// residual fraction of the luteal increase, clamped to [70, 180].
func (e *Engine) AdjustInterventionEffect(interventionLuteal []*survey.Response) int {
	if len(interventionLuteal) == 0 {
		return 0
	}

	values := make([]float64, len(interventionLuteal))
	for i, r := range interventionLuteal {
		values[i], _ = r.Decimal(survey.LinkNighttimeGlucose)
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}

	target := e.params.InterventionLutealGlucoseTarget()
	if math.Abs(mean-target) < interventionTolerance {
		return 0
	}

	shift := target - mean
	for i, r := range interventionLuteal {
		shifted := clampGlucose(values[i] + shift)
		r.SetDecimal(survey.LinkNighttimeGlucose, cohort.Round1(shifted))
	}
	return len(interventionLuteal)
}

// IsIntervention inspects the free-text item 10 for the membership
// keyword.
func IsIntervention(r *survey.Response) bool {
	text, _ := r.String(survey.LinkSubjective)
	return strings.Contains(strings.ToLower(text), interventionKeyword)
}

// pick selects up to n candidate indices uniformly without replacement.
func (e *Engine) pick(candidates []int, n int) []int {
	if n > len(candidates) {
		n = len(candidates)
	}
	picked := make([]int, 0, n)
	for _, p := range e.rng.Perm(len(candidates))[:n] {
		picked = append(picked, candidates[p])
	}
	return picked
}

func hasSymptom(r *survey.Response, symptom cohort.Symptom) bool {
	keyword := symptomKeywords[symptom]
	for _, answer := range r.Strings(survey.LinkSymptoms) {
		if strings.Contains(strings.ToLower(answer), keyword) {
			return true
		}
	}
	return false
}

func addSymptom(r *survey.Response, symptom cohort.Symptom) {
	setSymptoms(r, append(currentSymptoms(r), symptom))
}

func removeSymptom(r *survey.Response, symptom cohort.Symptom) {
	var kept []cohort.Symptom
	for _, s := range currentSymptoms(r) {
		if s != symptom {
			kept = append(kept, s)
		}
	}
	setSymptoms(r, kept)
}

// currentSymptoms normalizes the free-form answer strings back to
// canonical symptom identifiers.
func currentSymptoms(r *survey.Response) []cohort.Symptom {
	var out []cohort.Symptom
	for _, answer := range r.Strings(survey.LinkSymptoms) {
		lower := strings.ToLower(answer)
		for _, symptom := range cohort.Symptoms {
			if strings.Contains(lower, symptomKeywords[symptom]) {
				out = append(out, symptom)
				break
			}
		}
	}
	return out
}

// setSymptoms rewrites the symptom answers in canonical order so edits
// stay deterministic regardless of the original answer ordering.
func setSymptoms(r *survey.Response, symptoms []cohort.Symptom) {
	present := make(map[cohort.Symptom]bool, len(symptoms))
	for _, s := range symptoms {
		present[s] = true
	}
	var displays []string
	for _, s := range cohort.Symptoms {
		if present[s] {
			displays = append(displays, s.Display())
		}
	}
	r.SetStrings(survey.LinkSymptoms, displays)
}

func clampGlucose(v float64) float64 {
	return math.Min(math.Max(v, glucoseFloor), glucoseCeiling)
}
