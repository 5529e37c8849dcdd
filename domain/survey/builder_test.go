package survey

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohortsynth/domain/cohort"
)

func testObservation() cohort.Observation {
	date := time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)
	return cohort.Observation{
		PatientID:      "patient-0003",
		Date:           date,
		Phase:          cohort.PhaseLuteal,
		InIntervention: false,
		Traits: cohort.PatientTraits{
			Age:                 29,
			YearsSinceDiagnosis: 11,
			DeliveryMethod:      cohort.DeliveryPump,
			CycleRegularity:     cohort.RegularityVeryRegular,
		},
		LMP:              date.AddDate(0, 0, -20),
		BasalInsulin:     15.3,
		NighttimeGlucose: 127.4,
		SleepAwakenings:  2,
		Symptoms:         []cohort.Symptom{cohort.SymptomNightSweats, cohort.SymptomFatigue},
	}
}

func TestBuildProducesTenItems(t *testing.T) {
	r := NewResponseBuilder().Build(testObservation(), "patient-0003-obs-0001")

	require.Len(t, r.Items, 10)
	assert.Equal(t, "QuestionnaireResponse", r.ResourceType)
	assert.Equal(t, "response-patient-0003-obs-0001", r.ID)
	assert.Equal(t, "Questionnaire/menstrual-cycle-t1d-questionnaire", r.Questionnaire)
	assert.Equal(t, "completed", r.Status)
	require.NotNil(t, r.Subject)
	assert.Equal(t, "Patient/patient-0003", r.Subject.Reference)

	for i, item := range r.Items {
		assert.Equalf(t, strconv.Itoa(i+1), item.LinkID, "item %d linkId", i)
	}
}

func TestBuildAnswerValues(t *testing.T) {
	obs := testObservation()
	r := NewResponseBuilder().Build(obs, "patient-0003-obs-0001")

	age, ok := r.Integer(LinkAge)
	require.True(t, ok)
	assert.Equal(t, 29, age)

	years, ok := r.Integer(LinkYearsSinceDiagnosis)
	require.True(t, ok)
	assert.Equal(t, 11, years)

	method, ok := r.String(LinkDeliveryMethod)
	require.True(t, ok)
	assert.Equal(t, "Insulin Pump", method)

	lmp, ok := r.Date(LinkLMP)
	require.True(t, ok)
	assert.Equal(t, obs.LMP.Format(DateLayout), lmp.Format(DateLayout))

	basal, ok := r.Decimal(LinkBasalInsulin)
	require.True(t, ok)
	assert.Equal(t, 15.3, basal)

	glucose, ok := r.Decimal(LinkNighttimeGlucose)
	require.True(t, ok)
	assert.Equal(t, 127.4, glucose)

	awakenings, ok := r.Integer(LinkSleepAwakenings)
	require.True(t, ok)
	assert.Equal(t, 2, awakenings)

	assert.Equal(t, []string{"Night sweats", "Weakness/Fatigue"}, r.Strings(LinkSymptoms))

	subjective, ok := r.String(LinkSubjective)
	require.True(t, ok)
	assert.Equal(t, SubjectiveControl, subjective)
}

// TestBuildAuthoredMatchesLMPPhase verifies the round-trip property: the
// phase classified from the stored LMP and authored dates equals the
// generated phase.
func TestBuildAuthoredMatchesLMPPhase(t *testing.T) {
	obs := testObservation()
	r := NewResponseBuilder().Build(obs, "patient-0003-obs-0001")

	authored, ok := r.AuthoredTime()
	require.True(t, ok)
	lmp, ok := r.Date(LinkLMP)
	require.True(t, ok)

	assert.Equal(t, obs.Phase, cohort.ClassifyPhase(lmp, authored))
}

func TestBuildInterventionSubjective(t *testing.T) {
	obs := testObservation()
	obs.InIntervention = true
	r := NewResponseBuilder().Build(obs, "patient-0003-obs-0002")

	subjective, ok := r.String(LinkSubjective)
	require.True(t, ok)
	assert.Equal(t, SubjectiveIntervention, subjective)
	assert.Contains(t, subjective, "cycle-aware")
}

func TestSetStringsEmptyClearsAnswers(t *testing.T) {
	r := NewResponseBuilder().Build(testObservation(), "patient-0003-obs-0001")

	require.True(t, r.SetStrings(LinkSymptoms, nil))
	assert.Nil(t, r.Item(LinkSymptoms).Answers)
	assert.Empty(t, r.Strings(LinkSymptoms))
}

func TestMutatorsRejectUnknownLink(t *testing.T) {
	r := NewResponseBuilder().Build(testObservation(), "patient-0003-obs-0001")

	assert.False(t, r.SetInteger("99", 1))
	assert.False(t, r.SetDecimal("99", 1.0))
	assert.False(t, r.SetStrings("99", []string{"x"}))
}
