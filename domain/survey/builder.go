package survey

import (
	"fmt"
	"time"

	"cohortsynth/domain/cohort"
)

// DefaultQuestionnaireID is the questionnaire every response references.
const DefaultQuestionnaireID = "menstrual-cycle-t1d-questionnaire"

// Subjective texts for item 10. The intervention variant is the
// membership signal the retrofit engine and validator key on.
const (
	SubjectiveControl      = "My glucose levels tend to be higher during certain times of the month."
	SubjectiveIntervention = "Since I started cycle-aware basal adjustments my luteal glucose has been much more stable."
)

// ResponseBuilder converts generated observations into questionnaire
// response documents.
type ResponseBuilder struct {
	questionnaireID string
}

// NewResponseBuilder creates a builder for the default questionnaire.
func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{questionnaireID: DefaultQuestionnaireID}
}

// Build assembles the full ten-item document for one observation. The
// authored timestamp is the observation date, so re-deriving the phase
// from LMP and authored reproduces the generated phase.
func (b *ResponseBuilder) Build(obs cohort.Observation, responseID string) *Response {
	symptoms := make([]string, 0, len(obs.Symptoms))
	for _, s := range obs.Symptoms {
		symptoms = append(symptoms, s.Display())
	}

	var symptomAnswers []Answer
	for _, s := range symptoms {
		symptomAnswers = append(symptomAnswers, StringAnswer(s))
	}

	subjective := SubjectiveControl
	if obs.InIntervention {
		subjective = SubjectiveIntervention
	}

	return &Response{
		ResourceType:  "QuestionnaireResponse",
		ID:            fmt.Sprintf("response-%s", responseID),
		Questionnaire: fmt.Sprintf("Questionnaire/%s", b.questionnaireID),
		Status:        "completed",
		Subject:       &Reference{Reference: fmt.Sprintf("Patient/%s", obs.PatientID)},
		Authored:      obs.Date.UTC().Format(time.RFC3339),
		Items: []Item{
			{
				LinkID:  LinkAge,
				Text:    "Age (years)",
				Answers: []Answer{IntegerAnswer(obs.Traits.Age)},
			},
			{
				LinkID:  LinkYearsSinceDiagnosis,
				Text:    "How many years since your Type 1 Diabetes diagnosis?",
				Answers: []Answer{IntegerAnswer(obs.Traits.YearsSinceDiagnosis)},
			},
			{
				LinkID:  LinkDeliveryMethod,
				Text:    "Which insulin delivery method do you use? (Pump or injections)",
				Answers: []Answer{StringAnswer(string(obs.Traits.DeliveryMethod))},
			},
			{
				LinkID:  LinkLMP,
				Text:    "First day of your last menstrual period (LMP)",
				Answers: []Answer{DateAnswer(obs.LMP)},
			},
			{
				LinkID:  LinkCycleRegularity,
				Text:    "How regular is your menstrual cycle?",
				Answers: []Answer{StringAnswer(string(obs.Traits.CycleRegularity))},
			},
			{
				LinkID:  LinkBasalInsulin,
				Text:    "What is your average nightly basal insulin dose (units)?",
				Answers: []Answer{DecimalAnswer(obs.BasalInsulin)},
			},
			{
				LinkID:  LinkNighttimeGlucose,
				Text:    "What was your average nighttime CGM glucose (00:00-06:00) in mg/dL?",
				Answers: []Answer{DecimalAnswer(obs.NighttimeGlucose)},
			},
			{
				LinkID:  LinkSleepAwakenings,
				Text:    "How many times do you usually wake up at night (00:00-06:00)?",
				Answers: []Answer{IntegerAnswer(obs.SleepAwakenings)},
			},
			{
				LinkID:  LinkSymptoms,
				Text:    "Have you experienced any of these symptoms at night? (select all that apply)",
				Answers: symptomAnswers,
			},
			{
				LinkID:  LinkSubjective,
				Text:    "In your own words, have you noticed changes in glucose stability depending on your menstrual cycle phase?",
				Answers: []Answer{StringAnswer(subjective)},
			},
		},
	}
}
