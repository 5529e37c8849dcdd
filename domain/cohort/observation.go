package cohort

import (
	"math"
	"time"

	"cohortsynth/domain/core"
)

// DeliveryMethod is the insulin delivery modality reported by a patient.
type DeliveryMethod string

const (
	DeliveryPump      DeliveryMethod = "Insulin Pump"
	DeliveryInjection DeliveryMethod = "Multiple Daily Injections"
)

// CycleRegularity is the self-reported cycle regularity bucket.
type CycleRegularity string

const (
	RegularityVeryRegular     CycleRegularity = "Very regular (predictable)"
	RegularitySomewhatRegular CycleRegularity = "Somewhat regular"
	RegularityIrregular       CycleRegularity = "Irregular"
)

// Symptom identifies a nighttime symptom tracked by the study.
type Symptom string

const (
	SymptomNightSweats  Symptom = "night-sweats"
	SymptomDizziness    Symptom = "dizziness"
	SymptomPalpitations Symptom = "palpitations"
	SymptomFatigue      Symptom = "fatigue"
)

// Symptoms lists every generated symptom in a fixed draw order.
var Symptoms = []Symptom{
	SymptomNightSweats,
	SymptomDizziness,
	SymptomPalpitations,
	SymptomFatigue,
}

// Display returns the questionnaire answer text for a symptom.
func (s Symptom) Display() string {
	switch s {
	case SymptomNightSweats:
		return "Night sweats"
	case SymptomDizziness:
		return "Dizziness"
	case SymptomPalpitations:
		return "Palpitations"
	case SymptomFatigue:
		return "Weakness/Fatigue"
	}
	return string(s)
}

// PatientTraits holds the per-patient stable attributes. Created once at a
// patient's first observation and never re-rolled afterwards.
type PatientTraits struct {
	Age                 int
	YearsSinceDiagnosis int
	DeliveryMethod      DeliveryMethod
	CycleRegularity     CycleRegularity
}

// Observation is one generated patient record prior to serialization.
type Observation struct {
	PatientID      core.PatientID
	Date           time.Time
	Phase          Phase
	InIntervention bool

	Traits PatientTraits

	LMP              time.Time
	BasalInsulin     float64
	NighttimeGlucose float64
	SleepAwakenings  int
	Symptoms         []Symptom
}

// HasSymptom reports whether the observation carries the given symptom.
func (o Observation) HasSymptom(s Symptom) bool {
	for _, have := range o.Symptoms {
		if have == s {
			return true
		}
	}
	return false
}

// Round1 rounds a measurement to one decimal place, the precision every
// decimal questionnaire answer is stored with.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
