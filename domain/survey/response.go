// Package survey models the serialized questionnaire-response document.
// Link identifiers 1-10 are the binding contract between the builder, the
// retrofit engine and the validator; all three read the same numbered
// fields.
package survey

import (
	"time"

	"cohortsynth/domain/cohort"
)

// Link identifiers for the ten questionnaire items.
const (
	LinkAge                 = "1"
	LinkYearsSinceDiagnosis = "2"
	LinkDeliveryMethod      = "3"
	LinkLMP                 = "4"
	LinkCycleRegularity     = "5"
	LinkBasalInsulin        = "6"
	LinkNighttimeGlucose    = "7"
	LinkSleepAwakenings     = "8"
	LinkSymptoms            = "9"
	LinkSubjective          = "10"
)

// DateLayout is the storage layout for date-valued answers.
const DateLayout = "2006-01-02"

// Response is a FHIR-shaped QuestionnaireResponse document.
type Response struct {
	ResourceType  string     `json:"resourceType"`
	ID            string     `json:"id"`
	Questionnaire string     `json:"questionnaire"`
	Status        string     `json:"status"`
	Subject       *Reference `json:"subject,omitempty"`
	Authored      string     `json:"authored"`
	Items         []Item     `json:"item"`
}

// Reference points at another resource, e.g. "Patient/patient-0001".
type Reference struct {
	Reference string `json:"reference"`
}

// Item is one answered question.
type Item struct {
	LinkID  string   `json:"linkId"`
	Text    string   `json:"text,omitempty"`
	Answers []Answer `json:"answer,omitempty"`
}

// Answer is a single typed answer value. Exactly one value field is set.
type Answer struct {
	ValueInteger *int     `json:"valueInteger,omitempty"`
	ValueDecimal *float64 `json:"valueDecimal,omitempty"`
	ValueString  *string  `json:"valueString,omitempty"`
	ValueDate    *string  `json:"valueDate,omitempty"`
}

// IntegerAnswer builds an integer-valued answer.
func IntegerAnswer(v int) Answer { return Answer{ValueInteger: &v} }

// DecimalAnswer builds a decimal-valued answer.
func DecimalAnswer(v float64) Answer { return Answer{ValueDecimal: &v} }

// StringAnswer builds a string-valued answer.
func StringAnswer(v string) Answer { return Answer{ValueString: &v} }

// DateAnswer builds a date-valued answer.
func DateAnswer(t time.Time) Answer {
	s := t.Format(DateLayout)
	return Answer{ValueDate: &s}
}

// Item returns the item with the given link ID, or nil.
func (r *Response) Item(linkID string) *Item {
	for i := range r.Items {
		if r.Items[i].LinkID == linkID {
			return &r.Items[i]
		}
	}
	return nil
}

// Integer extracts the first integer answer of an item.
func (r *Response) Integer(linkID string) (int, bool) {
	if it := r.Item(linkID); it != nil && len(it.Answers) > 0 && it.Answers[0].ValueInteger != nil {
		return *it.Answers[0].ValueInteger, true
	}
	return 0, false
}

// Decimal extracts the first decimal answer of an item.
func (r *Response) Decimal(linkID string) (float64, bool) {
	if it := r.Item(linkID); it != nil && len(it.Answers) > 0 && it.Answers[0].ValueDecimal != nil {
		return *it.Answers[0].ValueDecimal, true
	}
	return 0, false
}

// String extracts the first string answer of an item.
func (r *Response) String(linkID string) (string, bool) {
	if it := r.Item(linkID); it != nil && len(it.Answers) > 0 && it.Answers[0].ValueString != nil {
		return *it.Answers[0].ValueString, true
	}
	return "", false
}

// Date extracts and parses the first date answer of an item.
func (r *Response) Date(linkID string) (time.Time, bool) {
	if it := r.Item(linkID); it != nil && len(it.Answers) > 0 && it.Answers[0].ValueDate != nil {
		t, err := time.Parse(DateLayout, *it.Answers[0].ValueDate)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Strings extracts every string answer of an item (repeatable items).
func (r *Response) Strings(linkID string) []string {
	it := r.Item(linkID)
	if it == nil {
		return nil
	}
	var out []string
	for _, a := range it.Answers {
		if a.ValueString != nil {
			out = append(out, *a.ValueString)
		}
	}
	return out
}

// SetInteger replaces the first integer answer of an item in place.
func (r *Response) SetInteger(linkID string, v int) bool {
	if it := r.Item(linkID); it != nil && len(it.Answers) > 0 && it.Answers[0].ValueInteger != nil {
		it.Answers[0] = IntegerAnswer(v)
		return true
	}
	return false
}

// SetDecimal replaces the first decimal answer of an item in place.
func (r *Response) SetDecimal(linkID string, v float64) bool {
	if it := r.Item(linkID); it != nil && len(it.Answers) > 0 && it.Answers[0].ValueDecimal != nil {
		it.Answers[0] = DecimalAnswer(v)
		return true
	}
	return false
}

// SetStrings replaces every answer of a repeatable item with the given
// string values; an empty slice removes the answer array entirely.
func (r *Response) SetStrings(linkID string, values []string) bool {
	it := r.Item(linkID)
	if it == nil {
		return false
	}
	if len(values) == 0 {
		it.Answers = nil
		return true
	}
	answers := make([]Answer, 0, len(values))
	for _, v := range values {
		answers = append(answers, StringAnswer(v))
	}
	it.Answers = answers
	return true
}

// AuthoredTime parses the authored timestamp.
func (r *Response) AuthoredTime() (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, r.Authored); err == nil {
		return t, true
	}
	if t, err := time.Parse(DateLayout, r.Authored); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Phase recovers the cycle phase from the LMP date and the authored
// timestamp. Both fields are fixed at generation time, so every consumer
// that groups documents by phase sees the same split, including repeated
// passes over documents whose measurement values have been edited.
func (r *Response) Phase() (cohort.Phase, bool) {
	lmp, ok := r.Date(LinkLMP)
	if !ok {
		return "", false
	}
	authored, ok := r.AuthoredTime()
	if !ok {
		return "", false
	}
	return cohort.ClassifyPhase(lmp, authored), true
}
