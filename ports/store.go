package ports

import "cohortsynth/domain/survey"

// ResponseStore persists questionnaire response documents, one file per
// response. Implementations must load in deterministic (name-sorted)
// order so downstream statistics are reproducible.
type ResponseStore interface {
	// Save writes a single response document.
	Save(r *survey.Response) error

	// SaveAll writes every response, overwriting existing documents.
	SaveAll(rs []*survey.Response) error

	// LoadAll reads every response document. Returns a not-found error
	// when the directory is missing or holds no responses.
	LoadAll() ([]*survey.Response, error)

	// Clean removes all previously generated documents.
	Clean() error

	// Dir reports the backing directory.
	Dir() string
}
