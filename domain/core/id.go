package core

import (
	"fmt"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// RunID identifies one generation run
type RunID ID

func (id RunID) String() string { return ID(id).String() }

// NewRunID creates a time-ordered run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// PatientID is a formatted counter identifier ("patient-0001"), kept
// numeric-sequential rather than random so runs stay reproducible.
type PatientID string

// NewPatientID formats the nth patient identifier (1-based).
func NewPatientID(n int) PatientID {
	return PatientID(fmt.Sprintf("patient-%04d", n))
}

func (id PatientID) String() string { return string(id) }
