package booking

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type Residency string

const (
	Resident Residency = "RESIDENT"
	Visitor  Residency = "VISITOR"
)

// ParseResidency accepts the residency names case-insensitively.
func ParseResidency(s string) (Residency, error) {
	switch Residency(strings.ToUpper(strings.TrimSpace(s))) {
	case Resident:
		return Resident, nil
	case Visitor:
		return Visitor, nil
	}
	return "", invalid(ErrInvalidPatientID, "Residency %q must be RESIDENT or VISITOR!", s)
}

// idLength is the number of digits of a QID (residents) or visa number (visitors).
func (r Residency) idLength() int {
	if r == Visitor {
		return 12
	}
	return 11
}

// Patient is identified by a QID or a visa number depending on residency.
type Patient struct {
	id        string
	name      string
	residency Residency
}

// NewPatient validates every field and returns the patient.
func NewPatient(id, name string, residency Residency) (Patient, error) {
	if residency != Resident && residency != Visitor {
		return Patient{}, invalid(ErrInvalidPatientID, "Residency %q must be RESIDENT or VISITOR!", residency)
	}
	if err := ValidatePatientName(name); err != nil {
		return Patient{}, err
	}
	if err := ValidatePatientID(id, residency); err != nil {
		return Patient{}, err
	}
	return Patient{id: id, name: name, residency: residency}, nil
}

func (p Patient) ID() string           { return p.id }
func (p Patient) Name() string         { return p.name }
func (p Patient) Residency() Residency { return p.residency }

// Label is the document name matching the patient's residency.
func (p Patient) Label() string {
	if p.residency == Visitor {
		return "Visa Number"
	}
	return "QID"
}

func (p Patient) Equal(o Patient) bool {
	return p.id == o.id && p.name == o.name && p.residency == o.residency
}

func (p Patient) String() string {
	return fmt.Sprintf("%s: %s, Name: %s, Residency: %s", p.Label(), p.id, p.name, p.residency)
}

// ValidatePatientID checks that id is all digits with the length required by residency.
func ValidatePatientID(id string, residency Residency) error {
	if strings.TrimSpace(id) == "" {
		return invalid(ErrInvalidPatientID, "Patient ID cannot be empty!")
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return invalid(ErrInvalidPatientID, "Patient ID should only contain numbers!")
		}
	}
	if len(id) != residency.idLength() {
		if residency == Visitor {
			return invalid(ErrInvalidPatientID, "Patient ID is not a valid Visa number, it should only have 12 digits!")
		}
		return invalid(ErrInvalidPatientID, "Patient ID is not a valid QID, it should only have 11 digits!")
	}
	return nil
}

func ValidatePatientName(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid(ErrInvalidPatientName, "Patient name cannot be empty!")
	}
	if n := utf8.RuneCountInString(name); n < 3 || n > 255 {
		return invalid(ErrInvalidPatientName, "Patient name must be between 3 and 255 characters long!")
	}
	if strings.ContainsAny(name, "0123456789") {
		return invalid(ErrInvalidPatientName, "Patient name cannot contain numbers!")
	}
	return nil
}
