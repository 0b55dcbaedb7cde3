package booking

import (
	"slices"
	"strings"
)

// PatientStore keeps patients keyed by id.
type PatientStore struct {
	clinic *Clinic
	byID   map[string]Patient
}

func (s *PatientStore) reset() {
	s.byID = make(map[string]Patient)
}

func (s *PatientStore) Add(p Patient) error {
	if p.id == "" {
		return invalid(ErrInvalidPatientID, "Patient ID cannot be empty!")
	}
	if _, ok := s.byID[p.id]; ok {
		return duplicate("patient", p.id)
	}
	s.byID[p.id] = p
	return nil
}

// AddAll adds every patient or none: duplicates against the store or within
// the list are reported before anything is inserted.
func (s *PatientStore) AddAll(patients []Patient) error {
	seen := make(map[string]struct{}, len(patients))
	for _, p := range patients {
		if p.id == "" {
			return invalid(ErrInvalidPatientID, "Patient ID cannot be empty!")
		}
		if _, ok := s.byID[p.id]; ok {
			return duplicate("patient", p.id)
		}
		if _, ok := seen[p.id]; ok {
			return duplicate("patient", p.id)
		}
		seen[p.id] = struct{}{}
	}
	for _, p := range patients {
		s.byID[p.id] = p
	}
	return nil
}

func (s *PatientStore) Get(id string) (Patient, bool) {
	p, ok := s.byID[id]
	return p, ok
}

func (s *PatientStore) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *PatientStore) Len() int { return len(s.byID) }

// IDs returns every patient id in ascending order.
func (s *PatientStore) IDs() []string {
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// All returns every patient ordered by id.
func (s *PatientStore) All() []Patient {
	return s.filter(func(Patient) bool { return true })
}

func (s *PatientStore) ByName(name string) []Patient {
	return s.filter(func(p Patient) bool { return p.name == name })
}

// SearchName matches a case-insensitive substring of the name.
func (s *PatientStore) SearchName(fragment string) []Patient {
	fragment = strings.ToLower(fragment)
	return s.filter(func(p Patient) bool { return strings.Contains(strings.ToLower(p.name), fragment) })
}

func (s *PatientStore) ByResidency(r Residency) []Patient {
	return s.filter(func(p Patient) bool { return p.residency == r })
}

func (s *PatientStore) filter(keep func(Patient) bool) []Patient {
	out := make([]Patient, 0)
	for _, id := range s.IDs() {
		if p := s.byID[id]; keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Replace overwrites the patient stored under id with the name and residency
// of p. The key does not change; use Rekey for that.
func (s *PatientStore) Replace(id string, p Patient) error {
	if _, ok := s.byID[id]; !ok {
		return notFound("patient", id)
	}
	if err := ValidatePatientName(p.name); err != nil {
		return err
	}
	if err := ValidatePatientID(id, p.residency); err != nil {
		return err
	}
	p.id = id
	s.byID[id] = p
	return nil
}

// Rekey moves the patient from oldID to newID and points its slots at newID.
func (s *PatientStore) Rekey(oldID, newID string) error {
	p, ok := s.byID[oldID]
	if !ok {
		return notFound("patient", oldID)
	}
	if oldID == newID {
		return nil
	}
	if err := ValidatePatientID(newID, p.residency); err != nil {
		return err
	}
	if _, ok := s.byID[newID]; ok {
		return duplicate("patient", newID)
	}
	delete(s.byID, oldID)
	p.id = newID
	s.byID[newID] = p
	s.clinic.Slots.reassignPatient(oldID, newID)
	return nil
}

func (s *PatientStore) UpdateName(id, name string) error {
	p, ok := s.byID[id]
	if !ok {
		return notFound("patient", id)
	}
	if err := ValidatePatientName(name); err != nil {
		return err
	}
	p.name = name
	s.byID[id] = p
	return nil
}

// UpdateResidency fails when the current id does not have the length the new
// residency requires.
func (s *PatientStore) UpdateResidency(id string, r Residency) error {
	p, ok := s.byID[id]
	if !ok {
		return notFound("patient", id)
	}
	if r != Resident && r != Visitor {
		return invalid(ErrInvalidPatientID, "Residency %q must be RESIDENT or VISITOR!", r)
	}
	if err := ValidatePatientID(id, r); err != nil {
		return err
	}
	p.residency = r
	s.byID[id] = p
	return nil
}

// Delete removes the patient and cancels every slot booked for them.
func (s *PatientStore) Delete(id string) error {
	if _, ok := s.byID[id]; !ok {
		return notFound("patient", id)
	}
	delete(s.byID, id)
	s.clinic.Slots.CancelByPatient(id)
	return nil
}
