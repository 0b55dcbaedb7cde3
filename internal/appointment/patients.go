package appointment

import (
	"context"

	"github.com/hackgods/clinic-appointment-booking/internal/booking"
)

func (s *Service) AddPatient(ctx context.Context, in PatientInput) (booking.Patient, error) {
	p, err := booking.NewPatient(in.ID, in.Name, in.Residency)
	if err != nil {
		return booking.Patient{}, err
	}
	err = s.mutate(ctx, "add patient", func() error {
		return s.clinic.Patients.Add(p)
	}, "patient_id", in.ID)
	if err != nil {
		return booking.Patient{}, err
	}
	return p, nil
}

// AddPatients adds every patient or none.
func (s *Service) AddPatients(ctx context.Context, in []PatientInput) ([]booking.Patient, error) {
	patients := make([]booking.Patient, 0, len(in))
	for _, pi := range in {
		p, err := booking.NewPatient(pi.ID, pi.Name, pi.Residency)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	err := s.mutate(ctx, "add patients", func() error {
		return s.clinic.Patients.AddAll(patients)
	}, "count", len(patients))
	if err != nil {
		return nil, err
	}
	return patients, nil
}

func (s *Service) Patient(ctx context.Context, id string) (booking.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.clinic.Patients.Get(id)
	if !ok {
		return booking.Patient{}, notFound("patient", id)
	}
	return p, nil
}

// Patients lists patients ordered by id.
func (s *Service) Patients(ctx context.Context, q PatientQuery) []booking.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var patients []booking.Patient
	switch {
	case q.Name != "":
		patients = s.clinic.Patients.ByName(q.Name)
	case q.NameContains != "":
		patients = s.clinic.Patients.SearchName(q.NameContains)
	default:
		patients = s.clinic.Patients.All()
	}
	if q.Residency == "" {
		return patients
	}
	out := make([]booking.Patient, 0, len(patients))
	for _, p := range patients {
		if p.Residency() == q.Residency {
			out = append(out, p)
		}
	}
	return out
}

// ReplacePatient overwrites name and residency. The id in the input is ignored.
func (s *Service) ReplacePatient(ctx context.Context, id string, in PatientInput) (booking.Patient, error) {
	var updated booking.Patient
	err := s.mutate(ctx, "replace patient", func() error {
		if !s.clinic.Patients.Has(id) {
			return notFound("patient", id)
		}
		p, err := booking.NewPatient(id, in.Name, in.Residency)
		if err != nil {
			return err
		}
		if err := s.clinic.Patients.Replace(id, p); err != nil {
			return err
		}
		updated, _ = s.clinic.Patients.Get(id)
		return nil
	}, "patient_id", id)
	return updated, err
}

func (s *Service) RenamePatient(ctx context.Context, id, name string) (booking.Patient, error) {
	var updated booking.Patient
	err := s.mutate(ctx, "rename patient", func() error {
		if err := s.clinic.Patients.UpdateName(id, name); err != nil {
			return err
		}
		updated, _ = s.clinic.Patients.Get(id)
		return nil
	}, "patient_id", id)
	return updated, err
}

func (s *Service) ChangeResidency(ctx context.Context, id string, r booking.Residency) (booking.Patient, error) {
	var updated booking.Patient
	err := s.mutate(ctx, "change residency", func() error {
		if err := s.clinic.Patients.UpdateResidency(id, r); err != nil {
			return err
		}
		updated, _ = s.clinic.Patients.Get(id)
		return nil
	}, "patient_id", id, "residency", r)
	return updated, err
}

// RekeyPatient changes the patient's id and moves their bookings along.
func (s *Service) RekeyPatient(ctx context.Context, oldID, newID string) (booking.Patient, error) {
	var updated booking.Patient
	err := s.mutate(ctx, "rekey patient", func() error {
		if err := s.clinic.Patients.Rekey(oldID, newID); err != nil {
			return err
		}
		updated, _ = s.clinic.Patients.Get(newID)
		return nil
	}, "old_id", oldID, "new_id", newID)
	return updated, err
}

// DeletePatient removes the patient and returns how many slots were cancelled.
func (s *Service) DeletePatient(ctx context.Context, id string) (int, error) {
	cancelled := 0
	err := s.mutate(ctx, "delete patient", func() error {
		before := s.clinic.Slots.Len()
		if err := s.clinic.Patients.Delete(id); err != nil {
			return err
		}
		cancelled = before - s.clinic.Slots.Len()
		return nil
	}, "patient_id", id)
	s.metrics.ObserveCancelled(cancelled)
	return cancelled, err
}
