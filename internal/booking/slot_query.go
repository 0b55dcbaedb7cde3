package booking

import (
	"slices"

	"cloud.google.com/go/civil"
)

// Filter selects stored slots. Nil or empty fields match everything.
type Filter struct {
	Date      *civil.Date
	Time      *civil.Time
	ServiceID string
	PatientID string
}

func (f Filter) match(s Slot) bool {
	if f.Date != nil && s.date != *f.Date {
		return false
	}
	if f.Time != nil && s.time != *f.Time {
		return false
	}
	if f.ServiceID != "" && s.serviceID != f.ServiceID {
		return false
	}
	if f.PatientID != "" && s.patientID != f.PatientID {
		return false
	}
	return true
}

// Find returns the slots matching f ordered by date, time, then service
// insertion order. It never returns nil.
func (s *SlotStore) Find(f Filter) []Slot {
	out := make([]Slot, 0)
	visit := func(dates dateIndex) {
		for d, times := range dates {
			if f.Date != nil && d != *f.Date {
				continue
			}
			for _, slot := range times {
				if f.match(slot) {
					out = append(out, slot)
				}
			}
		}
	}
	if f.ServiceID != "" {
		visit(s.index[f.ServiceID])
	} else {
		for _, dates := range s.index {
			visit(dates)
		}
	}
	s.sort(out)
	return out
}

func (s *SlotStore) sort(slots []Slot) {
	services := s.clinic.Services
	slices.SortFunc(slots, func(a, b Slot) int {
		if c := compareDate(a.date, b.date); c != 0 {
			return c
		}
		if c := compareTime(a.time, b.time); c != 0 {
			return c
		}
		return services.order(a.serviceID) - services.order(b.serviceID)
	})
}

func (s *SlotStore) Len() int { return len(s.byID) }

func (s *SlotStore) All() []Slot {
	return s.Find(Filter{})
}

// CountOn is the number of slots stored for the service on d.
func (s *SlotStore) CountOn(d civil.Date, serviceID string) int {
	return len(s.index[serviceID][d])
}

func (s *SlotStore) ByID(id string) (Slot, bool) {
	k, ok := s.byID[id]
	if !ok {
		return Slot{}, false
	}
	return s.lookup(k)
}

func isZeroDate(d civil.Date) bool { return d == civil.Date{} }

func (s *SlotStore) ByDate(d civil.Date) []Slot {
	if isZeroDate(d) {
		return []Slot{}
	}
	return s.Find(Filter{Date: &d})
}

func (s *SlotStore) ByTime(t civil.Time) []Slot {
	return s.Find(Filter{Time: &t})
}

func (s *SlotStore) ByService(serviceID string) []Slot {
	if serviceID == "" {
		return []Slot{}
	}
	return s.Find(Filter{ServiceID: serviceID})
}

func (s *SlotStore) ByPatient(patientID string) []Slot {
	if patientID == "" {
		return []Slot{}
	}
	return s.Find(Filter{PatientID: patientID})
}

func (s *SlotStore) ByDateTime(d civil.Date, t civil.Time) []Slot {
	if isZeroDate(d) {
		return []Slot{}
	}
	return s.Find(Filter{Date: &d, Time: &t})
}

func (s *SlotStore) ByDateService(d civil.Date, serviceID string) []Slot {
	if isZeroDate(d) || serviceID == "" {
		return []Slot{}
	}
	return s.Find(Filter{Date: &d, ServiceID: serviceID})
}

func (s *SlotStore) ByDatePatient(d civil.Date, patientID string) []Slot {
	if isZeroDate(d) || patientID == "" {
		return []Slot{}
	}
	return s.Find(Filter{Date: &d, PatientID: patientID})
}

func (s *SlotStore) ByTimeService(t civil.Time, serviceID string) []Slot {
	if serviceID == "" {
		return []Slot{}
	}
	return s.Find(Filter{Time: &t, ServiceID: serviceID})
}

func (s *SlotStore) ByTimePatient(t civil.Time, patientID string) []Slot {
	if patientID == "" {
		return []Slot{}
	}
	return s.Find(Filter{Time: &t, PatientID: patientID})
}

func (s *SlotStore) ByDateServicePatient(d civil.Date, serviceID, patientID string) []Slot {
	if isZeroDate(d) || serviceID == "" || patientID == "" {
		return []Slot{}
	}
	return s.Find(Filter{Date: &d, ServiceID: serviceID, PatientID: patientID})
}

func (s *SlotStore) ByTimeServicePatient(t civil.Time, serviceID, patientID string) []Slot {
	if serviceID == "" || patientID == "" {
		return []Slot{}
	}
	return s.Find(Filter{Time: &t, ServiceID: serviceID, PatientID: patientID})
}

// AtDateTimeService returns the single slot at (d, t) for the service.
func (s *SlotStore) AtDateTimeService(d civil.Date, t civil.Time, serviceID string) (Slot, bool) {
	return s.lookup(slotKey{serviceID: serviceID, date: d, time: t})
}

// AtDateTimePatient returns the slot the patient holds at (d, t), if any.
func (s *SlotStore) AtDateTimePatient(d civil.Date, t civil.Time, patientID string) (Slot, bool) {
	if patientID == "" {
		return Slot{}, false
	}
	for _, dates := range s.index {
		if slot, ok := dates[d][t]; ok && slot.patientID == patientID {
			return slot, true
		}
	}
	return Slot{}, false
}

// AvailableOn derives the free slots of every service on d, ordered by
// service insertion order then time. Times at or before now are skipped.
func (s *SlotStore) AvailableOn(d civil.Date) []Slot {
	out := make([]Slot, 0)
	now := s.clinic.Now()
	if ValidateSlotDate(d, now) != nil {
		return out
	}
	for _, svc := range s.clinic.Services.InsertionOrder() {
		out = append(out, s.available(d, svc.id, now)...)
	}
	return out
}

// AvailableOnService is AvailableOn restricted to one service.
func (s *SlotStore) AvailableOnService(d civil.Date, serviceID string) []Slot {
	now := s.clinic.Now()
	if ValidateSlotDate(d, now) != nil || !s.clinic.Services.Has(serviceID) {
		return []Slot{}
	}
	return s.available(d, serviceID, now)
}

func (s *SlotStore) available(d civil.Date, serviceID string, now civil.DateTime) []Slot {
	out := make([]Slot, 0, MaxSlotsPerDay)
	booked := s.index[serviceID][d]
	for _, t := range TimeGrid(d) {
		if _, taken := booked[t]; taken {
			continue
		}
		if !now.Before(civil.DateTime{Date: d, Time: t}) {
			continue
		}
		out = append(out, Slot{date: d, time: t, serviceID: serviceID})
	}
	return out
}

// SlotDetail is a slot with its service and patient resolved.
type SlotDetail struct {
	Slot    Slot
	Service *Service
	Patient *Patient
}

func (s *SlotStore) Detail(slot Slot) SlotDetail {
	detail := SlotDetail{Slot: slot}
	if svc, ok := s.clinic.Services.Get(slot.serviceID); ok {
		detail.Service = &svc
	}
	if p, ok := s.clinic.Patients.Get(slot.patientID); ok {
		detail.Patient = &p
	}
	return detail
}
