package booking

import (
	"errors"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

type timeIndex map[civil.Time]Slot

type dateIndex map[civil.Date]timeIndex

// SlotStore indexes booked slots as service -> date -> time -> slot and
// validates every booking against the patient and service stores.
type SlotStore struct {
	clinic *Clinic
	index  map[string]dateIndex
	byID   map[string]slotKey
}

// Booking is the request to store a slot for a patient.
type Booking struct {
	Date      civil.Date
	Time      civil.Time
	ServiceID string
	PatientID string
}

func (s *SlotStore) reset() {
	s.index = make(map[string]dateIndex)
	s.byID = make(map[string]slotKey)
}

func (s *SlotStore) lookup(k slotKey) (Slot, bool) {
	slot, ok := s.index[k.serviceID][k.date][k.time]
	return slot, ok
}

func (s *SlotStore) insert(slot Slot) {
	dates, ok := s.index[slot.serviceID]
	if !ok {
		dates = make(dateIndex)
		s.index[slot.serviceID] = dates
	}
	times, ok := dates[slot.date]
	if !ok {
		times = make(timeIndex)
		dates[slot.date] = times
	}
	times[slot.time] = slot
	s.byID[slot.id] = slot.key()
}

// remove deletes the slot at k. Emptied date and service maps stay in place.
func (s *SlotStore) remove(k slotKey) (Slot, bool) {
	slot, ok := s.lookup(k)
	if !ok {
		return Slot{}, false
	}
	delete(s.index[k.serviceID][k.date], k.time)
	delete(s.byID, slot.id)
	return slot, true
}

// Book validates b and stores it as a new booked slot. The checks run in a
// fixed order and the first failure is returned as a *BookingError:
// date and time, free position, patient free at that time, daily cap.
func (s *SlotStore) Book(b Booking) (Slot, error) {
	return s.book(b, uuid.NewString())
}

// BookSlot books an available slot, as returned by AvailableOn, for patientID.
func (s *SlotStore) BookSlot(available Slot, patientID string) (Slot, error) {
	return s.Book(Booking{
		Date:      available.date,
		Time:      available.time,
		ServiceID: available.serviceID,
		PatientID: patientID,
	})
}

func (s *SlotStore) book(b Booking, id string) (Slot, error) {
	svc, ok := s.clinic.Services.Get(b.ServiceID)
	if !ok {
		return Slot{}, notFound("service", b.ServiceID)
	}
	if !s.clinic.Patients.Has(b.PatientID) {
		return Slot{}, notFound("patient", b.PatientID)
	}
	if err := s.validate(b, svc); err != nil {
		return Slot{}, err
	}
	slot := Slot{
		id:        id,
		date:      b.Date,
		time:      b.Time,
		booked:    true,
		serviceID: b.ServiceID,
		patientID: b.PatientID,
	}
	s.insert(slot)
	return slot, nil
}

// CheckBooking runs the booking validation without storing anything.
func (s *SlotStore) CheckBooking(b Booking) error {
	svc, ok := s.clinic.Services.Get(b.ServiceID)
	if !ok {
		return notFound("service", b.ServiceID)
	}
	if !s.clinic.Patients.Has(b.PatientID) {
		return notFound("patient", b.PatientID)
	}
	return s.validate(b, svc)
}

func (s *SlotStore) validate(b Booking, svc Service) error {
	if err := ValidateSlotStart(b.Date, b.Time, s.clinic.Now()); err != nil {
		if errors.Is(err, ErrInvalidSlotDate) {
			return reject(ReasonInvalidDate, err, Diagnostic(err))
		}
		return reject(ReasonInvalidTime, err, Diagnostic(err))
	}
	if _, taken := s.lookup(slotKey{serviceID: b.ServiceID, date: b.Date, time: b.Time}); taken {
		return reject(ReasonSlotTaken, nil, "This slot is unavailable!")
	}
	if _, busy := s.AtDateTimePatient(b.Date, b.Time, b.PatientID); busy {
		return reject(ReasonPatientDoubleBooked, nil, "You cannot book 2 slots at the same date and time!")
	}
	if s.CountOn(b.Date, b.ServiceID) >= svc.maxSlots {
		return reject(ReasonServiceDailyCapReached, nil, "This service has reached the maximum number of bookings for the day!")
	}
	return nil
}

// restore inserts a persisted slot. Past dates are accepted; every other
// invariant is enforced.
func (s *SlotStore) restore(r SlotRecord) error {
	if r.ID == "" {
		return invalid(ErrInvalidSlotDate, "Slot has no id!")
	}
	if _, ok := s.byID[r.ID]; ok {
		return duplicate("slot", r.ID)
	}
	if !r.Date.IsValid() {
		return invalid(ErrInvalidSlotDate, "Starting date %s is not a valid date!", r.Date)
	}
	if err := ValidateSlotTime(r.Time); err != nil {
		return err
	}
	svc, ok := s.clinic.Services.Get(r.ServiceID)
	if !ok {
		return notFound("service", r.ServiceID)
	}
	if !s.clinic.Patients.Has(r.PatientID) {
		return notFound("patient", r.PatientID)
	}
	if _, taken := s.lookup(slotKey{serviceID: r.ServiceID, date: r.Date, time: r.Time}); taken {
		return duplicate("slot position", r.Date.String()+" "+FormatTime(r.Time))
	}
	if _, busy := s.AtDateTimePatient(r.Date, r.Time, r.PatientID); busy {
		return reject(ReasonPatientDoubleBooked, nil, "Patient holds two slots at the same date and time!")
	}
	if s.CountOn(r.Date, r.ServiceID) >= svc.maxSlots {
		return reject(ReasonServiceDailyCapReached, nil, "Service exceeds its daily cap!")
	}
	s.insert(Slot{
		id:        r.ID,
		date:      r.Date,
		time:      r.Time,
		booked:    true,
		serviceID: r.ServiceID,
		patientID: r.PatientID,
	})
	return nil
}

// Cancel removes the slot with the given id.
func (s *SlotStore) Cancel(id string) error {
	k, ok := s.byID[id]
	if !ok {
		return notFound("slot", id)
	}
	s.remove(k)
	return nil
}

// CancelMany cancels every listed slot, or none when any id is unknown.
// Repeated ids count once.
func (s *SlotStore) CancelMany(ids []string) (int, error) {
	for _, id := range ids {
		if _, ok := s.byID[id]; !ok {
			return 0, notFound("slot", id)
		}
	}
	n := 0
	for _, id := range ids {
		if k, ok := s.byID[id]; ok {
			s.remove(k)
			n++
		}
	}
	return n, nil
}

// cancelAll removes the given slots and reports how many were removed.
func (s *SlotStore) cancelAll(slots []Slot) int {
	n := 0
	for _, slot := range slots {
		if _, ok := s.remove(slot.key()); ok {
			n++
		}
	}
	return n
}

func (s *SlotStore) CancelByDate(d civil.Date) int {
	return s.cancelAll(s.ByDate(d))
}

func (s *SlotStore) CancelByTime(t civil.Time) int {
	return s.cancelAll(s.ByTime(t))
}

func (s *SlotStore) CancelByService(serviceID string) int {
	return s.cancelAll(s.ByService(serviceID))
}

func (s *SlotStore) CancelByPatient(patientID string) int {
	return s.cancelAll(s.ByPatient(patientID))
}

// CancelAt cancels every slot at (d, t) across all services.
func (s *SlotStore) CancelAt(d civil.Date, t civil.Time) int {
	return s.cancelAll(s.ByDateTime(d, t))
}

func (s *SlotStore) CancelAtService(d civil.Date, t civil.Time, serviceID string) int {
	slot, ok := s.AtDateTimeService(d, t, serviceID)
	if !ok {
		return 0
	}
	return s.cancelAll([]Slot{slot})
}

func (s *SlotStore) CancelAtPatient(d civil.Date, t civil.Time, patientID string) int {
	slot, ok := s.AtDateTimePatient(d, t, patientID)
	if !ok {
		return 0
	}
	return s.cancelAll([]Slot{slot})
}

// CancelWhere cancels every slot matched by f.
func (s *SlotStore) CancelWhere(f Filter) int {
	return s.cancelAll(s.Find(f))
}

// Update cancels the slot and books it again with the fields of b, keeping
// its id. When the new booking is rejected the original slot is put back.
func (s *SlotStore) Update(id string, b Booking) (Slot, error) {
	return s.update(id, func(cur *Booking) { *cur = b })
}

func (s *SlotStore) UpdateDate(id string, d civil.Date) (Slot, error) {
	return s.update(id, func(b *Booking) { b.Date = d })
}

func (s *SlotStore) UpdateTime(id string, t civil.Time) (Slot, error) {
	return s.update(id, func(b *Booking) { b.Time = t })
}

func (s *SlotStore) UpdateService(id, serviceID string) (Slot, error) {
	return s.update(id, func(b *Booking) { b.ServiceID = serviceID })
}

func (s *SlotStore) UpdatePatient(id, patientID string) (Slot, error) {
	return s.update(id, func(b *Booking) { b.PatientID = patientID })
}

func (s *SlotStore) update(id string, change func(*Booking)) (Slot, error) {
	k, ok := s.byID[id]
	if !ok {
		return Slot{}, notFound("slot", id)
	}
	orig, _ := s.remove(k)
	b := Booking{Date: orig.date, Time: orig.time, ServiceID: orig.serviceID, PatientID: orig.patientID}
	change(&b)
	updated, err := s.book(b, orig.id)
	if err != nil {
		s.insert(orig)
		return Slot{}, err
	}
	return updated, nil
}

func (s *SlotStore) reassignPatient(oldID, newID string) {
	for _, slot := range s.ByPatient(oldID) {
		slot.patientID = newID
		s.index[slot.serviceID][slot.date][slot.time] = slot
	}
}

func (s *SlotStore) reassignService(oldID, newID string) {
	dates, ok := s.index[oldID]
	if !ok {
		return
	}
	delete(s.index, oldID)
	for _, times := range dates {
		for t, slot := range times {
			slot.serviceID = newID
			times[t] = slot
			s.byID[slot.id] = slot.key()
		}
	}
	s.index[newID] = dates
}

// busiestDay is the highest number of slots booked for the service on one date.
func (s *SlotStore) busiestDay(serviceID string) int {
	most := 0
	for _, times := range s.index[serviceID] {
		most = max(most, len(times))
	}
	return most
}
