package booking

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// Slot is a (service, date, time) cell of the booking grid. Stored slots are
// always booked; available slots are derived on demand and carry no patient.
// Slots reference their service and patient by id.
type Slot struct {
	id        string
	date      civil.Date
	time      civil.Time
	booked    bool
	serviceID string
	patientID string
}

func (s Slot) ID() string        { return s.id }
func (s Slot) Date() civil.Date  { return s.date }
func (s Slot) Time() civil.Time  { return s.time }
func (s Slot) Booked() bool      { return s.booked }
func (s Slot) ServiceID() string { return s.serviceID }
func (s Slot) PatientID() string { return s.patientID }

// Start combines the slot's date and time.
func (s Slot) Start() civil.DateTime {
	return civil.DateTime{Date: s.date, Time: s.time}
}

func (s Slot) String() string {
	status := "Available"
	if s.booked {
		status = "Booked"
	}
	return fmt.Sprintf("ID: %s, Time Slot: %sT%s, Status: %s, Service: %s, Patient: %s",
		s.id, s.date, FormatTime(s.time), status, orNone(s.serviceID), orNone(s.patientID))
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

func (s Slot) key() slotKey {
	return slotKey{serviceID: s.serviceID, date: s.date, time: s.time}
}

type slotKey struct {
	serviceID string
	date      civil.Date
	time      civil.Time
}

// ValidateSlotDate rejects dates more than one day before today. The extra
// day of tolerance keeps bookings made just before midnight valid.
func ValidateSlotDate(d civil.Date, now civil.DateTime) error {
	if !d.IsValid() {
		return invalid(ErrInvalidSlotDate, "Starting date %s is not a valid date!", d)
	}
	if d.Before(now.Date.AddDays(-1)) {
		return invalid(ErrInvalidSlotDate, "Starting date must not be in the past!")
	}
	return nil
}

// ValidateSlotTime checks that t is a start time on the half-hour grid within operating hours.
func ValidateSlotTime(t civil.Time) error {
	if !t.IsValid() {
		return invalid(ErrInvalidSlotTime, "Starting time %s is not a valid time!", t)
	}
	if compareTime(t, OpeningTime) < 0 {
		return invalid(ErrInvalidSlotTime, "Starting time cannot be before %s!", FormatTime(OpeningTime))
	}
	if compareTime(t, ClosingTime) > 0 {
		return invalid(ErrInvalidSlotTime, "Starting time cannot be after %s!", FormatTime(ClosingTime))
	}
	if (t.Minute != 0 && t.Minute != 30) || t.Second != 0 || t.Nanosecond != 0 {
		return invalid(ErrInvalidSlotTime, "Starting time must be within 30 minute intervals!")
	}
	return nil
}

// ValidateSlotStart validates a date and a time together. The date is checked
// first, then the time, then that the combination is not in the past.
func ValidateSlotStart(d civil.Date, t civil.Time, now civil.DateTime) error {
	if err := ValidateSlotDate(d, now); err != nil {
		return err
	}
	if d.Before(now.Date) {
		return invalid(ErrInvalidSlotDate, "Starting date and time must not be in the past!")
	}
	if err := ValidateSlotTime(t); err != nil {
		return err
	}
	if d == now.Date && compareTime(t, now.Time) < 0 {
		return invalid(ErrInvalidSlotTime, "Starting time must not be in the past!")
	}
	return nil
}
