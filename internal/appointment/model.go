package appointment

import (
	"cloud.google.com/go/civil"

	"github.com/hackgods/clinic-appointment-booking/internal/booking"
)

// PatientInput is the writable content of a patient.
type PatientInput struct {
	ID        string
	Name      string
	Residency booking.Residency
}

type ServiceInput struct {
	Title          string
	MaxSlotsPerDay int
	PricePerSlot   float64
}

// PatientQuery filters the patient list. Zero fields match everything.
type PatientQuery struct {
	Name         string
	NameContains string
	Residency    booking.Residency
}

type ServiceQuery struct {
	Title         string
	TitleContains string
	// DisplayOrder sorts by title then price instead of insertion order.
	DisplayOrder bool
}

// SlotChange lists the fields of a slot update. Nil fields keep their value.
type SlotChange struct {
	Date      *civil.Date
	Time      *civil.Time
	ServiceID *string
	PatientID *string
}

func (c SlotChange) fields() int {
	n := 0
	for _, set := range []bool{c.Date != nil, c.Time != nil, c.ServiceID != nil, c.PatientID != nil} {
		if set {
			n++
		}
	}
	return n
}
