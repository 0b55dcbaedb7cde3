package api

import (
	"github.com/hackgods/clinic-appointment-booking/internal/booking"
)

type PatientRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Residency string `json:"residency"`
}

type PatientResponse struct {
	ID        string `json:"id"`
	Label     string `json:"id_label"`
	Name      string `json:"name"`
	Residency string `json:"residency"`
}

func toPatientResponse(p booking.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID(),
		Label:     p.Label(),
		Name:      p.Name(),
		Residency: string(p.Residency()),
	}
}

type ServiceRequest struct {
	Title          string  `json:"title"`
	MaxSlotsPerDay int     `json:"max_slots_per_day"`
	PricePerSlot   float64 `json:"price_per_slot"`
}

type ServiceResponse struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	MaxSlotsPerDay int     `json:"max_slots_per_day"`
	PricePerSlot   float64 `json:"price_per_slot"`
}

func toServiceResponse(s booking.Service) ServiceResponse {
	return ServiceResponse{
		ID:             s.ID(),
		Title:          s.Title(),
		MaxSlotsPerDay: s.MaxSlotsPerDay(),
		PricePerSlot:   s.PricePerSlot(),
	}
}

type BookSlotRequest struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	ServiceID string `json:"service_id"`
	PatientID string `json:"patient_id"`
}

// UpdateSlotRequest changes only the fields that are present.
type UpdateSlotRequest struct {
	Date      *string `json:"date"`
	Time      *string `json:"time"`
	ServiceID *string `json:"service_id"`
	PatientID *string `json:"patient_id"`
}

type CancelSlotsRequest struct {
	IDs []string `json:"ids"`
}

// SlotResponse describes a booked slot or, without an id, an available one.
type SlotResponse struct {
	ID        string           `json:"id,omitempty"`
	Date      string           `json:"date"`
	Time      string           `json:"time"`
	Booked    bool             `json:"booked"`
	ServiceID string           `json:"service_id"`
	PatientID string           `json:"patient_id,omitempty"`
	Service   *ServiceResponse `json:"service,omitempty"`
	Patient   *PatientResponse `json:"patient,omitempty"`
}

func toSlotResponse(d booking.SlotDetail) SlotResponse {
	resp := SlotResponse{
		ID:        d.Slot.ID(),
		Date:      d.Slot.Date().String(),
		Time:      booking.FormatTime(d.Slot.Time()),
		Booked:    d.Slot.Booked(),
		ServiceID: d.Slot.ServiceID(),
		PatientID: d.Slot.PatientID(),
	}
	if d.Service != nil {
		svc := toServiceResponse(*d.Service)
		resp.Service = &svc
	}
	if d.Patient != nil {
		p := toPatientResponse(*d.Patient)
		resp.Patient = &p
	}
	return resp
}

func toSlotResponses(details []booking.SlotDetail) []SlotResponse {
	out := make([]SlotResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toSlotResponse(d))
	}
	return out
}

type NameRequest struct {
	Name string `json:"name"`
}

type ResidencyRequest struct {
	Residency string `json:"residency"`
}

type TitleRequest struct {
	Title string `json:"title"`
}

type MaxSlotsRequest struct {
	MaxSlotsPerDay int `json:"max_slots_per_day"`
}

type PriceRequest struct {
	PricePerSlot float64 `json:"price_per_slot"`
}

type RekeyRequest struct {
	NewID string `json:"new_id"`
}

type CancelledResponse struct {
	Cancelled int `json:"cancelled"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
