package booking

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Clinic owns the patient, service and slot stores and wires the cascades
// between them. It is not safe for concurrent use; callers serialize access.
type Clinic struct {
	Patients *PatientStore
	Services *ServiceStore
	Slots    *SlotStore

	clock Clock
	loc   *time.Location
}

type Option func(*Clinic)

func WithClock(clock Clock) Option {
	return func(c *Clinic) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLocation sets the time zone in which "today" and "now" are evaluated.
func WithLocation(loc *time.Location) Option {
	return func(c *Clinic) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func NewClinic(opts ...Option) *Clinic {
	c := &Clinic{
		clock: time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Patients = &PatientStore{clinic: c}
	c.Services = &ServiceStore{clinic: c}
	c.Slots = &SlotStore{clinic: c}
	c.reset()
	return c
}

// Now is the current civil date and time at the clinic.
func (c *Clinic) Now() civil.DateTime {
	return civil.DateTimeOf(c.clock().In(c.loc))
}

func (c *Clinic) Today() civil.Date {
	return c.Now().Date
}

func (c *Clinic) reset() {
	c.Patients.reset()
	c.Services.reset()
	c.Slots.reset()
}

type PatientRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Residency Residency `json:"residency"`
}

type ServiceRecord struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	MaxSlotsPerDay int     `json:"max_slots_per_day"`
	PricePerSlot   float64 `json:"price_per_slot"`
}

type SlotRecord struct {
	ID        string     `json:"id"`
	Date      civil.Date `json:"date"`
	Time      civil.Time `json:"time"`
	ServiceID string     `json:"service_id"`
	PatientID string     `json:"patient_id"`
}

// Snapshot is the persisted form of the three stores. Services keep their
// insertion order; patients are ordered by id; slots by date, time, service.
type Snapshot struct {
	Patients []PatientRecord
	Services []ServiceRecord
	Slots    []SlotRecord
}

func (c *Clinic) Snapshot() Snapshot {
	snap := Snapshot{
		Patients: make([]PatientRecord, 0, len(c.Patients.byID)),
		Services: make([]ServiceRecord, 0, len(c.Services.byID)),
		Slots:    make([]SlotRecord, 0, len(c.Slots.byID)),
	}
	for _, p := range c.Patients.All() {
		snap.Patients = append(snap.Patients, PatientRecord{ID: p.id, Name: p.name, Residency: p.residency})
	}
	for _, s := range c.Services.InsertionOrder() {
		snap.Services = append(snap.Services, ServiceRecord{
			ID:             s.id,
			Title:          s.title,
			MaxSlotsPerDay: s.maxSlots,
			PricePerSlot:   s.pricePerSlot,
		})
	}
	for _, s := range c.Slots.All() {
		snap.Slots = append(snap.Slots, SlotRecord{
			ID:        s.id,
			Date:      s.date,
			Time:      s.time,
			ServiceID: s.serviceID,
			PatientID: s.patientID,
		})
	}
	return snap
}

// Restore replaces the content of all three stores with snap. When any record
// is invalid the stores are left empty and the error is returned.
// Slots in the past are accepted since they were valid when booked.
func (c *Clinic) Restore(snap Snapshot) error {
	c.reset()
	if err := c.restore(snap); err != nil {
		c.reset()
		return fmt.Errorf("restore snapshot: %w", err)
	}
	return nil
}

func (c *Clinic) restore(snap Snapshot) error {
	for _, r := range snap.Patients {
		p, err := NewPatient(r.ID, r.Name, r.Residency)
		if err != nil {
			return fmt.Errorf("patient %q: %w", r.ID, err)
		}
		if err := c.Patients.Add(p); err != nil {
			return err
		}
	}
	for _, r := range snap.Services {
		if r.ID == "" {
			return fmt.Errorf("service %q has an empty id", r.Title)
		}
		s, err := NewService(r.Title, r.MaxSlotsPerDay, r.PricePerSlot)
		if err != nil {
			return fmt.Errorf("service %q: %w", r.ID, err)
		}
		s.id = r.ID
		if err := c.Services.Add(s); err != nil {
			return err
		}
	}
	for _, r := range snap.Slots {
		if err := c.Slots.restore(r); err != nil {
			return fmt.Errorf("slot %q: %w", r.ID, err)
		}
	}
	return nil
}
