package booking

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientStoreAdd(t *testing.T) {
	c := newTestClinic(t)
	p := mustPatient(t, c, "12345678901", "Muhammad Putra")

	require.ErrorIs(t, c.Patients.Add(p), ErrDuplicateKey)
	require.ErrorIs(t, c.Patients.Add(Patient{}), ErrInvalidPatientID)
	assert.Equal(t, 1, c.Patients.Len())

	got, ok := c.Patients.Get(p.ID())
	require.True(t, ok)
	assert.True(t, p.Equal(got))
}

func TestPatientStoreAddAllIsAtomic(t *testing.T) {
	c := newTestClinic(t)
	a, _ := NewPatient("12345678901", "Muhammad Putra", Resident)
	b, _ := NewPatient("12345678902", "Sara Ahmed", Resident)

	require.ErrorIs(t, c.Patients.AddAll([]Patient{a, b, a}), ErrDuplicateKey)
	assert.Zero(t, c.Patients.Len())

	require.NoError(t, c.Patients.AddAll([]Patient{b, a}))
	assert.Equal(t, []string{"12345678901", "12345678902"}, c.Patients.IDs())
}

func TestPatientStoreSearch(t *testing.T) {
	c := newTestClinic(t)
	mustPatient(t, c, "12345678902", "Sara Ahmed")
	mustPatient(t, c, "12345678901", "Muhammad Putra")
	mustPatient(t, c, "123456789012", "Sara Visitor")

	assert.Len(t, c.Patients.ByName("Sara Ahmed"), 1)
	sara := c.Patients.SearchName("sara")
	require.Len(t, sara, 2)
	assert.Equal(t, "123456789012", sara[0].ID())
	assert.Len(t, c.Patients.ByResidency(Visitor), 1)
	assert.Len(t, c.Patients.All(), 3)
	assert.Empty(t, c.Patients.SearchName("nobody"))
}

func TestPatientStoreUpdates(t *testing.T) {
	c := newTestClinic(t)
	p := mustPatient(t, c, "12345678901", "Muhammad Putra")

	require.NoError(t, c.Patients.UpdateName(p.ID(), "Muhammad Ali"))
	require.ErrorIs(t, c.Patients.UpdateName(p.ID(), "M1"), ErrInvalidPatientName)
	require.ErrorIs(t, c.Patients.UpdateName("missing", "Muhammad Ali"), ErrNotFound)

	// An 11 digit id cannot belong to a visitor.
	require.ErrorIs(t, c.Patients.UpdateResidency(p.ID(), Visitor), ErrInvalidPatientID)

	got, _ := c.Patients.Get(p.ID())
	assert.Equal(t, "Muhammad Ali", got.Name())
	assert.Equal(t, Resident, got.Residency())

	replacement, err := NewPatient("98765432109", "Muhammad Putra", Resident)
	require.NoError(t, err)
	require.NoError(t, c.Patients.Replace(p.ID(), replacement))
	got, _ = c.Patients.Get(p.ID())
	assert.Equal(t, p.ID(), got.ID())
	assert.Equal(t, "Muhammad Putra", got.Name())
	assert.False(t, c.Patients.Has("98765432109"))
}

func TestPatientRekeyMovesSlots(t *testing.T) {
	c := newTestClinic(t)
	p := mustPatient(t, c, "12345678901", "Muhammad Putra")
	other := mustPatient(t, c, "12345678902", "Sara Ahmed")
	svc := mustService(t, c, "Generic", 20, 100)
	slot := mustBook(t, c, tomorrow, nineAM, svc.ID(), p.ID())

	require.ErrorIs(t, c.Patients.Rekey(p.ID(), other.ID()), ErrDuplicateKey)
	require.ErrorIs(t, c.Patients.Rekey(p.ID(), "123"), ErrInvalidPatientID)
	require.NoError(t, c.Patients.Rekey(p.ID(), "11111111111"))

	assert.False(t, c.Patients.Has(p.ID()))
	moved, ok := c.Slots.ByID(slot.ID())
	require.True(t, ok)
	assert.Equal(t, "11111111111", moved.PatientID())
	assert.Empty(t, c.Slots.ByPatient(p.ID()))
	checkInvariants(t, c)
}

func TestRekeyThereAndBackRestoresSlot(t *testing.T) {
	c := newTestClinic(t)
	p := mustPatient(t, c, "12345678901", "Muhammad Putra")
	svc := mustService(t, c, "Generic", 20, 100)
	slot := mustBook(t, c, tomorrow, nineAM, svc.ID(), p.ID())

	require.NoError(t, c.Patients.Rekey(p.ID(), "22222222222"))
	require.NoError(t, c.Patients.Rekey("22222222222", p.ID()))
	require.NoError(t, c.Services.Rekey(svc.ID(), "generic"))
	require.NoError(t, c.Services.Rekey("generic", svc.ID()))

	got, ok := c.Slots.ByID(slot.ID())
	require.True(t, ok)
	assert.Equal(t, slot, got)
	assert.Equal(t, []Slot{slot}, c.Slots.ByPatient(p.ID()))
	assert.Equal(t, []Slot{slot}, c.Slots.ByService(svc.ID()))
	assert.Empty(t, c.Slots.ByPatient("22222222222"))
	assert.Empty(t, c.Slots.ByService("generic"))

	gotPatient, ok := c.Patients.Get(p.ID())
	require.True(t, ok)
	assert.True(t, p.Equal(gotPatient))
	gotService, ok := c.Services.Get(svc.ID())
	require.True(t, ok)
	assert.Equal(t, svc, gotService)
	checkInvariants(t, c)
}

func TestPatientDeleteCancelsSlots(t *testing.T) {
	c := newTestClinic(t)
	p := mustPatient(t, c, "12345678901", "Muhammad Putra")
	other := mustPatient(t, c, "12345678902", "Sara Ahmed")
	svc := mustService(t, c, "Generic", 20, 100)
	mustBook(t, c, tomorrow, nineAM, svc.ID(), p.ID())
	mustBook(t, c, tomorrow, tenAM, svc.ID(), p.ID())
	kept := mustBook(t, c, tomorrow, nineThirtyAM, svc.ID(), other.ID())

	require.NoError(t, c.Patients.Delete(p.ID()))

	assert.Equal(t, []Slot{kept}, c.Slots.All())
	require.ErrorIs(t, c.Patients.Delete(p.ID()), ErrNotFound)
	checkInvariants(t, c)
}

func TestServiceStoreOrders(t *testing.T) {
	c := newTestClinic(t)
	op := mustService(t, c, "Operation", 5, 1000)
	genericHigh := mustService(t, c, "Generic", 20, 150)
	genericLow := mustService(t, c, "Generic", 20, 100)

	assert.Equal(t, []Service{op, genericHigh, genericLow}, c.Services.InsertionOrder())
	assert.Equal(t, []Service{genericLow, genericHigh, op}, c.Services.DisplayOrder())
	assert.Len(t, c.Services.ByTitle("Generic"), 2)
	assert.Len(t, c.Services.SearchTitle("OPER"), 1)
	assert.Equal(t, 3, c.Services.Len())
}

func TestServiceStoreAddAllIsAtomic(t *testing.T) {
	c := newTestClinic(t)
	existing := mustService(t, c, "Generic", 20, 100)
	fresh, _ := NewService("Procedure", 15, 50)

	require.ErrorIs(t, c.Services.AddAll([]Service{fresh, existing}), ErrDuplicateKey)
	assert.Equal(t, 1, c.Services.Len())

	require.NoError(t, c.Services.AddAll([]Service{fresh}))
	assert.Equal(t, []Service{existing, fresh}, c.Services.InsertionOrder())
}

func TestServiceUpdates(t *testing.T) {
	c := newTestClinic(t)
	svc := mustService(t, c, "Generic", 20, 100)

	require.NoError(t, c.Services.UpdateTitle(svc.ID(), "General"))
	require.ErrorIs(t, c.Services.UpdateTitle(svc.ID(), " "), ErrInvalidServiceTitle)
	require.NoError(t, c.Services.UpdatePrice(svc.ID(), 0))
	require.ErrorIs(t, c.Services.UpdatePrice(svc.ID(), -5), ErrInvalidServicePrice)
	require.NoError(t, c.Services.UpdateMaxSlots(svc.ID(), 28))
	require.ErrorIs(t, c.Services.UpdateMaxSlots(svc.ID(), 29), ErrInvalidServiceMaxSlots)
	require.ErrorIs(t, c.Services.UpdatePrice("missing", 1), ErrNotFound)

	got, _ := c.Services.Get(svc.ID())
	assert.Equal(t, "General", got.Title())
	assert.Zero(t, got.PricePerSlot())
	assert.Equal(t, 28, got.MaxSlotsPerDay())

	replacement, err := NewService("Specialized", 10, 150)
	require.NoError(t, err)
	require.NoError(t, c.Services.Replace(svc.ID(), replacement))
	got, _ = c.Services.Get(svc.ID())
	assert.Equal(t, svc.ID(), got.ID())
	assert.True(t, replacement.Equal(got))
}

func TestServiceCapCannotDropBelowBookings(t *testing.T) {
	c := newTestClinic(t)
	p1 := mustPatient(t, c, "12345678901", "Muhammad Putra")
	p2 := mustPatient(t, c, "12345678902", "Sara Ahmed")
	svc := mustService(t, c, "Generic", 20, 100)
	mustBook(t, c, tomorrow, nineAM, svc.ID(), p1.ID())
	mustBook(t, c, tomorrow, tenAM, svc.ID(), p2.ID())

	require.ErrorIs(t, c.Services.UpdateMaxSlots(svc.ID(), 1), ErrInvalidServiceMaxSlots)
	require.NoError(t, c.Services.UpdateMaxSlots(svc.ID(), 2))

	_, err := c.Slots.Book(Booking{Date: tomorrow, Time: civil.Time{Hour: 10, Minute: 30}, ServiceID: svc.ID(), PatientID: p1.ID()})
	reason, _ := RejectionReason(err)
	assert.Equal(t, ReasonServiceDailyCapReached, reason)
}

func TestServiceRekeyMovesSlots(t *testing.T) {
	c := newTestClinic(t)
	p := mustPatient(t, c, "12345678901", "Muhammad Putra")
	first := mustService(t, c, "Generic", 20, 100)
	second := mustService(t, c, "Specialized", 10, 150)
	slot := mustBook(t, c, tomorrow, nineAM, first.ID(), p.ID())

	require.ErrorIs(t, c.Services.Rekey(first.ID(), second.ID()), ErrDuplicateKey)
	require.NoError(t, c.Services.Rekey(first.ID(), "generic"))

	moved, ok := c.Slots.ByID(slot.ID())
	require.True(t, ok)
	assert.Equal(t, "generic", moved.ServiceID())
	assert.Equal(t, []Slot{moved}, c.Slots.ByService("generic"))
	// Insertion order is kept across the rename.
	assert.Equal(t, "generic", c.Services.InsertionOrder()[0].ID())
	checkInvariants(t, c)
}

func TestServiceDeleteCancelsSlots(t *testing.T) {
	c := newTestClinic(t)
	p := mustPatient(t, c, "12345678901", "Muhammad Putra")
	generic := mustService(t, c, "Generic", 20, 100)
	specialized := mustService(t, c, "Specialized", 10, 150)
	mustBook(t, c, tomorrow, nineAM, generic.ID(), p.ID())
	kept := mustBook(t, c, tomorrow, tenAM, specialized.ID(), p.ID())

	require.NoError(t, c.Services.Delete(generic.ID()))

	assert.Equal(t, []Slot{kept}, c.Slots.All())
	assert.Len(t, c.Slots.AvailableOn(tomorrow), MaxSlotsPerDay-1)
	checkInvariants(t, c)
}
