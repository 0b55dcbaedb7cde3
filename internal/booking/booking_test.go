package booking

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"
)

// The clinic clock is frozen at 2030-03-10 08:15 UTC in every test.
var (
	testNow      = time.Date(2030, time.March, 10, 8, 15, 0, 0, time.UTC)
	today        = civil.Date{Year: 2030, Month: time.March, Day: 10}
	tomorrow     = today.AddDays(1)
	yesterday    = today.AddDays(-1)
	nineAM       = civil.Time{Hour: 9}
	nineThirtyAM = civil.Time{Hour: 9, Minute: 30}
	tenAM        = civil.Time{Hour: 10}
)

func newTestClinic(t *testing.T) *Clinic {
	t.Helper()
	return NewClinic(WithClock(FixedClock(testNow)), WithLocation(time.UTC))
}

func mustPatient(t *testing.T, c *Clinic, id, name string) Patient {
	t.Helper()
	residency := Resident
	if len(id) == 12 {
		residency = Visitor
	}
	p, err := NewPatient(id, name, residency)
	require.NoError(t, err)
	require.NoError(t, c.Patients.Add(p))
	return p
}

func mustService(t *testing.T, c *Clinic, title string, maxSlots int, price float64) Service {
	t.Helper()
	s, err := NewService(title, maxSlots, price)
	require.NoError(t, err)
	require.NoError(t, c.Services.Add(s))
	return s
}

func mustBook(t *testing.T, c *Clinic, d civil.Date, tm civil.Time, serviceID, patientID string) Slot {
	t.Helper()
	slot, err := c.Slots.Book(Booking{Date: d, Time: tm, ServiceID: serviceID, PatientID: patientID})
	require.NoError(t, err)
	return slot
}

// checkInvariants asserts the cross-store rules that must hold after any sequence of operations.
func checkInvariants(t *testing.T, c *Clinic) {
	t.Helper()
	perPatient := map[string]int{}
	perServiceDay := map[string]int{}
	for _, s := range c.Slots.All() {
		require.True(t, s.Booked())
		require.True(t, c.Services.Has(s.ServiceID()), "slot %s references missing service", s.ID())
		require.True(t, c.Patients.Has(s.PatientID()), "slot %s references missing patient", s.ID())
		perPatient[s.PatientID()+"|"+s.Date().String()+"|"+FormatTime(s.Time())]++
		perServiceDay[s.ServiceID()+"|"+s.Date().String()]++
	}
	for k, n := range perPatient {
		require.Equal(t, 1, n, "patient double booked at %s", k)
	}
	for _, svc := range c.Services.All() {
		for k, n := range perServiceDay {
			if len(k) > len(svc.ID()) && k[:len(svc.ID())] == svc.ID() {
				require.LessOrEqual(t, n, svc.MaxSlotsPerDay(), "cap exceeded for %s", k)
			}
		}
	}
}
