package booking

import (
	"errors"
	"math"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePatientID(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		residency Residency
		wantErr   bool
	}{
		{"resident qid", "12345678901", Resident, false},
		{"visitor visa", "123456789012", Visitor, false},
		{"resident with visa length", "123456789012", Resident, true},
		{"visitor with qid length", "12345678901", Visitor, true},
		{"letters", "1234567890a", Resident, true},
		{"blank", "   ", Resident, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePatientID(tt.id, tt.residency)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Empty(t, Diagnostic(err))
				return
			}
			require.ErrorIs(t, err, ErrInvalidPatientID)
			assert.NotEmpty(t, Diagnostic(err))
		})
	}
}

func TestValidatePatientName(t *testing.T) {
	require.NoError(t, ValidatePatientName("Muhammad Putra"))
	require.NoError(t, ValidatePatientName("Aïd"))
	require.ErrorIs(t, ValidatePatientName(""), ErrInvalidPatientName)
	require.ErrorIs(t, ValidatePatientName("Al"), ErrInvalidPatientName)
	require.ErrorIs(t, ValidatePatientName(strings.Repeat("a", 256)), ErrInvalidPatientName)
	require.ErrorIs(t, ValidatePatientName("Agent 47"), ErrInvalidPatientName)
}

func TestNewPatient(t *testing.T) {
	p, err := NewPatient("12345678901", "Muhammad Putra", Resident)
	require.NoError(t, err)
	assert.Equal(t, "QID", p.Label())
	assert.True(t, p.Equal(p))

	other, err := NewPatient("12345678901", "Muhammad Putra", Resident)
	require.NoError(t, err)
	assert.True(t, p.Equal(other))

	_, err = NewPatient("12345678901", "Muhammad Putra", "CITIZEN")
	require.ErrorIs(t, err, ErrInvalidPatientID)
}

func TestParseResidency(t *testing.T) {
	r, err := ParseResidency("visitor")
	require.NoError(t, err)
	assert.Equal(t, Visitor, r)

	_, err = ParseResidency("tourist")
	require.Error(t, err)
}

func TestNewService(t *testing.T) {
	a, err := NewService("Generic", 20, 100)
	require.NoError(t, err)
	b, err := NewService("Generic", 20, 100)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.True(t, a.Equal(b))

	_, err = NewService("", 20, 100)
	require.ErrorIs(t, err, ErrInvalidServiceTitle)
	_, err = NewService("Generic", -1, 100)
	require.ErrorIs(t, err, ErrInvalidServiceMaxSlots)
	_, err = NewService("Generic", MaxSlotsPerDay+1, 100)
	require.ErrorIs(t, err, ErrInvalidServiceMaxSlots)
	_, err = NewService("Generic", 0, -0.01)
	require.ErrorIs(t, err, ErrInvalidServicePrice)
	_, err = NewService("Generic", 0, math.NaN())
	require.ErrorIs(t, err, ErrInvalidServicePrice)

	edge, err := NewService("Free", MaxSlotsPerDay, 0)
	require.NoError(t, err)
	assert.Equal(t, MaxSlotsPerDay, edge.MaxSlotsPerDay())
}

func TestServiceCompare(t *testing.T) {
	cheap, _ := NewService("Generic", 5, 50)
	pricey, _ := NewService("Generic", 5, 150)
	op, _ := NewService("Operation", 5, 10)

	assert.Negative(t, cheap.Compare(pricey))
	assert.Negative(t, pricey.Compare(op))
	assert.Zero(t, cheap.Compare(cheap))
}

func TestValidateSlotTime(t *testing.T) {
	valid := []civil.Time{{Hour: 7}, {Hour: 13, Minute: 30}, {Hour: 20, Minute: 30}}
	for _, tm := range valid {
		require.NoError(t, ValidateSlotTime(tm), FormatTime(tm))
	}

	invalidTimes := []civil.Time{
		{Hour: 6, Minute: 30},
		{Hour: 20, Minute: 45},
		{Hour: 7, Minute: 15},
		{Hour: 21},
		{Hour: 9, Second: 1},
	}
	for _, tm := range invalidTimes {
		require.ErrorIs(t, ValidateSlotTime(tm), ErrInvalidSlotTime, tm.String())
	}
}

func TestValidateSlotDate(t *testing.T) {
	now := civil.DateTime{Date: today, Time: civil.Time{Hour: 8, Minute: 15}}

	require.NoError(t, ValidateSlotDate(today, now))
	require.NoError(t, ValidateSlotDate(yesterday, now))
	require.ErrorIs(t, ValidateSlotDate(today.AddDays(-2), now), ErrInvalidSlotDate)
	require.ErrorIs(t, ValidateSlotDate(civil.Date{Year: 2030, Month: 2, Day: 30}, now), ErrInvalidSlotDate)
}

func TestValidateSlotStart(t *testing.T) {
	now := civil.DateTime{Date: today, Time: civil.Time{Hour: 8, Minute: 15}}

	require.NoError(t, ValidateSlotStart(today, civil.Time{Hour: 8, Minute: 30}, now))
	require.NoError(t, ValidateSlotStart(tomorrow, OpeningTime, now))
	require.ErrorIs(t, ValidateSlotStart(today, civil.Time{Hour: 8}, now), ErrInvalidSlotTime)
	require.ErrorIs(t, ValidateSlotStart(yesterday, nineAM, now), ErrInvalidSlotDate)
	require.ErrorIs(t, ValidateSlotStart(yesterday, civil.Time{Hour: 6}, now), ErrInvalidSlotDate,
		"the date is reported before the time")
}

func TestDiagnostic(t *testing.T) {
	assert.Empty(t, Diagnostic(nil))
	assert.Equal(t, "Patient name cannot contain numbers!", Diagnostic(ValidatePatientName("R2D2 Droid")))
	assert.Equal(t, "boom", Diagnostic(errors.New("boom")))
}
