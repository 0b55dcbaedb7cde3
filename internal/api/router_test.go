package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-appointment-booking/internal/appointment"
	"github.com/hackgods/clinic-appointment-booking/internal/booking"
	"github.com/hackgods/clinic-appointment-booking/internal/metrics"
	"github.com/hackgods/clinic-appointment-booking/internal/storage"
)

const (
	residentID = "12345678901"
	visitorID  = "123456789012"
	tomorrow   = "2030-03-11"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	svc     *appointment.Service
}

func newTestServer(t *testing.T, checks map[string]PingFunc) *testServer {
	t.Helper()
	clinic := booking.NewClinic(
		booking.WithClock(booking.FixedClock(time.Date(2030, time.March, 10, 8, 15, 0, 0, time.UTC))),
		booking.WithLocation(time.UTC),
	)
	reg := prometheus.NewRegistry()
	repo := storage.NewStore(storage.NewFileBackend(t.TempDir()))
	svc := appointment.NewService(clinic, repo, nil, metrics.NewBookingMetrics(reg))
	return &testServer{
		t:   t,
		svc: svc,
		handler: NewRouter(RouterConfig{
			Service:  svc,
			Checks:   checks,
			Gatherer: reg,
			Env:      "test",
			Version:  "v0.0.1",
		}),
	}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// setup creates a resident, a visitor and a service capped at cap bookings per day.
func (s *testServer) setup(cap int) ServiceResponse {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/patients", PatientRequest{ID: residentID, Name: "Mariam Saleh", Residency: "resident"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, "/patients", PatientRequest{ID: visitorID, Name: "John Carter", Residency: "VISITOR"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, "/services", ServiceRequest{Title: "Generic", MaxSlotsPerDay: cap, PricePerSlot: 100})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[ServiceResponse](s.t, rec)
}

func (s *testServer) book(serviceID, patientID, date, tm string) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.do(http.MethodPost, "/slots", BookSlotRequest{Date: date, Time: tm, ServiceID: serviceID, PatientID: patientID})
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, map[string]PingFunc{
		"storage": func(context.Context) error { return nil },
	})

	rec := srv.do(http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v0.0.1", decode[LivenessResponse](t, rec).Version)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = srv.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decode[ReadinessResponse](t, rec)
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, map[string]string{"storage": "ok"}, ready.Dependencies)

	down := newTestServer(t, map[string]PingFunc{
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	})
	rec = down.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "down", decode[ReadinessResponse](t, rec).Dependencies["postgres"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestPatientEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.setup(5)

	rec := srv.do(http.MethodGet, "/patients/"+residentID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[PatientResponse](t, rec)
	assert.Equal(t, "QID", p.Label)
	assert.Equal(t, "RESIDENT", p.Residency)

	rec = srv.do(http.MethodGet, "/patients?residency=visitor", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	visitors := decode[[]PatientResponse](t, rec)
	require.Len(t, visitors, 1)
	assert.Equal(t, "Visa Number", visitors[0].Label)

	rec = srv.do(http.MethodGet, "/patients?name=mari", nil)
	require.Len(t, decode[[]PatientResponse](t, rec), 1)

	rec = srv.do(http.MethodPatch, "/patients/"+residentID+"/name", NameRequest{Name: "Mariam Al Saleh"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mariam Al Saleh", decode[PatientResponse](t, rec).Name)

	rec = srv.do(http.MethodPost, "/patients", PatientRequest{ID: residentID, Name: "Someone Else", Residency: "RESIDENT"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_key", decode[ErrorResponse](t, rec).Error)

	rec = srv.do(http.MethodPost, "/patients", PatientRequest{ID: "123", Name: "Short Id", Residency: "RESIDENT"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_patient_id", decode[ErrorResponse](t, rec).Error)

	rec = srv.do(http.MethodGet, "/patients/99999999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatientRekeyAndDelete(t *testing.T) {
	srv := newTestServer(t, nil)
	generic := srv.setup(5)
	require.Equal(t, http.StatusCreated, srv.book(generic.ID, residentID, tomorrow, "09:00").Code)

	const newID = "10987654321"
	rec := srv.do(http.MethodPost, "/patients/"+residentID+"/rekey", RekeyRequest{NewID: newID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(http.MethodGet, "/slots?patient_id="+newID, nil)
	require.Len(t, decode[[]SlotResponse](t, rec), 1)

	rec = srv.do(http.MethodDelete, "/patients/"+newID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[CancelledResponse](t, rec).Cancelled)

	rec = srv.do(http.MethodGet, "/slots", nil)
	assert.Empty(t, decode[[]SlotResponse](t, rec))
}

func TestServiceEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	generic := srv.setup(5)
	rec := srv.do(http.MethodPost, "/services", ServiceRequest{Title: "Consultation", MaxSlotsPerDay: 10, PricePerSlot: 50})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = srv.do(http.MethodGet, "/services", nil)
	list := decode[[]ServiceResponse](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "Generic", list[0].Title)

	rec = srv.do(http.MethodGet, "/services?order=display", nil)
	list = decode[[]ServiceResponse](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "Consultation", list[0].Title)

	rec = srv.do(http.MethodPatch, "/services/"+generic.ID+"/price", PriceRequest{PricePerSlot: 120})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 120, decode[ServiceResponse](t, rec).PricePerSlot, 0.001)

	rec = srv.do(http.MethodPatch, "/services/"+generic.ID+"/max-slots", MaxSlotsRequest{MaxSlotsPerDay: 29})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_service_max_slots", decode[ErrorResponse](t, rec).Error)

	rec = srv.do(http.MethodPatch, "/services/"+generic.ID+"/title", TitleRequest{Title: "General Checkup"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "General Checkup", decode[ServiceResponse](t, rec).Title)

	rec = srv.do(http.MethodDelete, "/services/"+generic.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = srv.do(http.MethodGet, "/services/"+generic.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	generic := srv.setup(2)

	rec := srv.book(generic.ID, residentID, tomorrow, "09:00")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	slot := decode[SlotResponse](t, rec)
	assert.NotEmpty(t, slot.ID)
	assert.True(t, slot.Booked)
	assert.Equal(t, "09:00", slot.Time)
	require.NotNil(t, slot.Patient)
	assert.Equal(t, "Mariam Saleh", slot.Patient.Name)

	rec = srv.book(generic.ID, visitorID, tomorrow, "09:00")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_taken", decode[ErrorResponse](t, rec).Error)

	rec = srv.book(generic.ID, visitorID, tomorrow, "09:30")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = srv.book(generic.ID, visitorID, tomorrow, "10:00")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "service_daily_cap_reached", decode[ErrorResponse](t, rec).Error)

	rec = srv.book(generic.ID, residentID, "2030-03-09", "09:00")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_date", decode[ErrorResponse](t, rec).Error)

	rec = srv.book(generic.ID, residentID, tomorrow, "09:15")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_time", decode[ErrorResponse](t, rec).Error)

	rec = srv.book(generic.ID, residentID, "11-03-2030", "09:00")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_slot_date", decode[ErrorResponse](t, rec).Error)

	rec = srv.book("missing", residentID, tomorrow, "11:00")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(http.MethodGet, "/slots/"+slot.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(http.MethodGet, "/slots?date="+tomorrow+"&time=09:30", nil)
	found := decode[[]SlotResponse](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, visitorID, found[0].PatientID)

	rec = srv.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `clinic_booking_attempts_total{outcome="slot_taken"} 1`)
}

func TestUpdateSlot(t *testing.T) {
	srv := newTestServer(t, nil)
	generic := srv.setup(5)
	first := decode[SlotResponse](t, srv.book(generic.ID, residentID, tomorrow, "09:00"))
	require.Equal(t, http.StatusCreated, srv.book(generic.ID, visitorID, tomorrow, "10:00").Code)

	ten := "10:00"
	rec := srv.do(http.MethodPatch, "/slots/"+first.ID, UpdateSlotRequest{Time: &ten})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(http.MethodGet, "/slots/"+first.ID, nil)
	assert.Equal(t, "09:00", decode[SlotResponse](t, rec).Time)

	eleven := "11:00"
	rec = srv.do(http.MethodPatch, "/slots/"+first.ID, UpdateSlotRequest{Time: &eleven})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[SlotResponse](t, rec)
	assert.Equal(t, first.ID, moved.ID)
	assert.Equal(t, "11:00", moved.Time)

	rec = srv.do(http.MethodPatch, "/slots/"+first.ID, map[string]string{"room": "4"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request_body", decode[ErrorResponse](t, rec).Error)
}

func TestCancelSlots(t *testing.T) {
	srv := newTestServer(t, nil)
	generic := srv.setup(5)
	a := decode[SlotResponse](t, srv.book(generic.ID, residentID, tomorrow, "09:00"))
	b := decode[SlotResponse](t, srv.book(generic.ID, residentID, tomorrow, "09:30"))
	require.Equal(t, http.StatusCreated, srv.book(generic.ID, visitorID, tomorrow, "09:00").Code)

	rec := srv.do(http.MethodDelete, "/slots/"+a.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = srv.do(http.MethodDelete, "/slots/"+a.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(http.MethodDelete, "/slots", CancelSlotsRequest{IDs: []string{b.ID, "unknown"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = srv.do(http.MethodGet, "/slots/"+b.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(http.MethodDelete, "/slots", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_filter", decode[ErrorResponse](t, rec).Error)

	rec = srv.do(http.MethodDelete, "/slots?date="+tomorrow+"&time=09:00", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[CancelledResponse](t, rec).Cancelled)

	rec = srv.do(http.MethodGet, "/slots", nil)
	left := decode[[]SlotResponse](t, rec)
	require.Len(t, left, 1)
	assert.Equal(t, b.ID, left[0].ID)
}

func TestCancelSlotsReportsRemovedCount(t *testing.T) {
	srv := newTestServer(t, nil)
	generic := srv.setup(5)
	a := decode[SlotResponse](t, srv.book(generic.ID, residentID, tomorrow, "09:00"))
	require.Equal(t, http.StatusCreated, srv.book(generic.ID, residentID, tomorrow, "09:30").Code)

	rec := srv.do(http.MethodDelete, "/slots", CancelSlotsRequest{IDs: []string{a.ID, a.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[CancelledResponse](t, rec).Cancelled)

	rec = srv.do(http.MethodGet, "/slots", nil)
	assert.Len(t, decode[[]SlotResponse](t, rec), 1)

	rec = srv.do(http.MethodGet, "/metrics", nil)
	assert.Contains(t, rec.Body.String(), "clinic_booking_cancelled_slots_total 1")
}

func TestAvailability(t *testing.T) {
	srv := newTestServer(t, nil)
	generic := srv.setup(5)
	require.Equal(t, http.StatusCreated, srv.book(generic.ID, residentID, tomorrow, "09:00").Code)

	rec := srv.do(http.MethodGet, "/availability?date="+tomorrow+"&service_id="+generic.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	free := decode[[]SlotResponse](t, rec)
	assert.Len(t, free, booking.MaxSlotsPerDay-1)
	for _, s := range free {
		assert.False(t, s.Booked)
		assert.Empty(t, s.ID)
		assert.NotEqual(t, "09:00", s.Time)
	}

	rec = srv.do(http.MethodGet, "/availability", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_date", decode[ErrorResponse](t, rec).Error)
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request_body", decode[ErrorResponse](t, rec).Error)
}
