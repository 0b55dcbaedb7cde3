package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hackgods/clinic-appointment-booking/internal/appointment"
	"github.com/hackgods/clinic-appointment-booking/internal/booking"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON: "+err.Error())
		return false
	}
	return true
}

// handleError maps clinic errors to status codes. The details field carries
// the message meant for the user.
func handleError(w http.ResponseWriter, err error) {
	var (
		be *booking.BookingError
		ve *booking.ValidationError
	)
	switch {
	case errors.As(err, &be):
		status := http.StatusConflict
		if be.Reason == booking.ReasonInvalidDate || be.Reason == booking.ReasonInvalidTime {
			status = http.StatusBadRequest
		}
		writeError(w, status, string(be.Reason), be.Msg)
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, errorCode(ve.Kind), ve.Msg)
	case errors.Is(err, booking.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, booking.ErrDuplicateKey):
		writeError(w, http.StatusConflict, "duplicate_key", err.Error())
	case errors.Is(err, appointment.ErrEmptyFilter):
		writeError(w, http.StatusBadRequest, "empty_filter", err.Error())
	case errors.Is(err, appointment.ErrStoreBusy):
		writeError(w, http.StatusConflict, "store_busy", appointment.ErrStoreBusy.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// errorCode turns "invalid slot time" into "invalid_slot_time".
func errorCode(kind error) string {
	if kind == nil {
		return "invalid_request"
	}
	return strings.ReplaceAll(kind.Error(), " ", "_")
}
