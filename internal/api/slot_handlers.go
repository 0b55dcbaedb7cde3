package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-appointment-booking/internal/appointment"
	"github.com/hackgods/clinic-appointment-booking/internal/booking"
)

func bookSlotHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookSlotRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		d, err := booking.ParseDate(req.Date)
		if err != nil {
			handleError(w, err)
			return
		}
		t, err := booking.ParseTime(req.Time)
		if err != nil {
			handleError(w, err)
			return
		}

		detail, err := svc.Book(r.Context(), booking.Booking{
			Date:      d,
			Time:      t,
			ServiceID: req.ServiceID,
			PatientID: req.PatientID,
		})
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSlotResponse(detail))
	}
}

// parseFilter reads date, time, service_id and patient_id from the query.
func parseFilter(q url.Values) (booking.Filter, error) {
	f := booking.Filter{
		ServiceID: q.Get("service_id"),
		PatientID: q.Get("patient_id"),
	}
	if raw := q.Get("date"); raw != "" {
		d, err := booking.ParseDate(raw)
		if err != nil {
			return booking.Filter{}, err
		}
		f.Date = &d
	}
	if raw := q.Get("time"); raw != "" {
		t, err := booking.ParseTime(raw)
		if err != nil {
			return booking.Filter{}, err
		}
		f.Time = &t
	}
	return f, nil
}

func listSlotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r.URL.Query())
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponses(svc.Slots(r.Context(), f)))
	}
}

func getSlotHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := svc.Slot(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(detail))
	}
}

func updateSlotHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateSlotRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		change := appointment.SlotChange{ServiceID: req.ServiceID, PatientID: req.PatientID}
		if req.Date != nil {
			d, err := booking.ParseDate(*req.Date)
			if err != nil {
				handleError(w, err)
				return
			}
			change.Date = &d
		}
		if req.Time != nil {
			t, err := booking.ParseTime(*req.Time)
			if err != nil {
				handleError(w, err)
				return
			}
			change.Time = &t
		}

		detail, err := svc.UpdateSlot(r.Context(), chi.URLParam(r, "id"), change)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(detail))
	}
}

func cancelSlotHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CancelSlot(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// cancelSlotsHandler cancels the slots listed in the body, or every slot
// matching the query filters when there is no body.
func cancelSlotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			var req CancelSlotsRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			n, err := svc.CancelSlots(r.Context(), req.IDs)
			if err != nil {
				handleError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, CancelledResponse{Cancelled: n})
			return
		}

		f, err := parseFilter(r.URL.Query())
		if err != nil {
			handleError(w, err)
			return
		}
		n, err := svc.CancelWhere(r.Context(), f)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, CancelledResponse{Cancelled: n})
	}
}

func availabilityHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("date")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required")
			return
		}
		d, err := booking.ParseDate(raw)
		if err != nil {
			handleError(w, err)
			return
		}

		slots := svc.Availability(r.Context(), d, r.URL.Query().Get("service_id"))
		writeJSON(w, http.StatusOK, toSlotResponses(slots))
	}
}
