package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-appointment-booking/internal/appointment"
	"github.com/hackgods/clinic-appointment-booking/internal/booking"
)

func (req ServiceRequest) input() appointment.ServiceInput {
	return appointment.ServiceInput{
		Title:          req.Title,
		MaxSlotsPerDay: req.MaxSlotsPerDay,
		PricePerSlot:   req.PricePerSlot,
	}
}

func createServiceHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ServiceRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		s, err := svc.AddService(r.Context(), req.input())
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toServiceResponse(s))
	}
}

// listServicesHandler returns services in the order they were added, or by
// title and price with ?order=display.
func listServicesHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := appointment.ServiceQuery{
			TitleContains: r.URL.Query().Get("title"),
			DisplayOrder:  r.URL.Query().Get("order") == "display",
		}

		services := svc.Services(r.Context(), q)
		resp := make([]ServiceResponse, 0, len(services))
		for _, s := range services {
			resp = append(resp, toServiceResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getServiceHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.GetService(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toServiceResponse(s))
	}
}

func replaceServiceHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ServiceRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		s, err := svc.ReplaceService(r.Context(), chi.URLParam(r, "id"), req.input())
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toServiceResponse(s))
	}
}

func retitleServiceHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TitleRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		respondService(w)(svc.RetitleService(r.Context(), chi.URLParam(r, "id"), req.Title))
	}
}

func setMaxSlotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MaxSlotsRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		respondService(w)(svc.SetServiceMaxSlots(r.Context(), chi.URLParam(r, "id"), req.MaxSlotsPerDay))
	}
}

func setPriceHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PriceRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		respondService(w)(svc.SetServicePrice(r.Context(), chi.URLParam(r, "id"), req.PricePerSlot))
	}
}

func rekeyServiceHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RekeyRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		respondService(w)(svc.RekeyService(r.Context(), chi.URLParam(r, "id"), req.NewID))
	}
}

func respondService(w http.ResponseWriter) func(booking.Service, error) {
	return func(s booking.Service, err error) {
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toServiceResponse(s))
	}
}

func deleteServiceHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.DeleteService(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, CancelledResponse{Cancelled: n})
	}
}
