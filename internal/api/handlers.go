package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-appointment-booking/internal/appointment"
	"github.com/hackgods/clinic-appointment-booking/internal/booking"
)

func createPatientHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PatientRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		residency, err := booking.ParseResidency(req.Residency)
		if err != nil {
			handleError(w, err)
			return
		}

		p, err := svc.AddPatient(r.Context(), appointment.PatientInput{ID: req.ID, Name: req.Name, Residency: residency})
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func listPatientsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := appointment.PatientQuery{NameContains: r.URL.Query().Get("name")}
		if raw := r.URL.Query().Get("residency"); raw != "" {
			residency, err := booking.ParseResidency(raw)
			if err != nil {
				handleError(w, err)
				return
			}
			q.Residency = residency
		}

		patients := svc.Patients(r.Context(), q)
		resp := make([]PatientResponse, 0, len(patients))
		for _, p := range patients {
			resp = append(resp, toPatientResponse(p))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getPatientHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Patient(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func replacePatientHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PatientRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		residency, err := booking.ParseResidency(req.Residency)
		if err != nil {
			handleError(w, err)
			return
		}

		p, err := svc.ReplacePatient(r.Context(), chi.URLParam(r, "id"), appointment.PatientInput{Name: req.Name, Residency: residency})
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func renamePatientHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NameRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.RenamePatient(r.Context(), chi.URLParam(r, "id"), req.Name)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func changeResidencyHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResidencyRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		residency, err := booking.ParseResidency(req.Residency)
		if err != nil {
			handleError(w, err)
			return
		}

		p, err := svc.ChangeResidency(r.Context(), chi.URLParam(r, "id"), residency)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func rekeyPatientHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RekeyRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.RekeyPatient(r.Context(), chi.URLParam(r, "id"), req.NewID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func deletePatientHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.DeletePatient(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, CancelledResponse{Cancelled: n})
	}
}
