package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackgods/clinic-appointment-booking/internal/appointment"
	"github.com/hackgods/clinic-appointment-booking/internal/logging"
)

type RouterConfig struct {
	Service *appointment.Service
	Logger  *slog.Logger
	// Checks are pinged by /health/ready, keyed by dependency name.
	Checks map[string]PingFunc
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	svc := cfg.Service

	r.Route("/patients", func(r chi.Router) {
		r.Post("/", createPatientHandler(svc))
		r.Get("/", listPatientsHandler(svc))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getPatientHandler(svc))
			r.Put("/", replacePatientHandler(svc))
			r.Delete("/", deletePatientHandler(svc))
			r.Patch("/name", renamePatientHandler(svc))
			r.Patch("/residency", changeResidencyHandler(svc))
			r.Post("/rekey", rekeyPatientHandler(svc))
		})
	})

	r.Route("/services", func(r chi.Router) {
		r.Post("/", createServiceHandler(svc))
		r.Get("/", listServicesHandler(svc))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getServiceHandler(svc))
			r.Put("/", replaceServiceHandler(svc))
			r.Delete("/", deleteServiceHandler(svc))
			r.Patch("/title", retitleServiceHandler(svc))
			r.Patch("/max-slots", setMaxSlotsHandler(svc))
			r.Patch("/price", setPriceHandler(svc))
			r.Post("/rekey", rekeyServiceHandler(svc))
		})
	})

	r.Route("/slots", func(r chi.Router) {
		r.Post("/", bookSlotHandler(svc))
		r.Get("/", listSlotsHandler(svc))
		r.Delete("/", cancelSlotsHandler(svc))
		r.Get("/{id}", getSlotHandler(svc))
		r.Patch("/{id}", updateSlotHandler(svc))
		r.Delete("/{id}", cancelSlotHandler(svc))
	})

	r.Get("/availability", availabilityHandler(svc))

	return r
}
