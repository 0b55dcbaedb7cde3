package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hackgods/clinic-appointment-booking/internal/appointment"
	"github.com/hackgods/clinic-appointment-booking/internal/booking"
	"github.com/hackgods/clinic-appointment-booking/internal/config"
	"github.com/hackgods/clinic-appointment-booking/internal/logging"
	"github.com/hackgods/clinic-appointment-booking/internal/metrics"
	"github.com/hackgods/clinic-appointment-booking/internal/storage"
)

// demoServices are the services every fresh clinic starts with.
var demoServices = []appointment.ServiceInput{
	{Title: "Procedure", MaxSlotsPerDay: 15, PricePerSlot: 50},
	{Title: "Generic", MaxSlotsPerDay: 20, PricePerSlot: 100},
	{Title: "Specialized", MaxSlotsPerDay: 10, PricePerSlot: 150},
	{Title: "Operation", MaxSlotsPerDay: 5, PricePerSlot: 1000},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info").Error("config load error", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	logger.Info("seed starting", "backend", cfg.StoreBackend)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opened, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("storage open error", "error", err)
		os.Exit(1)
	}
	defer opened.Close()

	svc := appointment.NewService(booking.NewClinic(booking.WithLocation(cfg.Location)), opened.Store, logger, metrics.NewBookingMetrics(nil))

	patients := getInt("SEED_PATIENTS", 50)
	bookings := getInt("SEED_BOOKINGS", 40)

	// Seeding adds to what is already stored; a store that cannot be read is
	// left alone rather than overwritten.
	if err := svc.Load(ctx); err != nil {
		logger.Error("existing clinic data could not be loaded, nothing seeded", "error", err)
		opened.Close()
		os.Exit(1)
	}

	if err := seed(ctx, logger, svc, patients, bookings); err != nil {
		logger.Error("seed failed", "error", err)
		opened.Close()
		os.Exit(1)
	}
	if err := svc.Save(ctx); err != nil {
		opened.Close()
		os.Exit(1)
	}
	logger.Info("seed complete")
}

// seed adds the demo services when the clinic has none, random patients and
// bookings spread over the next week. Rejected bookings are counted and skipped.
func seed(ctx context.Context, logger *slog.Logger, svc *appointment.Service, patientCount, bookingCount int) error {
	services := svc.Services(ctx, appointment.ServiceQuery{})
	if len(services) == 0 {
		var err error
		services, err = svc.AddServices(ctx, demoServices)
		if err != nil {
			return err
		}
		logger.Info("services seeded", "count", len(services))
	} else {
		logger.Info("services already present, demo services skipped", "count", len(services))
	}

	patients := make([]appointment.PatientInput, 0, patientCount)
	seen := make(map[string]bool, patientCount)
	for len(patients) < patientCount {
		p := fakePatient()
		if seen[p.ID] || booking.ValidatePatientName(p.Name) != nil {
			continue
		}
		seen[p.ID] = true
		if _, err := svc.Patient(ctx, p.ID); err == nil {
			continue
		}
		patients = append(patients, p)
	}
	added, err := svc.AddPatients(ctx, patients)
	if err != nil {
		return err
	}
	logger.Info("patients seeded", "count", len(added))

	if len(added) == 0 || bookingCount <= 0 {
		return nil
	}
	first := svc.Today().AddDays(1)
	grid := booking.TimeGrid(first)

	booked, rejected := 0, 0
	for attempt := 0; booked < bookingCount && attempt < bookingCount*10; attempt++ {
		b := booking.Booking{
			Date:      first.AddDays(gofakeit.Number(0, 6)),
			Time:      grid[gofakeit.Number(0, len(grid)-1)],
			ServiceID: services[gofakeit.Number(0, len(services)-1)].ID(),
			PatientID: added[gofakeit.Number(0, len(added)-1)].ID(),
		}
		_, err := svc.Book(ctx, b)
		switch {
		case err == nil:
			booked++
		case errors.Is(err, booking.ErrBookingRejected):
			rejected++
		default:
			return err
		}
	}
	logger.Info("slots seeded", "booked", booked, "rejected", rejected)
	return nil
}

// fakePatient draws a resident with an 11 digit QID or a visitor with a
// 12 digit visa number.
func fakePatient() appointment.PatientInput {
	if gofakeit.Bool() {
		return appointment.PatientInput{
			ID:        gofakeit.Numerify("###########"),
			Name:      gofakeit.Name(),
			Residency: booking.Resident,
		}
	}
	return appointment.PatientInput{
		ID:        gofakeit.Numerify("############"),
		Name:      gofakeit.Name(),
		Residency: booking.Visitor,
	}
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
