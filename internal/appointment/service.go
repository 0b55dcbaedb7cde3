package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/hackgods/clinic-appointment-booking/internal/booking"
	"github.com/hackgods/clinic-appointment-booking/internal/logging"
	"github.com/hackgods/clinic-appointment-booking/internal/metrics"
	redisclient "github.com/hackgods/clinic-appointment-booking/internal/redis"
)

// Service is the entry point of every clinic operation. The stores are not
// safe for concurrent use, so one reader/writer lock covers all of them:
// booking validation reads three stores and cannot be split.
type Service struct {
	mu      sync.RWMutex
	clinic  *booking.Clinic
	repo    Repository
	logger  *slog.Logger
	metrics *metrics.BookingMetrics
}

func NewService(clinic *booking.Clinic, repo Repository, logger *slog.Logger, m *metrics.BookingMetrics) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		clinic:  clinic,
		repo:    repo,
		logger:  logger,
		metrics: m,
	}
}

// Load replaces the stores with the persisted clinic. On any failure the
// stores are left empty, the failure is logged and returned; callers may
// keep running with an empty clinic.
func (s *Service) Load(ctx context.Context) error {
	start := time.Now()
	snap, err := s.repo.Load(ctx)

	s.mu.Lock()
	if err == nil {
		err = s.clinic.Restore(snap)
	} else {
		_ = s.clinic.Restore(booking.Snapshot{})
	}
	s.refreshSizes()
	patients, services, slots := s.clinic.Patients.Len(), s.clinic.Services.Len(), s.clinic.Slots.Len()
	s.mu.Unlock()

	s.metrics.ObservePersistence("load", err, time.Since(start).Seconds())
	if err != nil {
		s.logger.ErrorContext(ctx, "load clinic data failed, starting with empty stores", "error", err)
		return fmt.Errorf("load clinic: %w", err)
	}

	s.logger.InfoContext(ctx, "clinic data loaded",
		"patients", patients,
		"services", services,
		"slots", slots,
	)
	return nil
}

// Save writes all three stores.
func (s *Service) Save(ctx context.Context) error {
	start := time.Now()

	s.mu.RLock()
	snap := s.clinic.Snapshot()
	s.mu.RUnlock()

	err := s.repo.Save(ctx, snap)
	s.metrics.ObservePersistence("save", err, time.Since(start).Seconds())
	if err != nil {
		s.logger.ErrorContext(ctx, "save clinic data failed", "error", err)
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return fmt.Errorf("%w: %w", ErrStoreBusy, err)
		}
		return fmt.Errorf("save clinic: %w", err)
	}

	s.logger.InfoContext(ctx, "clinic data saved",
		"patients", len(snap.Patients),
		"services", len(snap.Services),
		"slots", len(snap.Slots),
	)
	return nil
}

// Today is the current civil date at the clinic.
func (s *Service) Today() civil.Date {
	return s.clinic.Today()
}

// refreshSizes must be called with the lock held.
func (s *Service) refreshSizes() {
	s.metrics.SetStoreSizes(s.clinic.Patients.Len(), s.clinic.Services.Len(), s.clinic.Slots.Len())
}

// mutate runs fn under the write lock and logs the outcome.
func (s *Service) mutate(ctx context.Context, op string, fn func() error, attrs ...any) error {
	s.mu.Lock()
	err := fn()
	s.refreshSizes()
	s.mu.Unlock()

	if err != nil {
		s.logger.DebugContext(ctx, op+" failed", append(attrs, "error", err)...)
		return err
	}
	s.logger.DebugContext(ctx, op, attrs...)
	return nil
}

func notFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, booking.ErrNotFound)
}
