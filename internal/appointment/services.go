package appointment

import (
	"context"

	"github.com/hackgods/clinic-appointment-booking/internal/booking"
)

func (s *Service) AddService(ctx context.Context, in ServiceInput) (booking.Service, error) {
	svc, err := booking.NewService(in.Title, in.MaxSlotsPerDay, in.PricePerSlot)
	if err != nil {
		return booking.Service{}, err
	}
	err = s.mutate(ctx, "add service", func() error {
		return s.clinic.Services.Add(svc)
	}, "service_id", svc.ID(), "title", svc.Title())
	if err != nil {
		return booking.Service{}, err
	}
	return svc, nil
}

// AddServices adds every service or none, keeping the given order.
func (s *Service) AddServices(ctx context.Context, in []ServiceInput) ([]booking.Service, error) {
	services := make([]booking.Service, 0, len(in))
	for _, si := range in {
		svc, err := booking.NewService(si.Title, si.MaxSlotsPerDay, si.PricePerSlot)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	err := s.mutate(ctx, "add services", func() error {
		return s.clinic.Services.AddAll(services)
	}, "count", len(services))
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (s *Service) GetService(ctx context.Context, id string) (booking.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.clinic.Services.Get(id)
	if !ok {
		return booking.Service{}, notFound("service", id)
	}
	return svc, nil
}

// Services lists services in insertion order, or display order when asked.
func (s *Service) Services(ctx context.Context, q ServiceQuery) []booking.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var base []booking.Service
	if q.DisplayOrder {
		base = s.clinic.Services.DisplayOrder()
	} else {
		base = s.clinic.Services.InsertionOrder()
	}
	if q.Title == "" && q.TitleContains == "" {
		return base
	}

	var matches []booking.Service
	if q.Title != "" {
		matches = s.clinic.Services.ByTitle(q.Title)
	} else {
		matches = s.clinic.Services.SearchTitle(q.TitleContains)
	}
	keep := make(map[string]bool, len(matches))
	for _, m := range matches {
		keep[m.ID()] = true
	}
	out := make([]booking.Service, 0, len(matches))
	for _, svc := range base {
		if keep[svc.ID()] {
			out = append(out, svc)
		}
	}
	return out
}

func (s *Service) ReplaceService(ctx context.Context, id string, in ServiceInput) (booking.Service, error) {
	var updated booking.Service
	err := s.mutate(ctx, "replace service", func() error {
		if !s.clinic.Services.Has(id) {
			return notFound("service", id)
		}
		svc, err := booking.NewService(in.Title, in.MaxSlotsPerDay, in.PricePerSlot)
		if err != nil {
			return err
		}
		if err := s.clinic.Services.Replace(id, svc); err != nil {
			return err
		}
		updated, _ = s.clinic.Services.Get(id)
		return nil
	}, "service_id", id)
	return updated, err
}

func (s *Service) RetitleService(ctx context.Context, id, title string) (booking.Service, error) {
	return s.updateService(ctx, "retitle service", id, func() error {
		return s.clinic.Services.UpdateTitle(id, title)
	})
}

func (s *Service) SetServiceMaxSlots(ctx context.Context, id string, n int) (booking.Service, error) {
	return s.updateService(ctx, "set service max slots", id, func() error {
		return s.clinic.Services.UpdateMaxSlots(id, n)
	})
}

func (s *Service) SetServicePrice(ctx context.Context, id string, price float64) (booking.Service, error) {
	return s.updateService(ctx, "set service price", id, func() error {
		return s.clinic.Services.UpdatePrice(id, price)
	})
}

func (s *Service) updateService(ctx context.Context, op, id string, fn func() error) (booking.Service, error) {
	var updated booking.Service
	err := s.mutate(ctx, op, func() error {
		if err := fn(); err != nil {
			return err
		}
		updated, _ = s.clinic.Services.Get(id)
		return nil
	}, "service_id", id)
	return updated, err
}

// RekeyService renames the service id and moves its slots along.
func (s *Service) RekeyService(ctx context.Context, oldID, newID string) (booking.Service, error) {
	var updated booking.Service
	err := s.mutate(ctx, "rekey service", func() error {
		if err := s.clinic.Services.Rekey(oldID, newID); err != nil {
			return err
		}
		updated, _ = s.clinic.Services.Get(newID)
		return nil
	}, "old_id", oldID, "new_id", newID)
	return updated, err
}

// DeleteService removes the service and returns how many slots were cancelled.
func (s *Service) DeleteService(ctx context.Context, id string) (int, error) {
	cancelled := 0
	err := s.mutate(ctx, "delete service", func() error {
		before := s.clinic.Slots.Len()
		if err := s.clinic.Services.Delete(id); err != nil {
			return err
		}
		cancelled = before - s.clinic.Slots.Len()
		return nil
	}, "service_id", id)
	s.metrics.ObserveCancelled(cancelled)
	return cancelled, err
}
