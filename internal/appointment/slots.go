package appointment

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"

	"github.com/hackgods/clinic-appointment-booking/internal/booking"
)

// Book stores a new slot. Rejections are logged at info level and counted
// by reason.
func (s *Service) Book(ctx context.Context, b booking.Booking) (booking.SlotDetail, error) {
	s.mu.Lock()
	slot, err := s.clinic.Slots.Book(b)
	var detail booking.SlotDetail
	if err == nil {
		detail = s.clinic.Slots.Detail(slot)
	}
	s.refreshSizes()
	s.mu.Unlock()

	if err != nil {
		s.observeRejection(ctx, "book", err, b)
		return booking.SlotDetail{}, err
	}

	s.metrics.ObserveBooking("booked")
	s.logger.DebugContext(ctx, "slot booked",
		"slot_id", slot.ID(),
		"date", slot.Date().String(),
		"time", booking.FormatTime(slot.Time()),
		"service_id", slot.ServiceID(),
		"patient_id", slot.PatientID(),
	)
	return detail, nil
}

func (s *Service) observeRejection(ctx context.Context, op string, err error, b booking.Booking) {
	reason, rejected := booking.RejectionReason(err)
	if !rejected {
		s.metrics.ObserveBooking("error")
		s.logger.DebugContext(ctx, op+" failed", "error", err)
		return
	}
	s.metrics.ObserveBooking(string(reason))
	s.logger.InfoContext(ctx, op+" rejected",
		"reason", reason,
		"date", b.Date.String(),
		"time", booking.FormatTime(b.Time),
		"service_id", b.ServiceID,
		"patient_id", b.PatientID,
	)
}

func (s *Service) Slot(ctx context.Context, id string) (booking.SlotDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.clinic.Slots.ByID(id)
	if !ok {
		return booking.SlotDetail{}, notFound("slot", id)
	}
	return s.clinic.Slots.Detail(slot), nil
}

// Slots lists booked slots matching f by date, time and service order.
func (s *Service) Slots(ctx context.Context, f booking.Filter) []booking.SlotDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.details(s.clinic.Slots.Find(f))
}

// Availability lists the free slots on d, for one service when serviceID is set.
func (s *Service) Availability(ctx context.Context, d civil.Date, serviceID string) []booking.SlotDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if serviceID != "" {
		return s.details(s.clinic.Slots.AvailableOnService(d, serviceID))
	}
	return s.details(s.clinic.Slots.AvailableOn(d))
}

func (s *Service) details(slots []booking.Slot) []booking.SlotDetail {
	out := make([]booking.SlotDetail, 0, len(slots))
	for _, slot := range slots {
		out = append(out, s.clinic.Slots.Detail(slot))
	}
	return out
}

// UpdateSlot moves or reassigns a slot. The slot keeps its id; when the new
// booking is rejected the slot is left as it was.
func (s *Service) UpdateSlot(ctx context.Context, id string, change SlotChange) (booking.SlotDetail, error) {
	s.mu.Lock()
	cur, ok := s.clinic.Slots.ByID(id)
	if !ok {
		s.mu.Unlock()
		return booking.SlotDetail{}, notFound("slot", id)
	}
	want := booking.Booking{Date: cur.Date(), Time: cur.Time(), ServiceID: cur.ServiceID(), PatientID: cur.PatientID()}

	var (
		slot booking.Slot
		err  error
	)
	switch {
	case change.fields() == 0:
		slot = cur
	case change.fields() > 1:
		if change.Date != nil {
			want.Date = *change.Date
		}
		if change.Time != nil {
			want.Time = *change.Time
		}
		if change.ServiceID != nil {
			want.ServiceID = *change.ServiceID
		}
		if change.PatientID != nil {
			want.PatientID = *change.PatientID
		}
		slot, err = s.clinic.Slots.Update(id, want)
	case change.Date != nil:
		want.Date = *change.Date
		slot, err = s.clinic.Slots.UpdateDate(id, want.Date)
	case change.Time != nil:
		want.Time = *change.Time
		slot, err = s.clinic.Slots.UpdateTime(id, want.Time)
	case change.ServiceID != nil:
		want.ServiceID = *change.ServiceID
		slot, err = s.clinic.Slots.UpdateService(id, want.ServiceID)
	default:
		want.PatientID = *change.PatientID
		slot, err = s.clinic.Slots.UpdatePatient(id, want.PatientID)
	}
	var detail booking.SlotDetail
	if err == nil {
		detail = s.clinic.Slots.Detail(slot)
	}
	s.mu.Unlock()

	if err != nil {
		s.observeRejection(ctx, "update slot", err, want)
		return booking.SlotDetail{}, err
	}
	s.logger.DebugContext(ctx, "slot updated", "slot_id", id)
	return detail, nil
}

func (s *Service) CancelSlot(ctx context.Context, id string) error {
	err := s.mutate(ctx, "cancel slot", func() error {
		return s.clinic.Slots.Cancel(id)
	}, "slot_id", id)
	if err == nil {
		s.metrics.ObserveCancelled(1)
	}
	return err
}

// CancelSlots cancels every listed slot, or none when one id is unknown, and
// returns how many were removed.
func (s *Service) CancelSlots(ctx context.Context, ids []string) (int, error) {
	n := 0
	err := s.mutate(ctx, "cancel slots", func() error {
		var err error
		n, err = s.clinic.Slots.CancelMany(ids)
		return err
	}, "ids", len(ids))
	if err != nil {
		return 0, err
	}
	s.metrics.ObserveCancelled(n)
	return n, nil
}

var ErrEmptyFilter = errors.New("at least one of date, time, service or patient is required")

// CancelWhere cancels every slot matching f and returns how many were removed.
// An empty filter is refused rather than wiping the schedule.
func (s *Service) CancelWhere(ctx context.Context, f booking.Filter) (int, error) {
	if f.Date == nil && f.Time == nil && f.ServiceID == "" && f.PatientID == "" {
		return 0, ErrEmptyFilter
	}
	s.mu.Lock()
	n := s.clinic.Slots.CancelWhere(f)
	s.refreshSizes()
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "cancel matching slots", "cancelled", n)
	s.metrics.ObserveCancelled(n)
	return n, nil
}
