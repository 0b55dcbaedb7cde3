package appointment

import (
	"context"
	"errors"

	"github.com/hackgods/clinic-appointment-booking/internal/booking"
)

var ErrStoreBusy = errors.New("clinic data is being saved by another process, please retry")

// Repository loads and saves the whole clinic. *storage.Store implements it.
type Repository interface {
	Load(ctx context.Context) (booking.Snapshot, error)
	Save(ctx context.Context, snap booking.Snapshot) error
}
