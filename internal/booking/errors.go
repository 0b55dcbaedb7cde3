package booking

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPatientID       = errors.New("invalid patient id")
	ErrInvalidPatientName     = errors.New("invalid patient name")
	ErrInvalidServiceTitle    = errors.New("invalid service title")
	ErrInvalidServiceMaxSlots = errors.New("invalid service max slots")
	ErrInvalidServicePrice    = errors.New("invalid service price")
	ErrInvalidSlotDate        = errors.New("invalid slot date")
	ErrInvalidSlotTime        = errors.New("invalid slot time")

	ErrDuplicateKey    = errors.New("duplicate key")
	ErrNotFound        = errors.New("not found")
	ErrBookingRejected = errors.New("booking rejected")
)

// ValidationError is returned by every validator. Kind is one of the
// ErrInvalid* sentinels and Msg is the text shown to the user.
type ValidationError struct {
	Kind error
	Msg  string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return e.Kind }

func invalid(kind error, format string, args ...any) error {
	return &ValidationError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Diagnostic returns the human readable message for err, or "" when err is nil.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Msg
	}
	var be *BookingError
	if errors.As(err, &be) {
		return be.Msg
	}
	return err.Error()
}

type RejectReason string

const (
	ReasonSlotTaken              RejectReason = "slot_taken"
	ReasonPatientDoubleBooked    RejectReason = "patient_double_booked"
	ReasonServiceDailyCapReached RejectReason = "service_daily_cap_reached"
	ReasonInvalidDate            RejectReason = "invalid_date"
	ReasonInvalidTime            RejectReason = "invalid_time"
)

// BookingError reports why a booking could not be stored.
type BookingError struct {
	Reason RejectReason
	Msg    string
	Err    error
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("booking rejected (%s): %s", e.Reason, e.Msg)
}

func (e *BookingError) Is(target error) bool {
	return target == ErrBookingRejected
}

func (e *BookingError) Unwrap() error { return e.Err }

func reject(reason RejectReason, cause error, msg string) error {
	return &BookingError{Reason: reason, Msg: msg, Err: cause}
}

// RejectionReason extracts the reason of a rejected booking.
func RejectionReason(err error) (RejectReason, bool) {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Reason, true
	}
	return "", false
}

func notFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}

func duplicate(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrDuplicateKey)
}
