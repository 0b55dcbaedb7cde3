package booking

import (
	"cmp"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Service is a bookable clinic service with a daily cap on stored slots.
type Service struct {
	id           string
	title        string
	maxSlots     int
	pricePerSlot float64
}

// NewService validates the fields and assigns a fresh opaque id.
func NewService(title string, maxSlots int, pricePerSlot float64) (Service, error) {
	if err := ValidateServiceTitle(title); err != nil {
		return Service{}, err
	}
	if err := ValidateMaxSlots(maxSlots); err != nil {
		return Service{}, err
	}
	if err := ValidatePrice(pricePerSlot); err != nil {
		return Service{}, err
	}
	return Service{
		id:           uuid.NewString(),
		title:        title,
		maxSlots:     maxSlots,
		pricePerSlot: pricePerSlot,
	}, nil
}

func (s Service) ID() string            { return s.id }
func (s Service) Title() string         { return s.title }
func (s Service) MaxSlotsPerDay() int   { return s.maxSlots }
func (s Service) PricePerSlot() float64 { return s.pricePerSlot }

// Equal ignores the id: two services offering the same thing at the same price are equal.
func (s Service) Equal(o Service) bool {
	return s.title == o.title && s.maxSlots == o.maxSlots && s.pricePerSlot == o.pricePerSlot
}

// Compare orders services by title then price, the order used for display.
func (s Service) Compare(o Service) int {
	if c := strings.Compare(s.title, o.title); c != 0 {
		return c
	}
	return cmp.Compare(s.pricePerSlot, o.pricePerSlot)
}

func (s Service) String() string {
	return fmt.Sprintf("ID: %s, Title: %s, Maximum Slots: %d, Price per Slot: QAR %.2f", s.id, s.title, s.maxSlots, s.pricePerSlot)
}

func ValidateServiceTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid(ErrInvalidServiceTitle, "Service title cannot be empty!")
	}
	return nil
}

func ValidateMaxSlots(n int) error {
	if n < 0 {
		return invalid(ErrInvalidServiceMaxSlots, "Maximum number of slots cannot be negative!")
	}
	if n > MaxSlotsPerDay {
		return invalid(ErrInvalidServiceMaxSlots, "Maximum number of slots cannot be above the clinic's limit of %d!", MaxSlotsPerDay)
	}
	return nil
}

func ValidatePrice(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return invalid(ErrInvalidServicePrice, "Price per slot must be a number!")
	}
	if p < 0 {
		return invalid(ErrInvalidServicePrice, "Price per slot cannot be negative!")
	}
	return nil
}
