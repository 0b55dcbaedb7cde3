package booking

import (
	"slices"
	"strings"
)

// ServiceStore keeps services keyed by id and remembers the order in which
// they were added; available slots are listed in that order.
type ServiceStore struct {
	clinic *Clinic
	byID   map[string]Service
	seq    map[string]int
	next   int
}

func (s *ServiceStore) reset() {
	s.byID = make(map[string]Service)
	s.seq = make(map[string]int)
	s.next = 0
}

func (s *ServiceStore) Add(svc Service) error {
	if svc.id == "" {
		return invalid(ErrInvalidServiceTitle, "Service %q has no id!", svc.title)
	}
	if _, ok := s.byID[svc.id]; ok {
		return duplicate("service", svc.id)
	}
	s.byID[svc.id] = svc
	s.seq[svc.id] = s.next
	s.next++
	return nil
}

// AddAll adds every service or none.
func (s *ServiceStore) AddAll(services []Service) error {
	seen := make(map[string]struct{}, len(services))
	for _, svc := range services {
		if svc.id == "" {
			return invalid(ErrInvalidServiceTitle, "Service %q has no id!", svc.title)
		}
		if _, ok := s.byID[svc.id]; ok {
			return duplicate("service", svc.id)
		}
		if _, ok := seen[svc.id]; ok {
			return duplicate("service", svc.id)
		}
		seen[svc.id] = struct{}{}
	}
	for _, svc := range services {
		_ = s.Add(svc)
	}
	return nil
}

func (s *ServiceStore) Get(id string) (Service, bool) {
	svc, ok := s.byID[id]
	return svc, ok
}

func (s *ServiceStore) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *ServiceStore) Len() int { return len(s.byID) }

func (s *ServiceStore) IDs() []string {
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// All returns every service ordered by id.
func (s *ServiceStore) All() []Service {
	out := make([]Service, 0, len(s.byID))
	for _, id := range s.IDs() {
		out = append(out, s.byID[id])
	}
	return out
}

// InsertionOrder returns every service in the order it was added.
func (s *ServiceStore) InsertionOrder() []Service {
	out := make([]Service, 0, len(s.byID))
	for _, svc := range s.byID {
		out = append(out, svc)
	}
	slices.SortFunc(out, func(a, b Service) int { return s.seq[a.id] - s.seq[b.id] })
	return out
}

// DisplayOrder returns every service ordered by title then price.
func (s *ServiceStore) DisplayOrder() []Service {
	out := s.All()
	slices.SortStableFunc(out, Service.Compare)
	return out
}

// ByTitle is a linear scan for services with exactly this title.
func (s *ServiceStore) ByTitle(title string) []Service {
	out := make([]Service, 0)
	for _, svc := range s.All() {
		if svc.title == title {
			out = append(out, svc)
		}
	}
	return out
}

// SearchTitle matches a case-insensitive substring of the title.
func (s *ServiceStore) SearchTitle(fragment string) []Service {
	fragment = strings.ToLower(fragment)
	out := make([]Service, 0)
	for _, svc := range s.All() {
		if strings.Contains(strings.ToLower(svc.title), fragment) {
			out = append(out, svc)
		}
	}
	return out
}

// order is the position of the service in insertion order, or -1.
func (s *ServiceStore) order(id string) int {
	if n, ok := s.seq[id]; ok {
		return n
	}
	return -1
}

// Replace overwrites the fields of the service stored under id.
func (s *ServiceStore) Replace(id string, svc Service) error {
	cur, ok := s.byID[id]
	if !ok {
		return notFound("service", id)
	}
	if err := ValidateServiceTitle(svc.title); err != nil {
		return err
	}
	if err := ValidatePrice(svc.pricePerSlot); err != nil {
		return err
	}
	if err := s.checkCap(cur.id, svc.maxSlots); err != nil {
		return err
	}
	svc.id = id
	s.byID[id] = svc
	return nil
}

// Rekey moves the service from oldID to newID, carrying its slots along.
func (s *ServiceStore) Rekey(oldID, newID string) error {
	svc, ok := s.byID[oldID]
	if !ok {
		return notFound("service", oldID)
	}
	if oldID == newID {
		return nil
	}
	if strings.TrimSpace(newID) == "" {
		return invalid(ErrInvalidServiceTitle, "Service ID cannot be empty!")
	}
	if _, ok := s.byID[newID]; ok {
		return duplicate("service", newID)
	}
	delete(s.byID, oldID)
	svc.id = newID
	s.byID[newID] = svc
	s.seq[newID] = s.seq[oldID]
	delete(s.seq, oldID)
	s.clinic.Slots.reassignService(oldID, newID)
	return nil
}

func (s *ServiceStore) UpdateTitle(id, title string) error {
	svc, ok := s.byID[id]
	if !ok {
		return notFound("service", id)
	}
	if err := ValidateServiceTitle(title); err != nil {
		return err
	}
	svc.title = title
	s.byID[id] = svc
	return nil
}

// UpdateMaxSlots refuses a cap lower than the number of slots already booked
// on any single day for this service.
func (s *ServiceStore) UpdateMaxSlots(id string, n int) error {
	svc, ok := s.byID[id]
	if !ok {
		return notFound("service", id)
	}
	if err := s.checkCap(id, n); err != nil {
		return err
	}
	svc.maxSlots = n
	s.byID[id] = svc
	return nil
}

func (s *ServiceStore) UpdatePrice(id string, price float64) error {
	svc, ok := s.byID[id]
	if !ok {
		return notFound("service", id)
	}
	if err := ValidatePrice(price); err != nil {
		return err
	}
	svc.pricePerSlot = price
	s.byID[id] = svc
	return nil
}

func (s *ServiceStore) checkCap(id string, n int) error {
	if err := ValidateMaxSlots(n); err != nil {
		return err
	}
	if busiest := s.clinic.Slots.busiestDay(id); busiest > n {
		return invalid(ErrInvalidServiceMaxSlots,
			"Maximum number of slots cannot be below the %d slots already booked on one day!", busiest)
	}
	return nil
}

// Delete removes the service and cancels all of its slots.
func (s *ServiceStore) Delete(id string) error {
	if _, ok := s.byID[id]; !ok {
		return notFound("service", id)
	}
	delete(s.byID, id)
	delete(s.seq, id)
	s.clinic.Slots.CancelByService(id)
	return nil
}
