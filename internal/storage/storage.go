// Package storage persists the clinic stores between runs. Each store is
// written as one JSON document ("stream") to a pluggable backend.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hackgods/clinic-appointment-booking/internal/booking"
)

var ErrPersistence = errors.New("persistence failure")

type Stream string

const (
	StreamPatients Stream = "patients"
	StreamServices Stream = "services"
	StreamSlots    Stream = "slots"
)

var Streams = []Stream{StreamPatients, StreamServices, StreamSlots}

// Document is the encoded content of one stream.
type Document struct {
	Stream  Stream
	Payload []byte
}

// Backend stores documents by stream name. The Postgres and Redis backends
// replace every given stream together. The file backend replaces each stream
// on its own: a failed Write leaves the streams it had not reached as they
// were, but streams already renamed into place keep the new content.
type Backend interface {
	// Read returns found=false when the stream was never written.
	Read(ctx context.Context, stream Stream) (payload []byte, found bool, err error)
	Write(ctx context.Context, docs []Document) error
	Name() string
}

type Store struct {
	backend Backend
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) Backend() string { return s.backend.Name() }

// Load reads all three streams. Streams that were never saved decode as
// empty, so a fresh deployment loads an empty clinic.
func (s *Store) Load(ctx context.Context) (booking.Snapshot, error) {
	var snap booking.Snapshot
	targets := map[Stream]any{
		StreamPatients: &snap.Patients,
		StreamServices: &snap.Services,
		StreamSlots:    &snap.Slots,
	}
	for _, stream := range Streams {
		payload, found, err := s.backend.Read(ctx, stream)
		if err != nil {
			return booking.Snapshot{}, fmt.Errorf("%w: read %s from %s: %w", ErrPersistence, stream, s.backend.Name(), err)
		}
		if !found {
			continue
		}
		if err := json.Unmarshal(payload, targets[stream]); err != nil {
			return booking.Snapshot{}, fmt.Errorf("%w: decode %s: %w", ErrPersistence, stream, err)
		}
	}
	return snap, nil
}

func (s *Store) Save(ctx context.Context, snap booking.Snapshot) error {
	values := map[Stream]any{
		StreamPatients: nonNil(snap.Patients),
		StreamServices: nonNil(snap.Services),
		StreamSlots:    nonNil(snap.Slots),
	}
	docs := make([]Document, 0, len(Streams))
	for _, stream := range Streams {
		payload, err := json.Marshal(values[stream])
		if err != nil {
			return fmt.Errorf("%w: encode %s: %w", ErrPersistence, stream, err)
		}
		docs = append(docs, Document{Stream: stream, Payload: payload})
	}
	if err := s.backend.Write(ctx, docs); err != nil {
		return fmt.Errorf("%w: write to %s: %w", ErrPersistence, s.backend.Name(), err)
	}
	return nil
}

// nonNil keeps empty stores encoded as [] rather than null.
func nonNil[T any](records []T) []T {
	if records == nil {
		return []T{}
	}
	return records
}
