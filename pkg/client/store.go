// Package client is the Go SDK for the booking API. It keeps a local mirror
// of booked slots per mentor so bookings can be pre-checked before they are
// submitted. The server re-validates every booking.
package client

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
)

// Snapshot is the persisted form of the local mirror
type Snapshot struct {
	Mentors map[string]MentorSlots `json:"mentors"`
}

// MentorSlots are the occupied slots of one mentor as of SyncedAt
type MentorSlots struct {
	Slots    []models.BookedSlot `json:"slots"`
	SyncedAt time.Time           `json:"syncedAt"`
}

func emptySnapshot() *Snapshot {
	return &Snapshot{Mentors: make(map[string]MentorSlots)}
}

// Store is the local booked-slot mirror. Every mutation is written through
// to its Persistence.
type Store struct {
	mu          sync.RWMutex
	saveMu      sync.Mutex // taken before mu is released so saves land in mutation order
	snapshot    *Snapshot
	persistence Persistence
}

// NewStore creates an empty store backed by p. A nil p keeps state in memory only.
func NewStore(p Persistence) *Store {
	if p == nil {
		p = NewMemoryPersistence()
	}
	return &Store{snapshot: emptySnapshot(), persistence: p}
}

// Load replaces the in-memory state with what the persistence holds
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.persistence.Load(ctx)
	if err != nil {
		return err
	}
	if snap.Mentors == nil {
		snap.Mentors = make(map[string]MentorSlots)
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	return nil
}

// Replace swaps the slots of one mentor for a freshly synced list
func (s *Store) Replace(ctx context.Context, mentorID string, slots []models.BookedSlot, syncedAt time.Time) error {
	return s.mutate(ctx, func(snap *Snapshot) {
		snap.Mentors[mentorID] = MentorSlots{
			Slots:    append([]models.BookedSlot(nil), slots...),
			SyncedAt: syncedAt.UTC(),
		}
	})
}

// Add records a slot booked through this client
func (s *Store) Add(ctx context.Context, slot models.BookedSlot) error {
	return s.mutate(ctx, func(snap *Snapshot) {
		entry := snap.Mentors[slot.MentorID]
		entry.Slots = append(withoutBooking(entry.Slots, slot.BookingID), slot)
		snap.Mentors[slot.MentorID] = entry
	})
}

// Remove drops a booking from every mentor, e.g. after it was cancelled
func (s *Store) Remove(ctx context.Context, bookingID string) error {
	return s.mutate(ctx, func(snap *Snapshot) {
		for id, entry := range snap.Mentors {
			entry.Slots = withoutBooking(entry.Slots, bookingID)
			snap.Mentors[id] = entry
		}
	})
}

// Slots returns a copy of the known occupied slots of mentorID
func (s *Store) Slots(mentorID string) []models.BookedSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.BookedSlot(nil), s.snapshot.Mentors[mentorID].Slots...)
}

// SyncedAt reports when mentorID was last synced
func (s *Store) SyncedAt(mentorID string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.snapshot.Mentors[mentorID]
	return entry.SyncedAt, ok
}

// Mentors lists the mentors present in the mirror, sorted
func (s *Store) Mentors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.snapshot.Mentors))
	for id := range s.snapshot.Mentors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) mutate(ctx context.Context, fn func(*Snapshot)) error {
	s.mu.Lock()
	fn(s.snapshot)
	copied := cloneSnapshot(s.snapshot)
	s.saveMu.Lock()
	s.mu.Unlock()
	defer s.saveMu.Unlock()

	return s.persistence.Save(ctx, copied)
}

func cloneSnapshot(snap *Snapshot) *Snapshot {
	out := emptySnapshot()
	for id, entry := range snap.Mentors {
		out.Mentors[id] = MentorSlots{
			Slots:    append([]models.BookedSlot(nil), entry.Slots...),
			SyncedAt: entry.SyncedAt,
		}
	}
	return out
}

func withoutBooking(slots []models.BookedSlot, bookingID string) []models.BookedSlot {
	kept := slots[:0:0]
	for _, s := range slots {
		if s.BookingID != bookingID {
			kept = append(kept, s)
		}
	}
	return kept
}
