package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"chemecare/internal/domain"
)

// EventStore is the durable event log. The backing file is a JSON array,
// most-recent-first, rewritten in full on every mutation. Reads at open time
// fail open to an empty log so the dashboard always starts.
type EventStore struct {
	path string
	Now  func() time.Time

	mu     sync.Mutex
	events []domain.Event
}

// OpenEvents loads the store from path. Any read or parse failure yields an
// empty collection; the error is intentionally discarded (fail-open).
func OpenEvents(path string) *EventStore {
	s := &EventStore{path: path, Now: time.Now}
	s.events = loadEvents(path)
	return s
}

func loadEvents(path string) []domain.Event {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var events []domain.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil
	}
	return events
}

// Append creates an event with a fresh id and Pending status, inserts it at
// the front, and rewrites the backing file. On a write error the in-memory
// insert stands and the error is surfaced; durable storage is best-effort.
func (s *EventStore) Append(eventType, details string) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e := domain.Event{
		ID:      s.freshID(now),
		Type:    eventType,
		Details: details,
		Time:    now,
		Status:  domain.StatusPending,
	}
	s.events = append([]domain.Event{e}, s.events...)
	return e, s.save()
}

// freshID derives a millisecond-epoch id, bumped past any collision with an
// existing record.
func (s *EventStore) freshID(now time.Time) int64 {
	id := now.UnixMilli()
	for s.indexOf(id) >= 0 {
		id++
	}
	return id
}

// List returns the most-recent-first view, truncated to limit when limit > 0.
func (s *EventStore) List(limit int) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Event, n)
	copy(out, s.events[:n])
	return out
}

// Len returns the number of stored events.
func (s *EventStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Get returns the event with the given id.
func (s *EventStore) Get(id int64) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.events[i], nil
	}
	return domain.Event{}, fmt.Errorf("event %d: %w", id, ErrNotFound)
}

// SetStatus mutates one event's status in place and rewrites the file. This
// is the only field mutation after creation.
func (s *EventStore) SetStatus(id int64, status string) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return domain.Event{}, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	s.events[i].Status = status
	return s.events[i], s.save()
}

// MatchDetails returns the first event, in store order, whose details contain
// needle as a substring. Used to join AI todo text back to the log; duplicate
// event text can mis-associate, which is accepted.
func (s *EventStore) MatchDetails(needle string) (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if needle != "" && strings.Contains(e.Details, needle) {
			return e, true
		}
	}
	return domain.Event{}, false
}

func (s *EventStore) indexOf(id int64) int {
	for i, e := range s.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *EventStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// save rewrites the whole file. No rename or locking; concurrent writers
// against the same backing file can race (accepted limitation).
func (s *EventStore) save() error {
	data, err := json.MarshalIndent(s.events, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
