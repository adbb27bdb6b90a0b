// Package dashboard keeps the hub owner's local view of the request queue
// and reconciles it optimistically against the HTTP API.
//
// A state-changing command mutates the local view immediately, before the
// server confirms. The store retains an undo record for the duration of the
// round trip: a success discards it, any failure reverses exactly the
// optimistic mutation. At most one command per request id may be in flight.
package dashboard

import (
	"errors"
	"sync"
	"time"
)

// ErrCommandInFlight is returned when a second command targets a request id
// whose first round trip has not resolved yet.
var ErrCommandInFlight = errors.New("a command for this request is already in flight")

// QueueItem is one pending request as shown in the dashboard queue.
type QueueItem struct {
	RequestID     string
	Token         string
	RequesterName string
	TargetName    string
	Message       string
	Urgency       string
	SubmittedAt   time.Time
}

// State is the dashboard's local aggregate view.
type State struct {
	Queue       []QueueItem
	ActiveCount int
}

func (s State) clone() State {
	queue := make([]QueueItem, len(s.Queue))
	copy(queue, s.Queue)
	return State{Queue: queue, ActiveCount: s.ActiveCount}
}

// undo records how to reverse one optimistic queue removal.
type undo struct {
	item  QueueItem
	index int
	found bool
}

// Store holds the local view and its in-flight undo records.
type Store struct {
	mu       sync.Mutex
	state    State
	inFlight map[string]undo
}

// NewStore constructs an empty dashboard store.
func NewStore() *Store {
	return &Store{inFlight: make(map[string]undo)}
}

// Replace swaps in a freshly fetched server view.
func (s *Store) Replace(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.clone()
}

// View returns a copy of the current local state.
func (s *Store) View() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Item returns the queued entry for a request id.
func (s *Store) Item(requestID string) (QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.state.Queue {
		if item.RequestID == requestID {
			return item, true
		}
	}
	return QueueItem{}, false
}

// Txn is one optimistic command round trip. Exactly one of Commit or
// Rollback must be called.
type Txn struct {
	store     *Store
	requestID string
	done      bool
}

// BeginRemove optimistically removes a request from the queue, adjusts the
// active counter, and reserves the request id until the round trip
// resolves. Removing an id that is not queued is a valid no-op mutation:
// the reservation still guards against a duplicate command.
func (s *Store) BeginRemove(requestID string) (*Txn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[requestID]; busy {
		return nil, ErrCommandInFlight
	}

	record := undo{}
	for idx, item := range s.state.Queue {
		if item.RequestID == requestID {
			record = undo{item: item, index: idx, found: true}
			s.state.Queue = append(s.state.Queue[:idx], s.state.Queue[idx+1:]...)
			s.state.ActiveCount--
			break
		}
	}
	s.inFlight[requestID] = record
	return &Txn{store: s, requestID: requestID}, nil
}

// Commit keeps the optimistic state and discards the undo record.
func (t *Txn) Commit() {
	if t == nil || t.done {
		return
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	delete(t.store.inFlight, t.requestID)
}

// Rollback reverses the optimistic mutation: the removed item is reinserted
// at its original position and the counter restored.
func (t *Txn) Rollback() {
	if t == nil || t.done {
		return
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	record, ok := t.store.inFlight[t.requestID]
	delete(t.store.inFlight, t.requestID)
	if !ok || !record.found {
		return
	}
	queue := t.store.state.Queue
	index := record.index
	if index > len(queue) {
		index = len(queue)
	}
	queue = append(queue, QueueItem{})
	copy(queue[index+1:], queue[index:])
	queue[index] = record.item
	t.store.state.Queue = queue
	t.store.state.ActiveCount++
}
