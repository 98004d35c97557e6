package events

import (
	"slices"
	"sync"

	"github.com/biosecret/go-todo/models"
)

// Task event types.
const (
	TaskCreated = "created"
	TaskUpdated = "updated"
	TaskDeleted = "deleted"
	TaskToggled = "toggled"
)

// TaskEvent describes a change that has already been persisted.
type TaskEvent struct {
	Type string      `json:"type"`
	Task models.Task `json:"task"`
}

// Subscription receives the task events of one user.
type Subscription struct {
	UserID int
	C      chan TaskEvent
}

// Hub fans task events out to the subscriptions of the task owner.
type Hub struct {
	mu       sync.Mutex
	sessions []*Subscription
	buffer   int
}

func NewHub(buffer int) *Hub {
	return &Hub{buffer: buffer}
}

func (h *Hub) Subscribe(userID int) *Subscription {
	s := &Subscription{UserID: userID, C: make(chan TaskEvent, h.buffer)}
	h.mu.Lock()
	h.sessions = append(h.sessions, s)
	h.mu.Unlock()
	return s
}

func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	idx := slices.Index(h.sessions, s)
	if idx != -1 {
		h.sessions[idx] = nil
		h.sessions = slices.Delete(h.sessions, idx, idx+1)
	}
	h.mu.Unlock()
}

// Len returns the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (h *Hub) Publish(ev TaskEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		if s.UserID != ev.Task.UserID {
			continue
		}
		select {
		case s.C <- ev:
		default:
		}
	}
}

// Fanout publishes to every notifier in order.
type Fanout []interface{ Publish(TaskEvent) }

func (f Fanout) Publish(ev TaskEvent) {
	for _, n := range f {
		n.Publish(ev)
	}
}
