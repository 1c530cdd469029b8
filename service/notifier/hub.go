package notifier

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ilhanozkan/library-management-app/model"
)

const (
	// historySize is how many recent events a late subscriber still sees.
	historySize = 100
	// subscriberBuffer is the per-subscriber queue on top of the replayed
	// history. A subscriber that falls further behind loses events.
	subscriberBuffer = 16
)

// Hub broadcasts availability events to every attached subscriber.
// Publishing never blocks: a full subscriber queue drops the event for
// that subscriber only, and the publisher gets a local error it may log
// and ignore.
type Hub struct {
	mu      sync.Mutex
	subs    map[int64]*Subscription
	nextID  int64
	history []model.AvailabilityEvent
	closed  bool
}

type Subscription struct {
	id      int64
	hub     *Hub
	ch      chan model.AvailabilityEvent
	dropped int64
	once    sync.Once
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int64]*Subscription)}
}

// Publish fans the event out and records it in the retained history.
func (h *Hub) Publish(ev model.AvailabilityEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return fmt.Errorf("notifier: hub closed")
	}

	h.history = append(h.history, ev)
	if len(h.history) > historySize {
		h.history = h.history[len(h.history)-historySize:]
	}

	var slow int
	for _, sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			sub.dropped++
			slow++
		}
	}
	if slow > 0 {
		return fmt.Errorf("notifier: dropped event for %d slow subscriber(s)", slow)
	}
	return nil
}

// Subscribe attaches a new subscriber. The retained history is queued
// first, so a subscriber attaching right after a burst still observes it.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:  h.nextID,
		hub: h,
		ch:  make(chan model.AvailabilityEvent, historySize+subscriberBuffer),
	}
	for _, ev := range h.history {
		sub.ch <- ev
	}
	if !h.closed {
		h.subs[sub.id] = sub
	}
	return sub
}

// Close detaches every subscriber and rejects further publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
	slog.Info("availability hub closed")
}

// Events is the subscriber's receive stream. It is closed when the
// subscription or the hub shuts down.
func (s *Subscription) Events() <-chan model.AvailabilityEvent { return s.ch }

// Dropped reports how many events this subscriber missed so far.
func (s *Subscription) Dropped() int64 {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.dropped
}

// Close detaches the subscriber from the hub.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		if _, ok := s.hub.subs[s.id]; ok {
			delete(s.hub.subs, s.id)
			close(s.ch)
		}
	})
}
