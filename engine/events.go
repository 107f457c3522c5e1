package engine

import (
	"sync"

	"github.com/use-agent/jobscout/models"
)

// EventType names an event channel.
type EventType string

const (
	EventData           EventType = "data"
	EventMetrics        EventType = "metrics"
	EventInvalidSession EventType = "invalid-session"
	EventError          EventType = "error"
	EventEnd            EventType = "end"
)

// Event is a single notification delivered to listeners.
type Event struct {
	Type     EventType       `json:"type"`
	RunID    string          `json:"run_id,omitempty"`
	Query    string          `json:"query,omitempty"`
	Location string          `json:"location,omitempty"`
	Job      *models.Job     `json:"job,omitempty"`
	Metrics  *models.Metrics `json:"metrics,omitempty"`
	Err      error           `json:"-"`
}

// Detail returns the error of an EventError as an ErrorDetail.
func (e Event) Detail() *models.ErrorDetail {
	if e.Err == nil {
		return nil
	}
	return models.DetailOf(e.Err)
}

// Sink receives events synchronously and in emission order.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Sinks fans an event out to several sinks in order.
type Sinks []Sink

func (s Sinks) Emit(e Event) {
	for _, sink := range s {
		if sink != nil {
			sink.Emit(e)
		}
	}
}

type listener struct {
	id uint64
	fn func(Event)
}

// Emitter is a synchronous callback registry keyed by event type.
// Listeners run on the emitting goroutine in registration order.
type Emitter struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[EventType][]listener
}

// NewEmitter creates an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[EventType][]listener)}
}

// On registers fn for t and returns a function that removes it.
func (em *Emitter) On(t EventType, fn func(Event)) (off func()) {
	em.mu.Lock()
	em.nextID++
	id := em.nextID
	em.listeners[t] = append(em.listeners[t], listener{id: id, fn: fn})
	em.mu.Unlock()

	return func() {
		em.mu.Lock()
		defer em.mu.Unlock()
		ls := em.listeners[t]
		for i, l := range ls {
			if l.id == id {
				em.listeners[t] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers e to every listener registered for e.Type.
func (em *Emitter) Emit(e Event) {
	em.mu.RLock()
	ls := append([]listener(nil), em.listeners[e.Type]...)
	em.mu.RUnlock()

	for _, l := range ls {
		l.fn(e)
	}
}
