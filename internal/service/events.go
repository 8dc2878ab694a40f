package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventAssessmentCreated    EventType = "assessment_created"
	EventAppletRegistered     EventType = "applet_registered"
	EventTrayConfigSet        EventType = "tray_config_set"
	EventTrayConfigUpdated    EventType = "tray_config_updated"
	EventTrayConfigDeleted    EventType = "tray_config_deleted"
	EventDefaultTrayConfigSet EventType = "default_tray_config_set"
	EventMethodRun            EventType = "method_run"
	EventMethodUpdated        EventType = "method_updated"
	EventMethodDeleted        EventType = "method_deleted"
)

// Event represents something that happened in the ledger
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// EventBus fans events out to subscribers
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Unsubscribe removes ch. The channel is not closed.
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
