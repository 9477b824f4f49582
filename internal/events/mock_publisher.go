package events

import (
	"context"
	"log/slog"
	"sync"
)

// MockEventPublisher records events in memory
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*Event
	err    error
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	m.logger.Debug("Mock event published", "type", event.Type)
	return nil
}

// FailWith makes every following Publish return err
func (m *MockEventPublisher) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockEventPublisher) GetPublishedEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType filters the recorded events
func (m *MockEventPublisher) EventsOfType(eventType string) []*Event {
	var out []*Event
	for _, e := range m.GetPublishedEvents() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

func (m *MockEventPublisher) Close() error {
	return nil
}

// NopEventPublisher discards every event
type NopEventPublisher struct{}

func (NopEventPublisher) Publish(context.Context, *Event) error { return nil }

func (NopEventPublisher) Close() error { return nil }
