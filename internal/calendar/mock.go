package calendar

import (
	"context"
	"fmt"
	"sync"
)

// MockGateway implements Gateway for testing. It records created and deleted
// events and can be told to fail every call.
type MockGateway struct {
	mu      sync.Mutex
	nextID  int
	created []Event
	deleted []string
	failAll bool
	link    string
}

// NewMockGateway creates a MockGateway that succeeds by default.
func NewMockGateway() *MockGateway {
	return &MockGateway{link: "https://calendar.example.com/event"}
}

// FailAll makes every subsequent call return an error, simulating an
// unavailable calendar backend.
func (m *MockGateway) FailAll(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = fail
}

// CreateEvent records the event and returns a synthetic remote id.
func (m *MockGateway) CreateEvent(ctx context.Context, ev Event) (RemoteEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return RemoteEvent{}, fmt.Errorf("mock gateway: unavailable")
	}
	m.nextID++
	m.created = append(m.created, ev)
	return RemoteEvent{
		ID:   fmt.Sprintf("remote-%d", m.nextID),
		Link: fmt.Sprintf("%s/%d", m.link, m.nextID),
	}, nil
}

// DeleteEvent records the deletion.
func (m *MockGateway) DeleteEvent(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return fmt.Errorf("mock gateway: unavailable")
	}
	m.deleted = append(m.deleted, eventID)
	return nil
}

// Created returns a copy of the events created so far.
func (m *MockGateway) Created() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.created))
	copy(out, m.created)
	return out
}

// Deleted returns a copy of the event ids deleted so far.
func (m *MockGateway) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.deleted))
	copy(out, m.deleted)
	return out
}
