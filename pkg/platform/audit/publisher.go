package audit

import (
	"context"
	"sync"
)

// Publisher delivers audit events to a sink. Implementations must tolerate
// best-effort delivery: domain operations never fail because audit did.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
	Close() error
}

// Memory collects events in process. Used by tests and as the default sink
// when no broker is configured.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// NewMemory constructs an in-process event sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Emit(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything emitted so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *Memory) Close() error { return nil }
