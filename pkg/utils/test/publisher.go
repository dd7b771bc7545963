package testutils

import (
	"context"
	"sync"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/eventstream"
)

// MockPublisher records published events.
type MockPublisher struct {
	Err error

	// Block makes Publish wait for its context to end, like a writer stuck on
	// an unreachable broker.
	Block bool

	mu     sync.Mutex
	events []*eventstream.ActivityEvent
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, event *eventstream.ActivityEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.Err
}

// Events returns a copy of the events seen so far.
func (m *MockPublisher) Events() []*eventstream.ActivityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.ActivityEvent(nil), m.events...)
}

func (m *MockPublisher) Close() error {
	return nil
}
