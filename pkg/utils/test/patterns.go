package testutils

import (
	"context"
	"sync"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns/inmemory"
)

// MockPatternDriver wraps the in-memory driver, counts calls per method and
// can be told to fail any of them.
type MockPatternDriver struct {
	*inmemory.Driver

	FindErr      error
	SummariesErr error
	PatternsErr  error
	DeleteErr    error
	SearchErr    error

	mu    sync.Mutex
	calls map[string]int

	// SummaryRequests records the id lists passed to Summaries
	SummaryRequests [][]int64
}

func NewMockPatternDriver() *MockPatternDriver {
	return &MockPatternDriver{
		Driver: inmemory.NewDriver(),
		calls:  make(map[string]int),
	}
}

func (m *MockPatternDriver) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
}

// Calls returns how many times method was invoked.
func (m *MockPatternDriver) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of calls across all read and write methods.
func (m *MockPatternDriver) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *MockPatternDriver) FindDuplicates(ctx context.Context, threshold float64, limit int) ([]patterns.CandidatePair, error) {
	m.record("FindDuplicates")
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	return m.Driver.FindDuplicates(ctx, threshold, limit)
}

func (m *MockPatternDriver) Summaries(ctx context.Context, ids []int64) ([]patterns.Summary, error) {
	m.record("Summaries")
	m.mu.Lock()
	m.SummaryRequests = append(m.SummaryRequests, append([]int64(nil), ids...))
	m.mu.Unlock()
	if m.SummariesErr != nil {
		return nil, m.SummariesErr
	}
	return m.Driver.Summaries(ctx, ids)
}

func (m *MockPatternDriver) Patterns(ctx context.Context, ids []int64) ([]patterns.Pattern, error) {
	m.record("Patterns")
	if m.PatternsErr != nil {
		return nil, m.PatternsErr
	}
	return m.Driver.Patterns(ctx, ids)
}

func (m *MockPatternDriver) Delete(ctx context.Context, id int64) (*patterns.Pattern, error) {
	m.record("Delete")
	if m.DeleteErr != nil {
		return nil, m.DeleteErr
	}
	return m.Driver.Delete(ctx, id)
}

func (m *MockPatternDriver) Search(ctx context.Context, embedding []float32, limit int) ([]patterns.SearchResult, error) {
	m.record("Search")
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.Driver.Search(ctx, embedding, limit)
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}
