package testutils

import (
	"context"
	"net/url"
	"sync"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/thumbnail"
)

// MockVisionModel returns a canned reply.
type MockVisionModel struct {
	Reply string
	Err   error

	mu      sync.Mutex
	calls   int
	Prompts []string
	Images  [][]*thumbnail.Image
}

func NewMockVisionModel(reply string) *MockVisionModel {
	return &MockVisionModel{Reply: reply}
}

func (m *MockVisionModel) Compare(_ context.Context, prompt string, images []*thumbnail.Image) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.Prompts = append(m.Prompts, prompt)
	m.Images = append(m.Images, images)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

// Calls returns how many times Compare was called.
func (m *MockVisionModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockFetcher serves thumbnails from memory. URLs listed in Errors fail with
// the mapped error; any other URL yields a small png.
type MockFetcher struct {
	Errors map[string]error

	mu   sync.Mutex
	urls []string
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{Errors: make(map[string]error)}
}

func (m *MockFetcher) Fetch(_ context.Context, patternID int64, rawURL string) (*thumbnail.Image, error) {
	m.mu.Lock()
	m.urls = append(m.urls, rawURL)
	m.mu.Unlock()

	if err, ok := m.Errors[rawURL]; ok {
		return nil, err
	}
	if _, err := url.Parse(rawURL); err != nil {
		return nil, err
	}
	return &thumbnail.Image{
		PatternID: patternID,
		MediaType: "image/png",
		Data:      []byte(rawURL),
	}, nil
}

// Calls returns how many fetches were attempted.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urls)
}
