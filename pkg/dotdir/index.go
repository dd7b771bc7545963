package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	indexFile = "similarity_index.json"
)

// IndexState records the most recent similarity index build.
type IndexState struct {
	// ComputedAt is when the build finished.
	ComputedAt time.Time `json:"computed_at"`

	// Store is the storage backend the index was written to.
	Store string `json:"store"`

	// Patterns is the number of embedded patterns compared.
	Patterns int `json:"patterns"`

	// Pairs is the number of pairs written.
	Pairs int `json:"pairs"`

	MinSimilarity float64 `json:"min_similarity"`
}

// LoadIndexState loads the build record from a target .qpv/similarity_index.json.
// Returns nil, nil if the index has never been built.
func (m *Manager) LoadIndexState(overrideDir string) (*IndexState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, indexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading index state: %w", err)
	}

	state := &IndexState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing index state: %w", err)
	}

	return state, nil
}

// SaveIndexState persists the build record.
func (m *Manager) SaveIndexState(state *IndexState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil index state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling index state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, indexFile), data, 0o600); err != nil {
		return fmt.Errorf("writing index state: %w", err)
	}

	return nil
}
