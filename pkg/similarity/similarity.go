// Package similarity computes the pairwise cosine similarity index used for
// duplicate detection.
//
// Embeddings are L2-normalised once, then the upper triangle of the similarity
// matrix is scanned in row chunks by a bounded set of goroutines. Only pairs at
// or above the minimum similarity are kept, smaller id first, so every
// unordered pair appears exactly once in the index.
package similarity

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
)

const (
	// DefaultMinSimilarity is the lowest similarity stored in the index.
	// Lower values store more pairs and make FindDuplicates slower.
	DefaultMinSimilarity = 0.85

	defaultChunkSize = 500
	defaultWorkers   = 4
)

// Options tunes a similarity index computation.
type Options struct {
	// MinSimilarity is the inclusive lower bound for a pair to be kept.
	MinSimilarity float64

	// ChunkSize is the number of rows scanned by a single goroutine.
	ChunkSize int

	// Workers bounds the number of concurrent chunk scans.
	Workers int

	// Progress, when set, is called after each chunk with the number of rows
	// finished so far and the total number of rows.
	Progress func(done, total int)
}

// Cosine returns the cosine similarity of a and b. Zero vectors have a
// similarity of 0 to everything.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Normalize returns v scaled to unit length. A zero vector is returned unchanged.
func Normalize(v []float32) []float64 {
	out := make([]float64, len(v))
	var norm float64
	for i, f := range v {
		out[i] = float64(f)
		norm += out[i] * out[i]
	}
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i] /= norm
	}
	return out
}

// Pairs computes every pair of rows whose cosine similarity is at least
// opts.MinSimilarity. The result is sorted with SortPairs.
func Pairs(ctx context.Context, rows []patterns.EmbeddingRow, opts Options) ([]patterns.CandidatePair, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}

	n := len(rows)
	if n < 2 {
		return []patterns.CandidatePair{}, nil
	}

	dims := len(rows[0].Embedding)
	normalized := make([][]float64, n)
	for i, row := range rows {
		if len(row.Embedding) != dims {
			return nil, fmt.Errorf("pattern %d has %d dimensions, expected %d", row.ID, len(row.Embedding), dims)
		}
		normalized[i] = Normalize(row.Embedding)
	}

	var (
		mu    sync.Mutex
		pairs []patterns.CandidatePair
		done  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for start := 0; start < n; start += opts.ChunkSize {
		end := min(start+opts.ChunkSize, n)

		g.Go(func() error {
			var found []patterns.CandidatePair
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				for j := i + 1; j < n; j++ {
					sim := dot(normalized[i], normalized[j])
					if sim < opts.MinSimilarity {
						continue
					}
					found = append(found, newPair(rows[i].ID, rows[j].ID, sim))
				}
			}

			mu.Lock()
			pairs = append(pairs, found...)
			done += end - start
			if opts.Progress != nil {
				opts.Progress(done, n)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if pairs == nil {
		pairs = []patterns.CandidatePair{}
	}
	SortPairs(pairs)
	return pairs, nil
}

// SortPairs orders pairs by descending similarity, breaking ties by ascending
// ids so results are deterministic.
func SortPairs(pairs []patterns.CandidatePair) {
	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.PatternIDA != b.PatternIDA {
			return a.PatternIDA < b.PatternIDA
		}
		return a.PatternIDB < b.PatternIDB
	})
}

func newPair(id1, id2 int64, sim float64) patterns.CandidatePair {
	if id1 > id2 {
		id1, id2 = id2, id1
	}
	return patterns.CandidatePair{
		PatternIDA: id1,
		PatternIDB: id2,
		Similarity: math.Round(sim*1e6) / 1e6,
	}
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
