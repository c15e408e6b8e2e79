// Package ranking implements exact cosine ranking for stores without a
// vector index.
package ranking

import (
	"math"
	"sort"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b. Vectors of different
// length or with zero norm score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
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

// TopK keeps the k best results in descending score order. Equal scores
// are ordered by chunk ID so results are stable across calls.
type TopK struct {
	k     int
	items []domain.ScoredChunk
}

// NewTopK creates a collector for k results.
func NewTopK(k int) *TopK {
	return &TopK{k: k}
}

// Add offers a candidate.
func (t *TopK) Add(item domain.ScoredChunk) {
	if t.k <= 0 {
		return
	}
	if len(t.items) == t.k && !better(item, t.items[len(t.items)-1]) {
		return
	}
	i := sort.Search(len(t.items), func(i int) bool { return better(item, t.items[i]) })
	t.items = append(t.items, domain.ScoredChunk{})
	copy(t.items[i+1:], t.items[i:])
	t.items[i] = item
	if len(t.items) > t.k {
		t.items = t.items[:t.k]
	}
}

// Results returns the collected items, best first.
func (t *TopK) Results() []domain.ScoredChunk {
	return t.items
}

func better(a, b domain.ScoredChunk) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Chunk.ID < b.Chunk.ID
}
