// Package rank scores stored vectors against a query and keeps the k
// nearest. It is shared by the stores that search in process.
package rank

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/loremaster/internal/core/domain"
)

// CosineDistance returns 1 - cos(a, b). A zero vector has distance 1 to
// everything. Vectors must have equal length.
func CosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// CheckDimensions returns domain.ErrConfiguration when a vector does not
// match the collection size. A zero want accepts any length.
func CheckDimensions(vector []float32, want int) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrInvalidInput)
	}
	if want > 0 && len(vector) != want {
		return fmt.Errorf("%w: vector has %d dimensions, collection expects %d",
			domain.ErrConfiguration, len(vector), want)
	}
	return nil
}

type candidate struct {
	hit domain.ScoredChunk
	seq int64
}

// before orders by distance, then insertion sequence.
func (c candidate) before(o candidate) bool {
	if c.hit.Distance != o.hit.Distance {
		return c.hit.Distance < o.hit.Distance
	}
	return c.seq < o.seq
}

// worstFirst is a max-heap on (distance, seq).
type worstFirst []candidate

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return h[j].before(h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TopK keeps the k best candidates seen so far.
type TopK struct {
	query []float32
	k     int
	heap  worstFirst
}

// NewTopK creates a ranker for query. k <= 0 keeps nothing.
func NewTopK(query []float32, k int) *TopK {
	if k < 0 {
		k = 0
	}
	return &TopK{query: query, k: k, heap: make(worstFirst, 0, k)}
}

// Offer scores an entry and keeps it if it is among the k nearest.
func (t *TopK) Offer(chunk domain.Chunk, vector []float32, seq int64) {
	if t.k == 0 {
		return
	}
	c := candidate{
		hit: domain.ScoredChunk{Chunk: chunk, Distance: CosineDistance(t.query, vector)},
		seq: seq,
	}
	if len(t.heap) < t.k {
		heap.Push(&t.heap, c)
		return
	}
	if c.before(t.heap[0]) {
		t.heap[0] = c
		heap.Fix(&t.heap, 0)
	}
}

// Result returns the kept hits nearest first.
func (t *TopK) Result() domain.RetrievalResult {
	items := make([]candidate, len(t.heap))
	copy(items, t.heap)
	sort.Slice(items, func(i, j int) bool { return items[i].before(items[j]) })

	out := make(domain.RetrievalResult, len(items))
	for i, c := range items {
		out[i] = c.hit
	}
	return out
}
