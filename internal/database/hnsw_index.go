package database

import (
	"log"
	"sync"

	"github.com/coder/hnsw"

	"github.com/civreg/faceid/internal/embedding"
)

// HNSW index parameters for face embeddings.
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// hnswMinCandidates is the floor for the candidate pool so that
	// small search requests still get reasonable recall.
	hnswMinCandidates = 16
)

// CandidateIndex wraps an in-memory HNSW graph over the corpus and returns
// approximate nearest-neighbor candidates for a query embedding. It is a
// prefilter only: callers re-check every candidate with the exact match
// engine, so the matching contract is unchanged.
//
// The graph requires every vector to have the same length, so records
// whose dimension differs from the configured one are skipped the same
// way the exact scan skips them.
type CandidateIndex struct {
	dim        int
	graph      *hnsw.Graph[string]
	idToRecord map[string]IdentityRecord
	mu         sync.RWMutex
}

// NewCandidateIndex creates a new empty candidate index for embeddings of
// the given dimension.
func NewCandidateIndex(dim int) *CandidateIndex {
	return &CandidateIndex{
		dim:        dim,
		idToRecord: make(map[string]IdentityRecord),
	}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.EuclideanDistance
	return g
}

// Build replaces the index contents with the given records. Records whose
// embedding does not have the expected dimension are skipped with a logged
// count; one bad record never aborts the build.
func (h *CandidateIndex) Build(records []IdentityRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(records) == 0 {
		h.graph = nil
		h.idToRecord = make(map[string]IdentityRecord)
		return
	}

	g := newGraph()
	h.idToRecord = make(map[string]IdentityRecord, len(records))

	skipped := 0
	for _, rec := range records {
		if rec.Embedding.Dim() != h.dim {
			skipped++
			continue
		}
		g.Add(hnsw.MakeNode(rec.IdentityID, []float32(rec.Embedding)))
		h.idToRecord[rec.IdentityID] = rec
	}
	if skipped > 0 {
		log.Printf("candidate index: skipped %d record(s) with unexpected embedding dimension", skipped)
	}

	h.graph = g
}

// Add inserts a single record into the index. Wrong-dimension records are
// ignored; the exact scan path skips them too.
func (h *CandidateIndex) Add(rec IdentityRecord) {
	if rec.Embedding.Dim() != h.dim {
		if len(rec.Embedding) != 0 {
			log.Printf("candidate index: ignoring record %s with embedding dimension %d (want %d)",
				rec.IdentityID, rec.Embedding.Dim(), h.dim)
		}
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.graph == nil {
		h.graph = newGraph()
	}
	h.graph.Add(hnsw.MakeNode(rec.IdentityID, []float32(rec.Embedding)))
	h.idToRecord[rec.IdentityID] = rec
}

// Delete removes an identity from the index.
// HNSW does not support true deletion; removing from idToRecord hides the
// node from search results since candidates are resolved by lookup.
func (h *CandidateIndex) Delete(identityID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.idToRecord, identityID)
}

// Search returns up to k candidate records nearest to the query, ordered by
// approximate distance. Distances returned are exact Euclidean distances
// recomputed against the stored embeddings. A query of the wrong dimension
// returns no candidates; callers validate the query against the engine
// before searching.
func (h *CandidateIndex) Search(query embedding.Vector, k int) []IdentityRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil || len(h.idToRecord) == 0 || query.Dim() != h.dim {
		return nil
	}

	searchK := k
	if searchK < hnswMinCandidates {
		searchK = hnswMinCandidates
	}

	neighbors := h.graph.Search([]float32(query), searchK)

	records := make([]IdentityRecord, 0, len(neighbors))
	for _, n := range neighbors {
		rec, ok := h.idToRecord[n.Key]
		if !ok {
			continue // deleted identity
		}
		records = append(records, rec)
		if len(records) >= k {
			break
		}
	}
	return records
}

// Count returns the number of live records in the index.
func (h *CandidateIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.idToRecord)
}
