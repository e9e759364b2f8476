// Package match implements the identity matching decision: given a query
// embedding and a corpus snapshot, find the enrolled identity it belongs
// to, if any.
package match

import (
	"fmt"
	"log"

	"github.com/civreg/faceid/internal/database"
	"github.com/civreg/faceid/internal/embedding"
)

// Decision is the outcome of a match query. Produced fresh per query and
// never persisted. When Matched is false, IdentityID and Distance are
// zero values.
type Decision struct {
	Matched    bool    `json:"matched"`
	IdentityID string  `json:"identity_id,omitempty"`
	Distance   float32 `json:"distance"`
}

// DimensionError reports a query vector whose length does not match the
// configured embedding dimension. This is a data-integrity error, not a
// normal outcome.
type DimensionError struct {
	Got  int
	Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: got %d, want %d", e.Got, e.Want)
}

// Engine applies the threshold and nearest-neighbor policy to a corpus
// snapshot. Stateless apart from its configuration; safe for concurrent
// use with different snapshots.
type Engine struct {
	threshold float32
	dim       int
}

// NewEngine creates an engine with the given matching threshold and
// expected embedding dimension.
func NewEngine(threshold float32, dim int) *Engine {
	return &Engine{threshold: threshold, dim: dim}
}

// Threshold returns the configured matching threshold.
func (e *Engine) Threshold() float32 {
	return e.threshold
}

// Dim returns the configured embedding dimension.
func (e *Engine) Dim() int {
	return e.dim
}

// FindMatch scans the corpus for the enrolled identity nearest to the
// query, among records strictly under the threshold. Ties on distance are
// broken by the lowest identity ID so the decision does not depend on
// corpus iteration order.
//
// Stored records whose dimension does not match are skipped with a logged
// warning; one bad record never aborts the scan. A query with the wrong
// dimension fails with a DimensionError, unless the corpus is empty, in
// which case the decision is trivially "no match".
func (e *Engine) FindMatch(query embedding.Vector, corpus []database.IdentityRecord) (Decision, error) {
	if len(corpus) == 0 {
		return Decision{}, nil
	}
	if query.Dim() != e.dim {
		return Decision{}, &DimensionError{Got: query.Dim(), Want: e.dim}
	}

	var (
		best    Decision
		skipped int
	)
	for _, rec := range corpus {
		if rec.Embedding.Dim() != e.dim {
			skipped++
			continue
		}

		dist := embedding.EuclideanDistance(query, rec.Embedding)
		if dist >= e.threshold {
			continue
		}

		if !best.Matched || dist < best.Distance ||
			(dist == best.Distance && rec.IdentityID < best.IdentityID) {
			best = Decision{Matched: true, IdentityID: rec.IdentityID, Distance: dist}
		}
	}

	if skipped > 0 {
		log.Printf("match: skipped %d record(s) with unexpected embedding dimension", skipped)
	}
	return best, nil
}
