package identity

import (
	"context"
	"fmt"

	"github.com/civreg/faceid/internal/database"
	"github.com/civreg/faceid/internal/embedding"
	"github.com/civreg/faceid/internal/match"
)

// Verifier answers read-only "who is this?" queries. It takes no locks
// and runs freely in parallel with enrollments, trading a slightly stale
// snapshot for full read throughput.
type Verifier struct {
	repo       database.EmbeddingRepository
	engine     *match.Engine
	index      *database.CandidateIndex // optional fast path
	candidateK int
}

// NewVerifier creates a verification service. index may be nil, in which
// case every query scans a full snapshot. candidateK is the number of ANN
// candidates fetched on the fast path.
func NewVerifier(repo database.EmbeddingRepository, engine *match.Engine, index *database.CandidateIndex, candidateK int) *Verifier {
	if candidateK <= 0 {
		candidateK = 16
	}
	return &Verifier{repo: repo, engine: engine, index: index, candidateK: candidateK}
}

// Verify matches the query vector against the corpus. "No match" is a
// normal outcome, not an error.
//
// When a candidate index is available, the scan runs over its nearest
// neighbors instead of a full snapshot; every candidate is re-checked
// with the exact engine, so the decision semantics are identical.
func (v *Verifier) Verify(ctx context.Context, vec embedding.Vector) (match.Decision, error) {
	if v.index != nil {
		if v.index.Count() == 0 {
			return match.Decision{}, nil
		}
		// Checked before the ANN search: the graph distance function
		// requires equal-length vectors.
		if vec.Dim() != v.engine.Dim() {
			return match.Decision{}, &match.DimensionError{Got: vec.Dim(), Want: v.engine.Dim()}
		}
		return v.engine.FindMatch(vec, v.index.Search(vec, v.candidateK))
	}

	corpus, err := v.repo.Snapshot(ctx)
	if err != nil {
		return match.Decision{}, fmt.Errorf("snapshot corpus: %w", err)
	}
	return v.engine.FindMatch(vec, corpus)
}
