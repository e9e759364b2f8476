// Package identity orchestrates enrollment and verification on top of the
// match engine and the embedding repository.
package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/civreg/faceid/internal/database"
	"github.com/civreg/faceid/internal/embedding"
	"github.com/civreg/faceid/internal/match"
)

// DuplicateError is returned when an enrollment is rejected because the
// face is already enrolled. Not a system fault: the caller surfaces it to
// the operator together with the matched identity for review.
type DuplicateError struct {
	IdentityID string
	Distance   float32
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("face already enrolled as identity %s (distance %.4f)", e.IdentityID, e.Distance)
}

// Coordinator serializes the check-then-insert enrollment sequence.
//
// The single mutex is the only lock in the system: it guarantees that no
// two enrollments can both pass the duplicate check against the same
// corpus state. Verification never takes it.
type Coordinator struct {
	repo   database.EmbeddingRepository
	engine *match.Engine
	index  *database.CandidateIndex // optional, kept in sync on enroll/remove
	mu     sync.Mutex
}

// NewCoordinator creates an enrollment coordinator. index may be nil.
func NewCoordinator(repo database.EmbeddingRepository, engine *match.Engine, index *database.CandidateIndex) *Coordinator {
	return &Coordinator{repo: repo, engine: engine, index: index}
}

// Enroll checks the query vector against the full corpus and, when no
// enrolled identity is within the threshold, appends a new record with a
// freshly minted identity ID. The snapshot, match and append all happen
// under the enrollment lock, so the dedup invariant holds by construction:
// no two records in the corpus are ever within threshold of each other.
func (c *Coordinator) Enroll(ctx context.Context, vec embedding.Vector) (database.IdentityRecord, error) {
	// Enrollment always requires the configured dimension, even into an
	// empty corpus: a wrong-size vector would poison every later scan.
	if vec.Dim() != c.engine.Dim() {
		return database.IdentityRecord{}, &match.DimensionError{Got: vec.Dim(), Want: c.engine.Dim()}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	corpus, err := c.repo.Snapshot(ctx)
	if err != nil {
		return database.IdentityRecord{}, fmt.Errorf("snapshot corpus: %w", err)
	}

	decision, err := c.engine.FindMatch(vec, corpus)
	if err != nil {
		return database.IdentityRecord{}, err
	}
	if decision.Matched {
		return database.IdentityRecord{}, &DuplicateError{
			IdentityID: decision.IdentityID,
			Distance:   decision.Distance,
		}
	}

	record := database.IdentityRecord{
		IdentityID: uuid.NewString(),
		Embedding:  vec.Clone(),
		Dim:        vec.Dim(),
		EnrolledAt: time.Now().UTC(),
	}

	if err := c.repo.Append(ctx, record); err != nil {
		return database.IdentityRecord{}, fmt.Errorf("append record: %w", err)
	}

	if c.index != nil {
		c.index.Add(record)
	}
	return record, nil
}

// Remove deletes an identity's embedding from the corpus and the candidate
// index. Idempotent. Callers deleting an identity must also remove its
// profile; that ordering (embedding first) keeps verification from ever
// matching an identity whose profile is already gone.
func (c *Coordinator) Remove(ctx context.Context, identityID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.repo.Remove(ctx, identityID); err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	if c.index != nil {
		c.index.Delete(identityID)
	}
	return nil
}
