package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/pgvector/pgvector-go"

	"github.com/civreg/faceid/internal/database"
)

// EmbeddingRepository provides PostgreSQL-backed embedding storage using a
// pgvector column.
type EmbeddingRepository struct {
	pool *Pool
}

// NewEmbeddingRepository creates a new PostgreSQL embedding repository.
func NewEmbeddingRepository(pool *Pool) *EmbeddingRepository {
	return &EmbeddingRepository{pool: pool}
}

// Append durably persists one identity record.
func (r *EmbeddingRepository) Append(ctx context.Context, record database.IdentityRecord) error {
	query := `
		INSERT INTO embeddings (identity_id, embedding, dim, enrolled_at)
		VALUES ($1, $2::vector, $3, $4)
	`

	vec := pgvector.NewVector(record.Embedding)
	if _, err := r.pool.Exec(ctx, query, record.IdentityID, vec, record.Dim, record.EnrolledAt); err != nil {
		return fmt.Errorf("append embedding: %w", err)
	}
	return nil
}

// Snapshot returns all current records in identity order. A record whose
// stored vector length disagrees with its recorded dim is skipped and
// logged rather than aborting the scan.
func (r *EmbeddingRepository) Snapshot(ctx context.Context) ([]database.IdentityRecord, error) {
	query := `
		SELECT identity_id, embedding, dim, enrolled_at
		FROM embeddings
		ORDER BY identity_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var records []database.IdentityRecord
	skipped := 0
	for rows.Next() {
		var rec database.IdentityRecord
		var vec pgvector.Vector

		if err := rows.Scan(&rec.IdentityID, &vec, &rec.Dim, &rec.EnrolledAt); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}

		rec.Embedding = vec.Slice()
		if len(rec.Embedding) != rec.Dim {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}

	if skipped > 0 {
		log.Printf("embedding snapshot: skipped %d records with inconsistent dimensions", skipped)
	}
	return records, nil
}

// Remove deletes the record for an identity. Idempotent.
func (r *EmbeddingRepository) Remove(ctx context.Context, identityID string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM embeddings WHERE identity_id = $1", identityID); err != nil {
		return fmt.Errorf("remove embedding: %w", err)
	}
	return nil
}

// Count returns the total number of enrolled records.
func (r *EmbeddingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

// Verify interface compliance
var _ database.EmbeddingRepository = (*EmbeddingRepository)(nil)
