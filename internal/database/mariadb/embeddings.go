package mariadb

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/civreg/faceid/internal/database"
	"github.com/civreg/faceid/internal/embedding"
)

// EmbeddingRepository provides MariaDB-backed embedding storage with raw
// float32 blob encoding.
type EmbeddingRepository struct {
	pool *Pool
}

// NewEmbeddingRepository creates a new MariaDB embedding repository.
func NewEmbeddingRepository(pool *Pool) *EmbeddingRepository {
	return &EmbeddingRepository{pool: pool}
}

// Append durably persists one identity record.
func (r *EmbeddingRepository) Append(ctx context.Context, record database.IdentityRecord) error {
	query := `
		INSERT INTO embeddings (identity_id, embedding, dim, enrolled_at)
		VALUES (?, ?, ?, ?)
	`

	blob := embedding.EncodeBlob(record.Embedding)
	if _, err := r.pool.db.ExecContext(ctx, query, record.IdentityID, blob, record.Dim, record.EnrolledAt); err != nil {
		return fmt.Errorf("append embedding: %w", err)
	}
	return nil
}

// decodeRecord turns one stored row into an identity record. Returns an
// error for blobs that cannot be decoded; the caller decides whether to
// skip or abort.
func decodeRecord(identityID string, blob []byte, dim int) (database.IdentityRecord, error) {
	vec, err := embedding.DecodeBlob(blob)
	if err != nil {
		return database.IdentityRecord{}, fmt.Errorf("identity %s: %w", identityID, err)
	}
	if len(vec) != dim {
		return database.IdentityRecord{}, fmt.Errorf("identity %s: blob holds %d values, recorded dim is %d: %w",
			identityID, len(vec), dim, embedding.ErrCorruptBlob)
	}
	return database.IdentityRecord{
		IdentityID: identityID,
		Embedding:  vec,
		Dim:        dim,
	}, nil
}

// Snapshot returns all decodable records in identity order. Corrupt blobs
// are skipped and logged; a single damaged row must never take down
// enrollment or verification for everyone else.
func (r *EmbeddingRepository) Snapshot(ctx context.Context) ([]database.IdentityRecord, error) {
	query := `
		SELECT identity_id, embedding, dim, enrolled_at
		FROM embeddings
		ORDER BY identity_id
	`

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var records []database.IdentityRecord
	for rows.Next() {
		var identityID string
		var blob []byte
		var dim int
		var enrolledAt time.Time

		if err := rows.Scan(&identityID, &blob, &dim, &enrolledAt); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}

		rec, err := decodeRecord(identityID, blob, dim)
		if err != nil {
			log.Printf("embedding snapshot: skipping corrupt record: %v", err)
			continue
		}
		rec.EnrolledAt = enrolledAt
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return records, nil
}

// Remove deletes the record for an identity. Idempotent.
func (r *EmbeddingRepository) Remove(ctx context.Context, identityID string) error {
	if _, err := r.pool.db.ExecContext(ctx, "DELETE FROM embeddings WHERE identity_id = ?", identityID); err != nil {
		return fmt.Errorf("remove embedding: %w", err)
	}
	return nil
}

// Count returns the total number of stored records, corrupt ones included.
func (r *EmbeddingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

// Verify interface compliance
var _ database.EmbeddingRepository = (*EmbeddingRepository)(nil)
