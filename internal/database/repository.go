package database

import (
	"context"
)

// EmbeddingRepository owns the durable corpus of identity embeddings.
type EmbeddingRepository interface {
	// Append durably persists one record. Atomic per record: a failed
	// append never leaves a partial row behind.
	Append(ctx context.Context, record IdentityRecord) error
	// Snapshot returns a consistent point-in-time copy of all current
	// records. Appends that start after the snapshot begins are not
	// reflected, and no individual vector is ever torn.
	Snapshot(ctx context.Context) ([]IdentityRecord, error)
	// Remove deletes the record for an identity. Idempotent: removing an
	// absent identity is not an error.
	Remove(ctx context.Context, identityID string) error
	// Count returns the number of enrolled records.
	Count(ctx context.Context) (int, error)
}

// CitizenStore persists citizen profiles keyed by identity ID.
type CitizenStore interface {
	Save(ctx context.Context, c Citizen) error
	Get(ctx context.Context, identityID string) (*Citizen, error)
	// List returns profiles, optionally filtered by a name query.
	// Matching is diacritic- and case-insensitive.
	List(ctx context.Context, query string) ([]Citizen, error)
	Update(ctx context.Context, c Citizen) error
	Delete(ctx context.Context, identityID string) error
	Count(ctx context.Context) (int, error)
}

// UserStore persists operator accounts.
type UserStore interface {
	Create(ctx context.Context, name, passwordHash, role string) (*User, error)
	GetByName(ctx context.Context, name string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id int64, name, role string) error
	Delete(ctx context.Context, id int64) error
}
