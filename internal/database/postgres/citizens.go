package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/civreg/faceid/internal/database"
)

// CitizenStore provides PostgreSQL-backed citizen profile storage.
type CitizenStore struct {
	pool *Pool
}

// NewCitizenStore creates a new PostgreSQL citizen store.
func NewCitizenStore(pool *Pool) *CitizenStore {
	return &CitizenStore{pool: pool}
}

// normalizedName builds the search key stored next to the profile.
func normalizedName(c database.Citizen) string {
	full := strings.TrimSpace(c.FirstName + " " + c.LastName)
	return database.NormalizeName(database.RemoveDiacritics(full))
}

// Save stores a citizen profile.
func (s *CitizenStore) Save(ctx context.Context, c database.Citizen) error {
	query := `
		INSERT INTO citizens (
			identity_id, first_name, last_name, normalized_name, gender,
			birth_date, address, contact, district, province,
			father_name, mother_name, photo, observation, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := s.pool.Exec(ctx, query,
		c.IdentityID, c.FirstName, c.LastName, normalizedName(c), c.Gender,
		c.BirthDate, c.Address, c.Contact, c.District, c.Province,
		c.FatherName, c.MotherName, c.Photo, c.Observation, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save citizen: %w", err)
	}
	return nil
}

// Get retrieves a citizen by identity ID, returns nil if not found.
func (s *CitizenStore) Get(ctx context.Context, identityID string) (*database.Citizen, error) {
	query := `
		SELECT identity_id, first_name, last_name, gender, birth_date,
		       address, contact, district, province, father_name,
		       mother_name, photo, observation, created_at
		FROM citizens
		WHERE identity_id = $1
	`

	var c database.Citizen
	err := s.pool.QueryRow(ctx, query, identityID).Scan(
		&c.IdentityID, &c.FirstName, &c.LastName, &c.Gender, &c.BirthDate,
		&c.Address, &c.Contact, &c.District, &c.Province, &c.FatherName,
		&c.MotherName, &c.Photo, &c.Observation, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get citizen: %w", err)
	}
	return &c, nil
}

// List returns citizen profiles, optionally filtered by a name query.
// Matching is diacritic- and case-insensitive via the normalized_name column.
func (s *CitizenStore) List(ctx context.Context, query string) ([]database.Citizen, error) {
	sqlQuery := `
		SELECT identity_id, first_name, last_name, gender, birth_date,
		       address, contact, district, province, father_name,
		       mother_name, photo, observation, created_at
		FROM citizens
	`
	var args []any
	if query != "" {
		sqlQuery += " WHERE normalized_name LIKE '%' || $1 || '%'"
		args = append(args, database.NormalizeName(database.RemoveDiacritics(query)))
	}
	sqlQuery += " ORDER BY last_name, first_name"

	rows, err := s.pool.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list citizens: %w", err)
	}
	defer rows.Close()

	var citizens []database.Citizen
	for rows.Next() {
		var c database.Citizen
		if err := rows.Scan(
			&c.IdentityID, &c.FirstName, &c.LastName, &c.Gender, &c.BirthDate,
			&c.Address, &c.Contact, &c.District, &c.Province, &c.FatherName,
			&c.MotherName, &c.Photo, &c.Observation, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan citizen: %w", err)
		}
		citizens = append(citizens, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate citizens: %w", err)
	}
	return citizens, nil
}

// Update replaces the editable profile fields of a citizen.
func (s *CitizenStore) Update(ctx context.Context, c database.Citizen) error {
	query := `
		UPDATE citizens SET
			first_name = $2, last_name = $3, normalized_name = $4,
			gender = $5, birth_date = $6, address = $7, contact = $8,
			district = $9, province = $10, father_name = $11,
			mother_name = $12, observation = $13
		WHERE identity_id = $1
	`

	_, err := s.pool.Exec(ctx, query,
		c.IdentityID, c.FirstName, c.LastName, normalizedName(c),
		c.Gender, c.BirthDate, c.Address, c.Contact,
		c.District, c.Province, c.FatherName,
		c.MotherName, c.Observation,
	)
	if err != nil {
		return fmt.Errorf("update citizen: %w", err)
	}
	return nil
}

// Delete removes a citizen profile. Idempotent.
func (s *CitizenStore) Delete(ctx context.Context, identityID string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM citizens WHERE identity_id = $1", identityID); err != nil {
		return fmt.Errorf("delete citizen: %w", err)
	}
	return nil
}

// Count returns the number of citizen profiles.
func (s *CitizenStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM citizens").Scan(&count); err != nil {
		return 0, fmt.Errorf("count citizens: %w", err)
	}
	return count, nil
}

// Verify interface compliance
var _ database.CitizenStore = (*CitizenStore)(nil)
