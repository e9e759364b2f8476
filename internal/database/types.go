package database

import (
	"time"

	"github.com/civreg/faceid/internal/embedding"
)

// IdentityRecord is one enrolled identity's embedding as stored in the
// corpus. Created once per successful enrollment and never mutated.
type IdentityRecord struct {
	IdentityID string
	Embedding  embedding.Vector
	Dim        int
	EnrolledAt time.Time
}

// Citizen is the public profile attached to an enrolled identity.
// The matching core never reads these fields; it only sees IdentityID.
type Citizen struct {
	IdentityID  string    `json:"identity_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Gender      string    `json:"gender"`
	BirthDate   string    `json:"birth_date"`
	Address     string    `json:"address"`
	Contact     string    `json:"contact"`
	District    string    `json:"district"`
	Province    string    `json:"province"`
	FatherName  string    `json:"father_name"`
	MotherName  string    `json:"mother_name"`
	Photo       string    `json:"photo"` // filename under the uploads dir
	Observation string    `json:"observation"`
	CreatedAt   time.Time `json:"created_at"`
}

// User is an operator account for the web API.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // "admin" or "agent"
	CreatedAt    time.Time `json:"created_at"`
}
