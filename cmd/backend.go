package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/civreg/faceid/internal/config"
	"github.com/civreg/faceid/internal/database"
	"github.com/civreg/faceid/internal/database/mariadb"
	"github.com/civreg/faceid/internal/database/postgres"
	"github.com/civreg/faceid/internal/match"
)

// storageBackend bundles whatever the configured driver provides. The
// legacy MariaDB backend stores embeddings only; profile and operator
// stores are nil there and commands needing them must check.
type storageBackend struct {
	repo     database.EmbeddingRepository
	citizens database.CitizenStore
	users    database.UserStore
	sessions *postgres.SessionRepository
	close    func() error
}

// openBackend connects to the configured storage backend and runs its
// migrations.
func openBackend(ctx context.Context, cfg *config.Config) (*storageBackend, error) {
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.URL == "" {
			return nil, errors.New("DATABASE_URL environment variable is required")
		}
		pool, err := postgres.NewPool(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return &storageBackend{
			repo:     postgres.NewEmbeddingRepository(pool),
			citizens: postgres.NewCitizenStore(pool),
			users:    postgres.NewUserStore(pool),
			sessions: postgres.NewSessionRepository(pool),
			close:    pool.Close,
		}, nil

	case "mysql":
		if cfg.Database.MySQLDSN == "" {
			return nil, errors.New("MYSQL_DSN environment variable is required")
		}
		pool, err := mariadb.NewPool(cfg.Database.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MariaDB: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return &storageBackend{
			repo:  mariadb.NewEmbeddingRepository(pool),
			close: pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q (want postgres or mysql)", cfg.Database.Driver)
	}
}

// buildIndex loads the current corpus into a fresh candidate index.
// Returns nil when the index is disabled; matching then scans the full
// corpus, which is correct just slower.
func buildIndex(ctx context.Context, cfg *config.Config, repo database.EmbeddingRepository) *database.CandidateIndex {
	if !cfg.Matching.UseIndex {
		return nil
	}
	records, err := repo.Snapshot(ctx)
	if err != nil {
		log.Printf("Warning: failed to load corpus for candidate index: %v", err)
		log.Printf("Verification will scan the full corpus")
		return nil
	}
	index := database.NewCandidateIndex(cfg.Matching.Dim)
	index.Build(records)
	log.Printf("Candidate index built with %d embeddings", index.Count())
	return index
}

// newEngine creates the match engine from config.
func newEngine(cfg *config.Config) *match.Engine {
	return match.NewEngine(cfg.Matching.Threshold, cfg.Matching.Dim)
}
