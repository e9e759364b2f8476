package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/civreg/faceid/internal/config"
	"github.com/civreg/faceid/internal/extractor"
	"github.com/civreg/faceid/internal/identity"
	"github.com/civreg/faceid/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the registry web server",
	Long: `Start the faceid web server.
The server exposes the enrollment and verification API together with
citizen profile management for registry operators.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := mustGetString(cmd, "session-secret")

	if sessionSecret == "" {
		sessionSecret = os.Getenv("WEB_SESSION_SECRET")
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host, sessionSecret
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	// The API needs profile and operator storage, which the legacy
	// MariaDB backend does not carry.
	if cfg.Database.Driver != "postgres" {
		return errors.New("serve requires the postgres backend")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	ctx := context.Background()
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.close()

	engine := newEngine(cfg)
	index := buildIndex(ctx, cfg, backend.repo)
	coordinator := identity.NewCoordinator(backend.repo, engine, index)
	verifier := identity.NewVerifier(backend.repo, engine, index, cfg.Matching.IndexK)

	port, host, sessionSecret := resolveServeHostPort(cmd)

	server := web.NewServer(cfg, port, host, sessionSecret, backend.sessions, web.Deps{
		Extractor:   extractor.NewClient(&cfg.Extractor),
		Repo:        backend.repo,
		Citizens:    backend.citizens,
		Users:       backend.users,
		Coordinator: coordinator,
		Verifier:    verifier,
		Engine:      engine,
		Index:       index,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Matching: model=%s dim=%d threshold=%.2f\n",
		cfg.Extractor.Model, cfg.Matching.Dim, cfg.Matching.Threshold)
	fmt.Printf("Starting faceid API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
