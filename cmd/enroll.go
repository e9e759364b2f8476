package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/civreg/faceid/internal/config"
	"github.com/civreg/faceid/internal/database"
	"github.com/civreg/faceid/internal/extractor"
	"github.com/civreg/faceid/internal/identity"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [photo-file]",
	Short: "Enroll a citizen from a photo",
	Long: `Enroll a citizen from a photo file.
The photo is sent to the embedding service; if the face is already
registered, enrollment is rejected and the matched identity printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("first-name", "", "Citizen first name")
	enrollCmd.Flags().String("last-name", "", "Citizen last name")
	enrollCmd.Flags().String("district", "", "Citizen district")
	enrollCmd.Flags().String("province", "", "Citizen province")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	photo, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}
	normalized, err := extractor.NormalizeImage(photo, 1024)
	if err != nil {
		return fmt.Errorf("not a valid image: %w", err)
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.close()

	client := extractor.NewClient(&cfg.Extractor)
	vec, err := client.Extract(ctx, normalized)
	if err != nil {
		if errors.Is(err, extractor.ErrNoFace) {
			return errors.New("no usable face detected in photo")
		}
		return fmt.Errorf("embedding extraction failed: %w", err)
	}

	engine := newEngine(cfg)
	coordinator := identity.NewCoordinator(backend.repo, engine, nil)

	record, err := coordinator.Enroll(ctx, vec)
	if err != nil {
		var dup *identity.DuplicateError
		if errors.As(err, &dup) {
			fmt.Printf("REJECTED: face already enrolled\n")
			fmt.Printf("  Identity: %s\n", dup.IdentityID)
			fmt.Printf("  Distance: %.4f (threshold %.2f)\n", dup.Distance, engine.Threshold())
			os.Exit(1)
		}
		return err
	}

	fmt.Printf("Enrolled identity %s\n", record.IdentityID)

	// Profile storage needs the postgres backend; embedding-only
	// enrollment still works against the legacy one.
	if backend.citizens != nil {
		citizen := database.Citizen{
			IdentityID: record.IdentityID,
			FirstName:  mustGetString(cmd, "first-name"),
			LastName:   mustGetString(cmd, "last-name"),
			District:   mustGetString(cmd, "district"),
			Province:   mustGetString(cmd, "province"),
			CreatedAt:  time.Now().UTC(),
		}
		if citizen.FirstName != "" || citizen.LastName != "" {
			if err := backend.citizens.Save(ctx, citizen); err != nil {
				return fmt.Errorf("embedding stored but profile save failed: %w", err)
			}
			fmt.Printf("Profile saved: %s %s\n", citizen.FirstName, citizen.LastName)
		}
	}
	return nil
}
