package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/civreg/faceid/internal/config"
	"github.com/civreg/faceid/internal/extractor"
	"github.com/civreg/faceid/internal/identity"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [photo-file]",
	Short: "Verify a face against the enrolled corpus",
	Long: `Verify whether the face in a photo belongs to an enrolled citizen.
Prints the matched identity and distance, or NO MATCH. The corpus is
never modified.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
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
	index := buildIndex(ctx, cfg, backend.repo)
	verifier := identity.NewVerifier(backend.repo, engine, index, cfg.Matching.IndexK)

	decision, err := verifier.Verify(ctx, vec)
	if err != nil {
		return err
	}

	if !decision.Matched {
		fmt.Println("NO MATCH: face is not enrolled")
		os.Exit(1)
	}

	fmt.Printf("MATCH: identity %s (distance %.4f, threshold %.2f)\n",
		decision.IdentityID, decision.Distance, engine.Threshold())

	if backend.citizens != nil {
		citizen, err := backend.citizens.Get(ctx, decision.IdentityID)
		if err == nil && citizen != nil {
			fmt.Printf("  Name:     %s %s\n", citizen.FirstName, citizen.LastName)
			fmt.Printf("  District: %s, %s\n", citizen.District, citizen.Province)
		}
	}
	return nil
}
