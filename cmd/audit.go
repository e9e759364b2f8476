package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/civreg/faceid/internal/config"
	"github.com/civreg/faceid/internal/embedding"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit the corpus for duplicate identities",
	Long: `Scan every pair of enrolled embeddings and report pairs closer than
the matching threshold. A clean corpus has no such pairs; violations
usually mean embeddings were imported without duplicate checking.`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().Float64("threshold", 0, "Override the matching threshold for the scan")
}

type auditViolation struct {
	a, b     string
	distance float32
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	threshold := cfg.Matching.Threshold
	if t := mustGetFloat64(cmd, "threshold"); t > 0 {
		threshold = float32(t)
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.close()

	records, err := backend.repo.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	if len(records) < 2 {
		fmt.Printf("Corpus has %d embedding(s), nothing to compare\n", len(records))
		return nil
	}

	fmt.Printf("Auditing %d embeddings (threshold %.2f)\n", len(records), threshold)

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetDescription("Comparing embeddings"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("embeddings"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var violations []auditViolation
	skipped := 0
	for i, a := range records {
		if a.Embedding.Dim() != cfg.Matching.Dim {
			skipped++
			bar.Add(1)
			continue
		}
		for _, b := range records[i+1:] {
			if b.Embedding.Dim() != cfg.Matching.Dim {
				continue
			}
			dist := embedding.EuclideanDistance(a.Embedding, b.Embedding)
			if dist < threshold {
				violations = append(violations, auditViolation{
					a:        a.IdentityID,
					b:        b.IdentityID,
					distance: dist,
				})
			}
		}
		bar.Add(1)
	}
	fmt.Println()

	if skipped > 0 {
		fmt.Printf("Skipped %d embedding(s) with unexpected dimension\n", skipped)
	}

	if len(violations) == 0 {
		fmt.Println("OK: no duplicate identities found")
		return nil
	}

	fmt.Printf("Found %d duplicate pair(s):\n", len(violations))
	for _, v := range violations {
		fmt.Printf("  %s <-> %s (distance %.4f)\n", v.a, v.b, v.distance)
	}
	return fmt.Errorf("corpus audit failed: %d duplicate pair(s)", len(violations))
}
