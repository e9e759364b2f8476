package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "faceid",
	Short: "Biometric identity registry with face-based duplicate rejection",
	Long: `faceid is the citizen registry service. Enrollment extracts a face
embedding from the submitted photo and rejects it when the face is
already registered; verification answers whether a face belongs to an
enrolled citizen and, if so, to whom.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
