package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/civreg/faceid/internal/config"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage registry operator accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create an operator account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List operator accounts",
	RunE:  runUserList,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)

	userAddCmd.Flags().String("password", "", "Password for the new account (required)")
	userAddCmd.Flags().String("role", "agent", "Account role: admin or agent")
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	password := mustGetString(cmd, "password")
	if password == "" {
		return errors.New("--password is required")
	}
	role := mustGetString(cmd, "role")
	if role != "admin" && role != "agent" {
		return fmt.Errorf("invalid role %q (want admin or agent)", role)
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.close()

	if backend.users == nil {
		return errors.New("user management requires the postgres backend")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := backend.users.Create(ctx, args[0], string(hash), role)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created user %s (id %d, role %s)\n", user.Name, user.ID, user.Role)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.close()

	if backend.users == nil {
		return errors.New("user management requires the postgres backend")
	}

	users, err := backend.users.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}

	for _, u := range users {
		fmt.Printf("%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Role, u.CreatedAt.Format("2006-01-02"))
	}
	return nil
}
