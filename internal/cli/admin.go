package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	v1 "certverify/verification-backend/api/v1"
	"certverify/verification-backend/internal/database"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := database.Migrate(e.conns.Gorm, v1.Models()...); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Schema is up to date (%d tables)\n", len(v1.Models()))
		return nil
	},
}

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create an administrator account",
	Long: `Create an administrator account. Registration through the API never
grants the admin role, so the first admin has to be created here.

Example:
  certctl seed-admin --email admin@example.edu --password 's3cret-pass'`,
	Args: cobra.NoArgs,
	RunE: runSeedAdmin,
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedAdminCmd)

	seedAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin e-mail address")
	seedAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (min 8 characters)")
	seedAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "admin full name")
	_ = seedAdminCmd.MarkFlagRequired("email")
	_ = seedAdminCmd.MarkFlagRequired("password")
}

func runSeedAdmin(cmd *cobra.Command, args []string) error {
	if len(adminPassword) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	ctx := context.Background()
	e, api, err := openAPI(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	user, err := api.Auth.CreateAdmin(ctx, adminEmail, adminPassword, adminName)
	if err != nil {
		return err
	}
	fmt.Printf("Created admin %s (%s)\n", user.Email, user.ID)
	return nil
}
