package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mfuentes/plaza/internal/auth"
	"github.com/mfuentes/plaza/internal/config"
	"github.com/mfuentes/plaza/internal/database"
	"github.com/mfuentes/plaza/internal/domain"
	"github.com/spf13/cobra"
)

var (
	adminUsername string
	adminEmail    string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long:  `Creates a user with the admin role directly in the database, bypassing the public registration endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.New()

		ctx := context.Background()
		db, err := database.NewDB(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close(ctx)

		hash, err := auth.HashPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		users := database.NewSurrealUserStore(db, cfg.DBNs, cfg.DBDb)
		user, err := users.Create(ctx, &domain.User{
			Username:     adminUsername,
			Email:        adminEmail,
			PasswordHash: hash,
			Role:         domain.RoleAdmin,
		})
		if err != nil {
			if errors.Is(err, domain.ErrUserAlreadyExists) {
				fmt.Fprintln(os.Stderr, "A user with that email or username already exists.")
				os.Exit(1)
			}
			return fmt.Errorf("failed to create admin: %w", err)
		}

		fmt.Printf("Created admin %q (%s)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createAdminCmd)
}
