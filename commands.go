package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gitlab.com/yelinaung/caja-gym/internal/auth"
	"gitlab.com/yelinaung/caja-gym/internal/logger"
	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/service"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed payment methods",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			pool.Close()
			return nil
		},
	}
}

func createUserCmd() *cobra.Command {
	var in service.UserInput
	var role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a back-office user",
		Long: `Create a back-office user. The first admin has to be created this way,
since only admins can create users through the API.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			in.Role = models.Role(role)

			pool, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			users := service.NewUserService(pool, auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL))
			user, err := users.CreateUser(ctx, in)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			logger.Log.Info().
				Str("user_hash", logger.HashUserID(user.ID)).
				Str("role", string(user.Role)).
				Msg("User created")
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %q (id %d)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Username, "username", "", "login username")
	cmd.Flags().StringVar(&in.Password, "password", "", "login password")
	cmd.Flags().StringVar(&role, "role", string(models.RoleCoach), "admin or coach")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
