package main

import (
	"errors"
	"fmt"
	"time"

	"diwan-api/models"
	"diwan-api/services"
	"diwan-api/utils"

	"github.com/spf13/cobra"
)

// newHashPasswordsCommand hashes any password still stored in clear text.
func newHashPasswordsCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "hash-passwords",
		Short: "Hash plain-text passwords left by imports",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.ensureDB()
			if err != nil {
				return err
			}

			var users []models.User
			if err := db.WithContext(cmd.Context()).Find(&users).Error; err != nil {
				return fmt.Errorf("fetch users: %w", err)
			}

			rows := make([][]string, 0, len(users))
			for _, user := range users {
				// Skip if already hashed (bcrypt hashes start with $2)
				if utils.IsPasswordHashed(user.Password) {
					continue
				}
				state := "would hash"
				if !dryRun {
					hashed, err := utils.HashPassword(user.Password)
					if err != nil {
						ctx.logger.Error().Err(err).Str("email", user.Email).Msg("failed to hash password")
						rows = append(rows, []string{user.Email, "failed"})
						continue
					}
					if err := db.WithContext(cmd.Context()).Model(&user).Update("password", hashed).Error; err != nil {
						ctx.logger.Error().Err(err).Str("email", user.Email).Msg("failed to update password")
						rows = append(rows, []string{user.Email, "failed"})
						continue
					}
					state = "hashed"
				}
				rows = append(rows, []string{user.Email, state})
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "All passwords are already hashed.")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"User", "Result"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List affected users without changing them")
	return cmd
}

// newCreateAdminCommand bootstraps an administrator; sign-up only creates contributors.
func newCreateAdminCommand(ctx *commandContext) *cobra.Command {
	var username, email, password, fullName string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !utils.ValidateUsername(username) || !utils.ValidateEmail(email) {
				return errors.New("a valid --username and --email are required")
			}
			if ok, msg := utils.ValidatePassword(password); !ok {
				return errors.New(msg)
			}
			db, err := ctx.ensureDB()
			if err != nil {
				return err
			}
			repo := services.NewUserRepository(db)
			exists, err := repo.UserExists(cmd.Context(), username, email)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("user %s or %s already exists", username, email)
			}
			hashed, err := utils.HashPassword(password)
			if err != nil {
				return err
			}
			now := time.Now()
			user := &models.User{
				Username:  username,
				Email:     email,
				Password:  hashed,
				FullName:  fullName,
				Role:      models.RoleAdmin,
				Status:    models.UserStatusActive,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := repo.CreateUser(cmd.Context(), user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created administrator %s (id %d).\n", user.Username, user.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Login name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	cmd.Flags().StringVar(&fullName, "name", "مدير النظام", "Display name")
	return cmd
}
