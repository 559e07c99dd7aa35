package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"moodtracker/internal/auth"
	"moodtracker/internal/cache"
	"moodtracker/internal/repository"
	"moodtracker/internal/service"
)

var deleteUserCmd = &cobra.Command{
	Use:   "delete-user",
	Short: "Delete a user, their entries and credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			return errors.New("--email is required")
		}

		gormDB, err := openDB()
		if err != nil {
			return err
		}
		cacheClient := cache.New(appConfig.RedisAddr, appConfig.RedisPass, appConfig.RedisDB)
		defer cacheClient.Close()

		users := repository.NewUserRepository(gormDB)
		user, err := users.FindByEmail(cmd.Context(), email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no user with email %s", email)
		}
		if err != nil {
			return err
		}

		userService := service.NewUserService(users, repository.NewMoodEntryRepository(gormDB),
			auth.NewTokenStore(cacheClient), cacheClient, service.Options{DefaultLocation: appConfig.Location()})
		if err := userService.DeleteAccount(cmd.Context(), user.ID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s (id %d)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	deleteUserCmd.Flags().String("email", "", "Email of the user to delete")
}
