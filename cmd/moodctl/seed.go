package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"moodtracker/internal/repository"
	"moodtracker/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo user with a mood history",
	Long: `Create a demo user (unless one with the email exists) and record one
entry per day, ending today in the user's timezone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		password, _ := cmd.Flags().GetString("password")
		timezone, _ := cmd.Flags().GetString("timezone")
		days, _ := cmd.Flags().GetInt("days")
		skip, _ := cmd.Flags().GetFloat64("skip-rate")

		gormDB, err := openDB()
		if err != nil {
			return err
		}

		seeder := seed.New(repository.NewUserRepository(gormDB), repository.NewMoodEntryRepository(gormDB))
		result, err := seeder.Seed(cmd.Context(), seed.Options{
			Email:      email,
			Name:       name,
			Password:   password,
			Timezone:   timezone,
			Days:       days,
			SkipRate:   skip,
			BcryptCost: appConfig.BcryptCost,
		})
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}

		status := "existing"
		if result.CreatedUser {
			status = "new"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d entries for %s user %s (id %d)\n",
			result.Entries, status, result.User.Email, result.User.ID)
		return nil
	},
}

func init() {
	seedCmd.Flags().String("email", "demo@example.com", "Email of the demo user")
	seedCmd.Flags().String("name", "Demo User", "Name used when the user is created")
	seedCmd.Flags().String("password", seed.DefaultPassword, "Password used when the user is created")
	seedCmd.Flags().String("timezone", "", "IANA timezone of a created user")
	seedCmd.Flags().Int("days", 30, "Number of days of history")
	seedCmd.Flags().Float64("skip-rate", 0.15, "Chance of a day without an entry")
}
