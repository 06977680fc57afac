package main

import (
	"github.com/franciscosanchezn/testigo-api/internal/database"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo users and the default catalog",
	Long: `Create the default categories and tags when the catalog is empty, and
one demo account per role (admin, operator, contributor). Existing accounts
are left untouched.`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	_, db, err := bootstrap()
	if err != nil {
		return err
	}
	for _, demo := range database.DemoUsers {
		if _, err := database.EnsureUser(db, demo); err != nil {
			return err
		}
	}
	log.Info("Database seeded successfully")
	return nil
}
