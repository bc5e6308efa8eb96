package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grievance_desk/backend/internal/config"
	"github.com/grievance_desk/backend/internal/db"
)

var migrateFlags struct {
	seed bool
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the schema to DATABASE_URL",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateFlags.seed, "seed", false, "Also load the demo units and officers")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	logger := newLogger(cfg)

	// Open migrates before returning.
	repo, err := db.Open(cmd.Context(), cfg.DatabaseURL, migrateFlags.seed)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer repo.Close()

	logger.Info().Bool("seeded", migrateFlags.seed).Msg("schema applied")
	return nil
}
