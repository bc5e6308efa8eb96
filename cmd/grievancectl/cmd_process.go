package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grievance_desk/backend/internal/config"
	"github.com/grievance_desk/backend/internal/db"
	"github.com/grievance_desk/backend/internal/service"
	"github.com/grievance_desk/backend/internal/triage"
)

var processFlags struct {
	debug bool
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Triage and auto-assign every unassigned pending grievance",
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processFlags.debug, "debug", false, "Include per-grievance samples in the summary")
}

func runProcess(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	logger := newLogger(cfg)

	repo, err := db.Open(cmd.Context(), cfg.DatabaseURL, false)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer repo.Close()

	rules, err := triage.LoadRuleset(cfg.RulesetPath)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	intake := service.NewIntake(repo, triage.NewClassifier(rules), service.Options{
		Hours:       service.WorkingHours{Start: cfg.WorkStartHour, End: cfg.WorkEndHour, Location: loc},
		Parallelism: cfg.ScoringParallelism,
		Logger:      logger,
	})

	summary, err := intake.ProcessPending(cmd.Context(), processFlags.debug)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}
	b, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
