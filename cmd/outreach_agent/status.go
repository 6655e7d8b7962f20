package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/observability"
)

var statusDatabaseURL string

var statusCmd = &cobra.Command{
	Use:   "status <workflow-id>",
	Short: "Show the current status of a workflow",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid workflow id: %w", err)
	}

	cfg, err := readOnlyConfig(statusDatabaseURL)
	if err != nil {
		return err
	}

	orch, _, cleanup, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	view, err := orch.GetWorkflowStatus(ctx, id)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintWorkflowStatus(&view.Workflow)

	if view.Workflow.IsTerminal() {
		printer.PrintRunSummary(&view.Workflow)
	}
	return nil
}

// readOnlyConfig builds the minimal configuration for commands that only
// read campaign state.
func readOnlyConfig(databaseURL string) (config.Config, error) {
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return config.Config{}, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	return config.Config{DatabaseURL: databaseURL}, nil
}
