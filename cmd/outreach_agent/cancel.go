package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var cancelDatabaseURL string

var cancelCmd = &cobra.Command{
	Use:   "cancel <workflow-id>",
	Short: "Cancel an active workflow",
	Long:  `Marks the workflow cancelled. A run started by another process observes the cancellation at its next checkpoint; an in-flight provider call is not interrupted.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func init() {
	cancelCmd.Flags().StringVar(&cancelDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid workflow id: %w", err)
	}

	cfg, err := readOnlyConfig(cancelDatabaseURL)
	if err != nil {
		return err
	}

	orch, _, cleanup, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := orch.CancelWorkflow(ctx, id); err != nil {
		return err
	}

	fmt.Printf("Workflow %s cancelled\n", id)
	return nil
}
