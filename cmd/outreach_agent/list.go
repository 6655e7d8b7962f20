package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/orchestrator"
)

var (
	listStatus      string
	listLimit       int
	listOffset      int
	listDatabaseURL string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows, newest first",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (pending, completed, failed, cancelled, ...)")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum workflows to show")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Offset into the result set")
	listCmd.Flags().StringVar(&listDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := readOnlyConfig(listDatabaseURL)
	if err != nil {
		return err
	}

	orch, _, cleanup, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	workflows, err := orch.ListWorkflows(ctx, orchestrator.ListFilter{
		Status: listStatus,
		Limit:  listLimit,
		Offset: listOffset,
	})
	if err != nil {
		return err
	}

	if len(workflows) == 0 {
		fmt.Println("No workflows found")
		return nil
	}

	fmt.Printf("%-36s  %-16s  %-5s  %-8s  %s\n", "ID", "STATUS", "JOBS", "EMAILS", "SPEND")
	for _, wf := range workflows {
		fmt.Printf("%-36s  %-16s  %-5d  %-8d  $%.4f\n",
			wf.ID, wf.Status, wf.Progress.JobsFound, wf.Progress.EmailsDrafted, wf.TotalCostUSD)
	}
	return nil
}
