// Package main provides the entry point for the outreach agent CLI and
// HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "outreach_agent",
	Short: "Job outreach campaign orchestrator",
	Long:  "Outreach Agent runs multi-stage job outreach campaigns: job search, contact discovery, email enrichment, and message drafting, with every provider call acquired through a priced quote marketplace.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
