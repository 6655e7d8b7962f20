package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/observability"
	"github.com/jonathan/outreach-agent/internal/orchestrator"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run an outreach campaign end-to-end",
	Long: `Launches a campaign for the given resume and target roles and streams its
progress until it finishes: job search -> contact discovery -> email
enrichment -> message drafting, each step bought through the quote
marketplace.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runCampaignCmd,
}

var (
	runConfigPath  string
	runResume      string
	runRoles       []string
	runCompanies   []string
	runLocations   []string
	runStrategy    string
	runMaxJobs     int
	runTone        string
	runName        string
	runEmail       string
	runAPIKey      string
	runDatabaseURL string
	runVerbose     bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runResume, "resume", "r", "", "Path to resume text file")
	runCommand.Flags().StringSliceVar(&runRoles, "role", nil, "Target role (repeatable)")
	runCommand.Flags().StringSliceVar(&runCompanies, "company", nil, "Target company (repeatable)")
	runCommand.Flags().StringSliceVar(&runLocations, "location", nil, "Target location (repeatable)")
	runCommand.Flags().StringVarP(&runStrategy, "strategy", "s", "", "Offer selection strategy: cheapest, fastest, reliable, balanced")
	runCommand.Flags().IntVar(&runMaxJobs, "max-jobs", 0, "Maximum jobs per target role")
	runCommand.Flags().StringVar(&runTone, "tone", "", "Drafting tone")
	runCommand.Flags().StringVarP(&runName, "name", "n", "", "Candidate name")
	runCommand.Flags().StringVar(&runEmail, "email", "", "Candidate email")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed progress information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for campaign persistence
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

// resolveRunConfig merges the config file, CLI overrides, and environment
// into one effective configuration.
func resolveRunConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loadedCfg
	}

	// CLI overrides win; only apply flags that were explicitly set
	if cmd.Flags().Changed("resume") {
		cfg.Resume = runResume
	}
	if cmd.Flags().Changed("company") {
		cfg.Companies = runCompanies
	}
	if cmd.Flags().Changed("location") {
		cfg.Locations = runLocations
	}
	if cmd.Flags().Changed("strategy") {
		cfg.Strategy = runStrategy
	}
	if cmd.Flags().Changed("max-jobs") {
		cfg.MaxJobsPerRole = runMaxJobs
	}
	if cmd.Flags().Changed("tone") {
		cfg.Tone = runTone
	}
	if cmd.Flags().Changed("name") {
		cfg.Name = runName
	}
	if cmd.Flags().Changed("email") {
		cfg.Email = runEmail
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		Strategy:         "cheapest",
		MaxJobsPerRole:   10,
		PacingIntervalMs: 500,
	})

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

func runCampaignCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveRunConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Resume == "" {
		return fmt.Errorf("--resume is required (via flag or config)")
	}
	if len(runRoles) == 0 {
		return fmt.Errorf("at least one --role is required")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	resumeText, err := os.ReadFile(cfg.Resume)
	if err != nil {
		return fmt.Errorf("failed to read resume file: %w", err)
	}

	orch, _, cleanup, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := orch.StartWorkflow(ctx, orchestrator.StartParams{
		ResumeText:      string(resumeText),
		CandidateName:   cfg.Name,
		CandidateEmail:  cfg.Email,
		TargetRoles:     runRoles,
		TargetCompanies: cfg.Companies,
		Locations:       cfg.Locations,
		Strategy:        cfg.Strategy,
		MaxJobsPerRole:  cfg.MaxJobsPerRole,
		Tone:            cfg.Tone,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Workflow %s started\n", id)

	printer := observability.NewPrinter(os.Stdout)
	events, err := orch.SubscribeEvents(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to subscribe to workflow events: %w", err)
	}
	for event := range events {
		if cfg.Verbose {
			printer.PrintEvent(event)
		}
	}

	// Channel closed: the run is terminal
	view, err := orch.GetWorkflowResults(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load final results: %w", err)
	}
	printer.PrintRunSummary(&view.Workflow)

	fmt.Printf("\nWorkflow %s finished with status %s\n", id, view.Workflow.Status)
	return nil
}
