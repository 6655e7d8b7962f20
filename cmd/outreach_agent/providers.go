package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/types"
)

var providersConfigPath string

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered providers and their current quotes",
	Long:  `Shows the provider set the campaign would run with, with a sample quote per adapter. No offers are persisted and nothing is paid.`,
	RunE:  runProviders,
}

func init() {
	providersCmd.Flags().StringVar(&providersConfigPath, "config", "", "Path to config.json file (for board and domain wiring)")
	rootCmd.AddCommand(providersCmd)
}

// dryRunStore satisfies the marketplace store without persisting anything.
// Quote inspection never reaches the settle path.
type dryRunStore struct{}

func (dryRunStore) CreateOffer(context.Context, *types.Offer) error           { return nil }
func (dryRunStore) GetOffer(context.Context, uuid.UUID) (*types.Offer, error) { return nil, nil }
func (dryRunStore) UpdateOfferStatus(context.Context, uuid.UUID, string) error {
	return nil
}
func (dryRunStore) CreateReceipt(context.Context, *types.Receipt) error { return nil }

func runProviders(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	var cfg config.Config
	if providersConfigPath != "" {
		loaded, err := config.LoadConfig(providersConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	market, cleanup, err := buildMarketplace(ctx, cfg, dryRunStore{})
	if err != nil {
		return err
	}
	defer cleanup()

	sampleParams := map[string]any{
		"role":    "software engineer",
		"company": "example",
		"variant": "email",
		"name":    "Jane Doe",
	}

	for _, capability := range []string{
		types.CapabilityJobSearch,
		types.CapabilityPeopleSearch,
		types.CapabilityEnrichment,
		types.CapabilityDrafting,
	} {
		fmt.Printf("%s:\n", capability)
		for _, adapter := range market.Providers(capability) {
			quote, err := adapter.GetQuote(ctx, sampleParams)
			if err != nil {
				fmt.Printf("  %-20s quote unavailable: %v\n", adapter.ID(), err)
				continue
			}
			line := fmt.Sprintf("  %-20s $%.4f", adapter.ID(), quote.PriceUSD)
			if quote.LatencyEstimateMs != nil {
				line += fmt.Sprintf("  ~%dms", *quote.LatencyEstimateMs)
			}
			if quote.ReliabilityScore != nil {
				line += fmt.Sprintf("  rel %.2f", *quote.ReliabilityScore)
			}
			fmt.Println(line)
		}
	}
	return nil
}
