// Package drafting implements the LLM-backed message-drafting provider. Each
// Execute call generates one message variant for one contact and validates
// the model output against a JSON Schema before returning it.
package drafting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/outreach-agent/internal/llm"
	"github.com/jonathan/outreach-agent/internal/providers"
	"github.com/jonathan/outreach-agent/internal/schemas"
	"github.com/jonathan/outreach-agent/internal/types"
)

// DefaultPriceUSD is the per-variant generation price this provider quotes
const DefaultPriceUSD = 0.002

// Message variants this provider can draft
const (
	VariantEmail          = "email"
	VariantConnectionNote = "connection_note"
	VariantFollowUp       = "follow_up"
)

// draftSchema constrains the model output: a body is always required, the
// subject only appears on full email drafts
const draftSchema = `{
	"type": "object",
	"required": ["body"],
	"additionalProperties": false,
	"properties": {
		"subject": {"type": "string"},
		"body": {"type": "string", "minLength": 1}
	}
}`

// Provider drafts outreach messages with an LLM
type Provider struct {
	providerID string
	client     llm.Client
	priceUSD   float64
}

// New creates a drafting provider on top of an LLM client
func New(providerID string, client llm.Client, priceUSD float64) *Provider {
	if priceUSD <= 0 {
		priceUSD = DefaultPriceUSD
	}
	return &Provider{
		providerID: providerID,
		client:     client,
		priceUSD:   priceUSD,
	}
}

// ID returns the provider identifier
func (p *Provider) ID() string { return p.providerID }

// Capability returns the capability category
func (p *Provider) Capability() string { return types.CapabilityDrafting }

// GetQuote estimates the per-variant generation price
func (p *Provider) GetQuote(_ context.Context, params map[string]any) (*providers.Quote, error) {
	latency := int64(3000)
	reliability := 0.9
	return &providers.Quote{
		PriceUSD:          p.priceUSD,
		LatencyEstimateMs: &latency,
		ReliabilityScore:  &reliability,
		Capabilities:      []string{types.CapabilityDrafting},
		Params:            params,
	}, nil
}

// Execute generates one message variant and validates the model output
func (p *Provider) Execute(ctx context.Context, params map[string]any) (*providers.Result, error) {
	variant, _ := params["variant"].(string)
	if variant == "" {
		variant = VariantEmail
	}

	prompt, tier, err := buildPrompt(variant, params)
	if err != nil {
		return nil, err
	}

	raw, err := p.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return nil, fmt.Errorf("failed to draft %s: %w", variant, err)
	}

	if err := schemas.ValidateJSONString(draftSchema, raw); err != nil {
		return nil, fmt.Errorf("draft output rejected: %w", err)
	}

	var draft providers.MessageDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}

	return &providers.Result{Draft: &draft}, nil
}

// buildPrompt assembles the generation prompt for one variant. Short-form
// variants run on the lite tier.
func buildPrompt(variant string, params map[string]any) (string, llm.ModelTier, error) {
	contactName, _ := params["contact_name"].(string)
	contactRole, _ := params["contact_role"].(string)
	company, _ := params["company"].(string)
	tone, _ := params["tone"].(string)
	if tone == "" {
		tone = "warm and professional"
	}

	var sb strings.Builder
	sb.WriteString("You are drafting personalized job-outreach messages for a candidate.\n")
	fmt.Fprintf(&sb, "Recipient: %s", contactName)
	if contactRole != "" {
		fmt.Fprintf(&sb, ", %s", contactRole)
	}
	if company != "" {
		fmt.Fprintf(&sb, " at %s", company)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Tone: %s\n\n", tone)

	var tier llm.ModelTier
	switch variant {
	case VariantEmail:
		tier = llm.TierStandard
		sb.WriteString("Write a concise outreach email (under 150 words) expressing interest in ")
		sb.WriteString("opportunities on their team. Mention the company naturally, never sound templated.\n")
		sb.WriteString(`Return ONLY JSON: {"subject": "...", "body": "..."}`)
	case VariantConnectionNote:
		tier = llm.TierLite
		sb.WriteString("Write a LinkedIn connection note (under 300 characters) for this person.\n")
		sb.WriteString(`Return ONLY JSON: {"body": "..."}`)
	case VariantFollowUp:
		tier = llm.TierLite
		sb.WriteString("Write a short, polite follow-up message (under 80 words) to send one week ")
		sb.WriteString("after an unanswered outreach email.\n")
		sb.WriteString(`Return ONLY JSON: {"body": "..."}`)
	default:
		return "", "", fmt.Errorf("unknown draft variant: %s", variant)
	}

	sb.WriteString("\nNo markdown, no explanation, no code blocks.")
	return sb.String(), tier, nil
}
