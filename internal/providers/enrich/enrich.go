// Package enrich implements a contact-enrichment provider that derives
// candidate email addresses from name patterns and known company domains.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/outreach-agent/internal/providers"
	"github.com/jonathan/outreach-agent/internal/types"
)

// DefaultPriceUSD is the per-lookup price this provider quotes
const DefaultPriceUSD = 0.005

// Confidence levels for derived addresses. A verified directory hit scores
// higher than a guessed pattern on a guessed domain.
const (
	confidenceKnownDomain   = 0.7
	confidenceGuessedDomain = 0.4
)

// Config tunes the pattern enricher
type Config struct {
	// Domains maps a lowercase company name to its known email domain
	Domains map[string]string
	// Pattern is the local-part layout: "first.last", "flast", or "first"
	Pattern string
	// PriceUSD overrides the per-lookup quote
	PriceUSD float64
}

// Provider derives contact emails from naming patterns
type Provider struct {
	providerID string
	cfg        Config
}

// New creates a pattern-based enrichment provider
func New(providerID string, cfg Config) *Provider {
	if cfg.Pattern == "" {
		cfg.Pattern = "first.last"
	}
	if cfg.PriceUSD <= 0 {
		cfg.PriceUSD = DefaultPriceUSD
	}
	return &Provider{providerID: providerID, cfg: cfg}
}

// ID returns the provider identifier
func (p *Provider) ID() string { return p.providerID }

// Capability returns the capability category
func (p *Provider) Capability() string { return types.CapabilityEnrichment }

// GetQuote estimates the per-lookup price
func (p *Provider) GetQuote(_ context.Context, params map[string]any) (*providers.Quote, error) {
	latency := int64(500)
	reliability := 0.8
	return &providers.Quote{
		PriceUSD:          p.cfg.PriceUSD,
		LatencyEstimateMs: &latency,
		ReliabilityScore:  &reliability,
		Capabilities:      []string{types.CapabilityEnrichment},
		Params:            params,
	}, nil
}

// Execute derives an email address for one contact
func (p *Provider) Execute(_ context.Context, params map[string]any) (*providers.Result, error) {
	name, _ := params["name"].(string)
	company, _ := params["company"].(string)

	if name == "" {
		return nil, fmt.Errorf("contact name is required for enrichment")
	}
	if company == "" {
		return nil, fmt.Errorf("company is required for enrichment")
	}

	local := localPart(name, p.cfg.Pattern)
	if local == "" {
		return nil, fmt.Errorf("could not derive email pattern for %q", name)
	}

	domain, known := p.cfg.Domains[strings.ToLower(company)]
	confidence := confidenceKnownDomain
	if !known {
		domain = guessDomain(company)
		confidence = confidenceGuessedDomain
	}

	return &providers.Result{
		Enrichment: &providers.Enrichment{
			Email:      local + "@" + domain,
			Confidence: confidence,
			Source:     p.providerID,
		},
	}, nil
}

// localPart derives the email local part from a person's name
func localPart(name, pattern string) string {
	fields := strings.Fields(normalize(name))
	if len(fields) == 0 {
		return ""
	}

	first := fields[0]
	last := ""
	if len(fields) > 1 {
		last = fields[len(fields)-1]
	}

	switch pattern {
	case "first.last":
		if last == "" {
			return first
		}
		return first + "." + last
	case "flast":
		if last == "" {
			return first
		}
		return first[:1] + last
	case "first":
		return first
	default:
		if last == "" {
			return first
		}
		return first + "." + last
	}
}

// guessDomain falls back to companyname.com when no domain is configured
func guessDomain(company string) string {
	cleaned := strings.ReplaceAll(normalize(company), " ", "")
	return cleaned + ".com"
}

// normalize lowercases and strips everything but letters, digits, and spaces
func normalize(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}
