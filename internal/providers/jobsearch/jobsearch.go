// Package jobsearch implements a job-search provider that scrapes public job
// board index pages. It is registered alongside external API providers and
// bids in quote sweeps like any other adapter.
package jobsearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/outreach-agent/internal/fetch"
	"github.com/jonathan/outreach-agent/internal/providers"
	"github.com/jonathan/outreach-agent/internal/types"
)

// DefaultPriceUSD is the flat per-search price this provider quotes. Scraping
// is cheap relative to paid search APIs, so it usually wins cheapest sweeps.
const DefaultPriceUSD = 0.01

// Config tunes the board provider
type Config struct {
	// Boards maps a lowercase company name to its job board index URL
	Boards map[string]string
	// DefaultBoardURL is searched when the request names no known company
	DefaultBoardURL string
	// PriceUSD overrides the flat per-search quote
	PriceUSD float64
	// Fetch overrides HTTP fetch behavior
	Fetch *fetch.Options
}

// Provider scrapes job board pages for postings matching a role
type Provider struct {
	providerID string
	cfg        Config
}

// New creates a board-scraping job search provider
func New(providerID string, cfg Config) *Provider {
	if cfg.PriceUSD <= 0 {
		cfg.PriceUSD = DefaultPriceUSD
	}
	return &Provider{providerID: providerID, cfg: cfg}
}

// ID returns the provider identifier
func (p *Provider) ID() string { return p.providerID }

// Capability returns the capability category
func (p *Provider) Capability() string { return types.CapabilityJobSearch }

// GetQuote estimates the flat scraping price for one search
func (p *Provider) GetQuote(_ context.Context, params map[string]any) (*providers.Quote, error) {
	latency := int64(4000)
	reliability := 0.7 // board markup changes without notice
	return &providers.Quote{
		PriceUSD:          p.cfg.PriceUSD,
		LatencyEstimateMs: &latency,
		ReliabilityScore:  &reliability,
		Capabilities:      []string{types.CapabilityJobSearch},
		Params:            params,
	}, nil
}

// Execute fetches the relevant board page and returns postings matching the
// requested role
func (p *Provider) Execute(ctx context.Context, params map[string]any) (*providers.Result, error) {
	role, _ := params["role"].(string)
	company, _ := params["company"].(string)
	location, _ := params["location"].(string)

	boardURL := p.boardFor(company)
	if boardURL == "" {
		return nil, fmt.Errorf("no job board configured for company %q", company)
	}

	page, err := fetch.URL(ctx, boardURL, p.cfg.Fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job board: %w", err)
	}

	leads, err := ParseListings(page.HTML, boardURL, company)
	if err != nil {
		return nil, err
	}

	var matched []providers.JobLead
	for _, lead := range leads {
		if !matchesRole(lead.Title, role) {
			continue
		}
		if location != "" && lead.Location != "" &&
			!strings.Contains(strings.ToLower(lead.Location), strings.ToLower(location)) {
			continue
		}
		matched = append(matched, lead)
	}

	return &providers.Result{Jobs: matched}, nil
}

func (p *Provider) boardFor(company string) string {
	if company != "" {
		if board, ok := p.cfg.Boards[strings.ToLower(company)]; ok {
			return board
		}
	}
	return p.cfg.DefaultBoardURL
}

// ParseListings extracts job leads from a board index page. Listing anchors
// are located with platform-specific selectors; relative links are resolved
// against the board URL.
func ParseListings(html, boardURL, company string) ([]providers.JobLead, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse board page: %w", err)
	}

	base, err := url.Parse(boardURL)
	if err != nil {
		return nil, fmt.Errorf("invalid board URL: %w", err)
	}

	platform := fetch.DetectPlatform(boardURL)

	var listings *goquery.Selection
	for _, selector := range fetch.ListingSelectors(platform) {
		if sel := doc.Find(selector); sel.Length() > 0 {
			listings = sel
			break
		}
	}
	if listings == nil {
		return nil, nil
	}

	locationSelector := strings.Join(fetch.LocationSelectors(platform), ", ")

	var leads []providers.JobLead
	listings.Each(func(_ int, s *goquery.Selection) {
		title := fetch.CleanWhitespace(s.Text())
		if title == "" {
			return
		}

		lead := providers.JobLead{
			Title:   title,
			Company: company,
		}

		if href, ok := s.Attr("href"); ok && href != "" {
			if ref, err := url.Parse(href); err == nil {
				abs := base.ResolveReference(ref).String()
				lead.URL = abs
				lead.ExternalID = abs
			}
		}

		if loc := s.Parent().Find(locationSelector); loc.Length() > 0 {
			lead.Location = fetch.CleanWhitespace(loc.First().Text())
		}

		leads = append(leads, lead)
	})

	return leads, nil
}

// matchesRole reports whether a posting title matches the requested role:
// either the full phrase, or every word of the role, appears in the title
func matchesRole(title, role string) bool {
	if role == "" {
		return true
	}
	title = strings.ToLower(title)
	role = strings.ToLower(role)

	if strings.Contains(title, role) {
		return true
	}
	for _, word := range strings.Fields(role) {
		if !strings.Contains(title, word) {
			return false
		}
	}
	return true
}
