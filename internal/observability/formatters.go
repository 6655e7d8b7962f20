// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/outreach-agent/internal/marketplace"
	"github.com/jonathan/outreach-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintQuoteSweep outputs the price range considered during one quote sweep
// and which provider the strategy selected.
func (p *Printer) PrintQuoteSweep(summary *marketplace.SweepSummary) {
	if summary == nil || summary.OffersConsidered == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Capability: %s\n", summary.Capability))
	sb.WriteString(fmt.Sprintf("Strategy:   %s\n", summary.Strategy))
	sb.WriteString(fmt.Sprintf("Bids:       %d\n\n", summary.OffersConsidered))

	sb.WriteString(fmt.Sprintf("✓ %s  $%.4f\n", summary.SelectedProvider, summary.SelectedPriceUSD))
	if summary.OffersConsidered > 1 {
		sb.WriteString(fmt.Sprintf("  range $%.4f to $%.4f", summary.LowestPriceUSD, summary.HighestPriceUSD))
	}

	p.printBox("QUOTE SWEEP", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWorkflowStatus outputs a progress snapshot for a running workflow.
func (p *Printer) PrintWorkflowStatus(wf *types.Workflow) {
	if wf == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:   %s\n", wf.Status))
	if wf.Progress.CurrentStep != "" {
		sb.WriteString(fmt.Sprintf("Step:     %s\n", wf.Progress.CurrentStep))
	}
	if wf.Progress.CurrentRole != "" {
		sb.WriteString(fmt.Sprintf("Role:     %s\n", wf.Progress.CurrentRole))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Roles:    %d/%d\n", wf.Progress.RolesCompleted, wf.Progress.TotalRoles))
	sb.WriteString(fmt.Sprintf("Jobs:     %d\n", wf.Progress.JobsFound))
	sb.WriteString(fmt.Sprintf("Contacts: %d\n", wf.Progress.ContactsFound))
	sb.WriteString(fmt.Sprintf("Emails:   %d\n", wf.Progress.EmailsDrafted))
	sb.WriteString(fmt.Sprintf("Spend:    $%.4f", wf.TotalCostUSD))

	p.printBox("WORKFLOW STATUS", sb.String())
}

// PrintRunSummary outputs the final accounting for a finished workflow:
// artifact counts, spend per capability, and any per-item errors.
func (p *Printer) PrintRunSummary(wf *types.Workflow) {
	if wf == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:   %s\n", wf.Status))
	sb.WriteString(fmt.Sprintf("Jobs:     %d\n", wf.Progress.JobsFound))
	sb.WriteString(fmt.Sprintf("Contacts: %d\n", wf.Progress.ContactsFound))
	sb.WriteString(fmt.Sprintf("Emails:   %d\n", wf.Progress.EmailsDrafted))
	sb.WriteString("\n")

	if len(wf.CostBreakdown) > 0 {
		sb.WriteString("Spend by capability:\n")
		capabilities := make([]string, 0, len(wf.CostBreakdown))
		for capability := range wf.CostBreakdown {
			capabilities = append(capabilities, capability)
		}
		sort.Strings(capabilities)
		for _, capability := range capabilities {
			sb.WriteString(fmt.Sprintf("  %-20s $%.4f\n", capability, wf.CostBreakdown[capability]))
		}
	}
	sb.WriteString(fmt.Sprintf("Total:    $%.4f", wf.TotalCostUSD))

	p.printBox("RUN SUMMARY", sb.String())

	p.printErrors(wf.Errors)
}

// printErrors outputs the workflow's error log, or a clean-run marker
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printErrors(errs []types.WorkflowError) {
	if len(errs) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO ERRORS RECORDED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Recorded %d errors:\n\n", len(errs)))

	count := min(len(errs), maxItemsToShow)
	for i := 0; i < count; i++ {
		e := errs[i]
		message := e.Message
		if len(message) > 45 {
			message = message[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("⚠ %s\n", e.Step))
		sb.WriteString(fmt.Sprintf("  %s\n", message))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(errs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more errors", len(errs)-maxItemsToShow))
	}

	p.printBox("RUN ERRORS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintEvent outputs one progress event as a single line
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintEvent(event types.Event) {
	line := string(event.Type)
	if event.Message != "" {
		line += ": " + event.Message
	}
	fmt.Fprintf(p.out, "  [%s] %s\n", event.At.Format("15:04:05"), line)
}
