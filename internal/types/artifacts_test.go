package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJob_DedupKey(t *testing.T) {
	withID := &Job{ExternalID: "gh-123", Title: "Engineer", Company: "Acme"}
	assert.Equal(t, "gh-123", withID.DedupKey())

	noID := &Job{Title: " Senior Engineer ", Company: "Acme Corp"}
	assert.Equal(t, "senior engineer|acme corp", noID.DedupKey())
}

func TestDedupJobs_CollapsesTitleCompanyDuplicates(t *testing.T) {
	jobs := []Job{
		{Title: "Backend Engineer", Company: "Acme"},
		{Title: "backend engineer", Company: "ACME"},
		{Title: "Backend Engineer", Company: "Globex"},
	}

	out := DedupJobs(jobs, 0)
	require.Len(t, out, 2)
	assert.Equal(t, "Acme", out[0].Company)
	assert.Equal(t, "Globex", out[1].Company)
}

func TestDedupJobs_PrefersNativeID(t *testing.T) {
	jobs := []Job{
		{ExternalID: "a", Title: "Engineer", Company: "Acme"},
		{ExternalID: "b", Title: "Engineer", Company: "Acme"},
	}

	// Distinct native IDs survive even with identical title+company
	out := DedupJobs(jobs, 0)
	assert.Len(t, out, 2)
}

func TestDedupJobs_CapsToLimit(t *testing.T) {
	jobs := []Job{
		{Title: "A", Company: "X"},
		{Title: "B", Company: "X"},
		{Title: "C", Company: "X"},
	}

	out := DedupJobs(jobs, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].Title)
	assert.Equal(t, "B", out[1].Title)
}

func TestContact_NeedsEnrichment(t *testing.T) {
	email := "jane@acme.com"

	// No email, no profile URL: nothing to enrich from
	bare := &Contact{}
	assert.False(t, bare.NeedsEnrichment())

	// Profile URL but no email: enrich
	withURL := &Contact{ProfileURL: "https://linkedin.com/in/jane"}
	assert.True(t, withURL.NeedsEnrichment())

	// Already has an email: leave alone
	withEmail := &Contact{ProfileURL: "https://linkedin.com/in/jane", Email: &email}
	assert.False(t, withEmail.NeedsEnrichment())
}
