package drafting

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/outreach-agent/internal/llm"
	"github.com/jonathan/outreach-agent/internal/types"
)

// fakeLLM returns canned responses and records the prompts it saw
type fakeLLM struct {
	response string
	err      error
	prompts  []string
	tiers    []llm.ModelTier
}

func (f *fakeLLM) GenerateContent(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateJSON(context.Background(), prompt, tier)
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.tiers = append(f.tiers, tier)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) Close() error { return nil }

func draftParams(variant string) map[string]any {
	return map[string]any{
		"variant":      variant,
		"contact_name": "Jane Doe",
		"contact_role": "Engineering Manager",
		"company":      "Acme",
		"tone":         "direct",
	}
}

func TestProvider_GetQuote(t *testing.T) {
	p := New("drafter", &fakeLLM{}, 0)

	quote, err := p.GetQuote(context.Background(), draftParams(VariantEmail))
	require.NoError(t, err)
	assert.Equal(t, DefaultPriceUSD, quote.PriceUSD)
	assert.Equal(t, []string{types.CapabilityDrafting}, quote.Capabilities)
}

func TestProvider_Execute_Email(t *testing.T) {
	client := &fakeLLM{response: `{"subject": "Hello from a fellow engineer", "body": "Hi Jane, ..."}`}
	p := New("drafter", client, 0)

	result, err := p.Execute(context.Background(), draftParams(VariantEmail))
	require.NoError(t, err)
	require.NotNil(t, result.Draft)
	assert.Equal(t, "Hello from a fellow engineer", result.Draft.Subject)
	assert.NotEmpty(t, result.Draft.Body)

	// Contact context lands in the prompt; full emails use the standard tier
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Jane Doe")
	assert.Contains(t, client.prompts[0], "Acme")
	assert.Contains(t, client.prompts[0], "direct")
	assert.Equal(t, llm.TierStandard, client.tiers[0])
}

func TestProvider_Execute_ShortVariantsUseLiteTier(t *testing.T) {
	for _, variant := range []string{VariantConnectionNote, VariantFollowUp} {
		t.Run(variant, func(t *testing.T) {
			client := &fakeLLM{response: `{"body": "Short note"}`}
			p := New("drafter", client, 0)

			result, err := p.Execute(context.Background(), draftParams(variant))
			require.NoError(t, err)
			assert.Equal(t, "Short note", result.Draft.Body)
			assert.Empty(t, result.Draft.Subject)
			assert.Equal(t, llm.TierLite, client.tiers[0])
		})
	}
}

func TestProvider_Execute_UnknownVariant(t *testing.T) {
	p := New("drafter", &fakeLLM{response: `{"body": "x"}`}, 0)

	_, err := p.Execute(context.Background(), draftParams("haiku"))
	assert.Error(t, err)
}

func TestProvider_Execute_RejectsInvalidOutput(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"missing body", `{"subject": "Hi"}`},
		{"empty body", `{"body": ""}`},
		{"extra fields", `{"body": "Hi", "signature": "Bot"}`},
		{"not json", `Dear Jane, ...`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("drafter", &fakeLLM{response: tt.response}, 0)
			_, err := p.Execute(context.Background(), draftParams(VariantEmail))
			assert.Error(t, err)
		})
	}
}

func TestProvider_Execute_GenerationFailure(t *testing.T) {
	p := New("drafter", &fakeLLM{err: errors.New("quota exceeded")}, 0)

	_, err := p.Execute(context.Background(), draftParams(VariantEmail))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
