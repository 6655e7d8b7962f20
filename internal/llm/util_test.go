package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain json untouched",
			input:    `{"subject": "Hello"}`,
			expected: `{"subject": "Hello"}`,
		},
		{
			name:     "json fence",
			input:    "```json\n{\"subject\": \"Hello\"}\n```",
			expected: `{"subject": "Hello"}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"subject\": \"Hello\"}\n```",
			expected: `{"subject": "Hello"}`,
		},
		{
			name:     "fence with language identifier",
			input:    "```javascript\n{\"subject\": \"Hello\"}\n```",
			expected: `{"subject": "Hello"}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "  \n```json\n{\"a\": 1}\n```\n  ",
			expected: `{"a": 1}`,
		},
		{
			name:     "embedded backticks preserved",
			input:    "```json\n{\"body\": \"use `go test`\"}\n```",
			expected: "{\"body\": \"use `go test`\"}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}
