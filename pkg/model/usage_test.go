package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddUsage(t *testing.T) {
	tests := []struct {
		name string
		a    *Usage
		b    *Usage
		want *Usage
	}{
		{
			name: "both nil",
			want: nil,
		},
		{
			name: "nil left identity",
			b:    &Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			want: &Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		},
		{
			name: "nil right identity",
			a:    &Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			want: &Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		},
		{
			name: "field-wise sum",
			a:    &Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
			b:    &Usage{PromptTokens: 40, CompletionTokens: 8, TotalTokens: 48},
			want: &Usage{PromptTokens: 140, CompletionTokens: 28, TotalTokens: 168},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddUsage(tt.a, tt.b)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestAddUsageDoesNotMutateInputs(t *testing.T) {
	a := &Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}
	b := &Usage{PromptTokens: 4, CompletionTokens: 5, TotalTokens: 9}

	got := AddUsage(a, b)

	require.NotSame(t, a, got)
	require.NotSame(t, b, got)
	assert.Equal(t, Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}, *a)
	assert.Equal(t, Usage{PromptTokens: 4, CompletionTokens: 5, TotalTokens: 9}, *b)
}
