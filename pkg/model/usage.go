package model

// Usage holds token accounting for a single API turn. Values are never
// negative; a missing field on the wire simply decodes to zero.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// AddUsage accumulates two per-turn usages field-wise. A nil side acts as
// the identity so "no usage reported" never turns into a spurious zero
// value: AddUsage(nil, x) == x and AddUsage(x, nil) == x.
func AddUsage(a, b *Usage) *Usage {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &Usage{
		PromptTokens:     a.PromptTokens + b.PromptTokens,
		CompletionTokens: a.CompletionTokens + b.CompletionTokens,
		TotalTokens:      a.TotalTokens + b.TotalTokens,
	}
}
