package model

// ToolCallDetail is the audit record produced for every tool invocation,
// successful or not. It is accumulated across turns and returned both on
// success and attached to terminal failures.
type ToolCallDetail struct {
	ToolName   string `json:"tool_name"`
	CallID     string `json:"call_id"`
	Success    bool   `json:"success"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// ChatCompletionResult is the final outcome of one logical call: the last
// turn's content plus the accounting accumulated over every round trip.
//
// Content is a string for plain responses and a decoded JSON value when a
// structured output format was requested; it is nil when lenient structured
// parsing gave up on malformed content.
type ChatCompletionResult struct {
	Content         any              `json:"content"`
	Usage           *Usage           `json:"usage,omitempty"`
	Model           string           `json:"model"`
	ToolCallsCount  int              `json:"tool_calls_count"`
	ToolCallDetails []ToolCallDetail `json:"tool_call_details,omitempty"`
	FinishReason    string           `json:"finish_reason"`
	Cost            *float64         `json:"cost,omitempty"`
	ID              string           `json:"id"`
	Reasoning       string           `json:"reasoning,omitempty"`
	Annotations     []any            `json:"annotations,omitempty"`
}

// Text returns the content as a string when it is one, else "".
func (r *ChatCompletionResult) Text() string {
	if r == nil {
		return ""
	}
	s, _ := r.Content.(string)
	return s
}
