package openrouter

import (
	"fmt"

	"github.com/routerkit/routerkit-go/pkg/model"
)

const (
	defaultBaseURL      = "https://openrouter.ai/api"
	chatCompletionsPath = "/v1/chat/completions"
	defaultHTTPTimeout  = 120 // seconds
	defaultRetryMax     = 2
	userAgent           = "routerkit-go"
)

// Finish reasons returned by the chat completions API.
const (
	FinishStop      = "stop"
	FinishLength    = "length"
	FinishToolCalls = "tool_calls"
)

// Tool-choice directives.
const (
	ToolChoiceAuto     = "auto"
	ToolChoiceNone     = "none"
	ToolChoiceRequired = "required"
)

// ChatMessage is a single turn in the exact shape the remote API accepts.
// Local bookkeeping fields (timestamps, reasoning) never appear here.
type ChatMessage struct {
	Role       string          `json:"role"`
	Content    string          `json:"content,omitempty"`
	ToolCalls  []ToolCallParam `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Name       string          `json:"name,omitempty"`
}

// ToolCallParam mirrors the wire encoding of an assistant tool call.
type ToolCallParam struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the function name and its raw JSON argument string.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolParam advertises a callable tool to the model. Only name, description
// and parameter schema travel on the wire; never the executable.
type ToolParam struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef describes the function signature.
type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ResponseFormat requests structured output for the final turn.
type ResponseFormat struct {
	Type       string            `json:"type"` // "json_object" or "json_schema"
	JSONSchema *JSONSchemaFormat `json:"json_schema,omitempty"`
}

// JSONSchemaFormat is the schema-validated variant of ResponseFormat.
type JSONSchemaFormat struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict,omitempty"`
	Schema map[string]any `json:"schema"`
}

// JSONObjectFormat requests plain JSON-object output.
func JSONObjectFormat() *ResponseFormat {
	return &ResponseFormat{Type: "json_object"}
}

// JSONSchemaResponseFormat requests output validated against schema.
func JSONSchemaResponseFormat(name string, schema map[string]any) *ResponseFormat {
	return &ResponseFormat{
		Type:       "json_schema",
		JSONSchema: &JSONSchemaFormat{Name: name, Strict: true, Schema: schema},
	}
}

// ProviderPrefs narrows provider routing. RequireParameters opts the request
// into providers that support every requested parameter, which keeps schema
// formats from being silently ignored.
type ProviderPrefs struct {
	Order             []string `json:"order,omitempty"`
	AllowFallbacks    *bool    `json:"allow_fallbacks,omitempty"`
	RequireParameters bool     `json:"require_parameters,omitempty"`
}

// ChatCompletionRequest is the transport-ready payload for one round trip.
type ChatCompletionRequest struct {
	Model             string             `json:"model,omitempty"`
	Models            []string           `json:"models,omitempty"`
	Messages          []ChatMessage      `json:"messages"`
	Tools             []ToolParam        `json:"tools,omitempty"`
	ToolChoice        string             `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool              `json:"parallel_tool_calls,omitempty"`
	ResponseFormat    *ResponseFormat    `json:"response_format,omitempty"`
	Provider          *ProviderPrefs     `json:"provider,omitempty"`
	Temperature       *float64           `json:"temperature,omitempty"`
	TopP              *float64           `json:"top_p,omitempty"`
	FrequencyPenalty  *float64           `json:"frequency_penalty,omitempty"`
	PresencePenalty   *float64           `json:"presence_penalty,omitempty"`
	Stop              []string           `json:"stop,omitempty"`
	LogitBias         map[string]float64 `json:"logit_bias,omitempty"`
	Seed              *int64             `json:"seed,omitempty"`
	MaxTokens         *int               `json:"max_tokens,omitempty"`
}

// ResponseMessage is the assistant message inside a choice. Content is kept
// as a raw JSON-decoded value because some providers return structured
// content parts instead of plain text.
type ResponseMessage struct {
	Role        string          `json:"role"`
	Content     any             `json:"content"`
	ToolCalls   []ToolCallParam `json:"tool_calls,omitempty"`
	Reasoning   string          `json:"reasoning,omitempty"`
	Annotations []any           `json:"annotations,omitempty"`
}

// Choice is one completion candidate.
type Choice struct {
	Index        int              `json:"index"`
	Message      *ResponseMessage `json:"message"`
	FinishReason string           `json:"finish_reason"`
}

// ErrorBody is the structured error object the API can return, sometimes
// inside an otherwise successful HTTP response.
type ErrorBody struct {
	Code     int            `json:"code"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ChatCompletionResponse is the decoded body of one round trip.
type ChatCompletionResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []Choice     `json:"choices"`
	Usage   *model.Usage `json:"usage,omitempty"`
	Error   *ErrorBody   `json:"error,omitempty"`
}

// ContentText returns the message content when it is plain text.
func (m *ResponseMessage) ContentText() (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m.Content.(string)
	return s, ok
}

// APIError surfaces remote failures with HTTP metadata attached.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Metadata   map[string]any
}

func (e APIError) Error() string {
	if e.Code != 0 && e.Code != e.StatusCode {
		return fmt.Sprintf("openrouter API error (%d, code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("openrouter API error (%d): %s", e.StatusCode, e.Message)
}

// ClassifyStatus maps a remote status code onto the error taxonomy.
func ClassifyStatus(status int) model.ErrorKind {
	switch status {
	case 401:
		return model.KindAuthentication
	case 403:
		return model.KindAccessDenied
	case 429:
		return model.KindRateLimit
	default:
		return model.KindAPI
	}
}
