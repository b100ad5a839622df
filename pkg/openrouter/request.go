package openrouter

import (
	"github.com/google/uuid"

	"github.com/routerkit/routerkit-go/pkg/model"
)

// BuildOptions collects everything the request builder needs besides the
// message log. All fields are optional except Model (or a model list).
type BuildOptions struct {
	Model          string
	Models         []string // explicit per-request fallback list
	FallbackModels []string // client-wide fallback list

	Tools             []ToolParam
	ToolChoice        string // explicit caller directive always wins
	ParallelToolCalls *bool  // nil means allowed

	ResponseFormat *ResponseFormat
	Provider       *ProviderPrefs

	Temperature      *float64
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Stop             []string
	LogitBias        map[string]float64
	Seed             *int64
	MaxTokens        int // included only when positive
}

// BuildRequest turns a message log and options into a transport-ready
// payload. It is a pure transformation: no I/O, no mutation of its inputs.
//
// Tool-choice rule: an explicit caller directive always wins; otherwise the
// request defaults to "auto" when tools exist and omits the field entirely
// when they do not.
func BuildRequest(messages []model.Message, opts BuildOptions) *ChatCompletionRequest {
	req := &ChatCompletionRequest{
		Messages: FilterMessages(messages),
	}

	// An explicit per-request model list takes priority over the global
	// fallback list; either replaces the single model field.
	switch {
	case len(opts.Models) > 0:
		req.Models = append([]string(nil), opts.Models...)
	case len(opts.FallbackModels) > 0:
		req.Models = append([]string{opts.Model}, opts.FallbackModels...)
	default:
		req.Model = opts.Model
	}

	if len(opts.Tools) > 0 {
		req.Tools = append([]ToolParam(nil), opts.Tools...)
		if opts.ToolChoice != "" {
			req.ToolChoice = opts.ToolChoice
		} else {
			req.ToolChoice = ToolChoiceAuto
		}
		allowed := true
		if opts.ParallelToolCalls != nil {
			allowed = *opts.ParallelToolCalls
		}
		req.ParallelToolCalls = &allowed
	} else if opts.ToolChoice == ToolChoiceNone {
		req.ToolChoice = ToolChoiceNone
	}

	if opts.ResponseFormat != nil {
		req.ResponseFormat = opts.ResponseFormat
		req.Provider = opts.Provider
		// A schema-validated format is useless on providers that drop the
		// parameter, so opt into capable routing unless the caller already
		// pinned provider preferences.
		if opts.ResponseFormat.Type == "json_schema" && req.Provider == nil {
			req.Provider = &ProviderPrefs{RequireParameters: true}
		}
	} else {
		req.Provider = opts.Provider
	}

	req.Temperature = opts.Temperature
	req.TopP = opts.TopP
	req.FrequencyPenalty = opts.FrequencyPenalty
	req.PresencePenalty = opts.PresencePenalty
	if len(opts.Stop) > 0 {
		req.Stop = append([]string(nil), opts.Stop...)
	}
	if len(opts.LogitBias) > 0 {
		bias := make(map[string]float64, len(opts.LogitBias))
		for k, v := range opts.LogitBias {
			bias[k] = v
		}
		req.LogitBias = bias
	}
	req.Seed = opts.Seed
	if opts.MaxTokens > 0 {
		maxTokens := opts.MaxTokens
		req.MaxTokens = &maxTokens
	}

	return req
}

// FilterMessages projects the internal message log onto the fields the
// remote API accepts: role, content, tool calls, tool_call_id and name.
// Running an already-filtered log through again is a no-op.
func FilterMessages(messages []model.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, ChatMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCalls:  toWireToolCalls(msg.ToolCalls),
			ToolCallID: msg.ToolCallID,
			Name:       msg.Name,
		})
	}
	return out
}

// ToModelMessage converts a response message back into the internal shape so
// it can be appended to the orchestration log.
func (m *ResponseMessage) ToModelMessage() model.Message {
	msg := model.Message{Role: m.Role, Reasoning: m.Reasoning}
	if msg.Role == "" {
		msg.Role = model.RoleAssistant
	}
	if text, ok := m.ContentText(); ok {
		msg.Content = text
	}
	if len(m.Annotations) > 0 {
		msg.Annotations = append([]any(nil), m.Annotations...)
	}
	for _, call := range m.ToolCalls {
		id := call.ID
		// Some providers omit call ids; every result message still needs one.
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		msg.ToolCalls = append(msg.ToolCalls, model.ToolCall{
			ID:        id,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return msg
}

func toWireToolCalls(calls []model.ToolCall) []ToolCallParam {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ToolCallParam, 0, len(calls))
	for _, call := range calls {
		out = append(out, ToolCallParam{
			ID:   call.ID,
			Type: "function",
			Function: FunctionCall{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		})
	}
	return out
}
