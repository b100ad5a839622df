package openrouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routerkit/routerkit-go/pkg/model"
)

func weatherTool() ToolParam {
	return ToolParam{
		Type: "function",
		Function: FunctionDef{
			Name:        "get_weather",
			Description: "Current weather for a city",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"city": map[string]any{"type": "string"}},
				"required":   []any{"city"},
			},
		},
	}
}

func TestBuildRequestModelSelection(t *testing.T) {
	msgs := []model.Message{model.UserMessage("hi")}

	tests := []struct {
		name       string
		opts       BuildOptions
		wantModel  string
		wantModels []string
	}{
		{
			name:      "single model",
			opts:      BuildOptions{Model: "openai/gpt-4o"},
			wantModel: "openai/gpt-4o",
		},
		{
			name:       "client fallbacks become model list",
			opts:       BuildOptions{Model: "openai/gpt-4o", FallbackModels: []string{"anthropic/claude-3.5-sonnet"}},
			wantModels: []string{"openai/gpt-4o", "anthropic/claude-3.5-sonnet"},
		},
		{
			name: "per-request list wins over client fallbacks",
			opts: BuildOptions{
				Model:          "openai/gpt-4o",
				FallbackModels: []string{"anthropic/claude-3.5-sonnet"},
				Models:         []string{"mistralai/mistral-large", "openai/gpt-4o-mini"},
			},
			wantModels: []string{"mistralai/mistral-large", "openai/gpt-4o-mini"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := BuildRequest(msgs, tt.opts)
			assert.Equal(t, tt.wantModel, req.Model)
			assert.Equal(t, tt.wantModels, req.Models)
		})
	}
}

func TestBuildRequestToolChoice(t *testing.T) {
	msgs := []model.Message{model.UserMessage("hi")}

	tests := []struct {
		name           string
		opts           BuildOptions
		wantToolChoice string
		wantParallel   *bool
	}{
		{
			name:           "tools default to auto",
			opts:           BuildOptions{Model: "m", Tools: []ToolParam{weatherTool()}},
			wantToolChoice: ToolChoiceAuto,
			wantParallel:   boolPtr(true),
		},
		{
			name:           "explicit directive wins",
			opts:           BuildOptions{Model: "m", Tools: []ToolParam{weatherTool()}, ToolChoice: ToolChoiceRequired},
			wantToolChoice: ToolChoiceRequired,
			wantParallel:   boolPtr(true),
		},
		{
			name:           "parallel disabled is forwarded",
			opts:           BuildOptions{Model: "m", Tools: []ToolParam{weatherTool()}, ParallelToolCalls: boolPtr(false)},
			wantToolChoice: ToolChoiceAuto,
			wantParallel:   boolPtr(false),
		},
		{
			name: "no tools omits the field",
			opts: BuildOptions{Model: "m"},
		},
		{
			name:           "explicit none survives without tools",
			opts:           BuildOptions{Model: "m", ToolChoice: ToolChoiceNone},
			wantToolChoice: ToolChoiceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := BuildRequest(msgs, tt.opts)
			assert.Equal(t, tt.wantToolChoice, req.ToolChoice)
			assert.Equal(t, tt.wantParallel, req.ParallelToolCalls)
		})
	}
}

func TestBuildRequestSchemaFormatRequiresParameters(t *testing.T) {
	msgs := []model.Message{model.UserMessage("hi")}
	format := JSONSchemaResponseFormat("answer", map[string]any{"type": "object"})

	req := BuildRequest(msgs, BuildOptions{Model: "m", ResponseFormat: format})
	require.NotNil(t, req.Provider)
	assert.True(t, req.Provider.RequireParameters)

	// Caller-pinned provider preferences are left alone.
	pinned := &ProviderPrefs{Order: []string{"openai"}}
	req = BuildRequest(msgs, BuildOptions{Model: "m", ResponseFormat: format, Provider: pinned})
	assert.Equal(t, pinned, req.Provider)

	// The plain JSON-object format needs no capable-provider routing.
	req = BuildRequest(msgs, BuildOptions{Model: "m", ResponseFormat: JSONObjectFormat()})
	assert.Nil(t, req.Provider)
}

func TestBuildRequestGenerationParams(t *testing.T) {
	msgs := []model.Message{model.UserMessage("hi")}
	temp := 0.2
	seed := int64(7)

	req := BuildRequest(msgs, BuildOptions{
		Model:       "m",
		Temperature: &temp,
		Seed:        &seed,
		Stop:        []string{"END"},
		LogitBias:   map[string]float64{"50256": -100},
		MaxTokens:   256,
	})

	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.2, *req.Temperature)
	require.NotNil(t, req.Seed)
	assert.Equal(t, int64(7), *req.Seed)
	assert.Equal(t, []string{"END"}, req.Stop)
	assert.Equal(t, map[string]float64{"50256": -100}, req.LogitBias)
	require.NotNil(t, req.MaxTokens)
	assert.Equal(t, 256, *req.MaxTokens)

	// Zero and absent optionals stay off the wire.
	req = BuildRequest(msgs, BuildOptions{Model: "m"})
	assert.Nil(t, req.Temperature)
	assert.Nil(t, req.MaxTokens)
	assert.Empty(t, req.Stop)
}

func TestFilterMessagesStripsLocalFields(t *testing.T) {
	msgs := []model.Message{
		model.SystemMessage("be terse"),
		{
			Role:      model.RoleAssistant,
			Content:   "checking",
			Reasoning: "internal chain of thought",
			ToolCalls: []model.ToolCall{{ID: "call_1", Name: "get_weather", Arguments: `{"city":"Oslo"}`}},
		},
		model.ToolResultMessage("call_1", "12C"),
	}

	wire := FilterMessages(msgs)
	require.Len(t, wire, 3)

	assert.Equal(t, model.RoleSystem, wire[0].Role)
	assert.Equal(t, "be terse", wire[0].Content)

	require.Len(t, wire[1].ToolCalls, 1)
	assert.Equal(t, "call_1", wire[1].ToolCalls[0].ID)
	assert.Equal(t, "function", wire[1].ToolCalls[0].Type)
	assert.Equal(t, "get_weather", wire[1].ToolCalls[0].Function.Name)

	assert.Equal(t, "call_1", wire[2].ToolCallID)
}

func TestToModelMessage(t *testing.T) {
	resp := &ResponseMessage{
		Role:      model.RoleAssistant,
		Content:   "done",
		Reasoning: "r",
		ToolCalls: []ToolCallParam{
			{ID: "call_1", Type: "function", Function: FunctionCall{Name: "get_weather", Arguments: `{"city":"Oslo"}`}},
		},
	}

	msg := resp.ToModelMessage()
	assert.Equal(t, model.RoleAssistant, msg.Role)
	assert.Equal(t, "done", msg.Content)
	assert.Equal(t, "r", msg.Reasoning)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
}

func TestToModelMessageAssignsMissingCallIDs(t *testing.T) {
	resp := &ResponseMessage{
		ToolCalls: []ToolCallParam{
			{Function: FunctionCall{Name: "a"}},
			{Function: FunctionCall{Name: "b"}},
		},
	}

	msg := resp.ToModelMessage()
	assert.Equal(t, model.RoleAssistant, msg.Role)
	require.Len(t, msg.ToolCalls, 2)
	assert.NotEmpty(t, msg.ToolCalls[0].ID)
	assert.NotEmpty(t, msg.ToolCalls[1].ID)
	assert.NotEqual(t, msg.ToolCalls[0].ID, msg.ToolCalls[1].ID)
}

func boolPtr(v bool) *bool { return &v }
