// Package orchestrator drives multi-turn chat completions: it builds
// requests, sends them through the transport, executes requested tool calls
// and loops until the model produces a final answer or a terminal failure.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/routerkit/routerkit-go/pkg/model"
	"github.com/routerkit/routerkit-go/pkg/openrouter"
	"github.com/routerkit/routerkit-go/pkg/pricing"
	"github.com/routerkit/routerkit-go/pkg/tool"
)

// Orchestrator is the top-level entry point. It is safe for concurrent use;
// all per-call state lives on the stack of Run.
type Orchestrator struct {
	cfg    Config
	engine *tool.Engine
}

// New validates and normalizes cfg and returns a ready Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalized()
	return &Orchestrator{
		cfg:    cfg,
		engine: tool.NewEngine(cfg.Registry, cfg.Gate),
	}, nil
}

// state accumulates everything one logical call produces across its turns.
type state struct {
	log       []model.Message
	seedLen   int
	depth     int
	usage     *model.Usage
	toolCalls int
	details   []model.ToolCallDetail
}

// RunPrompt is the single-user-message convenience wrapper around Run.
func (o *Orchestrator) RunPrompt(ctx context.Context, prompt string, opts RequestOptions, identity string) (*model.ChatCompletionResult, error) {
	return o.Run(ctx, []model.Message{model.UserMessage(prompt)}, opts, identity)
}

// Run performs one logical call: it may involve several round trips when the
// model requests tools, but returns exactly one result or one error. The
// input slice is never mutated.
func (o *Orchestrator) Run(ctx context.Context, messages []model.Message, opts RequestOptions, identity string) (*model.ChatCompletionResult, error) {
	if len(messages) == 0 {
		return nil, model.NewError(model.KindConfiguration, "at least one message is required")
	}
	if opts.Model == "" && len(opts.Models) == 0 && o.cfg.Model == "" {
		return nil, model.NewError(model.KindConfiguration, "no model configured")
	}

	// Compile the output schema up front so a broken schema fails before any
	// tokens are spent.
	validator, err := compileOutputSchema(opts.ResponseFormat)
	if err != nil {
		return nil, model.WrapError(model.KindConfiguration, err, "invalid response format schema")
	}

	st, err := o.seed(ctx, messages, opts.HistoryKey)
	if err != nil {
		return nil, err
	}

	toolParams := o.cfg.Registry.Params()
	toolChoice := opts.ToolChoice

	for {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err)
		}

		req := openrouter.BuildRequest(st.log, o.buildOptions(opts, toolParams, toolChoice))
		resp, err := o.cfg.Transport.Send(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, cancelled(err)
			}
			return nil, o.abort(ctx, opts.HistoryKey, err, st)
		}

		st.usage = model.AddUsage(st.usage, resp.Usage)

		// The API can deliver a structured error inside a 200 response,
		// typically when a chosen provider rejects the request mid-route.
		if resp.Error != nil {
			typed := &model.Error{
				Kind:    openrouter.ClassifyStatus(resp.Error.Code),
				Message: resp.Error.Message,
				Status:  resp.Error.Code,
				Details: resp.Error,
			}
			return nil, o.abort(ctx, opts.HistoryKey, typed, st)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
			return nil, o.abort(ctx, opts.HistoryKey, model.NewError(model.KindAPI, "malformed response: no choices"), st)
		}

		choice := resp.Choices[0]
		assistant := choice.Message.ToModelMessage()

		if choice.FinishReason == openrouter.FinishToolCalls && len(assistant.ToolCalls) > 0 {
			if len(toolParams) == 0 {
				return nil, o.abort(ctx, opts.HistoryKey, model.NewError(model.KindTool, "model requested tool calls but no tools are registered"), st)
			}
			if st.depth >= o.cfg.MaxToolCallDepth {
				return nil, o.abort(ctx, opts.HistoryKey, model.NewError(model.KindTool, "maximum tool call depth %d exceeded", o.cfg.MaxToolCallDepth), st)
			}

			st.log = append(st.log, assistant)
			outcomes := o.engine.ExecuteTurn(ctx, assistant.ToolCalls, identity, o.parallel(opts))
			for _, oc := range outcomes {
				st.log = append(st.log, oc.Message)
				st.details = append(st.details, oc.Detail)
			}
			st.toolCalls += len(outcomes)
			st.depth++
			// Subsequent turns always let the model decide; repeating a
			// "required" directive would force tool calls forever.
			toolChoice = openrouter.ToolChoiceAuto
			continue
		}

		st.log = append(st.log, assistant)
		o.persist(ctx, opts.HistoryKey, st)
		return o.finalize(resp, choice, st, opts, validator)
	}
}

// seed loads stored history (when a key is given) and builds the initial log.
func (o *Orchestrator) seed(ctx context.Context, messages []model.Message, historyKey string) (*state, error) {
	var hist []model.Message
	if historyKey != "" {
		loaded, err := o.cfg.History.Load(ctx, historyKey)
		if err != nil {
			return nil, model.WrapError(model.KindInternal, err, "load history %q", historyKey)
		}
		hist = loaded
	}
	log := make([]model.Message, 0, len(hist)+len(messages))
	log = append(log, model.CloneMessages(hist)...)
	log = append(log, model.CloneMessages(messages)...)
	return &state{log: log, seedLen: len(hist)}, nil
}

// persist appends the messages produced after the history seed. It is best
// effort: a failing store must not retroactively fail a finished call.
func (o *Orchestrator) persist(ctx context.Context, historyKey string, st *state) {
	if historyKey == "" || len(st.log) <= st.seedLen {
		return
	}
	_ = o.cfg.History.Append(ctx, historyKey, st.log[st.seedLen:])
}

func (o *Orchestrator) buildOptions(opts RequestOptions, toolParams []openrouter.ToolParam, toolChoice string) openrouter.BuildOptions {
	modelID := opts.Model
	if modelID == "" {
		modelID = o.cfg.Model
	}
	return openrouter.BuildOptions{
		Model:             modelID,
		Models:            opts.Models,
		FallbackModels:    o.cfg.FallbackModels,
		Tools:             toolParams,
		ToolChoice:        toolChoice,
		ParallelToolCalls: opts.Parallel,
		ResponseFormat:    opts.ResponseFormat,
		Provider:          opts.Provider,
		Temperature:       opts.Temperature,
		TopP:              opts.TopP,
		FrequencyPenalty:  opts.FrequencyPenalty,
		PresencePenalty:   opts.PresencePenalty,
		Stop:              opts.Stop,
		LogitBias:         opts.LogitBias,
		Seed:              opts.Seed,
		MaxTokens:         opts.MaxTokens,
	}
}

func (o *Orchestrator) parallel(opts RequestOptions) bool {
	if opts.Parallel != nil {
		return *opts.Parallel
	}
	return !o.cfg.SequentialTools
}

// finalize turns the terminal response into a result, applying structured
// output handling when a response format was requested.
func (o *Orchestrator) finalize(resp *openrouter.ChatCompletionResponse, choice openrouter.Choice, st *state, opts RequestOptions, validator *jsonschema.Schema) (*model.ChatCompletionResult, error) {
	content, err := o.interpretContent(choice.Message, opts, validator)
	if err != nil {
		return nil, o.fail(err, st)
	}

	modelID := resp.Model
	if modelID == "" {
		modelID = o.cfg.Model
	}

	return &model.ChatCompletionResult{
		Content:         content,
		Usage:           st.usage,
		Model:           modelID,
		ToolCallsCount:  st.toolCalls,
		ToolCallDetails: st.details,
		FinishReason:    choice.FinishReason,
		Cost:            pricing.CostFor(o.cfg.Pricing, modelID, st.usage),
		ID:              resp.ID,
		Reasoning:       choice.Message.Reasoning,
		Annotations:     choice.Message.Annotations,
	}, nil
}

// interpretContent decodes and, for schema formats, validates the final
// content. Without StrictOutput a bad payload degrades to nil content so the
// caller still gets usage and cost.
func (o *Orchestrator) interpretContent(msg *openrouter.ResponseMessage, opts RequestOptions, validator *jsonschema.Schema) (any, error) {
	if opts.ResponseFormat == nil {
		if text, ok := msg.ContentText(); ok {
			return text, nil
		}
		return msg.Content, nil
	}

	text, ok := msg.ContentText()
	if !ok || text == "" {
		return o.outputFailure(opts, errors.New("empty content"))
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return o.outputFailure(opts, err)
	}
	if validator != nil {
		if err := validator.Validate(decoded); err != nil {
			return o.outputFailure(opts, err)
		}
	}
	return decoded, nil
}

func (o *Orchestrator) outputFailure(opts RequestOptions, cause error) (any, error) {
	if opts.StrictOutput {
		return nil, model.WrapError(model.KindValidation, cause, "structured output did not match the requested format")
	}
	return nil, nil
}

// abort persists the partial transcript, then returns the terminal error with
// the accumulated accounting attached.
func (o *Orchestrator) abort(ctx context.Context, historyKey string, err error, st *state) error {
	o.persist(ctx, historyKey, st)
	return o.fail(err, st)
}

// fail attaches the accounting accumulated so far to the terminal error.
func (o *Orchestrator) fail(err error, st *state) error {
	typed, ok := model.AsError(err)
	if !ok {
		typed = model.WrapError(model.KindInternal, err, "completion failed")
	}
	typed.Usage = st.usage
	typed.ToolCallDetails = st.details
	return typed
}

// cancelled wraps a context cancellation. Accounting is deliberately not
// attached: a cancelled call has no response to account for, and the partial
// figures would be misleading.
func cancelled(err error) error {
	return model.WrapError(model.KindNetwork, err, "request cancelled")
}

func compileOutputSchema(format *openrouter.ResponseFormat) (*jsonschema.Schema, error) {
	if format == nil || format.JSONSchema == nil || format.JSONSchema.Schema == nil {
		return nil, nil
	}
	// Round-trip through JSON so the compiler sees plain map/slice values
	// regardless of how the caller built the schema.
	raw, err := json.Marshal(format.JSONSchema.Schema)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	resource := "output-" + format.JSONSchema.Name + ".json"
	if err := compiler.AddResource(resource, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}
