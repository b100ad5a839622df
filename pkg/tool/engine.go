package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/routerkit/routerkit-go/pkg/model"
	"github.com/routerkit/routerkit-go/pkg/security"
)

// Outcome is the result of executing one tool call: the tool-role message
// fed back to the model plus the audit detail kept for accounting.
type Outcome struct {
	Message model.Message
	Detail  model.ToolCallDetail
}

// Engine executes the tool calls of a single assistant turn. Every failure
// mode inside a call (unknown tool, bad arguments, policy denial, panic,
// returned error) degrades to an error message in the tool result; the
// engine itself never fails, because the remote API requires exactly one
// result message per call id in the next request.
type Engine struct {
	registry *Registry
	gate     security.Gate
}

// NewEngine wires the engine to a registry and a policy gate. A nil gate
// gets the no-op implementation.
func NewEngine(registry *Registry, gate security.Gate) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	if gate == nil {
		gate = security.Nop()
	}
	return &Engine{registry: registry, gate: gate}
}

// ExecuteTurn runs every tool call of one assistant turn and returns exactly
// one outcome per call, in input order regardless of completion order. A
// turn runs concurrently when parallel is set and no requested tool is
// marked sequential-only.
func (e *Engine) ExecuteTurn(ctx context.Context, calls []model.ToolCall, identity string, parallel bool) []Outcome {
	outcomes := make([]Outcome, len(calls))
	if len(calls) == 0 {
		return outcomes
	}

	if parallel && !e.requiresSequential(calls) {
		g, gctx := errgroup.WithContext(ctx)
		for i, call := range calls {
			i, call := i, call
			g.Go(func() error {
				outcomes[i] = e.run(gctx, call, identity)
				return nil
			})
		}
		// run never returns an error; Wait only joins the goroutines.
		_ = g.Wait()
		return outcomes
	}

	for i, call := range calls {
		outcomes[i] = e.run(ctx, call, identity)
	}
	return outcomes
}

func (e *Engine) requiresSequential(calls []model.ToolCall) bool {
	for _, call := range calls {
		if def, ok := e.registry.Get(call.Name); ok && def.sequentialOnly {
			return true
		}
	}
	return false
}

// run executes a single call through the full pipeline: resolve, parse,
// validate, authorize, invoke, serialize, audit.
func (e *Engine) run(ctx context.Context, call model.ToolCall, identity string) Outcome {
	started := time.Now()

	def, ok := e.registry.Get(call.Name)
	if !ok {
		return e.failure(ctx, call, identity, nil, started, "tool is not registered")
	}

	args, err := ParseArguments(call.Arguments)
	if err != nil {
		return e.failure(ctx, call, identity, nil, started, fmt.Sprintf("invalid arguments: %v", err))
	}

	if err := def.ValidateArgs(args); err != nil {
		return e.failure(ctx, call, identity, args, started, fmt.Sprintf("arguments failed schema validation: %v", err))
	}

	if err := e.gate.Authorize(ctx, call.Name, identity, args); err != nil {
		return e.failure(ctx, call, identity, args, started, err.Error())
	}

	result, err := invoke(ctx, def, args, ExecContext{Identity: identity, CallID: call.ID})
	duration := time.Since(started)
	if err != nil {
		return e.finish(ctx, call, identity, args, "", err.Error(), duration)
	}
	return e.finish(ctx, call, identity, args, stringify(result), "", duration)
}

// invoke shields the engine from panicking tool implementations.
func invoke(ctx context.Context, def *Definition, args map[string]any, ec ExecContext) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return def.execute(ctx, args, ec)
}

func (e *Engine) failure(ctx context.Context, call model.ToolCall, identity string, args map[string]any, started time.Time, reason string) Outcome {
	return e.finish(ctx, call, identity, args, "", reason, time.Since(started))
}

// finish builds the outcome and hands the audit record to the gate. Failures
// become a deliberately non-JSON sentence so the model reads them as an
// explanation rather than data.
func (e *Engine) finish(ctx context.Context, call model.ToolCall, identity string, args map[string]any, result, errMsg string, duration time.Duration) Outcome {
	success := errMsg == ""
	content := result
	if !success {
		content = fmt.Sprintf("Error executing tool '%s': %s", call.Name, errMsg)
	}

	e.gate.RecordToolCall(ctx, security.AuditRecord{
		Tool:      call.Name,
		CallID:    call.ID,
		Identity:  identity,
		Args:      args,
		Result:    result,
		Error:     errMsg,
		Success:   success,
		Duration:  duration,
		Timestamp: time.Now().UTC(),
	})

	msg := model.ToolResultMessage(call.ID, content)
	msg.Name = call.Name
	return Outcome{
		Message: msg,
		Detail: model.ToolCallDetail{
			ToolName:   call.Name,
			CallID:     call.ID,
			Success:    success,
			DurationMS: duration.Milliseconds(),
			Error:      errMsg,
		},
	}
}

// ParseArguments decodes the raw argument string of a tool call. An empty
// or "{}" payload means "no arguments", not a parse error.
func ParseArguments(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "{}" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// stringify renders a tool's success value as compact structured text.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
