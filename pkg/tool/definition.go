package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/routerkit/routerkit-go/pkg/openrouter"
)

// ExecContext is the read-only execution context handed to a tool
// implementation alongside its parsed arguments.
type ExecContext struct {
	Identity string // authenticated identity, when any
	CallID   string // the model-assigned id of this call
}

// ExecuteFunc is a caller-supplied tool implementation.
type ExecuteFunc func(ctx context.Context, args map[string]any, ec ExecContext) (any, error)

// Definition is the canonical internal representation of a callable tool.
// It is built exactly once at registration time; nothing deeper in the
// pipeline probes alternative shapes. The parameter schema, when present,
// is compiled here so argument validation is a plain method call later.
type Definition struct {
	name           string
	description    string
	parameters     map[string]any
	schema         *jsonschema.Schema
	execute        ExecuteFunc
	sequentialOnly bool
}

// Option tweaks a Definition at construction time.
type Option func(*Definition)

// SequentialOnly marks a tool as unsafe to run concurrently with others.
// A turn containing such a tool executes all of its calls sequentially.
func SequentialOnly() Option {
	return func(d *Definition) { d.sequentialOnly = true }
}

// NewDefinition normalizes the caller-supplied pieces into one canonical
// Definition. parameters may be nil for tools that take no arguments; when
// present it must be a valid JSON Schema object.
func NewDefinition(name, description string, parameters map[string]any, fn ExecuteFunc, opts ...Option) (*Definition, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("tool name is empty")
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %s: execute function is nil", trimmed)
	}

	def := &Definition{
		name:        trimmed,
		description: description,
		parameters:  parameters,
		execute:     fn,
	}
	for _, opt := range opts {
		opt(def)
	}

	if len(parameters) > 0 {
		schema, err := compileSchema(trimmed, parameters)
		if err != nil {
			return nil, fmt.Errorf("tool %s: compile parameter schema: %w", trimmed, err)
		}
		def.schema = schema
	}
	return def, nil
}

// Name returns the tool's registry name.
func (d *Definition) Name() string { return d.name }

// Description returns the human-readable description sent to the model.
func (d *Definition) Description() string { return d.description }

// Param renders the wire advertisement for this tool. The executable never
// leaves the process.
func (d *Definition) Param() openrouter.ToolParam {
	return openrouter.ToolParam{
		Type: "function",
		Function: openrouter.FunctionDef{
			Name:        d.name,
			Description: d.description,
			Parameters:  d.parameters,
		},
	}
}

// ValidateArgs checks parsed arguments against the compiled schema. Tools
// without a schema accept anything.
func (d *Definition) ValidateArgs(args map[string]any) error {
	if d.schema == nil {
		return nil
	}
	return d.schema.Validate(normalizeInstance(args))
}

func compileSchema(name string, parameters map[string]any) (*jsonschema.Schema, error) {
	resource := fmt.Sprintf("tool-%s.json", name)
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, normalizeInstance(parameters)); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}

// normalizeInstance rewrites a decoded JSON value into the plain map/slice
// forms the schema library expects.
func normalizeInstance(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeInstance(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeInstance(item)
		}
		return out
	default:
		return val
	}
}
