package orchestrator

import (
	"github.com/routerkit/routerkit-go/pkg/model"
	"github.com/routerkit/routerkit-go/pkg/openrouter"
	"github.com/routerkit/routerkit-go/pkg/pricing"
	"github.com/routerkit/routerkit-go/pkg/security"
	"github.com/routerkit/routerkit-go/pkg/session"
	"github.com/routerkit/routerkit-go/pkg/tool"
)

// The depth bound exists to stop a model that keeps requesting tools from
// looping forever; exceeding it is a terminal error, never a silent cutoff.
const defaultMaxToolCallDepth = 5

// Config stores the coarse-grained settings shared by every logical call an
// Orchestrator performs.
type Config struct {
	// Transport is the only required collaborator.
	Transport openrouter.Transport

	// Model is the default model id; per-request options may override it.
	Model string

	// FallbackModels is the client-wide ordered fallback list. A per-request
	// model list always takes priority.
	FallbackModels []string

	// Registry holds the callable tools offered to the model.
	Registry *tool.Registry

	// Gate is the policy collaborator consulted before tool execution.
	// Nil means allow everything.
	Gate security.Gate

	// History seeds and persists conversation logs. Nil means no
	// persistence.
	History session.Store

	// Pricing resolves per-model token prices for advisory cost figures.
	// Nil means cost is always unreported.
	Pricing pricing.Oracle

	// MaxToolCallDepth bounds how many tool-calling turns one logical call
	// may chain. Zero means the default.
	MaxToolCallDepth int

	// SequentialTools forces tool calls within a turn to run one at a time.
	SequentialTools bool
}

// Validate enforces minimal structural guarantees.
func (c *Config) Validate() error {
	if c == nil {
		return model.NewError(model.KindConfiguration, "config is nil")
	}
	if c.Transport == nil {
		return model.NewError(model.KindConfiguration, "transport is required")
	}
	if c.MaxToolCallDepth < 0 {
		return model.NewError(model.KindConfiguration, "max tool call depth cannot be negative: %d", c.MaxToolCallDepth)
	}
	return nil
}

func (c Config) normalized() Config {
	if c.MaxToolCallDepth == 0 {
		c.MaxToolCallDepth = defaultMaxToolCallDepth
	}
	if c.Registry == nil {
		c.Registry = tool.NewRegistry()
	}
	if c.Gate == nil {
		c.Gate = security.Nop()
	}
	if c.History == nil {
		c.History = session.Nop()
	}
	return c
}

// RequestOptions carries per-call overrides on top of the Config defaults.
type RequestOptions struct {
	Model  string
	Models []string // explicit fallback list for this request only

	ToolChoice string // "", "auto", "none" or "required"
	Parallel   *bool  // overrides Config.SequentialTools when set

	ResponseFormat *openrouter.ResponseFormat
	Provider       *openrouter.ProviderPrefs

	// StrictOutput makes structured-output parse/validation failures
	// terminal instead of degrading to a nil content value.
	StrictOutput bool

	// HistoryKey selects the stored conversation this call is seeded from
	// and appended to. Empty means no history involvement.
	HistoryKey string

	Temperature      *float64
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Stop             []string
	LogitBias        map[string]float64
	Seed             *int64
	MaxTokens        int
}
