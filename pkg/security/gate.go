// Package security defines the policy gate consulted before every tool
// invocation: authorization, rate limiting and argument sanitization. The
// orchestration core always talks to a Gate; callers that need no policy get
// the no-op implementation so nothing downstream branches on presence.
package security

import (
	"context"
	"fmt"
	"time"
)

// Gate is the external policy collaborator. Authorize runs before a tool
// executes; RecordToolCall receives the audit record afterwards, success or
// not, as a pure side effect.
type Gate interface {
	Authorize(ctx context.Context, tool, identity string, args map[string]any) error
	RecordToolCall(ctx context.Context, rec AuditRecord)
}

// AuditRecord is the structured tool-call audit event emitted once per
// invocation for logging and billing collaborators.
type AuditRecord struct {
	Tool      string         `json:"tool"`
	CallID    string         `json:"call_id"`
	Identity  string         `json:"identity,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
	Result    string         `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Success   bool           `json:"success"`
	Duration  time.Duration  `json:"duration"`
	Timestamp time.Time      `json:"timestamp"`
}

// DeniedError reports an authorization denial.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	if e.Reason == "" {
		return "access denied"
	}
	return "access denied: " + e.Reason
}

// RateLimitError reports a rate-limit denial. RetryAfter must be surfaced to
// the model in the resulting tool message.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// InvalidArgsError reports that argument sanitization rejected the call.
type InvalidArgsError struct {
	Reason string
}

func (e *InvalidArgsError) Error() string {
	if e.Reason == "" {
		return "invalid arguments"
	}
	return "invalid arguments: " + e.Reason
}

type nopGate struct{}

func (nopGate) Authorize(context.Context, string, string, map[string]any) error { return nil }
func (nopGate) RecordToolCall(context.Context, AuditRecord)                     {}

// Nop returns the gate that allows everything and records nothing.
func Nop() Gate { return nopGate{} }

var _ Gate = nopGate{}
