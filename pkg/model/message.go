package model

import "time"

// Role values accepted by the chat completions API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single conversational turn exchanged with a model.
// Timestamp, Reasoning and Annotations are local bookkeeping; the request
// builder strips them before anything goes on the wire.
type Message struct {
	Role        string     `json:"role"`
	Content     string     `json:"content,omitempty"`
	ToolCalls   []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID  string     `json:"tool_call_id,omitempty"`
	Name        string     `json:"name,omitempty"`
	Timestamp   time.Time  `json:"timestamp,omitempty"`
	Reasoning   string     `json:"reasoning,omitempty"`
	Annotations []any      `json:"annotations,omitempty"`
}

// ToolCall captures a tool invocation emitted inside an assistant message.
// Arguments is the raw JSON string exactly as the model produced it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Timestamp: time.Now().UTC()}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// ToolResultMessage builds a tool-role message answering the given call id.
func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: content, Timestamp: time.Now().UTC()}
}

// CloneMessages deep-copies a message slice so no caller shares tool-call
// backing arrays with the orchestration log.
func CloneMessages(src []Message) []Message {
	if len(src) == 0 {
		return nil
	}
	dst := make([]Message, len(src))
	for i, msg := range src {
		dst[i] = CloneMessage(msg)
	}
	return dst
}

// CloneMessage deep-copies a single message.
func CloneMessage(msg Message) Message {
	cloned := msg
	if len(msg.ToolCalls) > 0 {
		cloned.ToolCalls = make([]ToolCall, len(msg.ToolCalls))
		copy(cloned.ToolCalls, msg.ToolCalls)
	}
	if len(msg.Annotations) > 0 {
		cloned.Annotations = make([]any, len(msg.Annotations))
		copy(cloned.Annotations, msg.Annotations)
	}
	return cloned
}
