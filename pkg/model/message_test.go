package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageConstructors(t *testing.T) {
	sys := SystemMessage("be terse")
	assert.Equal(t, RoleSystem, sys.Role)
	assert.Equal(t, "be terse", sys.Content)
	assert.False(t, sys.Timestamp.IsZero())

	usr := UserMessage("hello")
	assert.Equal(t, RoleUser, usr.Role)

	res := ToolResultMessage("call_1", "42")
	assert.Equal(t, RoleTool, res.Role)
	assert.Equal(t, "call_1", res.ToolCallID)
	assert.Equal(t, "42", res.Content)
}

func TestCloneMessagesIsDeep(t *testing.T) {
	src := []Message{
		{
			Role: RoleAssistant,
			ToolCalls: []ToolCall{
				{ID: "call_1", Name: "get_weather", Arguments: `{"city":"Oslo"}`},
			},
			Annotations: []any{"a"},
		},
	}

	cloned := CloneMessages(src)
	require.Len(t, cloned, 1)

	src[0].ToolCalls[0].Name = "mutated"
	src[0].Annotations[0] = "mutated"

	assert.Equal(t, "get_weather", cloned[0].ToolCalls[0].Name)
	assert.Equal(t, "a", cloned[0].Annotations[0])
}

func TestCloneMessagesEmpty(t *testing.T) {
	assert.Nil(t, CloneMessages(nil))
	assert.Nil(t, CloneMessages([]Message{}))
}
