package sessionx

import (
	"github.com/google/uuid"

	"github.com/Abraxas-365/sitepilot/pkg/ai/llm"
)

// Invocation is one completed tool call attached to an assistant turn
type Invocation struct {
	Name string
	Args map[string]any
}

// Turn is one message of the transcript. Content is append-only while
// Streaming is true and frozen afterwards; Invocations is written once,
// when the turn completes.
type Turn struct {
	ID          string
	Role        string
	Content     string
	Invocations []Invocation
	Streaming   bool
}

func newUserTurn(content string) Turn {
	return Turn{
		ID:      uuid.NewString(),
		Role:    llm.RoleUser,
		Content: content,
	}
}

func newAssistantPlaceholder() Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      llm.RoleAssistant,
		Streaming: true,
	}
}
