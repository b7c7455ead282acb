package chat

import (
	"github.com/Abraxas-365/sitepilot/pkg/ai/llm"
	"github.com/Abraxas-365/sitepilot/pkg/ai/llm/toolx"
)

// ChatMessage is one history entry of the inbound request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the inbound body of the chat endpoint. Exactly one of the
// three shapes must be set: a raw prompt, a structured user/assistant
// history, or provider-direct messages passed through untouched. Resolve
// collapses whichever shape arrived into one canonical message list.
//
// Tools optionally carries the page's own tool declarations; when present
// they replace the server-configured set for this turn.
type ChatRequest struct {
	Prompt           string              `json:"prompt,omitempty"`
	Messages         []ChatMessage       `json:"messages,omitempty"`
	ProviderMessages []llm.Message       `json:"provider_messages,omitempty"`
	Tools            []toolx.Declaration `json:"tools,omitempty"`
}

// Resolve produces the canonical message list, injecting the system
// instruction prefix when the request does not carry one itself.
func (r ChatRequest) Resolve(systemPrompt string) ([]llm.Message, error) {
	shapes := 0
	if r.Prompt != "" {
		shapes++
	}
	if len(r.Messages) > 0 {
		shapes++
	}
	if len(r.ProviderMessages) > 0 {
		shapes++
	}

	switch shapes {
	case 0:
		return nil, errorRegistry.New(ErrEmptyRequest)
	case 1:
	default:
		return nil, errorRegistry.New(ErrAmbiguousRequest)
	}

	var messages []llm.Message
	if systemPrompt != "" {
		messages = append(messages, llm.NewSystemMessage(systemPrompt))
	}

	switch {
	case r.Prompt != "":
		messages = append(messages, llm.NewUserMessage(r.Prompt))

	case len(r.Messages) > 0:
		for i, msg := range r.Messages {
			if msg.Role != llm.RoleUser && msg.Role != llm.RoleAssistant {
				return nil, errorRegistry.New(ErrUnsupportedRole).
					WithDetail("index", i).
					WithDetail("role", msg.Role)
			}
			messages = append(messages, llm.Message{
				Role:    msg.Role,
				Content: msg.Content,
			})
		}

	default:
		if len(r.ProviderMessages) > 0 && r.ProviderMessages[0].Role == llm.RoleSystem {
			// The caller brought its own system instruction; drop ours.
			messages = messages[:0]
		}
		messages = append(messages, r.ProviderMessages...)
	}

	return messages, nil
}

// LastUserContent returns the content of the final user message, used for
// turn archiving.
func LastUserContent(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
