package chat

import (
	"testing"

	"github.com/Abraxas-365/sitepilot/pkg/ai/llm"
)

func TestResolvePromptShape(t *testing.T) {
	req := ChatRequest{Prompt: "hello"}

	messages, err := req.Resolve("be nice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected system + user, got %d messages", len(messages))
	}
	if messages[0].Role != llm.RoleSystem || messages[0].Content != "be nice" {
		t.Errorf("system message = %+v", messages[0])
	}
	if messages[1].Role != llm.RoleUser || messages[1].Content != "hello" {
		t.Errorf("user message = %+v", messages[1])
	}
}

func TestResolveMessagesShape(t *testing.T) {
	req := ChatRequest{Messages: []ChatMessage{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "two"},
		{Role: "user", Content: "three"},
	}}

	messages, err := req.Resolve("sys")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[0].Role != llm.RoleSystem {
		t.Errorf("first message not system: %+v", messages[0])
	}
	if messages[3].Content != "three" {
		t.Errorf("history out of order: %+v", messages)
	}
}

func TestResolveRejectsBadRoles(t *testing.T) {
	req := ChatRequest{Messages: []ChatMessage{
		{Role: "system", Content: "sneaky"},
	}}
	if _, err := req.Resolve(""); err == nil {
		t.Error("expected system role in history to be rejected")
	}

	req = ChatRequest{Messages: []ChatMessage{
		{Role: "robot", Content: "hi"},
	}}
	if _, err := req.Resolve(""); err == nil {
		t.Error("expected unknown role to be rejected")
	}
}

func TestResolveProviderShapePassesThrough(t *testing.T) {
	req := ChatRequest{ProviderMessages: []llm.Message{
		llm.NewSystemMessage("caller system"),
		llm.NewUserMessage("hi"),
	}}

	messages, err := req.Resolve("server system")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Content != "caller system" {
		t.Errorf("caller system prompt replaced: %+v", messages[0])
	}
}

func TestResolveProviderShapeGetsSystemInjected(t *testing.T) {
	req := ChatRequest{ProviderMessages: []llm.Message{
		llm.NewUserMessage("hi"),
	}}

	messages, err := req.Resolve("server system")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(messages) != 2 || messages[0].Role != llm.RoleSystem {
		t.Errorf("expected injected system prefix, got %+v", messages)
	}
}

func TestResolveRejectsEmptyAndAmbiguous(t *testing.T) {
	if _, err := (ChatRequest{}).Resolve(""); err == nil {
		t.Error("expected empty request to fail")
	}

	ambiguous := ChatRequest{
		Prompt:   "hi",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	}
	if _, err := ambiguous.Resolve(""); err == nil {
		t.Error("expected ambiguous request to fail")
	}
}

func TestResolveNoSystemPrompt(t *testing.T) {
	messages, err := ChatRequest{Prompt: "hi"}.Resolve("")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(messages) != 1 || messages[0].Role != llm.RoleUser {
		t.Errorf("expected bare user message, got %+v", messages)
	}
}

func TestLastUserContent(t *testing.T) {
	messages := []llm.Message{
		llm.NewSystemMessage("sys"),
		llm.NewUserMessage("first"),
		llm.NewAssistantMessage("answer"),
		llm.NewUserMessage("second"),
	}
	if got := LastUserContent(messages); got != "second" {
		t.Errorf("LastUserContent = %q", got)
	}
	if got := LastUserContent(nil); got != "" {
		t.Errorf("LastUserContent(nil) = %q", got)
	}
}
