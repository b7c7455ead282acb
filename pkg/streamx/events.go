package streamx

import (
	"encoding/json"
	"fmt"
)

// EventType tags the variants of the normalized stream event
type EventType string

const (
	EventText  EventType = "text"
	EventTool  EventType = "tool"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event is the sole wire contract between the server-side decoder and the
// client-side assembler. Exactly one of the payload fields is meaningful
// depending on Type:
//
//	{"type":"text","content":"<string>"}
//	{"type":"tool","name":"<string>","args":{...}}
//	{"type":"done"}
//	{"type":"error","message":"<string>"}
type Event struct {
	Type    EventType
	Content string
	Name    string
	Args    map[string]any
	Message string
}

// TextEvent creates a text-delta event
func TextEvent(content string) Event {
	return Event{Type: EventText, Content: content}
}

// ToolEvent creates a completed tool-call event
func ToolEvent(name string, args map[string]any) Event {
	if args == nil {
		args = map[string]any{}
	}
	return Event{Type: EventTool, Name: name, Args: args}
}

// DoneEvent creates the turn-done terminal event
func DoneEvent() Event {
	return Event{Type: EventDone}
}

// ErrorEvent creates the error terminal event
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}

// IsTerminal reports whether the event ends a turn
func (e Event) IsTerminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// MarshalJSON writes only the fields the variant carries
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventText:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Content string    `json:"content"`
		}{e.Type, e.Content})
	case EventTool:
		args := e.Args
		if args == nil {
			args = map[string]any{}
		}
		return json.Marshal(struct {
			Type EventType      `json:"type"`
			Name string         `json:"name"`
			Args map[string]any `json:"args"`
		}{e.Type, e.Name, args})
	case EventDone:
		return json.Marshal(struct {
			Type EventType `json:"type"`
		}{e.Type})
	case EventError:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Message string    `json:"message"`
		}{e.Type, e.Message})
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}

// UnmarshalJSON parses any of the four wire shapes
func (e *Event) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type    EventType      `json:"type"`
		Content string         `json:"content"`
		Name    string         `json:"name"`
		Args    map[string]any `json:"args"`
		Message string         `json:"message"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch wire.Type {
	case EventText, EventTool, EventDone, EventError:
	default:
		return fmt.Errorf("unknown event type %q", wire.Type)
	}

	*e = Event{
		Type:    wire.Type,
		Content: wire.Content,
		Name:    wire.Name,
		Args:    wire.Args,
		Message: wire.Message,
	}
	return nil
}
