package toolx

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/sitepilot/pkg/ai/llm"
)

// Property describes one argument of a tool declaration
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// Parameters is the JSON-schema object shape of a tool's arguments. The
// schema is descriptive only: it is forwarded to the provider so the model
// knows what to send, but arguments are never validated against it before
// dispatch.
type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Declaration is one page-defined tool
type Declaration struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// ToTools converts declarations to the provider-neutral tool format
// without a registry, for callers that only forward schemas upstream.
func ToTools(decls []Declaration) []llm.Tool {
	tools := make([]llm.Tool, 0, len(decls))
	for _, decl := range decls {
		if decl.Name == "" {
			continue
		}
		if decl.Parameters.Type == "" {
			decl.Parameters.Type = "object"
		}
		if decl.Parameters.Properties == nil {
			decl.Parameters.Properties = map[string]Property{}
		}
		tools = append(tools, llm.Tool{
			Type: "function",
			Function: llm.Function{
				Name:        decl.Name,
				Description: decl.Description,
				Parameters:  decl.Parameters,
			},
		})
	}
	return tools
}

// Handler performs a tool's side effect with the parsed arguments
type Handler func(ctx context.Context, args map[string]any) error

// FallbackFunc produces the transcript fragment shown for an invocation of
// its tool when the model sent no text of its own
type FallbackFunc func(args map[string]any) string

// Registry holds the tools one session exposes to the model. It is an
// explicitly constructed value passed to whoever needs it, never shared
// process-wide. Not safe for concurrent mutation; register everything up
// front.
type Registry struct {
	order     []string
	decls     map[string]Declaration
	handlers  map[string]Handler
	fallbacks map[string]FallbackFunc
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{
		decls:     make(map[string]Declaration),
		handlers:  make(map[string]Handler),
		fallbacks: make(map[string]FallbackFunc),
	}
}

// Register adds a tool declaration and its handler
func (r *Registry) Register(decl Declaration, handler Handler) error {
	if decl.Name == "" {
		return errorRegistry.New(ErrEmptyToolName)
	}
	if handler == nil {
		return errorRegistry.New(ErrNilHandler).
			WithDetail("tool", decl.Name)
	}
	if _, exists := r.decls[decl.Name]; exists {
		return errorRegistry.New(ErrDuplicateTool).
			WithDetail("tool", decl.Name)
	}

	if decl.Parameters.Type == "" {
		decl.Parameters.Type = "object"
	}
	if decl.Parameters.Properties == nil {
		decl.Parameters.Properties = map[string]Property{}
	}

	r.order = append(r.order, decl.Name)
	r.decls[decl.Name] = decl
	r.handlers[decl.Name] = handler
	return nil
}

// RegisterDeclaration adds a schema-only tool with no handler, for the
// server side where declarations are forwarded upstream but side effects
// run elsewhere. Dispatching it fails with an unknown-tool error.
func (r *Registry) RegisterDeclaration(decl Declaration) error {
	if decl.Name == "" {
		return errorRegistry.New(ErrEmptyToolName)
	}
	if _, exists := r.decls[decl.Name]; exists {
		return errorRegistry.New(ErrDuplicateTool).
			WithDetail("tool", decl.Name)
	}

	if decl.Parameters.Type == "" {
		decl.Parameters.Type = "object"
	}
	if decl.Parameters.Properties == nil {
		decl.Parameters.Properties = map[string]Property{}
	}

	r.order = append(r.order, decl.Name)
	r.decls[decl.Name] = decl
	return nil
}

// RegisterFallback sets the per-tool fallback text generator
func (r *Registry) RegisterFallback(name string, fn FallbackFunc) {
	if fn == nil {
		delete(r.fallbacks, name)
		return
	}
	r.fallbacks[name] = fn
}

// Has reports whether a tool with the given name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.decls[name]
	return ok
}

// Names returns the registered tool names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Declarations returns the registered declarations in registration order
func (r *Registry) Declarations() []Declaration {
	decls := make([]Declaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.decls[name])
	}
	return decls
}

// Tools converts the declarations to the provider-neutral tool format
func (r *Registry) Tools() []llm.Tool {
	tools := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		decl := r.decls[name]
		tools = append(tools, llm.Tool{
			Type: "function",
			Function: llm.Function{
				Name:        decl.Name,
				Description: decl.Description,
				Parameters:  decl.Parameters,
			},
		})
	}
	return tools
}

// Dispatch runs the handler registered for name with the given arguments.
// A panicking handler is recovered and reported as an error.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (err error) {
	handler, ok := r.handlers[name]
	if !ok {
		return errorRegistry.New(ErrUnknownTool).
			WithDetail("tool", name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = errorRegistry.NewWithMessage(ErrHandlerPanic,
				fmt.Sprintf("tool %q panicked: %v", name, rec))
		}
	}()

	if args == nil {
		args = map[string]any{}
	}

	return handler(ctx, args)
}
