package llm

// ChatOptions holds the tunable parameters of one chat request
type ChatOptions struct {
	Model               string
	Temperature         float32
	TopP                float32
	MaxTokens           int
	MaxCompletionTokens int
	Stop                []string
	Tools               []Tool
	ToolChoice          any
	User                string
}

// Option mutates ChatOptions
type Option func(*ChatOptions)

// DefaultOptions returns the baseline options; providers fill in their
// default model afterwards
func DefaultOptions() *ChatOptions {
	return &ChatOptions{}
}

// WithModel sets the model to use
func WithModel(model string) Option {
	return func(o *ChatOptions) {
		o.Model = model
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(temperature float32) Option {
	return func(o *ChatOptions) {
		o.Temperature = temperature
	}
}

// WithTopP sets nucleus sampling probability mass
func WithTopP(topP float32) Option {
	return func(o *ChatOptions) {
		o.TopP = topP
	}
}

// WithMaxTokens sets the maximum number of tokens to generate
func WithMaxTokens(maxTokens int) Option {
	return func(o *ChatOptions) {
		o.MaxTokens = maxTokens
	}
}

// WithStop sets the stop sequences
func WithStop(stop []string) Option {
	return func(o *ChatOptions) {
		o.Stop = stop
	}
}

// WithTools declares the tools the model may call
func WithTools(tools []Tool) Option {
	return func(o *ChatOptions) {
		o.Tools = tools
	}
}

// WithToolChoice sets the tool choice mode ("auto", "none", "required")
func WithToolChoice(choice any) Option {
	return func(o *ChatOptions) {
		o.ToolChoice = choice
	}
}

// WithUser sets an end-user identifier forwarded to the provider
func WithUser(user string) Option {
	return func(o *ChatOptions) {
		o.User = user
	}
}
