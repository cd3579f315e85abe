package provider

import (
	"context"
	"time"
)

// Message is a single turn of a conversational request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles understood by transports.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request is one logical request to the translation service. Instruction
// style models consume Prompt; conversational models consume Messages.
// Transports flatten whichever form they do not support.
type Request struct {
	Prompt      string
	Messages    []Message
	Temperature float64
}

// Response is the structured success payload from the translation service.
type Response struct {
	Text         string
	FinishReason string
	PromptTokens int64
	OutputTokens int64
	TotalTokens  int64
	ResponseTime time.Duration
}

// Transport performs a single attempt against the remote service. Failures
// are reported as *TransportError values carrying a tagged kind, so callers
// pattern-match on the kind rather than on concrete error types.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Config is the configuration surface consumed by the retrying client and
// its transports.
type Config struct {
	// MaxRetries bounds the number of additional attempts after the first
	MaxRetries int

	// BackoffTime is the base backoff in seconds; attempt n sleeps
	// BackoffTime * 2^n before retrying after a timeout
	BackoffTime float64

	// MaxInstructTokens caps the completion size for instruction-style
	// models
	MaxInstructTokens int

	// SupportsConversation selects the conversational request path.
	// Instruction-style models have it disabled and receive a single
	// flattened prompt.
	SupportsConversation bool

	// SupportsSystemMessages controls whether system messages are sent
	// as-is or folded into the user prompt
	SupportsSystemMessages bool
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:             3,
		BackoffTime:            2.0,
		MaxInstructTokens:      2048,
		SupportsConversation:   true,
		SupportsSystemMessages: true,
	}
}
