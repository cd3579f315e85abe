package openai

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/phrazzld/subtext/internal/provider"
)

// Transport sends single attempts to the OpenAI API and reports failures as
// tagged provider.TransportError values. Retrying is the caller's concern.
type Transport struct {
	client oai.Client
	model  string
	cfg    provider.Config
	logger *slog.Logger
}

// NewTransport creates a transport for the given model.
func NewTransport(apiKey, model string, cfg provider.Config, logger *slog.Logger) (*Transport, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key cannot be empty")
	}
	if model == "" {
		return nil, errors.New("model name cannot be empty")
	}

	return &Transport{
		client: oai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		cfg:    cfg,
		logger: logger.With("component", "openai_transport", "model", model),
	}, nil
}

// Send performs one attempt, selecting the conversational or instruct path
// from the transport's configuration.
func (t *Transport) Send(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if t.cfg.SupportsConversation {
		return t.sendChat(ctx, req)
	}
	return t.sendInstruct(ctx, req)
}

// sendInstruct requests a completion from an instruction-style model. The
// conversational request form is flattened into a single prompt.
func (t *Transport) sendInstruct(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	prompt := instructPrompt(req)

	start := time.Now()
	result, err := t.client.Completions.New(ctx, oai.CompletionNewParams{
		Model:       oai.CompletionNewParamsModel(t.model),
		Prompt:      oai.CompletionNewParamsPromptUnion{OfString: oai.String(prompt)},
		MaxTokens:   oai.Int(int64(t.cfg.MaxInstructTokens)),
		Temperature: oai.Float(req.Temperature),
		N:           oai.Int(1),
	})
	if err != nil {
		return nil, t.classify(err)
	}

	resp := &provider.Response{
		PromptTokens: result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
		TotalTokens:  result.Usage.TotalTokens,
		ResponseTime: time.Since(start),
	}
	if len(result.Choices) > 0 {
		resp.Text = result.Choices[0].Text
		resp.FinishReason = string(result.Choices[0].FinishReason)
	}
	return resp, nil
}

// sendChat requests a chat completion from a conversational model.
func (t *Transport) sendChat(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	messages := t.chatMessages(req)

	start := time.Now()
	result, err := t.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model:       oai.ChatModel(t.model),
		Messages:    messages,
		Temperature: oai.Float(req.Temperature),
	})
	if err != nil {
		return nil, t.classify(err)
	}

	resp := &provider.Response{
		PromptTokens: result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
		TotalTokens:  result.Usage.TotalTokens,
		ResponseTime: time.Since(start),
	}
	if len(result.Choices) > 0 {
		resp.Text = result.Choices[0].Message.Content
		resp.FinishReason = string(result.Choices[0].FinishReason)
	}
	return resp, nil
}

// chatMessages converts the request's conversation into API message params,
// folding system messages into the user turn when the model does not accept
// them.
func (t *Transport) chatMessages(req *provider.Request) []oai.ChatCompletionMessageParamUnion {
	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	var folded []string

	for _, m := range req.Messages {
		switch m.Role {
		case provider.RoleSystem:
			if t.cfg.SupportsSystemMessages {
				messages = append(messages, oai.SystemMessage(m.Content))
			} else {
				folded = append(folded, m.Content)
			}
		case provider.RoleAssistant:
			messages = append(messages, oai.AssistantMessage(m.Content))
		default:
			content := m.Content
			if len(folded) > 0 {
				content = strings.Join(folded, "\n") + "\n\n" + content
				folded = nil
			}
			messages = append(messages, oai.UserMessage(content))
		}
	}

	if len(messages) == 0 && req.Prompt != "" {
		messages = append(messages, oai.UserMessage(req.Prompt))
	}
	return messages
}

// instructPrompt flattens a request into the single prompt form expected by
// instruction-style models.
func instructPrompt(req *provider.Request) string {
	if req.Prompt != "" {
		return req.Prompt
	}

	var parts []string
	for _, m := range req.Messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}

// classify maps an API error onto the transport failure taxonomy.
func (t *Transport) classify(err error) *provider.TransportError {
	var apierr *oai.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case http.StatusTooManyRequests:
			return &provider.TransportError{
				Kind:       provider.KindRateLimited,
				RetryAfter: retryAfterHint(apierr.Response),
				Cause:      err,
			}
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return &provider.TransportError{Kind: provider.KindTimeout, Cause: err}
		default:
			return &provider.TransportError{Kind: provider.KindOther, Cause: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &provider.TransportError{Kind: provider.KindTimeout, Cause: err}
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return &provider.TransportError{Kind: provider.KindTimeout, Cause: err}
		}
		return &provider.TransportError{Kind: provider.KindConnection, Cause: err}
	}

	return &provider.TransportError{Kind: provider.KindOther, Cause: err}
}

// retryAfterHint extracts the service-specified resume delay from a rate
// limit response, if any.
func retryAfterHint(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	for _, header := range []string{"x-ratelimit-reset-requests", "Retry-After"} {
		value := resp.Header.Get(header)
		if value == "" {
			continue
		}
		delay, err := provider.ParseRetryAfter(value)
		if err != nil {
			continue
		}
		return delay
	}
	return 0
}
