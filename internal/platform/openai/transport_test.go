package openai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/subtext/internal/provider"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTransport(t *testing.T, cfg provider.Config) *Transport {
	t.Helper()
	transport, err := NewTransport("test-key", "gpt-4o-mini", cfg, setupTestLogger())
	require.NoError(t, err)
	return transport
}

// fakeNetError implements net.Error for classification tests
type fakeNetError struct {
	timeout bool
}

func (e *fakeNetError) Error() string   { return "fake network error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }

func apiError(status int, headers http.Header) *oai.Error {
	return &oai.Error{
		StatusCode: status,
		Response:   &http.Response{StatusCode: status, Header: headers},
	}
}

func TestNewTransportValidation(t *testing.T) {
	_, err := NewTransport("", "gpt-4o-mini", provider.DefaultConfig(), setupTestLogger())
	assert.Error(t, err)

	_, err = NewTransport("test-key", "", provider.DefaultConfig(), setupTestLogger())
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	transport := newTestTransport(t, provider.DefaultConfig())

	tests := []struct {
		name string
		err  error
		want provider.Kind
	}{
		{name: "rate limited", err: apiError(http.StatusTooManyRequests, nil), want: provider.KindRateLimited},
		{name: "request timeout", err: apiError(http.StatusRequestTimeout, nil), want: provider.KindTimeout},
		{name: "gateway timeout", err: apiError(http.StatusGatewayTimeout, nil), want: provider.KindTimeout},
		{name: "server error", err: apiError(http.StatusInternalServerError, nil), want: provider.KindOther},
		{name: "auth failure", err: apiError(http.StatusUnauthorized, nil), want: provider.KindOther},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: provider.KindTimeout},
		{name: "network timeout", err: &fakeNetError{timeout: true}, want: provider.KindTimeout},
		{name: "network failure", err: &fakeNetError{timeout: false}, want: provider.KindConnection},
		{name: "unknown", err: errors.New("something else"), want: provider.KindOther},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			terr := transport.classify(tc.err)
			require.NotNil(t, terr)
			assert.Equal(t, tc.want, terr.Kind)
			assert.Equal(t, tc.err, terr.Cause)
		})
	}
}

func TestClassifyRateLimitExtractsResumeDelay(t *testing.T) {
	transport := newTestTransport(t, provider.DefaultConfig())

	headers := http.Header{}
	headers.Set("Retry-After", "30")
	terr := transport.classify(apiError(http.StatusTooManyRequests, headers))
	assert.Equal(t, provider.KindRateLimited, terr.Kind)
	assert.Equal(t, 30*time.Second, terr.RetryAfter)
}

func TestClassifyRateLimitPrefersResetHeader(t *testing.T) {
	transport := newTestTransport(t, provider.DefaultConfig())

	headers := http.Header{}
	headers.Set("x-ratelimit-reset-requests", "6m0s")
	headers.Set("Retry-After", "30")
	terr := transport.classify(apiError(http.StatusTooManyRequests, headers))
	assert.Equal(t, 6*time.Minute, terr.RetryAfter)
}

func TestClassifyRateLimitWithoutHeaders(t *testing.T) {
	transport := newTestTransport(t, provider.DefaultConfig())

	terr := transport.classify(apiError(http.StatusTooManyRequests, nil))
	assert.Equal(t, provider.KindRateLimited, terr.Kind)
	assert.Zero(t, terr.RetryAfter)
}

func TestRetryAfterHintSkipsUnparseableValues(t *testing.T) {
	headers := http.Header{}
	headers.Set("x-ratelimit-reset-requests", "soon")
	headers.Set("Retry-After", "12")
	resp := &http.Response{Header: headers}
	assert.Equal(t, 12*time.Second, retryAfterHint(resp))
}

func TestRetryAfterHintNilResponse(t *testing.T) {
	assert.Zero(t, retryAfterHint(nil))
}

func TestChatMessagesWithSystemSupport(t *testing.T) {
	cfg := provider.DefaultConfig()
	cfg.SupportsSystemMessages = true
	transport := newTestTransport(t, cfg)

	req := &provider.Request{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "You are a translator."},
			{Role: provider.RoleUser, Content: "Translate: hello"},
			{Role: provider.RoleAssistant, Content: "bonjour"},
			{Role: provider.RoleUser, Content: "Translate: goodbye"},
		},
	}
	messages := transport.chatMessages(req)
	assert.Len(t, messages, 4)
}

func TestChatMessagesFoldsSystemIntoUserTurn(t *testing.T) {
	cfg := provider.DefaultConfig()
	cfg.SupportsSystemMessages = false
	transport := newTestTransport(t, cfg)

	req := &provider.Request{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "You are a translator."},
			{Role: provider.RoleUser, Content: "Translate: hello"},
		},
	}
	messages := transport.chatMessages(req)
	require.Len(t, messages, 1)
	content := messages[0].OfUser.Content.OfString.Value
	assert.Contains(t, content, "You are a translator.")
	assert.Contains(t, content, "Translate: hello")
}

func TestChatMessagesFallsBackToPrompt(t *testing.T) {
	transport := newTestTransport(t, provider.DefaultConfig())

	req := &provider.Request{Prompt: "Translate: hello"}
	messages := transport.chatMessages(req)
	require.Len(t, messages, 1)
	assert.Equal(t, "Translate: hello", messages[0].OfUser.Content.OfString.Value)
}

func TestInstructPromptPrefersExplicitPrompt(t *testing.T) {
	req := &provider.Request{
		Prompt: "the prompt",
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: "ignored"},
		},
	}
	assert.Equal(t, "the prompt", instructPrompt(req))
}

func TestInstructPromptFlattensMessages(t *testing.T) {
	req := &provider.Request{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "You are a translator."},
			{Role: provider.RoleUser, Content: "Translate: hello"},
		},
	}
	assert.Equal(t, "You are a translator.\n\nTranslate: hello", instructPrompt(req))
}
