package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/subtext/internal/command"
	"github.com/phrazzld/subtext/internal/config"
	"github.com/phrazzld/subtext/internal/events"
	"github.com/phrazzld/subtext/internal/model"
	"github.com/phrazzld/subtext/internal/provider"
	"github.com/phrazzld/subtext/internal/translation"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubTransport answers every translation attempt with a canned result
type stubTransport struct {
	resp *provider.Response
	err  error
}

func (s *stubTransport) Send(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	return s.resp, s.err
}

func newTestApplication(t *testing.T, transport provider.Transport) *application {
	t.Helper()
	logger := setupTestLogger()
	document := model.NewDocument()
	executor := command.NewExecutor(document, command.ExecutorConfig{WorkerCount: 1, QueueSize: 10}, logger)
	t.Cleanup(executor.Stop)

	client := provider.NewClient(transport, provider.DefaultConfig(), logger)
	service, err := translation.NewService(executor, client, document, logger)
	require.NoError(t, err)

	return &application{
		config:   &config.Config{},
		logger:   logger,
		document: document,
		executor: executor,
		service:  service,
		emitter:  events.NewInMemoryEmitter(logger),
	}
}

func performRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func translationBody() map[string]any {
	return map[string]any{
		"lines": []map[string]any{
			{"index": 0, "text": "hello"},
			{"index": 1, "text": "goodbye"},
		},
		"target_language": "French",
	}
}

func waitForDocument(t *testing.T, document *model.Document, lines int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return document.Len() >= lines
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSubmitTranslationAccepted(t *testing.T) {
	app := newTestApplication(t, &stubTransport{
		resp: &provider.Response{Text: "bonjour\nau revoir", FinishReason: "stop"},
	})
	router := app.setupRouter()

	rec := performRequest(t, router, http.MethodPost, "/api/translations", translationBody())
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp CommandResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.ID)
	assert.Contains(t, resp.Name, "translate 2 lines to French")
	assert.True(t, resp.Blocking)

	waitForDocument(t, app.document, 2)
}

func TestSubmitTranslationInvalidJSON(t *testing.T) {
	app := newTestApplication(t, &stubTransport{})
	router := app.setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/translations", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitTranslationValidation(t *testing.T) {
	app := newTestApplication(t, &stubTransport{})
	router := app.setupRouter()

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing lines", body: map[string]any{"target_language": "French"}},
		{name: "empty lines", body: map[string]any{"lines": []any{}, "target_language": "French"}},
		{name: "missing target language", body: map[string]any{
			"lines": []map[string]any{{"index": 0, "text": "hello"}},
		}},
		{name: "temperature out of range", body: map[string]any{
			"lines":           []map[string]any{{"index": 0, "text": "hello"}},
			"target_language": "French",
			"temperature":     3.5,
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := performRequest(t, router, http.MethodPost, "/api/translations", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSubmitTranslationWhenHalted(t *testing.T) {
	app := newTestApplication(t, &stubTransport{
		err: &provider.TransportError{Kind: provider.KindRateLimited},
	})
	router := app.setupRouter()

	rec := performRequest(t, router, http.MethodPost, "/api/translations", translationBody())
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, app.executor.Halted, 5*time.Second, 10*time.Millisecond)

	rec = performRequest(t, router, http.MethodPost, "/api/translations", translationBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUndoAndRedoRoundtripOverHTTP(t *testing.T) {
	app := newTestApplication(t, &stubTransport{
		resp: &provider.Response{Text: "bonjour\nau revoir", FinishReason: "stop"},
	})
	router := app.setupRouter()

	rec := performRequest(t, router, http.MethodPost, "/api/translations", translationBody())
	require.Equal(t, http.StatusAccepted, rec.Code)
	waitForDocument(t, app.document, 2)
	require.Eventually(t, func() bool {
		undo, _ := app.executor.History()
		return len(undo) == 1
	}, 5*time.Second, 10*time.Millisecond)

	rec = performRequest(t, router, http.MethodPost, "/api/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history HistoryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	assert.Empty(t, history.Undo)
	assert.Len(t, history.Redo, 1)
	assert.Zero(t, app.document.Len())

	rec = performRequest(t, router, http.MethodPost, "/api/redo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, app.document.Len())
}

func TestUndoOnEmptyHistory(t *testing.T) {
	app := newTestApplication(t, &stubTransport{})
	router := app.setupRouter()

	rec := performRequest(t, router, http.MethodPost, "/api/undo", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRedoOnEmptyHistory(t *testing.T) {
	app := newTestApplication(t, &stubTransport{})
	router := app.setupRouter()

	rec := performRequest(t, router, http.MethodPost, "/api/redo", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAbortAll(t *testing.T) {
	app := newTestApplication(t, &stubTransport{})
	router := app.setupRouter()

	rec := performRequest(t, router, http.MethodPost, "/api/abort", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	app := newTestApplication(t, &stubTransport{
		resp: &provider.Response{Text: "bonjour\nau revoir", FinishReason: "stop"},
	})
	router := app.setupRouter()

	rec := performRequest(t, router, http.MethodGet, "/api/commands", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history HistoryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	assert.Empty(t, history.Undo)
	assert.Empty(t, history.Redo)
	assert.False(t, history.Halted)

	performRequest(t, router, http.MethodPost, "/api/translations", translationBody())
	require.Eventually(t, func() bool {
		undo, _ := app.executor.History()
		return len(undo) == 1
	}, 5*time.Second, 10*time.Millisecond)

	rec = performRequest(t, router, http.MethodGet, "/api/commands", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	require.Len(t, history.Undo, 1)
	assert.True(t, history.Undo[0].CanUndo)
}

func TestDocumentEndpoint(t *testing.T) {
	app := newTestApplication(t, &stubTransport{
		resp: &provider.Response{Text: "bonjour\nau revoir", FinishReason: "stop"},
	})
	router := app.setupRouter()

	performRequest(t, router, http.MethodPost, "/api/translations", translationBody())
	waitForDocument(t, app.document, 2)

	rec := performRequest(t, router, http.MethodGet, "/api/document", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snapshot))
	assert.Equal(t, "bonjour", snapshot["lines/0/translation"])
	assert.Equal(t, "au revoir", snapshot["lines/1/translation"])
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApplication(t, &stubTransport{})
	router := app.setupRouter()

	rec := performRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
