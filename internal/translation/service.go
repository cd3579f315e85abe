package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/subtext/internal/command"
	"github.com/phrazzld/subtext/internal/provider"
)

// Model is the view of the application model the service needs: applying
// updates during undo, and reading current values so undo can restore them.
type Model interface {
	command.ModelApplier
	Get(path string) (any, bool)
}

// Service turns translation requests into commands and submits them to the
// executor.
type Service struct {
	executor *command.Executor
	client   *provider.Client
	model    Model
	logger   *slog.Logger
}

// NewService creates a translation service.
func NewService(executor *command.Executor, client *provider.Client, model Model, logger *slog.Logger) (*Service, error) {
	if executor == nil {
		return nil, errors.New("executor cannot be nil")
	}
	if client == nil {
		return nil, errors.New("provider client cannot be nil")
	}
	if model == nil {
		return nil, errors.New("model cannot be nil")
	}

	return &Service{
		executor: executor,
		client:   client,
		model:    model,
		logger:   logger.With("component", "translation_service"),
	}, nil
}

// Translate builds a translation command for the request and submits it.
// The returned command can be observed through its callback or polled for
// status; translation runs asynchronously on the executor's worker pool.
func (s *Service) Translate(req *Request) (*command.Command, error) {
	cmd, err := s.TranslateCommand(req)
	if err != nil {
		return nil, err
	}
	if err := s.executor.Submit(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// TranslateCommand builds the command without submitting it. Translation
// commands are blocking: batches must reach the document in submission
// order.
func (s *Service) TranslateCommand(req *Request) (*command.Command, error) {
	if req == nil || len(req.Lines) == 0 {
		return nil, errors.New("translation request has no lines")
	}
	if req.TargetLanguage == "" {
		return nil, errors.New("translation request has no target language")
	}

	// Captured at execute time so undo can restore what the translation
	// overwrote.
	previous := make(map[string]any)
	var touched []string

	execute := func(ctx context.Context, cmd *command.Command) error {
		// Re-entered on redo; start from a clean capture.
		previous = make(map[string]any)
		touched = nil

		resp, err := s.client.Send(ctx, buildRequest(req), cmd.Aborted)
		if err != nil {
			if errors.Is(err, provider.ErrQuotaExceeded) || errors.Is(err, provider.ErrImpossible) {
				cmd.MarkTerminal()
			}
			return fmt.Errorf("translation request failed: %w", err)
		}
		if resp == nil {
			// Aborted mid-request; the command completes as aborted with
			// no recorded updates.
			return nil
		}

		translated, err := parseResponse(req, resp.Text)
		if err != nil {
			return err
		}

		s.logger.Debug("translation received",
			"line_count", len(translated),
			"prompt_tokens", resp.PromptTokens,
			"output_tokens", resp.OutputTokens,
			"response_time", resp.ResponseTime)

		update, err := cmd.AddUpdate()
		if err != nil {
			return err
		}
		for i, line := range req.Lines {
			path := linePath(line.Index)
			if value, ok := s.model.Get(path); ok {
				previous[path] = value
			}
			touched = append(touched, path)
			update.Put(path, translated[i])
		}
		return nil
	}

	undo := func(ctx context.Context, cmd *command.Command) error {
		revert := &command.ModelUpdate{}
		for _, path := range touched {
			if value, ok := previous[path]; ok {
				revert.Put(path, value)
			} else {
				revert.Remove(path)
			}
		}
		return s.model.Apply(ctx, []*command.ModelUpdate{revert})
	}

	return command.New(
		fmt.Sprintf("translate %d lines to %s", len(req.Lines), req.TargetLanguage),
		command.Options{
			Execute:  execute,
			Undo:     undo,
			Blocking: true,
		},
	)
}
