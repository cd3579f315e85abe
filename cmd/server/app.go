package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/subtext/internal/command"
	"github.com/phrazzld/subtext/internal/config"
	"github.com/phrazzld/subtext/internal/events"
	"github.com/phrazzld/subtext/internal/model"
	"github.com/phrazzld/subtext/internal/platform/openai"
	"github.com/phrazzld/subtext/internal/provider"
	"github.com/phrazzld/subtext/internal/translation"
)

// application holds the wired-up dependencies for the server.
type application struct {
	config    *config.Config
	logger    *slog.Logger
	document  *model.Document
	executor  *command.Executor
	service   *translation.Service
	emitter   *events.InMemoryEmitter
	publisher *events.AMQPPublisher
}

// newApplication wires configuration into the document model, command
// executor, provider client, translation service, and event plumbing.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	document := model.NewDocument()

	executor := command.NewExecutor(document, command.ExecutorConfig{
		WorkerCount: cfg.Engine.WorkerCount,
		QueueSize:   cfg.Engine.QueueSize,
	}, logger)

	providerCfg := provider.Config{
		MaxRetries:             cfg.Provider.MaxRetries,
		BackoffTime:            cfg.Provider.BackoffTime,
		MaxInstructTokens:      cfg.Provider.MaxInstructTokens,
		SupportsConversation:   cfg.Provider.SupportsConversation,
		SupportsSystemMessages: cfg.Provider.SupportsSystemMessages,
	}

	transport, err := openai.NewTransport(cfg.Provider.APIKey, cfg.Provider.Model, providerCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider transport: %w", err)
	}
	client := provider.NewClient(transport, providerCfg, logger)

	service, err := translation.NewService(executor, client, document, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation service: %w", err)
	}

	app := &application{
		config:   cfg,
		logger:   logger,
		document: document,
		executor: executor,
		service:  service,
		emitter:  events.NewInMemoryEmitter(logger),
	}

	if cfg.Events.AMQPURL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		app.publisher = publisher
		app.emitter.RegisterHandler(publisher)
	}

	// Fan each completion out to the event handlers. Emission happens on a
	// worker goroutine; handlers decide whether to marshal elsewhere.
	executor.SetExecutedHook(func(cmd *command.Command, success bool, elapsed time.Duration) {
		event := events.NewCommandExecutedEvent(
			cmd.ID(), cmd.Name(), string(cmd.Status()), success, cmd.Err(), elapsed)
		if err := app.emitter.EmitEvent(context.Background(), event); err != nil {
			logger.Error("failed to emit command event",
				"command_id", cmd.ID(),
				"error", err)
		}
	})

	return app, nil
}

// run starts the HTTP server and blocks until the context is cancelled,
// then shuts everything down in dependency order.
func (app *application) run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	server := app.newServer()

	go func() {
		serverErr <- server.start()
	}()

	select {
	case err := <-serverErr:
		app.shutdown()
		return err
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.shutdown(shutdownCtx); err != nil {
		app.logger.Error("http server shutdown failed", "error", err)
	}

	app.shutdown()
	return nil
}

// shutdown stops the executor and closes the event publisher.
func (app *application) shutdown() {
	app.executor.Stop()
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("failed to close event publisher", "error", err)
		}
	}
}
