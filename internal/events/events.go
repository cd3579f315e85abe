package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CommandExecutedEvent records the completion of one command. It carries
// plain values rather than the command itself so handlers have no
// dependency on the command package.
type CommandExecutedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// CommandID identifies the completed command
	CommandID uuid.UUID `json:"command_id"`

	// CommandName is the command's human-readable label
	CommandName string `json:"command_name"`

	// Status is the command's completion state
	Status string `json:"status"`

	// Success reports whether the command succeeded
	Success bool `json:"success"`

	// Error holds the failure message, if any
	Error string `json:"error,omitempty"`

	// ElapsedMS is the execution time in milliseconds
	ElapsedMS int64 `json:"elapsed_ms"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewCommandExecutedEvent creates a completion event for the given command
// details.
func NewCommandExecutedEvent(commandID uuid.UUID, name, status string, success bool, execErr error, elapsed time.Duration) *CommandExecutedEvent {
	event := &CommandExecutedEvent{
		ID:          uuid.New(),
		CommandID:   commandID,
		CommandName: name,
		Status:      status,
		Success:     success,
		ElapsedMS:   elapsed.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}
	if execErr != nil {
		event.Error = execErr.Error()
	}
	return event
}

// Handler defines an interface for components that process command
// completion events.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *CommandExecutedEvent) error
}

// Emitter defines an interface for components that publish command
// completion events to registered handlers.
type Emitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *CommandExecutedEvent) error
}
