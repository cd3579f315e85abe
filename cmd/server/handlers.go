package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/subtext/internal/command"
	"github.com/phrazzld/subtext/internal/model"
	"github.com/phrazzld/subtext/internal/translation"
)

// SubmitTranslationRequest represents the request body for submitting a
// translation batch
type SubmitTranslationRequest struct {
	Lines          []translation.Line `json:"lines"           validate:"required,min=1,dive"`
	SourceLanguage string             `json:"source_language"`
	TargetLanguage string             `json:"target_language" validate:"required"`
	Temperature    float64            `json:"temperature"     validate:"gte=0,lte=2"`
}

// CommandResponse represents the response data for a submitted command
type CommandResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Blocking bool   `json:"blocking"`
}

// HistoryResponse represents the executor's undo/redo history
type HistoryResponse struct {
	Undo   []command.Summary `json:"undo"`
	Redo   []command.Summary `json:"redo"`
	Halted bool              `json:"halted"`
}

// commandHandler handles command engine HTTP requests
type commandHandler struct {
	executor  *command.Executor
	service   *translation.Service
	document  *model.Document
	validator *validator.Validate
	logger    *slog.Logger
}

// newCommandHandler creates a new commandHandler
func newCommandHandler(
	executor *command.Executor,
	service *translation.Service,
	document *model.Document,
	logger *slog.Logger,
) *commandHandler {
	return &commandHandler{
		executor:  executor,
		service:   service,
		document:  document,
		validator: validator.New(),
		logger:    logger.With("component", "command_handler"),
	}
}

// SubmitTranslation handles POST /api/translations requests
func (h *commandHandler) SubmitTranslation(w http.ResponseWriter, r *http.Request) {
	var req SubmitTranslationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cmd, err := h.service.Translate(&translation.Request{
		Lines:          req.Lines,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		Temperature:    req.Temperature,
	})
	if err != nil {
		switch {
		case errors.Is(err, command.ErrQueueHalted):
			respondWithError(w, http.StatusConflict, "Command queue is halted")
		case errors.Is(err, command.ErrQueueFull):
			respondWithError(w, http.StatusServiceUnavailable, "Command queue is full, try again later")
		default:
			h.logger.Error("failed to submit translation", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to submit translation")
		}
		return
	}

	// Processing happens asynchronously on the worker pool.
	respondWithJSON(w, http.StatusAccepted, CommandResponse{
		ID:       cmd.ID().String(),
		Name:     cmd.Name(),
		Status:   string(cmd.Status()),
		Blocking: cmd.Blocking(),
	})
}

// Undo handles POST /api/undo requests
func (h *commandHandler) Undo(w http.ResponseWriter, r *http.Request) {
	if err := h.executor.Undo(r.Context()); err != nil {
		if errors.Is(err, command.ErrUndo) {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("undo failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Undo failed")
		return
	}
	h.History(w, r)
}

// Redo handles POST /api/redo requests
func (h *commandHandler) Redo(w http.ResponseWriter, r *http.Request) {
	if err := h.executor.Redo(r.Context()); err != nil {
		if errors.Is(err, command.ErrRedo) {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("redo failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Redo failed")
		return
	}
	h.History(w, r)
}

// AbortAll handles POST /api/abort requests
func (h *commandHandler) AbortAll(w http.ResponseWriter, r *http.Request) {
	h.executor.AbortAll()
	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "aborting"})
}

// History handles GET /api/commands requests
func (h *commandHandler) History(w http.ResponseWriter, r *http.Request) {
	undo, redo := h.executor.History()
	respondWithJSON(w, http.StatusOK, HistoryResponse{
		Undo:   undo,
		Redo:   redo,
		Halted: h.executor.Halted(),
	})
}

// Document handles GET /api/document requests
func (h *commandHandler) Document(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.document.Snapshot())
}

// respondWithJSON writes a JSON response with the given status code.
func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondWithError writes a JSON error response.
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}
