package handlers

import (
	"encoding/json"
	"net/http"

	"bankassist/internal/contextutil"
	"bankassist/internal/service"
)

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	assistant service.AssistantService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(assistant service.AssistantService) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Reply     string `json:"reply"`
	Outcome   string `json:"outcome"`
	Intent    string `json:"intent,omitempty"`
	LoggedOut bool   `json:"logged_out"`
}

// ServeHTTP handles HTTP requests for chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, ok := IdentityFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Login required")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.assistant.Ask(ctx, id, service.AskRequest{Message: req.Message})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process chat request")
		return
	}

	writeJSON(ctx, w, http.StatusOK, ChatResponse{
		Reply:     resp.Reply,
		Outcome:   string(resp.Outcome),
		Intent:    string(resp.Intent),
		LoggedOut: resp.LoggedOut,
	})
}
