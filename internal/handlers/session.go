package handlers

import (
	"net/http"

	"bankassist/internal/contextutil"
	"bankassist/internal/service"
)

// LogoutHandler ends the caller's session.
type LogoutHandler struct {
	assistant service.AssistantService
}

// NewLogoutHandler creates a new LogoutHandler.
func NewLogoutHandler(assistant service.AssistantService) *LogoutHandler {
	return &LogoutHandler{assistant: assistant}
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, ok := IdentityFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Login required")
		return
	}

	if err := h.assistant.Logout(ctx, id); err != nil {
		handleServiceError(ctx, w, err, "Failed to log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TranscriptHandler returns the turns of the caller's session.
type TranscriptHandler struct {
	assistant service.AssistantService
}

// NewTranscriptHandler creates a new TranscriptHandler.
func NewTranscriptHandler(assistant service.AssistantService) *TranscriptHandler {
	return &TranscriptHandler{assistant: assistant}
}

// TurnResponse is one transcript entry.
type TurnResponse struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// TranscriptResponse represents the HTTP response payload for a transcript.
type TranscriptResponse struct {
	CustomerID string         `json:"customer_id"`
	Turns      []TurnResponse `json:"turns"`
}

func (h *TranscriptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, ok := IdentityFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Login required")
		return
	}

	turns, err := h.assistant.Transcript(ctx, id)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load transcript")
		return
	}

	resp := TranscriptResponse{
		CustomerID: id.CustomerID,
		Turns:      make([]TurnResponse, 0, len(turns)),
	}
	for _, turn := range turns {
		resp.Turns = append(resp.Turns, TurnResponse{Role: string(turn.Role), Text: turn.Text})
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}
