package handlers

import (
	"encoding/json"
	"net/http"

	"bankassist/internal/contextutil"
	"bankassist/internal/service"
)

// LoginHandler handles HTTP requests for login.
type LoginHandler struct {
	assistant service.AssistantService
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(assistant service.AssistantService) *LoginHandler {
	return &LoginHandler{assistant: assistant}
}

// LoginRequest represents the HTTP request payload for login.
type LoginRequest struct {
	CustomerID string `json:"customer_id"`
	Password   string `json:"password"`
}

// LoginResponse carries the bearer token for subsequent requests.
type LoginResponse struct {
	Token      string `json:"token"`
	CustomerID string `json:"customer_id"`
}

// ServeHTTP handles HTTP requests for login.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.assistant.Login(ctx, service.LoginRequest{
		CustomerID: req.CustomerID,
		Password:   req.Password,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to log in")
		return
	}

	writeJSON(ctx, w, http.StatusOK, LoginResponse{
		Token:      resp.Token,
		CustomerID: resp.CustomerID,
	})
}
