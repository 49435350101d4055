package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"bankassist/internal/rag"
	"bankassist/internal/service"
	"bankassist/internal/service/mocks"
	"bankassist/internal/session"
)

var testIdentity = service.Identity{CustomerID: "CUST1001", SessionID: "sess-1"}

func newRequest(t *testing.T, method, path string, body any, withIdentity bool) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if withIdentity {
		req = req.WithContext(WithIdentity(req.Context(), testIdentity))
	}
	return req
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       any
		mockSetup  func(*mocks.MockAssistantService)
		wantStatus int
		wantToken  string
	}{
		{
			name:   "successful login",
			method: http.MethodPost,
			body:   LoginRequest{CustomerID: "cust1001", Password: "CUST1001"},
			mockSetup: func(m *mocks.MockAssistantService) {
				m.EXPECT().
					Login(gomock.Any(), service.LoginRequest{CustomerID: "cust1001", Password: "CUST1001"}).
					Return(service.LoginResponse{Token: "tok", CustomerID: "CUST1001", SessionID: "s"}, nil)
			},
			wantStatus: http.StatusOK,
			wantToken:  "tok",
		},
		{
			name:   "bad credentials",
			method: http.MethodPost,
			body:   LoginRequest{CustomerID: "CUST1001", Password: "nope"},
			mockSetup: func(m *mocks.MockAssistantService) {
				m.EXPECT().Login(gomock.Any(), gomock.Any()).Return(service.LoginResponse{}, service.ErrInvalidCredentials)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "missing fields",
			method: http.MethodPost,
			body:   LoginRequest{},
			mockSetup: func(m *mocks.MockAssistantService) {
				m.EXPECT().Login(gomock.Any(), gomock.Any()).
					Return(service.LoginResponse{}, &service.ValidationError{Field: "customer_id", Message: "cannot be empty"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid JSON body",
			method:     http.MethodPost,
			body:       "not json",
			mockSetup:  func(m *mocks.MockAssistantService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "method not allowed",
			method:     http.MethodGet,
			mockSetup:  func(m *mocks.MockAssistantService) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockAssistant := mocks.NewMockAssistantService(ctrl)
			tt.mockSetup(mockAssistant)

			w := httptest.NewRecorder()
			NewLoginHandler(mockAssistant).ServeHTTP(w, newRequest(t, tt.method, "/api/login", tt.body, false))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantToken != "" {
				var resp LoginResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Token != tt.wantToken || resp.CustomerID != "CUST1001" {
					t.Errorf("response = %+v", resp)
				}
			}
		})
	}
}

func TestChatHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		body         any
		withIdentity bool
		mockSetup    func(*mocks.MockAssistantService)
		wantStatus   int
		wantReply    string
	}{
		{
			name:         "successful POST request",
			method:       http.MethodPost,
			body:         ChatRequest{Message: "my card"},
			withIdentity: true,
			mockSetup: func(m *mocks.MockAssistantService) {
				m.EXPECT().
					Ask(gomock.Any(), testIdentity, service.AskRequest{Message: "my card"}).
					Return(service.AskResponse{Reply: "Card: Visa", Outcome: rag.OutcomeGenerated, Intent: rag.IntentCardDetails}, nil)
			},
			wantStatus: http.StatusOK,
			wantReply:  "Card: Visa",
		},
		{
			name:         "denial is a normal reply",
			method:       http.MethodPost,
			body:         ChatRequest{Message: "show CUST1002"},
			withIdentity: true,
			mockSetup: func(m *mocks.MockAssistantService) {
				m.EXPECT().Ask(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(service.AskResponse{Reply: rag.DenialMessage, Outcome: rag.OutcomeDenied}, nil)
			},
			wantStatus: http.StatusOK,
			wantReply:  rag.DenialMessage,
		},
		{
			name:         "collaborator failure",
			method:       http.MethodPost,
			body:         ChatRequest{Message: "my balance"},
			withIdentity: true,
			mockSetup: func(m *mocks.MockAssistantService) {
				m.EXPECT().Ask(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(service.AskResponse{}, fmt.Errorf("%w: %w", service.ErrExternalService, rag.ErrCollaborator))
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:         "ended session",
			method:       http.MethodPost,
			body:         ChatRequest{Message: "hi"},
			withIdentity: true,
			mockSetup: func(m *mocks.MockAssistantService) {
				m.EXPECT().Ask(gomock.Any(), gomock.Any(), gomock.Any()).Return(service.AskResponse{}, service.ErrUnauthorized)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:         "unexpected error",
			method:       http.MethodPost,
			body:         ChatRequest{Message: "hi"},
			withIdentity: true,
			mockSetup: func(m *mocks.MockAssistantService) {
				m.EXPECT().Ask(gomock.Any(), gomock.Any(), gomock.Any()).Return(service.AskResponse{}, errors.New("boom"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "no identity",
			method:     http.MethodPost,
			body:       ChatRequest{Message: "hi"},
			mockSetup:  func(m *mocks.MockAssistantService) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:         "invalid JSON body",
			method:       http.MethodPost,
			body:         "invalid json",
			withIdentity: true,
			mockSetup:    func(m *mocks.MockAssistantService) {},
			wantStatus:   http.StatusBadRequest,
		},
		{
			name:         "method not allowed",
			method:       http.MethodGet,
			withIdentity: true,
			mockSetup:    func(m *mocks.MockAssistantService) {},
			wantStatus:   http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockAssistant := mocks.NewMockAssistantService(ctrl)
			tt.mockSetup(mockAssistant)

			w := httptest.NewRecorder()
			NewChatHandler(mockAssistant).ServeHTTP(w, newRequest(t, tt.method, "/api/chat", tt.body, tt.withIdentity))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantReply != "" {
				var resp ChatResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Reply != tt.wantReply {
					t.Errorf("Reply = %q, want %q", resp.Reply, tt.wantReply)
				}
			}
		})
	}
}

func TestChatHandler_CollaboratorFailureBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAssistant := mocks.NewMockAssistantService(ctrl)
	mockAssistant.EXPECT().Ask(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(service.AskResponse{}, fmt.Errorf("%w: embeddings timed out", service.ErrExternalService))

	w := httptest.NewRecorder()
	NewChatHandler(mockAssistant).ServeHTTP(w, newRequest(t, http.MethodPost, "/api/chat", ChatRequest{Message: "x"}, true))

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error != rag.ErrorMessage {
		t.Errorf("Error = %q, want %q", resp.Error, rag.ErrorMessage)
	}
}

func TestLogoutHandler_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAssistant := mocks.NewMockAssistantService(ctrl)
	mockAssistant.EXPECT().Logout(gomock.Any(), testIdentity).Return(nil)

	w := httptest.NewRecorder()
	NewLogoutHandler(mockAssistant).ServeHTTP(w, newRequest(t, http.MethodPost, "/api/logout", nil, true))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}

	w = httptest.NewRecorder()
	NewLogoutHandler(mockAssistant).ServeHTTP(w, newRequest(t, http.MethodPost, "/api/logout", nil, false))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without identity = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestTranscriptHandler_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAssistant := mocks.NewMockAssistantService(ctrl)
	mockAssistant.EXPECT().Transcript(gomock.Any(), testIdentity).Return([]session.Turn{
		{Role: session.RoleUser, Text: "my balance"},
		{Role: session.RoleAssistant, Text: "52,300"},
	}, nil)

	w := httptest.NewRecorder()
	NewTranscriptHandler(mockAssistant).ServeHTTP(w, newRequest(t, http.MethodGet, "/api/transcript", nil, true))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp TranscriptResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	want := []TurnResponse{{Role: "user", Text: "my balance"}, {Role: "assistant", Text: "52,300"}}
	if resp.CustomerID != "CUST1001" || len(resp.Turns) != 2 || resp.Turns[0] != want[0] || resp.Turns[1] != want[1] {
		t.Errorf("response = %+v", resp)
	}
}

func TestTranscriptHandler_EmptyTranscriptIsArray(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAssistant := mocks.NewMockAssistantService(ctrl)
	mockAssistant.EXPECT().Transcript(gomock.Any(), gomock.Any()).Return(nil, nil)

	w := httptest.NewRecorder()
	NewTranscriptHandler(mockAssistant).ServeHTTP(w, newRequest(t, http.MethodGet, "/api/transcript", nil, true))

	if !bytes.Contains(w.Body.Bytes(), []byte(`"turns":[]`)) {
		t.Errorf("body = %s, want empty turns array", w.Body.String())
	}
}

func TestIdentityFromContext(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Error("IdentityFromContext() on empty context should report false")
	}
	id, ok := IdentityFromContext(WithIdentity(context.Background(), testIdentity))
	if !ok || id != testIdentity {
		t.Errorf("IdentityFromContext() = %+v, %v", id, ok)
	}
}
