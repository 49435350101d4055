package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_turn_runner.go -package=mocks bankassist/internal/service TurnRunner
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_assistant_service.go -package=mocks bankassist/internal/service AssistantService

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bankassist/internal/auth"
	"bankassist/internal/contextutil"
	"bankassist/internal/rag"
	"bankassist/internal/session"
)

// TurnRunner runs one query turn against a session.
// This interface is defined from the service layer's perspective (consumer-first).
type TurnRunner interface {
	Turn(ctx context.Context, sess *session.Session, query string) (rag.Reply, error)
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	CustomerID string
	Password   string
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token      string
	CustomerID string
	SessionID  string
}

// Identity is the caller resolved from a session token.
type Identity struct {
	CustomerID string
	SessionID  string
}

// AskRequest is one user query.
type AskRequest struct {
	Message string
}

// AskResponse is the assistant's reply to one query.
type AskResponse struct {
	Reply     string
	Outcome   rag.Outcome
	Intent    rag.Intent
	LoggedOut bool
}

// AssistantService is the banking assistant's session-level API.
type AssistantService interface {
	// Login verifies credentials and opens a fresh session.
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	// Authenticate resolves a session token to the caller's identity.
	Authenticate(ctx context.Context, token string) (Identity, error)
	// Ask runs one query turn. Turns of one session never overlap.
	Ask(ctx context.Context, id Identity, req AskRequest) (AskResponse, error)
	// Logout ends the session. Ending an unknown session is not an error.
	Logout(ctx context.Context, id Identity) error
	// Transcript returns the session's turns in order.
	Transcript(ctx context.Context, id Identity) ([]session.Turn, error)
}

type assistantService struct {
	credentials auth.CredentialStore
	tokens      *auth.TokenIssuer
	sessions    session.Store
	runner      TurnRunner
	locks       *keyedMutex
}

// NewAssistantService creates a new AssistantService.
func NewAssistantService(
	credentials auth.CredentialStore,
	tokens *auth.TokenIssuer,
	sessions session.Store,
	runner TurnRunner,
) AssistantService {
	return &assistantService{
		credentials: credentials,
		tokens:      tokens,
		sessions:    sessions,
		runner:      runner,
		locks:       newKeyedMutex(),
	}
}

func (s *assistantService) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	customerID := strings.ToUpper(strings.TrimSpace(req.CustomerID))
	if customerID == "" {
		return LoginResponse{}, &ValidationError{Field: "customer_id", Message: "cannot be empty"}
	}
	if req.Password == "" {
		return LoginResponse{}, &ValidationError{Field: "password", Message: "cannot be empty"}
	}

	ok, err := s.credentials.Verify(ctx, customerID, req.Password)
	if err != nil {
		logger.ErrorContext(ctx, "credential check failed", "customer_id", customerID, "error", err)
		return LoginResponse{}, fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	if !ok {
		logger.WarnContext(ctx, "login rejected", "customer_id", customerID)
		return LoginResponse{}, ErrInvalidCredentials
	}

	sess := session.New()
	sess.Start(customerID)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return LoginResponse{}, WrapError(err, "failed to save session")
	}

	token, err := s.tokens.Issue(customerID, sess.ID)
	if err != nil {
		return LoginResponse{}, WrapError(err, "failed to issue token")
	}

	logger.InfoContext(ctx, "customer logged in", "customer_id", customerID, "session_id", sess.ID)
	return LoginResponse{Token: token, CustomerID: customerID, SessionID: sess.ID}, nil
}

func (s *assistantService) Authenticate(_ context.Context, token string) (Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return Identity{CustomerID: claims.Subject, SessionID: claims.ID}, nil
}

// load returns the identity's live session. A session that has ended or
// belongs to someone else is unauthorized.
func (s *assistantService) load(ctx context.Context, id Identity) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, id.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, WrapError(err, "failed to load session")
	}
	if !sess.Active() || sess.Principal != id.CustomerID {
		return nil, ErrUnauthorized
	}
	return sess, nil
}

func (s *assistantService) Ask(ctx context.Context, id Identity, req AskRequest) (AskResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return AskResponse{}, &ValidationError{Field: "message", Message: "cannot be empty"}
	}

	unlock := s.locks.lock(id.SessionID)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return AskResponse{}, err
	}

	reply, turnErr := s.runner.Turn(ctx, sess, req.Message)

	if reply.LoggedOut {
		if err := s.sessions.Delete(ctx, sess.ID); err != nil {
			return AskResponse{}, WrapError(err, "failed to delete session")
		}
	} else if err := s.sessions.Save(ctx, sess); err != nil {
		return AskResponse{}, WrapError(err, "failed to save session")
	}

	if turnErr != nil {
		if errors.Is(turnErr, rag.ErrCollaborator) {
			return AskResponse{}, fmt.Errorf("%w: %w", ErrExternalService, turnErr)
		}
		return AskResponse{}, WrapError(turnErr, "failed to answer query")
	}

	return AskResponse{
		Reply:     reply.Text,
		Outcome:   reply.Outcome,
		Intent:    reply.Intent,
		LoggedOut: reply.LoggedOut,
	}, nil
}

func (s *assistantService) Logout(ctx context.Context, id Identity) error {
	unlock := s.locks.lock(id.SessionID)
	defer unlock()

	sess, err := s.load(ctx, id)
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	if err != nil {
		return err
	}

	sess.End()
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return WrapError(err, "failed to delete session")
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "customer logged out", "customer_id", id.CustomerID)
	return nil
}

func (s *assistantService) Transcript(ctx context.Context, id Identity) ([]session.Turn, error) {
	unlock := s.locks.lock(id.SessionID)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Turns(), nil
}
