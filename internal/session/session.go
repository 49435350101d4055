// Package session holds the per-session conversation state: the
// authenticated principal, the transcript, and the login state machine.
package session

import (
	"time"

	"github.com/google/uuid"
)

// State is a session's position in the login state machine.
type State string

const (
	StateLoginRequired State = "login_required"
	StateAwaitingQuery State = "awaiting_query"
	StateTerminated    State = "terminated"
)

// Role identifies the speaker of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one transcript entry.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session is the explicit per-session context passed to every turn.
type Session struct {
	ID         string    `json:"id"`
	Principal  string    `json:"principal,omitempty"`
	State      State     `json:"state"`
	Transcript []Turn    `json:"transcript"`
	CreatedAt  time.Time `json:"created_at"`
}

// New returns a fresh session awaiting login.
func New() *Session {
	return &Session{
		ID:        uuid.NewString(),
		State:     StateLoginRequired,
		CreatedAt: time.Now().UTC(),
	}
}

// Start binds principal to the session and clears the transcript.
// The principal is fixed until End.
func (s *Session) Start(principal string) {
	s.Principal = principal
	s.State = StateAwaitingQuery
	s.Transcript = nil
}

// End clears the principal and transcript and terminates the session.
func (s *Session) End() {
	s.Principal = ""
	s.Transcript = nil
	s.State = StateTerminated
}

// Active reports whether the session accepts queries.
func (s *Session) Active() bool {
	return s.State == StateAwaitingQuery && s.Principal != ""
}

// Append adds a turn to the transcript.
func (s *Session) Append(role Role, text string) {
	s.Transcript = append(s.Transcript, Turn{Role: role, Text: text})
}

// Turns returns a copy of the transcript.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.Transcript))
	copy(out, s.Transcript)
	return out
}
