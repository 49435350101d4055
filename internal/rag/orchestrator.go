package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retriever.go -package=mocks bankassist/internal/rag Retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bankassist/internal/contextutil"
	"bankassist/internal/corpus"
	"bankassist/internal/session"
)

var (
	// ErrCollaborator marks failures of the embedding service, the
	// similarity index or the generator. They are fatal to the turn.
	ErrCollaborator = errors.New("collaborator failure")

	// ErrNotLoggedIn is returned for turns on a session without a principal.
	ErrNotLoggedIn = errors.New("session has no principal")
)

// Retriever returns the records most similar to a query, of any owner.
type Retriever interface {
	Search(ctx context.Context, query string) ([]corpus.Record, error)
}

// Outcome says which branch of the pipeline produced a reply.
type Outcome string

const (
	OutcomeLogout        Outcome = "logout"
	OutcomeDenied        Outcome = "denied"
	OutcomePolicy        Outcome = "policy"
	OutcomeDeterministic Outcome = "deterministic"
	OutcomeGenerated     Outcome = "generated"
	OutcomeNoData        Outcome = "no_data"
	OutcomeError         Outcome = "error"
)

// Reply is the assistant's answer to one turn.
type Reply struct {
	Text      string
	Outcome   Outcome
	Intent    Intent
	LoggedOut bool
	// Retrieved and Owned count records before and after the ownership filter.
	Retrieved int
	Owned     int
	Sections  int
}

// Orchestrator runs query turns against a session.
type Orchestrator struct {
	retriever   Retriever
	synthesizer *Synthesizer
}

// NewOrchestrator creates an orchestrator. retriever and generator are
// shared by all sessions and must be safe for concurrent use.
func NewOrchestrator(retriever Retriever, generator Generator) *Orchestrator {
	return &Orchestrator{
		retriever:   retriever,
		synthesizer: NewSynthesizer(generator),
	}
}

// IsLogout reports whether query is the logout command.
func IsLogout(query string) bool {
	return strings.EqualFold(strings.TrimSpace(query), "logout")
}

// Turn answers query for sess.Principal and records the exchange in the
// transcript. The logout command ends the session instead.
//
// Denials, policy answers and missing data are replies, not errors. A
// collaborator failure records ErrorMessage as the assistant turn and
// returns an error wrapping ErrCollaborator alongside that reply.
func (o *Orchestrator) Turn(ctx context.Context, sess *session.Session, query string) (Reply, error) {
	if !sess.Active() {
		return Reply{}, ErrNotLoggedIn
	}

	logger := contextutil.LoggerFromContext(ctx).With("customer_id", sess.Principal)
	ctx = contextutil.WithLogger(ctx, logger)

	if IsLogout(query) {
		sess.End()
		logger.InfoContext(ctx, "session logged out")
		return Reply{Text: LogoutMessage, Outcome: OutcomeLogout, LoggedOut: true}, nil
	}

	sess.Append(session.RoleUser, query)

	reply, err := o.answer(ctx, sess.Principal, query)
	if err != nil {
		logger.ErrorContext(ctx, "turn failed", "intent", reply.Intent, "error", err)
		reply.Text = ErrorMessage
		reply.Outcome = OutcomeError
		sess.Append(session.RoleAssistant, reply.Text)
		return reply, err
	}

	sess.Append(session.RoleAssistant, reply.Text)

	logger.InfoContext(ctx, "turn answered",
		"outcome", reply.Outcome,
		"intent", reply.Intent,
		"records", reply.Retrieved,
		"owned", reply.Owned,
		"sections", reply.Sections,
	)
	return reply, nil
}

func (o *Orchestrator) answer(ctx context.Context, principal, query string) (Reply, error) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.DebugContext(ctx, "query received", "query", query)

	if mentioned, denied := MentionGuard(principal, query); denied {
		logger.WarnContext(ctx, "query mentions another customer", "mentioned", mentioned)
		return Reply{Text: DenialMessage, Outcome: OutcomeDenied}, nil
	}

	if text, ok := PolicyAnswer(query); ok {
		return Reply{Text: text, Outcome: OutcomePolicy}, nil
	}

	reply := Reply{Intent: ClassifyIntent(query)}
	if reply.Intent == IntentNone {
		reply.Text, reply.Outcome = NoDataMessage, OutcomeNoData
		return reply, nil
	}

	records, err := o.retriever.Search(ctx, query)
	if err != nil {
		return reply, fmt.Errorf("%w: retrieve records: %w", ErrCollaborator, err)
	}
	reply.Retrieved = len(records)

	owned := FilterOwned(records, principal)
	reply.Owned = len(owned)

	var sections []string
	for _, rec := range owned {
		if body, ok := ExtractSection(rec.Text, string(reply.Intent)); ok {
			sections = append(sections, body)
		}
	}
	reply.Sections = len(sections)

	if len(sections) == 0 {
		reply.Text, reply.Outcome = NoDataMessage, OutcomeNoData
		return reply, nil
	}

	synthesis, err := o.synthesizer.Answer(ctx, query, strings.Join(sections, "\n"))
	if err != nil {
		return reply, err
	}

	reply.Text = synthesis.Text
	reply.Outcome = OutcomeGenerated
	if synthesis.Deterministic {
		reply.Outcome = OutcomeDeterministic
	}
	return reply, nil
}
