package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"go.uber.org/mock/gomock"

	"bankassist/internal/corpus"
	"bankassist/internal/rag/mocks"
	"bankassist/internal/session"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const (
	cust1001Record = "Customer ID: CUST1001\n" +
		"=== ACCOUNT SUMMARY ===\nAccount Type: Current Account\nBalance: 52,300\n" +
		"=== CARD DETAILS ===\nVisa ending 1234"
	cust1002Record = "Customer ID: CUST1002\n" +
		"=== ACCOUNT SUMMARY ===\nAccount Type: Savings Account\n" +
		"=== LOAN DETAILS ===\nHome loan, 12 years remaining"
)

func testRecords() []corpus.Record {
	return []corpus.Record{
		{Text: cust1002Record, OwnerID: "CUST1002"},
		{Text: cust1001Record, OwnerID: "CUST1001"},
	}
}

func loggedIn(principal string) *session.Session {
	s := session.New()
	s.Start(principal)
	return s
}

func TestOrchestrator_Turn(t *testing.T) {
	tests := []struct {
		name        string
		principal   string
		query       string
		setup       func(r *mocks.MockRetriever, g *mocks.MockGenerator)
		wantText    string
		wantOutcome Outcome
		wantIntent  Intent
	}{
		{
			name:        "mention of another customer is denied before policy",
			principal:   "CUST1001",
			query:       "Can CUST1002 apply for a loan?",
			setup:       func(r *mocks.MockRetriever, g *mocks.MockGenerator) {},
			wantText:    DenialMessage,
			wantOutcome: OutcomeDenied,
		},
		{
			name:        "policy question bypasses retrieval",
			principal:   "CUST1003",
			query:       "Am I eligible for a credit card?",
			setup:       func(r *mocks.MockRetriever, g *mocks.MockGenerator) {},
			wantText:    PolicyMessage,
			wantOutcome: OutcomePolicy,
		},
		{
			name:        "own id mention is allowed",
			principal:   "CUST1001",
			query:       "Am I, CUST1001, eligible?",
			setup:       func(r *mocks.MockRetriever, g *mocks.MockGenerator) {},
			wantText:    PolicyMessage,
			wantOutcome: OutcomePolicy,
		},
		{
			name:        "no intent skips retrieval",
			principal:   "CUST1001",
			query:       "hello",
			setup:       func(r *mocks.MockRetriever, g *mocks.MockGenerator) {},
			wantText:    NoDataMessage,
			wantOutcome: OutcomeNoData,
		},
		{
			name:      "current account yes",
			principal: "CUST1001",
			query:     "Do I have a current account?",
			setup: func(r *mocks.MockRetriever, g *mocks.MockGenerator) {
				r.EXPECT().Search(gomock.Any(), "Do I have a current account?").Return(testRecords(), nil)
			},
			wantText:    "Yes",
			wantOutcome: OutcomeDeterministic,
			wantIntent:  IntentAccountSummary,
		},
		{
			name:      "current account no",
			principal: "CUST1002",
			query:     "Do I have a current account?",
			setup: func(r *mocks.MockRetriever, g *mocks.MockGenerator) {
				r.EXPECT().Search(gomock.Any(), gomock.Any()).Return(testRecords(), nil)
			},
			wantText:    "No",
			wantOutcome: OutcomeDeterministic,
			wantIntent:  IntentAccountSummary,
		},
		{
			name:      "missing section falls back",
			principal: "CUST1001",
			query:     "What are my loan details?",
			setup: func(r *mocks.MockRetriever, g *mocks.MockGenerator) {
				// Only another customer's record carries LOAN DETAILS.
				r.EXPECT().Search(gomock.Any(), gomock.Any()).Return(testRecords(), nil)
			},
			wantText:    NoDataMessage,
			wantOutcome: OutcomeNoData,
			wantIntent:  IntentLoanDetails,
		},
		{
			name:      "generated answer sees only owned sections",
			principal: "CUST1001",
			query:     "What is my balance?",
			setup: func(r *mocks.MockRetriever, g *mocks.MockGenerator) {
				r.EXPECT().Search(gomock.Any(), gomock.Any()).Return(testRecords(), nil)
				want := BuildPrompt("Account Type: Current Account\nBalance: 52,300", "What is my balance?")
				g.EXPECT().Generate(gomock.Any(), want).Return("Your balance is 52,300.", nil)
			},
			wantText:    "Your balance is 52,300.",
			wantOutcome: OutcomeGenerated,
			wantIntent:  IntentAccountSummary,
		},
		{
			name:      "sections from several owned records are joined in order",
			principal: "CUST1001",
			query:     "card",
			setup: func(r *mocks.MockRetriever, g *mocks.MockGenerator) {
				r.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]corpus.Record{
					{Text: "=== CARD DETAILS ===\nVisa", OwnerID: "CUST1001"},
					{Text: "=== CARD DETAILS ===\nAmex", OwnerID: "CUST1002"},
					{Text: "=== CARD DETAILS ===\nRuPay", OwnerID: "CUST1001"},
				}, nil)
				g.EXPECT().Generate(gomock.Any(), BuildPrompt("Visa\nRuPay", "card")).Return("Visa and RuPay", nil)
			},
			wantText:    "Visa and RuPay",
			wantOutcome: OutcomeGenerated,
			wantIntent:  IntentCardDetails,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			retriever := mocks.NewMockRetriever(ctrl)
			generator := mocks.NewMockGenerator(ctrl)
			tt.setup(retriever, generator)

			sess := loggedIn(tt.principal)
			reply, err := NewOrchestrator(retriever, generator).Turn(context.Background(), sess, tt.query)
			if err != nil {
				t.Fatalf("Turn() error = %v", err)
			}
			if reply.Text != tt.wantText {
				t.Errorf("Turn() text = %q, want %q", reply.Text, tt.wantText)
			}
			if reply.Outcome != tt.wantOutcome {
				t.Errorf("Turn() outcome = %s, want %s", reply.Outcome, tt.wantOutcome)
			}
			if reply.Intent != tt.wantIntent {
				t.Errorf("Turn() intent = %q, want %q", reply.Intent, tt.wantIntent)
			}

			turns := sess.Turns()
			if len(turns) != 2 || turns[0].Text != tt.query || turns[1].Text != tt.wantText {
				t.Errorf("transcript = %+v", turns)
			}
		})
	}
}

func TestOrchestrator_Turn_CollaboratorFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	retriever := mocks.NewMockRetriever(ctrl)
	generator := mocks.NewMockGenerator(ctrl)

	retriever.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, errors.New("index unavailable"))

	sess := loggedIn("CUST1001")
	reply, err := NewOrchestrator(retriever, generator).Turn(context.Background(), sess, "my balance")
	if !errors.Is(err, ErrCollaborator) {
		t.Fatalf("Turn() error = %v, want ErrCollaborator", err)
	}
	if reply.Outcome != OutcomeError || reply.Text != ErrorMessage {
		t.Errorf("Turn() reply = %+v", reply)
	}

	turns := sess.Turns()
	if len(turns) != 2 || turns[1].Role != session.RoleAssistant || turns[1].Text != ErrorMessage {
		t.Errorf("transcript = %+v, want generic error turn", turns)
	}
	if !sess.Active() {
		t.Error("collaborator failure must not end the session")
	}
}

func TestOrchestrator_Turn_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	orch := NewOrchestrator(mocks.NewMockRetriever(ctrl), mocks.NewMockGenerator(ctrl))

	sess := loggedIn("CUST1001")
	if _, err := orch.Turn(context.Background(), sess, "Am I eligible?"); err != nil {
		t.Fatalf("Turn() error = %v", err)
	}

	reply, err := orch.Turn(context.Background(), sess, "  LogOut ")
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}
	if !reply.LoggedOut || reply.Text != LogoutMessage || reply.Outcome != OutcomeLogout {
		t.Errorf("Turn() reply = %+v", reply)
	}
	if len(sess.Transcript) != 0 || sess.Principal != "" || sess.State != session.StateTerminated {
		t.Errorf("session after logout = %+v", sess)
	}

	if _, err := orch.Turn(context.Background(), sess, "my balance"); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Turn() after logout error = %v, want ErrNotLoggedIn", err)
	}
}

func TestOrchestrator_Turn_TranscriptAlternates(t *testing.T) {
	ctrl := gomock.NewController(t)
	retriever := mocks.NewMockRetriever(ctrl)
	generator := mocks.NewMockGenerator(ctrl)
	retriever.EXPECT().Search(gomock.Any(), gomock.Any()).Return(testRecords(), nil).AnyTimes()
	generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("answer", nil).AnyTimes()

	orch := NewOrchestrator(retriever, generator)
	sess := loggedIn("CUST1001")

	queries := []string{"balance", "card", "Am I eligible?", "CUST1004 balance", "hello", "loan"}
	for i, q := range queries {
		if _, err := orch.Turn(context.Background(), sess, q); err != nil {
			t.Fatalf("Turn(%d) error = %v", i, err)
		}
	}

	turns := sess.Turns()
	if len(turns) != 2*len(queries) {
		t.Fatalf("transcript has %d turns, want %d", len(turns), 2*len(queries))
	}
	for i, turn := range turns {
		wantRole := session.RoleUser
		if i%2 == 1 {
			wantRole = session.RoleAssistant
		}
		if turn.Role != wantRole {
			t.Errorf("turn %d role = %s, want %s", i, turn.Role, wantRole)
		}
		if i%2 == 0 && turn.Text != queries[i/2] {
			t.Errorf("turn %d text = %q, want %q", i, turn.Text, queries[i/2])
		}
	}
}

func TestOrchestrator_Turn_NeverLeaksOtherOwners(t *testing.T) {
	ctrl := gomock.NewController(t)
	retriever := mocks.NewMockRetriever(ctrl)
	generator := mocks.NewMockGenerator(ctrl)

	var records []corpus.Record
	for i := 0; i < 6; i++ {
		owner := fmt.Sprintf("CUST10%02d", i)
		records = append(records, corpus.Record{
			Text:    fmt.Sprintf("=== TRANSACTIONS ===\nsecret-of-%s", owner),
			OwnerID: owner,
		})
	}
	retriever.EXPECT().Search(gomock.Any(), gomock.Any()).Return(records, nil)
	generator.EXPECT().Generate(gomock.Any(), BuildPrompt("secret-of-CUST1003", "my transactions")).Return("ok", nil)

	reply, err := NewOrchestrator(retriever, generator).Turn(context.Background(), loggedIn("CUST1003"), "my transactions")
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}
	if reply.Retrieved != 6 || reply.Owned != 1 || reply.Sections != 1 {
		t.Errorf("Turn() counts = %d/%d/%d, want 6/1/1", reply.Retrieved, reply.Owned, reply.Sections)
	}
}
