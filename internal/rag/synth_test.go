package rag

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"bankassist/internal/rag/mocks"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("Balance: 1,200", "What is my balance?")
	want := "\nAnswer clearly using ONLY the context below.\n\nContext:\nBalance: 1,200\n\nQuestion:\nWhat is my balance?\n\nAnswer:\n"
	if got != want {
		t.Errorf("BuildPrompt() = %q, want %q", got, want)
	}
}

func TestSynthesizer_Answer(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		combined string
		setup    func(g *mocks.MockGenerator)
		want     Synthesis
		wantErr  error
	}{
		{
			name:     "current account present",
			query:    "Do I have a current account?",
			combined: "Account Type: Current Account",
			setup:    func(g *mocks.MockGenerator) {},
			want:     Synthesis{Text: "Yes", Deterministic: true},
		},
		{
			name:     "current account absent",
			query:    "Do I have a CURRENT ACCOUNT?",
			combined: "Account Type: Savings Account",
			setup:    func(g *mocks.MockGenerator) {},
			want:     Synthesis{Text: "No", Deterministic: true},
		},
		{
			name:     "evidence is case sensitive",
			query:    "do i have a current account",
			combined: "account type: current account",
			setup:    func(g *mocks.MockGenerator) {},
			want:     Synthesis{Text: "No", Deterministic: true},
		},
		{
			name:     "generated answer is trimmed",
			query:    "What is my balance?",
			combined: "Balance: 1,200",
			setup: func(g *mocks.MockGenerator) {
				g.EXPECT().Generate(gomock.Any(), BuildPrompt("Balance: 1,200", "What is my balance?")).
					Return("  Your balance is 1,200.\n", nil)
			},
			want: Synthesis{Text: "Your balance is 1,200."},
		},
		{
			name:     "generator failure",
			query:    "What is my balance?",
			combined: "Balance: 1,200",
			setup: func(g *mocks.MockGenerator) {
				g.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("", errors.New("connection refused"))
			},
			wantErr: ErrCollaborator,
		},
		{
			name:     "blank generator output",
			query:    "What is my balance?",
			combined: "Balance: 1,200",
			setup: func(g *mocks.MockGenerator) {
				g.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("   ", nil)
			},
			wantErr: ErrCollaborator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			generator := mocks.NewMockGenerator(ctrl)
			tt.setup(generator)

			got, err := NewSynthesizer(generator).Answer(context.Background(), tt.query, tt.combined)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Answer() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Answer() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Answer() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
