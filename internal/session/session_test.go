package session

import "testing"

func TestSession_Lifecycle(t *testing.T) {
	s := New()
	if s.ID == "" {
		t.Fatal("New() should assign an ID")
	}
	if s.State != StateLoginRequired || s.Active() {
		t.Errorf("new session state = %s, active = %v", s.State, s.Active())
	}

	s.Start("CUST1001")
	if !s.Active() || s.Principal != "CUST1001" {
		t.Errorf("after Start: state = %s, principal = %q", s.State, s.Principal)
	}

	s.Append(RoleUser, "hi")
	s.Append(RoleAssistant, "hello")
	if len(s.Turns()) != 2 {
		t.Fatalf("Turns() = %d, want 2", len(s.Turns()))
	}

	s.Start("CUST1001")
	if len(s.Transcript) != 0 {
		t.Error("Start should reset the transcript")
	}

	s.Append(RoleUser, "bye")
	s.End()
	if s.Active() || s.Principal != "" || len(s.Transcript) != 0 || s.State != StateTerminated {
		t.Errorf("after End: %+v", s)
	}
}

func TestSession_TurnsIsCopy(t *testing.T) {
	s := New()
	s.Start("CUST1001")
	s.Append(RoleUser, "original")

	turns := s.Turns()
	turns[0].Text = "changed"

	if s.Transcript[0].Text != "original" {
		t.Error("Turns() must not alias the transcript")
	}
}
