package meeting

import (
	"context"
	"testing"
	"time"
)

func createTestMeeting(t *testing.T, mgr *Manager) uint {
	t.Helper()
	m, err := mgr.Create(context.Background(), testInput(testNow.Add(time.Hour)))
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}
	return m.ID
}

func TestRegister_NewUser(t *testing.T) {
	mgr := newTestManager(t, nil)
	id := createTestMeeting(t, mgr)

	outcome, err := mgr.Register(id, "u2", "bob")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if outcome != Registered {
		t.Errorf("outcome = %v, want Registered", outcome)
	}

	count, _ := mgr.Count(id)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

// Registering twice is an expected outcome and leaves exactly one row.
func TestRegister_Duplicate(t *testing.T) {
	mgr := newTestManager(t, nil)
	id := createTestMeeting(t, mgr)

	if _, err := mgr.Register(id, "u2", "bob"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	outcome, err := mgr.Register(id, "u2", "bob")
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if outcome != AlreadyRegistered {
		t.Errorf("outcome = %v, want AlreadyRegistered", outcome)
	}

	count, _ := mgr.Count(id)
	if count != 1 {
		t.Errorf("count = %d, want 1 after duplicate", count)
	}
}

func TestRegister_SameUserDifferentMeetings(t *testing.T) {
	mgr := newTestManager(t, nil)
	first := createTestMeeting(t, mgr)
	second := createTestMeeting(t, mgr)

	if _, err := mgr.Register(first, "u2", "bob"); err != nil {
		t.Fatalf("register first: %v", err)
	}
	outcome, err := mgr.Register(second, "u2", "bob")
	if err != nil {
		t.Fatalf("register second: %v", err)
	}
	if outcome != Registered {
		t.Errorf("outcome = %v, want Registered across meetings", outcome)
	}
}

func TestCount_Empty(t *testing.T) {
	mgr := newTestManager(t, nil)
	id := createTestMeeting(t, mgr)

	count, err := mgr.Count(id)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestRoster_RegistrationOrder(t *testing.T) {
	mgr := newTestManager(t, nil)
	id := createTestMeeting(t, mgr)

	for _, u := range []struct{ id, name string }{
		{"u2", "bob"}, {"u3", "carol"}, {"u4", "dave"},
	} {
		if _, err := mgr.Register(id, u.id, u.name); err != nil {
			t.Fatalf("register %s: %v", u.id, err)
		}
	}

	regs, err := mgr.Roster(id)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(regs) != 3 {
		t.Fatalf("roster size = %d, want 3", len(regs))
	}
	want := []string{"bob", "carol", "dave"}
	for i, r := range regs {
		if r.Username != want[i] {
			t.Errorf("roster[%d] = %s, want %s", i, r.Username, want[i])
		}
	}
}

func TestRoster_Empty(t *testing.T) {
	mgr := newTestManager(t, nil)
	id := createTestMeeting(t, mgr)

	regs, err := mgr.Roster(id)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(regs) != 0 {
		t.Errorf("roster size = %d, want 0", len(regs))
	}
}
