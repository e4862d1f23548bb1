package main

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/quorum/internal/meeting"
)

// seedMeeting creates a meeting through the lifecycle manager so CLI tests
// exercise the same store the bot writes to.
func seedMeeting(t *testing.T, cfgPath, title string, start time.Time) uint {
	t.Helper()
	mgr, err := managerFromConfig(cfgPath)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	m, err := mgr.Create(context.Background(), meeting.CreateInput{
		Title:       title,
		Description: "seeded",
		Start:       start,
		CreatorID:   "u1",
		CreatorName: "alice",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return m.ID
}

func initTestStore(t *testing.T) string {
	t.Helper()
	cfgPath := writeTestConfig(t)
	if out, err := runCmd(t, "db", "init", "--config", cfgPath); err != nil {
		t.Fatalf("db init: %v\n%s", err, out)
	}
	return cfgPath
}

func TestMeetingList_Empty(t *testing.T) {
	cfgPath := initTestStore(t)

	out, err := runCmd(t, "meeting", "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("meeting list: %v", err)
	}
	if !strings.Contains(out, "No meetings found.") {
		t.Errorf("output = %s", out)
	}
}

func TestMeetingList(t *testing.T) {
	cfgPath := initTestStore(t)
	seedMeeting(t, cfgPath, "Community Sync", time.Now().Add(24*time.Hour))

	out, err := runCmd(t, "meeting", "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("meeting list: %v", err)
	}
	if !strings.Contains(out, "Community Sync") || !strings.Contains(out, "alice") {
		t.Errorf("output = %s", out)
	}
}

func TestMeetingList_ByCreatorIncludesPast(t *testing.T) {
	cfgPath := initTestStore(t)
	seedMeeting(t, cfgPath, "Old Meeting", time.Now().Add(-24*time.Hour))

	out, err := runCmd(t, "meeting", "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("meeting list: %v", err)
	}
	if strings.Contains(out, "Old Meeting") {
		t.Errorf("past meeting in default list: %s", out)
	}

	out, err = runCmd(t, "meeting", "list", "--config", cfgPath, "--creator", "u1")
	if err != nil {
		t.Fatalf("meeting list --creator: %v", err)
	}
	if !strings.Contains(out, "Old Meeting") {
		t.Errorf("creator list missing past meeting: %s", out)
	}
}

func TestMeetingShow(t *testing.T) {
	cfgPath := initTestStore(t)
	id := seedMeeting(t, cfgPath, "Community Sync", time.Now().Add(24*time.Hour))

	mgr, _ := managerFromConfig(cfgPath)
	mgr.Register(id, "u2", "bob")

	out, err := runCmd(t, "meeting", "show", fmt.Sprint(id), "--config", cfgPath)
	if err != nil {
		t.Fatalf("meeting show: %v", err)
	}
	for _, want := range []string{"Community Sync", "Registered:  1", "bob"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMeetingShow_NotFound(t *testing.T) {
	cfgPath := initTestStore(t)
	_, err := runCmd(t, "meeting", "show", "999", "--config", cfgPath)
	if err == nil {
		t.Fatal("expected error for missing meeting")
	}
}

func TestMeetingShow_BadID(t *testing.T) {
	cfgPath := initTestStore(t)
	_, err := runCmd(t, "meeting", "show", "abc", "--config", cfgPath)
	if err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestMeetingDelete(t *testing.T) {
	cfgPath := initTestStore(t)
	id := seedMeeting(t, cfgPath, "Community Sync", time.Now().Add(24*time.Hour))

	out, err := runCmd(t, "meeting", "delete", fmt.Sprint(id), "--config", cfgPath)
	if err != nil {
		t.Fatalf("meeting delete: %v", err)
	}
	if !strings.Contains(out, "Deleted meeting") {
		t.Errorf("output = %s", out)
	}

	mgr, _ := managerFromConfig(cfgPath)
	m, _ := mgr.GetByID(id)
	if m != nil {
		t.Error("meeting still present after delete")
	}
}

func TestMeetingDelete_NotFound(t *testing.T) {
	cfgPath := initTestStore(t)
	_, err := runCmd(t, "meeting", "delete", "999", "--config", cfgPath)
	if err == nil {
		t.Fatal("expected error for missing meeting")
	}
}
