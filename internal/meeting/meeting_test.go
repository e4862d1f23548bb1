package meeting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/quorum/internal/calendar"
	"github.com/zulandar/quorum/internal/db"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return gdb
}

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, gateway calendar.Gateway) *Manager {
	t.Helper()
	gdb := openTestDB(t)
	mgr, err := NewManager(ManagerOpts{
		DB:      gdb,
		Gateway: gateway,
		Now:     func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return mgr
}

func testInput(start time.Time) CreateInput {
	return CreateInput{
		Title:       "Community Sync",
		Description: "Weekly catch-up",
		Start:       start,
		CreatorID:   "u1",
		CreatorName: "alice",
	}
}

// --- NewManager tests ---

func TestNewManager_NilDB(t *testing.T) {
	_, err := NewManager(ManagerOpts{})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
}

// --- Create tests ---

func TestCreate_EndIsStartPlusOneHour(t *testing.T) {
	mgr := newTestManager(t, nil)
	start := testNow.Add(24 * time.Hour)

	m, err := mgr.Create(context.Background(), testInput(start))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !m.EndTime.Equal(start.Add(time.Hour)) {
		t.Errorf("end = %v, want %v", m.EndTime, start.Add(time.Hour))
	}
}

func TestCreate_NoGateway_LocalEventID(t *testing.T) {
	mgr := newTestManager(t, nil)

	m, err := mgr.Create(context.Background(), testInput(testNow.Add(time.Hour)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(m.EventID, LocalEventPrefix) {
		t.Errorf("event id %q lacks local prefix", m.EventID)
	}
	if m.CalendarLink != "" {
		t.Errorf("calendar link = %q, want empty for local event", m.CalendarLink)
	}
	if !IsLocalEvent(m.EventID) {
		t.Error("IsLocalEvent should report true")
	}
}

func TestCreate_WithGateway_RemoteEventID(t *testing.T) {
	gw := calendar.NewMockGateway()
	mgr := newTestManager(t, gw)

	m, err := mgr.Create(context.Background(), testInput(testNow.Add(time.Hour)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.EventID != "remote-1" {
		t.Errorf("event id = %q, want remote-1", m.EventID)
	}
	if m.CalendarLink == "" {
		t.Error("expected calendar link for remote event")
	}
	if IsLocalEvent(m.EventID) {
		t.Error("remote event id reported as local")
	}

	created := gw.Created()
	if len(created) != 1 {
		t.Fatalf("gateway created %d events, want 1", len(created))
	}
	if !strings.Contains(created[0].Description, "Created by: @alice") {
		t.Errorf("remote description %q missing creator annotation", created[0].Description)
	}
}

// A calendar outage must degrade to a local event, never fail the create.
func TestCreate_GatewayFailure_FallsBackToLocal(t *testing.T) {
	gw := calendar.NewMockGateway()
	gw.FailAll(true)
	mgr := newTestManager(t, gw)

	m, err := mgr.Create(context.Background(), testInput(testNow.Add(time.Hour)))
	if err != nil {
		t.Fatalf("create should succeed despite gateway failure: %v", err)
	}
	if !strings.HasPrefix(m.EventID, LocalEventPrefix) {
		t.Errorf("event id %q lacks local prefix after gateway failure", m.EventID)
	}
	if m.CalendarLink != "" {
		t.Errorf("calendar link = %q, want empty after gateway failure", m.CalendarLink)
	}
}

func TestCreate_PersistsAllFields(t *testing.T) {
	mgr := newTestManager(t, nil)
	start := testNow.Add(48 * time.Hour)

	created, err := mgr.Create(context.Background(), testInput(start))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := mgr.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("meeting not found after create")
	}
	if got.Title != "Community Sync" || got.Description != "Weekly catch-up" {
		t.Errorf("unexpected fields: %+v", got)
	}
	if got.CreatorID != "u1" || got.CreatorUsername != "alice" {
		t.Errorf("creator fields: %+v", got)
	}
}

// --- Delete tests ---

func TestDelete_ByCreator(t *testing.T) {
	mgr := newTestManager(t, nil)
	m, _ := mgr.Create(context.Background(), testInput(testNow.Add(time.Hour)))

	if err := mgr.Delete(context.Background(), m.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := mgr.GetByID(m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("meeting still present after delete")
	}
}

func TestDelete_NonCreator_NotAuthorized(t *testing.T) {
	mgr := newTestManager(t, nil)
	m, _ := mgr.Create(context.Background(), testInput(testNow.Add(time.Hour)))
	if _, err := mgr.Register(m.ID, "u2", "bob"); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := mgr.Delete(context.Background(), m.ID, "u2")
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("delete by non-creator = %v, want ErrNotAuthorized", err)
	}

	// Meeting and registrations must be intact.
	got, _ := mgr.GetByID(m.ID)
	if got == nil {
		t.Fatal("meeting deleted by unauthorized request")
	}
	count, _ := mgr.Count(m.ID)
	if count != 1 {
		t.Errorf("registration count = %d, want 1", count)
	}
}

func TestDelete_MissingMeeting_NotAuthorized(t *testing.T) {
	mgr := newTestManager(t, nil)
	err := mgr.Delete(context.Background(), 999, "u1")
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("delete of missing meeting = %v, want ErrNotAuthorized", err)
	}
}

func TestDelete_CascadesRegistrations(t *testing.T) {
	mgr := newTestManager(t, nil)
	m, _ := mgr.Create(context.Background(), testInput(testNow.Add(time.Hour)))
	mgr.Register(m.ID, "u2", "bob")
	mgr.Register(m.ID, "u3", "carol")

	if err := mgr.Delete(context.Background(), m.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	count, err := mgr.Count(m.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("registrations after delete = %d, want 0", count)
	}
}

func TestDelete_RemoteEvent_CleansUpCalendar(t *testing.T) {
	gw := calendar.NewMockGateway()
	mgr := newTestManager(t, gw)
	m, _ := mgr.Create(context.Background(), testInput(testNow.Add(time.Hour)))

	if err := mgr.Delete(context.Background(), m.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	deleted := gw.Deleted()
	if len(deleted) != 1 || deleted[0] != m.EventID {
		t.Errorf("gateway deletions = %v, want [%s]", deleted, m.EventID)
	}
}

// Remote cleanup failures must not block the local delete.
func TestDelete_RemoteCleanupFailure_StillDeletesLocally(t *testing.T) {
	gw := calendar.NewMockGateway()
	mgr := newTestManager(t, gw)
	m, _ := mgr.Create(context.Background(), testInput(testNow.Add(time.Hour)))

	gw.FailAll(true)
	if err := mgr.Delete(context.Background(), m.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, _ := mgr.GetByID(m.ID)
	if got != nil {
		t.Error("meeting still present after delete with failed remote cleanup")
	}
}

func TestDelete_LocalEvent_SkipsGateway(t *testing.T) {
	gw := calendar.NewMockGateway()
	mgr := newTestManager(t, nil)
	m, _ := mgr.Create(context.Background(), testInput(testNow.Add(time.Hour)))

	// Re-attach a gateway for the delete path. The local-prefix id must keep
	// the gateway out of it.
	mgr.gateway = gw
	if err := mgr.Delete(context.Background(), m.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(gw.Deleted()) != 0 {
		t.Errorf("gateway deletions = %v, want none for local event", gw.Deleted())
	}
}

// --- Listing tests ---

func TestListUpcoming_FiltersAndOrders(t *testing.T) {
	mgr := newTestManager(t, nil)
	ctx := context.Background()

	past := testInput(testNow.Add(-2 * time.Hour))
	past.Title = "Past"
	mgr.Create(ctx, past)

	later := testInput(testNow.Add(72 * time.Hour))
	later.Title = "Later"
	mgr.Create(ctx, later)

	soon := testInput(testNow.Add(1 * time.Hour))
	soon.Title = "Soon"
	mgr.Create(ctx, soon)

	got, err := mgr.ListUpcoming()
	if err != nil {
		t.Fatalf("list upcoming: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d meetings, want 2", len(got))
	}
	if got[0].Title != "Soon" || got[1].Title != "Later" {
		t.Errorf("order = [%s, %s], want [Soon, Later]", got[0].Title, got[1].Title)
	}
}

func TestListUpcoming_Empty(t *testing.T) {
	mgr := newTestManager(t, nil)
	got, err := mgr.ListUpcoming()
	if err != nil {
		t.Fatalf("list upcoming: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d meetings, want 0", len(got))
	}
}

func TestListByCreator_IncludesPast(t *testing.T) {
	mgr := newTestManager(t, nil)
	ctx := context.Background()

	mine := testInput(testNow.Add(-time.Hour))
	mine.Title = "Mine Past"
	mgr.Create(ctx, mine)

	other := testInput(testNow.Add(time.Hour))
	other.Title = "Someone Else"
	other.CreatorID = "u9"
	mgr.Create(ctx, other)

	got, err := mgr.ListByCreator("u1")
	if err != nil {
		t.Fatalf("list by creator: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d meetings, want 1", len(got))
	}
	if got[0].Title != "Mine Past" {
		t.Errorf("title = %q, want Mine Past", got[0].Title)
	}
}

// --- GetByID tests ---

func TestGetByID_Missing(t *testing.T) {
	mgr := newTestManager(t, nil)
	got, err := mgr.GetByID(42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for missing meeting", got)
	}
}

// --- Helper tests ---

func TestIsLocalEvent(t *testing.T) {
	if !IsLocalEvent("local_event_12345") {
		t.Error("local_event_ prefix not recognized")
	}
	if IsLocalEvent("abc123remote") {
		t.Error("remote id misclassified as local")
	}
}

func TestLocalEventID_Unique(t *testing.T) {
	a := localEventID(time.Unix(0, 100))
	b := localEventID(time.Unix(0, 101))
	if a == b {
		t.Errorf("ids %q and %q should differ", a, b)
	}
}
