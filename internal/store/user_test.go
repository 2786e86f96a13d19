package store

import (
	"testing"
	"time"

	"github.com/dukerupert/pagequest/internal/database"
	"github.com/dukerupert/pagequest/internal/model"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreate(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("alice", "Alice", "hash", model.RoleParent, nil, "America/Denver")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if u.Role != model.RoleParent {
		t.Errorf("role = %q, want %q", u.Role, model.RoleParent)
	}
	if u.Timezone != "America/Denver" {
		t.Errorf("timezone = %q, want %q", u.Timezone, "America/Denver")
	}
	if u.Points != 0 || u.TotalMinutes != 0 || u.StreakDays != 0 {
		t.Errorf("counters = %d/%d/%d, want zeros", u.Points, u.TotalMinutes, u.StreakDays)
	}
	if u.LastReadDate != nil {
		t.Errorf("last_read_date = %v, want nil", u.LastReadDate)
	}
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("alice", "Alice", "hash", model.RoleParent, nil, ""); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("alice", "Alice2", "hash", model.RoleParent, nil, ""); err == nil {
		t.Fatal("expected error for duplicate username, got nil")
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.GetByID(999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u != nil {
		t.Error("expected nil for nonexistent user")
	}
}

func TestUserGetByUsername(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("alice", "Alice", "hash", model.RoleParent, nil, "")
	u, err := us.GetByUsername("alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if u == nil || u.ID != created.ID {
		t.Fatalf("got %+v, want id %d", u, created.ID)
	}

	missing, err := us.GetByUsername("bob")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown username")
	}
}

func TestUserListChildren(t *testing.T) {
	us := setupUserTestDB(t)

	parent, _ := us.Create("mom", "Mom", "hash", model.RoleParent, nil, "")
	other, _ := us.Create("dad", "Dad", "hash", model.RoleParent, nil, "")
	us.Create("zoe", "Zoe", "", model.RoleChild, &parent.ID, "")
	us.Create("ada", "Ada", "", model.RoleChild, &parent.ID, "")
	us.Create("max", "Max", "", model.RoleChild, &other.ID, "")

	kids, err := us.ListChildren(parent.ID)
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(kids) != 2 {
		t.Fatalf("len = %d, want 2", len(kids))
	}
	if kids[0].Name != "Ada" || kids[1].Name != "Zoe" {
		t.Errorf("order = %s, %s; want Ada, Zoe", kids[0].Name, kids[1].Name)
	}
	if kids[0].ParentID == nil || *kids[0].ParentID != parent.ID {
		t.Errorf("parent_id = %v, want %d", kids[0].ParentID, parent.ID)
	}
}

func TestUserApplySession(t *testing.T) {
	us := setupUserTestDB(t)

	u, _ := us.Create("ada", "Ada", "", model.RoleChild, nil, "")
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	if err := us.ApplySession(u.ID, 45, 30, 3, day); err != nil {
		t.Fatalf("apply session: %v", err)
	}
	if err := us.ApplySession(u.ID, 10, 10, 3, day); err != nil {
		t.Fatalf("apply second session: %v", err)
	}

	got, _ := us.GetByID(u.ID)
	if got.Points != 55 {
		t.Errorf("points = %d, want 55", got.Points)
	}
	if got.TotalMinutes != 40 {
		t.Errorf("total_minutes = %d, want 40", got.TotalMinutes)
	}
	if got.StreakDays != 3 {
		t.Errorf("streak_days = %d, want 3", got.StreakDays)
	}
	if got.LastReadDate == nil || !got.LastReadDate.Equal(day) {
		t.Errorf("last_read_date = %v, want %v", got.LastReadDate, day)
	}
}

func TestUserApplySessionMissingUser(t *testing.T) {
	us := setupUserTestDB(t)

	if err := us.ApplySession(999, 1, 1, 1, time.Now()); err == nil {
		t.Fatal("expected error for missing user")
	}
}

func TestUserReverseSessionClampsAtZero(t *testing.T) {
	us := setupUserTestDB(t)

	u, _ := us.Create("ada", "Ada", "", model.RoleChild, nil, "")
	us.ApplySession(u.ID, 10, 20, 1, time.Now())

	if err := us.ReverseSession(u.ID, 50, 5); err != nil {
		t.Fatalf("reverse session: %v", err)
	}

	got, _ := us.GetByID(u.ID)
	if got.Points != 0 {
		t.Errorf("points = %d, want 0", got.Points)
	}
	if got.TotalMinutes != 15 {
		t.Errorf("total_minutes = %d, want 15", got.TotalMinutes)
	}
	if got.StreakDays != 1 {
		t.Errorf("streak_days = %d, want 1 (unchanged)", got.StreakDays)
	}
}

func TestUserSpendPoints(t *testing.T) {
	us := setupUserTestDB(t)

	u, _ := us.Create("ada", "Ada", "", model.RoleChild, nil, "")
	us.AddPoints(u.ID, 100)

	ok, err := us.SpendPoints(u.ID, 150)
	if err != nil {
		t.Fatalf("spend: %v", err)
	}
	if ok {
		t.Error("expected spend over balance to fail")
	}

	ok, err = us.SpendPoints(u.ID, 100)
	if err != nil {
		t.Fatalf("spend: %v", err)
	}
	if !ok {
		t.Error("expected spend of exact balance to succeed")
	}

	got, _ := us.GetByID(u.ID)
	if got.Points != 0 {
		t.Errorf("points = %d, want 0", got.Points)
	}
}

func TestUserSetTimezone(t *testing.T) {
	us := setupUserTestDB(t)

	u, _ := us.Create("mom", "Mom", "hash", model.RoleParent, nil, "")
	if err := us.SetTimezone(u.ID, "Europe/Berlin"); err != nil {
		t.Fatalf("set timezone: %v", err)
	}
	got, _ := us.GetByID(u.ID)
	if got.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q, want %q", got.Timezone, "Europe/Berlin")
	}
}
