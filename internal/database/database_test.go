package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-while/go-pugwiki/internal/models"
	"github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	cfg := DefaultDBConfig()
	cfg.MainDB = filepath.Join(t.TempDir(), "test.sq3")
	cfg.AppVersion = "test"
	db, err := OpenDatabase(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Shutdown(); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	})
	return db
}

func createUser(t *testing.T, db *Database, name string, groups ...string) *models.User {
	t.Helper()
	ctx := context.Background()
	u := &models.User{Username: name}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", name, err)
	}
	for _, g := range groups {
		if err := db.AddUserToGroup(ctx, u.ID, g); err != nil {
			t.Fatalf("AddUserToGroup failed: %v", err)
		}
	}
	return u
}

func TestOpenDatabaseTwice(t *testing.T) {
	a := openTestDB(t)
	b := openTestDB(t)
	if a.GetMainDB() == b.GetMainDB() {
		t.Errorf("expected two independent databases")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestSiteStatsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s, err := db.LoadSiteStats(ctx)
	if err != nil {
		t.Fatalf("LoadSiteStats failed: %v", err)
	}
	if s.Edits != 0 || s.Pages != 0 {
		t.Errorf("fresh database should start at zero, got %+v", s)
	}

	want := &models.SiteStats{Edits: 1500, Articles: 120, Pages: 400, Users: 33, ActiveUsers: 7, Images: 12}
	if err := db.SaveSiteStats(ctx, want); err != nil {
		t.Fatalf("SaveSiteStats failed: %v", err)
	}
	got, err := db.LoadSiteStats(ctx)
	if err != nil {
		t.Fatalf("LoadSiteStats failed: %v", err)
	}
	if got.Edits != 1500 || got.Articles != 120 || got.Pages != 400 || got.Users != 33 || got.ActiveUsers != 7 || got.Images != 12 {
		t.Errorf("unexpected stats after save: %+v", got)
	}

	if err := db.SetActiveUsers(ctx, 9); err != nil {
		t.Fatalf("SetActiveUsers failed: %v", err)
	}
	got, _ = db.LoadSiteStats(ctx)
	if got.ActiveUsers != 9 {
		t.Errorf("expected 9 active users, got %d", got.ActiveUsers)
	}
}

func TestUsersAndGroups(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	alice := createUser(t, db, "Alice", "sysop", "bureaucrat")
	createUser(t, db, "Bob", "sysop")
	createUser(t, db, "Carol")

	if err := db.CreateUser(ctx, &models.User{Username: "Alice"}); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected duplicate user to fail, got %v", err)
	}

	testCases := []struct {
		group string
		want  int64
	}{
		{"sysop", 2},
		{"bureaucrat", 1},
		{"bot", 0},
	}
	for _, tc := range testCases {
		got, err := db.NumberInGroup(ctx, tc.group)
		if err != nil {
			t.Fatalf("NumberInGroup failed: %v", err)
		}
		if got != tc.want {
			t.Errorf("NumberInGroup(%s) = %d, want %d", tc.group, got, tc.want)
		}
	}

	// adding twice is a no-op
	if err := db.AddUserToGroup(ctx, alice.ID, "sysop"); err != nil {
		t.Fatalf("AddUserToGroup failed: %v", err)
	}
	if n, _ := db.NumberInGroup(ctx, "sysop"); n != 2 {
		t.Errorf("duplicate membership counted, got %d", n)
	}

	removed, err := db.RemoveUserFromGroup(ctx, alice.ID, "sysop")
	if err != nil || !removed {
		t.Fatalf("RemoveUserFromGroup = %t, %v", removed, err)
	}
	groups, err := db.GetUserGroups(ctx, alice.ID)
	if err != nil || len(groups) != 1 || groups[0] != "bureaucrat" {
		t.Errorf("unexpected groups %v (%v)", groups, err)
	}

	sysops, err := db.ListUsers(ctx, "sysop")
	if err != nil || len(sysops) != 1 || sysops[0].Username != "Bob" {
		t.Errorf("unexpected sysop list %v (%v)", sysops, err)
	}
	all, _ := db.ListUsers(ctx, "")
	if len(all) != 3 {
		t.Errorf("expected 3 users, got %d", len(all))
	}

	stats, _ := db.LoadSiteStats(ctx)
	if stats.Users != 3 {
		t.Errorf("expected user counter 3, got %d", stats.Users)
	}

	if _, err := db.GetUserByUsername(ctx, "Nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCountActiveUsers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	alice := createUser(t, db, "Alice")
	bob := createUser(t, db, "Bob")
	robot := createUser(t, db, "Robot", "bot")
	newbie := createUser(t, db, "Newbie")
	old := createUser(t, db, "Old")

	changes := []*models.RecentChange{
		{UserID: alice.ID, Timestamp: now.Add(-time.Hour)},
		{UserID: alice.ID, Timestamp: now.Add(-2 * time.Hour)},
		{UserID: bob.ID, Timestamp: now.Add(-24 * time.Hour), Type: models.RCNew},
		{UserID: robot.ID, Timestamp: now.Add(-time.Hour)},
		{UserID: newbie.ID, Timestamp: now.Add(-time.Hour), Type: models.RCLog, LogType: "newusers"},
		{UserID: old.ID, Timestamp: now.Add(-40 * 24 * time.Hour)},
		{UserID: 0, Timestamp: now.Add(-time.Hour)},
	}
	for _, rc := range changes {
		if err := db.AddRecentChange(ctx, rc); err != nil {
			t.Fatalf("AddRecentChange failed: %v", err)
		}
	}

	got, err := db.CountActiveUsers(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("CountActiveUsers failed: %v", err)
	}
	if got != 2 {
		t.Errorf("expected 2 active users (Alice, Bob), got %d", got)
	}

	got, _ = db.CountActiveUsers(ctx, now.Add(-90*time.Minute))
	if got != 1 {
		t.Errorf("expected 1 active user in the last 90 minutes, got %d", got)
	}
}

func TestPageExists(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.AddPage(ctx, &models.WikiPage{Namespace: "Project", Title: "Administrators"}); err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}
	testCases := []struct {
		ns, key string
		want    bool
	}{
		{"Project", "Administrators", true},
		{"Project", "Bots", false},
		{"", "Administrators", false},
	}
	for _, tc := range testCases {
		got, err := db.PageExists(ctx, tc.ns, tc.key)
		if err != nil {
			t.Fatalf("PageExists failed: %v", err)
		}
		if got != tc.want {
			t.Errorf("PageExists(%q, %q) = %t, want %t", tc.ns, tc.key, got, tc.want)
		}
	}
}

func TestAPITokens(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	token, plain, err := db.CreateAPIToken(ctx, "admin", 0, nil)
	if err != nil {
		t.Fatalf("CreateAPIToken failed: %v", err)
	}
	if len(plain) != 64 || token.APIToken != HashToken(plain) {
		t.Errorf("expected a 64 char token stored as its hash")
	}

	got, err := db.ValidateAPIToken(ctx, plain)
	if err != nil || got.ID != token.ID {
		t.Fatalf("ValidateAPIToken failed: %v", err)
	}
	if err := db.UpdateTokenUsage(ctx, token.ID); err != nil {
		t.Fatalf("UpdateTokenUsage failed: %v", err)
	}
	if _, err := db.ValidateAPIToken(ctx, "wrong"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}

	past := time.Now().Add(-time.Hour).UTC()
	_, expiredPlain, err := db.CreateAPIToken(ctx, "old", 0, &past)
	if err != nil {
		t.Fatalf("CreateAPIToken failed: %v", err)
	}
	if _, err := db.ValidateAPIToken(ctx, expiredPlain); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
	if n, err := db.CleanupExpiredTokens(ctx); err != nil || n != 1 {
		t.Errorf("CleanupExpiredTokens = %d, %v; want 1", n, err)
	}

	if err := db.DisableAPIToken(ctx, token.ID); err != nil {
		t.Fatalf("DisableAPIToken failed: %v", err)
	}
	if _, err := db.ValidateAPIToken(ctx, plain); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("disabled token should be rejected, got %v", err)
	}
	if err := db.DisableAPIToken(ctx, 9999); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound for unknown id, got %v", err)
	}

	tokens, err := db.ListAPITokens(ctx)
	if err != nil || len(tokens) != 1 || tokens[0].UsageCount != 1 {
		t.Errorf("unexpected token list %+v (%v)", tokens, err)
	}
}

func TestMessageOverrides(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SetMessageOverride(ctx, "statistics-footer", "en", "first"); err != nil {
		t.Fatalf("SetMessageOverride failed: %v", err)
	}
	if err := db.SetMessageOverride(ctx, "statistics-footer", "en", "second"); err != nil {
		t.Fatalf("SetMessageOverride failed: %v", err)
	}
	if err := db.SetMessageOverride(ctx, "group-bot", "de", "Roboter"); err != nil {
		t.Fatalf("SetMessageOverride failed: %v", err)
	}

	list, err := db.ListMessageOverrides(ctx)
	if err != nil {
		t.Fatalf("ListMessageOverrides failed: %v", err)
	}
	if len(list) != 2 || list[1].Text != "second" {
		t.Errorf("unexpected overrides %+v", list)
	}

	removed, err := db.DeleteMessageOverride(ctx, "group-bot", "de")
	if err != nil || !removed {
		t.Errorf("DeleteMessageOverride = %t, %v", removed, err)
	}
	removed, _ = db.DeleteMessageOverride(ctx, "group-bot", "de")
	if removed {
		t.Errorf("second delete should report nothing removed")
	}
}

func TestConfigValues(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if v, err := db.GetConfigValue(ctx, "missing"); err != nil || v != "" {
		t.Errorf("missing key should be empty, got %q %v", v, err)
	}
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := db.SetConfigTime(ctx, "refreshed", ts); err != nil {
		t.Fatalf("SetConfigTime failed: %v", err)
	}
	got, err := db.GetConfigTime(ctx, "refreshed")
	if err != nil || !got.Equal(ts) {
		t.Errorf("GetConfigTime = %s, %v; want %s", got, err, ts)
	}
}

func TestSystemStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultDBConfig()
	cfg.MainDB = filepath.Join(t.TempDir(), "status.sq3")
	cfg.AppVersion = "1.2.3"
	cfg.TrackStatus = true

	db, err := OpenDatabase(ctx, cfg)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	st, err := db.GetSystemStatus(ctx)
	if err != nil {
		t.Fatalf("GetSystemStatus failed: %v", err)
	}
	if st.State != StateRunning || st.AppVersion != "1.2.3" || st.PID != os.Getpid() || st.StartedAt == nil {
		t.Errorf("unexpected status after start: %+v", st)
	}
	if err := db.MarkShuttingDown(ctx); err != nil {
		t.Fatalf("MarkShuttingDown failed: %v", err)
	}
	if st, _ := db.GetSystemStatus(ctx); st.State != StateShuttingDown {
		t.Errorf("expected %s, got %s", StateShuttingDown, st.State)
	}
	if err := db.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	// a tool opening the same file must not take over the status row
	cfg.TrackStatus = false
	tool, err := OpenDatabase(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer tool.Shutdown()
	st, err = tool.GetSystemStatus(ctx)
	if err != nil {
		t.Fatalf("GetSystemStatus failed: %v", err)
	}
	if !st.Clean() || st.StoppedAt == nil {
		t.Errorf("expected a clean shutdown record, got %+v", st)
	}
	if err := tool.MarkShuttingDown(ctx); err != nil {
		t.Errorf("MarkShuttingDown without tracking must be a no-op, got %v", err)
	}
	if st, _ := tool.GetSystemStatus(ctx); !st.Clean() {
		t.Errorf("untracked process changed the state to %s", st.State)
	}
}

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		file    string
		version int
		name    string
		wantErr bool
	}{
		{"0001_schema.sql", 1, "schema", false},
		{"0012_rc_index.sql", 12, "rc_index", false},
		{"0001.sql", 0, "", true},
		{"0001_.sql", 0, "", true},
		{"x_schema.sql", 0, "", true},
		{"0000_zero.sql", 0, "", true},
		{"0001_schema.txt", 0, "", true},
	}
	for _, tt := range tests {
		version, name, err := parseMigrationName(tt.file)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: unexpected error state %v", tt.file, err)
			continue
		}
		if version != tt.version || name != tt.name {
			t.Errorf("%s: got %d %q", tt.file, version, name)
		}
	}
}

func TestSchemaVersion(t *testing.T) {
	db := openTestDB(t)
	migrations, err := loadMigrations(migrationsFS)
	if err != nil || len(migrations) == 0 {
		t.Fatalf("loadMigrations: %d %v", len(migrations), err)
	}
	version, err := db.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if want := migrations[len(migrations)-1].Version; version != want {
		t.Errorf("expected schema version %d, got %d", want, version)
	}
}

func TestWithRetry(t *testing.T) {
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}

	calls := 0
	err := withRetry(context.Background(), "test", func() error {
		calls++
		if calls < 3 {
			return busy
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("expected success on third attempt, got %v after %d calls", err, calls)
	}

	calls = 0
	plain := errors.New("syntax error")
	if err := withRetry(context.Background(), "test", func() error { calls++; return plain }); err != plain || calls != 1 {
		t.Errorf("non-lock errors must not be retried, got %v after %d calls", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := withRetry(ctx, "test", func() error { return busy }); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
