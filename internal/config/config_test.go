package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Wiki.ActiveUserDays != DefaultActiveUserDays {
		t.Errorf("expected %d active user days, got %d", DefaultActiveUserDays, cfg.Wiki.ActiveUserDays)
	}
	want := []string{"*", "user", "autoconfirmed", "bot", "sysop", "bureaucrat"}
	if got := cfg.Wiki.Groups(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected groups %v, got %v", want, got)
	}
}

func TestDefaultConfigDoesNotShareGroups(t *testing.T) {
	a := NewDefaultConfig()
	a.Wiki.GroupPermissions[0].Group = "changed"
	b := NewDefaultConfig()
	if b.Wiki.GroupPermissions[0].Group != "*" {
		t.Errorf("default group table was mutated through another config")
	}
}

func TestImplicitGroups(t *testing.T) {
	cfg := NewDefaultConfig()
	testCases := []struct {
		group    string
		implicit bool
	}{
		{"*", true},
		{"user", true},
		{"autoconfirmed", true},
		{"sysop", false},
		{"bot", false},
	}
	for _, tc := range testCases {
		if got := cfg.Wiki.IsImplicitGroup(tc.group); got != tc.implicit {
			t.Errorf("IsImplicitGroup(%q) = %t, want %t", tc.group, got, tc.implicit)
		}
	}
}

func TestLoadConfigYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pugwiki.yaml")
	content := `
web:
  listen_port: 12000
wiki:
  site_name: TestWiki
  miser_mode: true
  active_user_days: 7
  active_users_interval: 2h
  group_permissions:
    - group: "*"
    - group: sysop
      rights: [block, delete]
    - group: checkuser
      rights: [checkuser]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(EnvPrefix+"SITENAME", "EnvWiki")
	t.Setenv(EnvPrefix+"ENABLE_UPLOADS", "true")
	t.Setenv(EnvPrefix+"EXTENSIONS", "cachestats, other")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Web.ListenPort != 12000 {
		t.Errorf("expected port 12000, got %d", cfg.Web.ListenPort)
	}
	if cfg.Wiki.SiteName != "EnvWiki" {
		t.Errorf("environment should override file, got site name %q", cfg.Wiki.SiteName)
	}
	if !cfg.Wiki.MiserMode || !cfg.Wiki.EnableUploads {
		t.Errorf("expected miser mode and uploads enabled, got %+v", cfg.Wiki)
	}
	if cfg.Wiki.ActiveUserDays != 7 {
		t.Errorf("expected 7 active user days, got %d", cfg.Wiki.ActiveUserDays)
	}
	if cfg.Wiki.ActiveUsersInterval != 2*time.Hour {
		t.Errorf("expected 2h interval, got %s", cfg.Wiki.ActiveUsersInterval)
	}
	if got := strings.Join(cfg.Wiki.Groups(), ","); got != "*,sysop,checkuser" {
		t.Errorf("expected groups from file in order, got %s", got)
	}
	if !cfg.Wiki.HasExtension("cachestats") || !cfg.Wiki.HasExtension("other") {
		t.Errorf("expected extensions from environment, got %v", cfg.Wiki.Extensions)
	}
	if cfg.Wiki.ProjectNamespace != "Project" {
		t.Errorf("expected default project namespace to survive, got %q", cfg.Wiki.ProjectNamespace)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"zero active days", map[string]string{EnvPrefix + "ACTIVE_USER_DAYS": "0"}},
		{"port too low", map[string]string{EnvPrefix + "WEB_PORT": "80"}},
		{"port not a number", map[string]string{EnvPrefix + "WEB_PORT": "eighty"}},
		{"bad bool", map[string]string{EnvPrefix + "MISER_MODE": "maybe"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(""); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestValidateRejectsDuplicateGroups(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Wiki.GroupPermissions = append(cfg.Wiki.GroupPermissions, GroupPermission{Group: "sysop"})
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected duplicate group to be rejected")
	}
}
