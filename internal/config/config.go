// Package config provides configuration management for go-pugwiki.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var AppVersion = "-unset-" // will be set at build time

const (
	// Web server defaults
	DefaultWebPort    = 11980
	DefaultWebSSLPort = 19443

	// Site statistics defaults
	DefaultActiveUserDays      = 30
	DefaultActiveUsersInterval = 1 * time.Hour
	DefaultSnapshotTTL         = 1 * time.Minute

	// ActiveUsersUpdatedTTL is how long a recount of active users stays fresh
	ActiveUsersUpdatedTTL = 24 * time.Hour
	// GroupCountsTTL is how long a cached group member count stays fresh
	GroupCountsTTL = 1 * time.Hour

	// Object cache defaults
	DefaultCacheMaxEntries      = 4096
	DefaultCacheCleanupInterval = 5 * time.Minute

	// EnvPrefix prefixes all environment overrides
	EnvPrefix = "PUGWIKI_"
)

// MainConfig holds the main configuration for go-pugwiki
type MainConfig struct {
	// Web interface settings
	Web WebConfig `yaml:"web" json:"web"`

	// Database settings
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Object cache settings
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Wiki settings used by the statistics page and its collaborators
	Wiki WikiConfig `yaml:"wiki" json:"wiki"`

	AppVersion string `yaml:"-" json:"app_version"` // Application version, set at build time
}

// WebConfig holds web interface configuration
type WebConfig struct {
	ListenPort int    `yaml:"listen_port" json:"listen_port" validate:"min=1024,max=65535"`
	SSL        bool   `yaml:"ssl" json:"ssl"`
	CertFile   string `yaml:"cert_file" json:"cert_file,omitempty" validate:"required_if=SSL true"`
	KeyFile    string `yaml:"key_file" json:"key_file,omitempty" validate:"required_if=SSL true"`
	Debug      bool   `yaml:"debug" json:"debug"`
	PprofAddr  string `yaml:"pprof_addr" json:"pprof_addr,omitempty"` // empty disables the profiler
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	MainDB string `yaml:"main_db" json:"main_db" validate:"required"` // Path to main database
}

// CacheConfig holds object cache configuration
type CacheConfig struct {
	MaxEntries      int           `yaml:"max_entries" json:"max_entries" validate:"min=1"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval" validate:"min=1s"`
}

// GroupPermission is one entry of the ordered group permission table
type GroupPermission struct {
	Group  string   `yaml:"group" json:"group" validate:"required"`
	Rights []string `yaml:"rights" json:"rights"`
}

// WikiConfig holds the wiki settings
type WikiConfig struct {
	WikiID           string `yaml:"wiki_id" json:"wiki_id" validate:"required"`
	SiteName         string `yaml:"site_name" json:"site_name" validate:"required"`
	Language         string `yaml:"language" json:"language" validate:"required"` // content language
	ProjectNamespace string `yaml:"project_namespace" json:"project_namespace" validate:"required"`

	// MiserMode skips the on-view active user recount; the background updater does it instead
	MiserMode     bool `yaml:"miser_mode" json:"miser_mode"`
	EnableUploads bool `yaml:"enable_uploads" json:"enable_uploads"`

	ActiveUserDays   int               `yaml:"active_user_days" json:"active_user_days" validate:"min=1"`
	GroupPermissions []GroupPermission `yaml:"group_permissions" json:"group_permissions" validate:"dive"`
	ImplicitGroups   []string          `yaml:"implicit_groups" json:"implicit_groups"`

	ActiveUsersInterval time.Duration `yaml:"active_users_interval" json:"active_users_interval" validate:"min=1m"`
	SnapshotTTL         time.Duration `yaml:"snapshot_ttl" json:"snapshot_ttl"`

	// Extensions lists the built-in extensions to enable
	Extensions []string `yaml:"extensions" json:"extensions"`
}

var DefaultGroupPermissions = []GroupPermission{
	{Group: "*", Rights: []string{"createaccount", "read", "edit", "createpage", "createtalk", "writeapi", "editmyusercss", "editmyuserjs"}},
	{Group: "user", Rights: []string{"move", "move-subpages", "move-rootuserpages", "read", "edit", "createpage", "createtalk", "writeapi", "upload", "reupload", "minoredit", "purge", "sendemail"}},
	{Group: "autoconfirmed", Rights: []string{"autoconfirmed", "editsemiprotected"}},
	{Group: "bot", Rights: []string{"bot", "autoconfirmed", "editsemiprotected", "nominornewtalk", "autopatrol", "suppressredirect", "apihighlimits", "writeapi"}},
	{Group: "sysop", Rights: []string{"block", "createaccount", "delete", "bigdelete", "deletedhistory", "deletedtext", "undelete", "editinterface", "import", "move", "patrol", "protect", "rollback", "upload", "unwatchedpages", "autoconfirmed", "editsemiprotected", "ipblock-exempt", "blockemail", "markbotedits", "apihighlimits", "browsearchive", "noratelimit", "movefile", "unblockself", "suppressredirect", "mergehistory"}},
	{Group: "bureaucrat", Rights: []string{"userrights", "noratelimit"}},
}

var DefaultImplicitGroups = []string{"*", "user", "autoconfirmed"}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *MainConfig {
	groups := make([]GroupPermission, len(DefaultGroupPermissions))
	copy(groups, DefaultGroupPermissions)

	return &MainConfig{
		AppVersion: AppVersion,
		Web: WebConfig{
			ListenPort: DefaultWebPort,
		},
		Database: DatabaseConfig{
			MainDB: "data/pugwiki.sq3",
		},
		Cache: CacheConfig{
			MaxEntries:      DefaultCacheMaxEntries,
			CleanupInterval: DefaultCacheCleanupInterval,
		},
		Wiki: WikiConfig{
			WikiID:              "pugwiki",
			SiteName:            "PugWiki",
			Language:            "en",
			ProjectNamespace:    "Project",
			ActiveUserDays:      DefaultActiveUserDays,
			GroupPermissions:    groups,
			ImplicitGroups:      append([]string(nil), DefaultImplicitGroups...),
			ActiveUsersInterval: DefaultActiveUsersInterval,
			SnapshotTTL:         DefaultSnapshotTTL,
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional .env file,
// an optional YAML file and PUGWIKI_* environment variables, in that order.
func LoadConfig(filename string) (*MainConfig, error) {
	cfg := NewDefaultConfig()

	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("[CONFIG]: .env could not be loaded: %v", err)
		}
	} else {
		log.Printf("[CONFIG]: environment loaded from .env")
	}

	if filename != "" {
		file, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file '%s': %w", filename, err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode YAML config '%s': %w", filename, err)
		}
		log.Printf("[CONFIG]: loaded config file %s", filename)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides configuration values with PUGWIKI_* environment variables
func applyEnv(cfg *MainConfig) error {
	var err error
	cfg.Database.MainDB = getStringEnvOrDefault("DB", cfg.Database.MainDB)
	cfg.Wiki.WikiID = getStringEnvOrDefault("WIKI_ID", cfg.Wiki.WikiID)
	cfg.Wiki.SiteName = getStringEnvOrDefault("SITENAME", cfg.Wiki.SiteName)
	cfg.Wiki.Language = getStringEnvOrDefault("LANGUAGE", cfg.Wiki.Language)
	cfg.Wiki.ProjectNamespace = getStringEnvOrDefault("PROJECT_NAMESPACE", cfg.Wiki.ProjectNamespace)
	cfg.Web.PprofAddr = getStringEnvOrDefault("PPROF_ADDR", cfg.Web.PprofAddr)

	if cfg.Web.ListenPort, err = getIntEnvOrDefault("WEB_PORT", cfg.Web.ListenPort); err != nil {
		return err
	}
	if cfg.Wiki.ActiveUserDays, err = getIntEnvOrDefault("ACTIVE_USER_DAYS", cfg.Wiki.ActiveUserDays); err != nil {
		return err
	}
	if cfg.Wiki.MiserMode, err = getBoolEnvOrDefault("MISER_MODE", cfg.Wiki.MiserMode); err != nil {
		return err
	}
	if cfg.Wiki.EnableUploads, err = getBoolEnvOrDefault("ENABLE_UPLOADS", cfg.Wiki.EnableUploads); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvPrefix + "EXTENSIONS"); ok {
		cfg.Wiki.Extensions = splitList(v)
	}
	return nil
}

var validate = validator.New()

// Validate checks the configuration for values the server cannot start with
func (cfg *MainConfig) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	seen := make(map[string]bool, len(cfg.Wiki.GroupPermissions))
	for _, gp := range cfg.Wiki.GroupPermissions {
		if seen[gp.Group] {
			return fmt.Errorf("invalid configuration: group '%s' listed twice in group_permissions", gp.Group)
		}
		seen[gp.Group] = true
	}
	return nil
}

// Groups returns the configured group names in configuration order
func (w *WikiConfig) Groups() []string {
	out := make([]string, 0, len(w.GroupPermissions))
	for _, gp := range w.GroupPermissions {
		out = append(out, gp.Group)
	}
	return out
}

// IsImplicitGroup reports whether membership in group is automatic
func (w *WikiConfig) IsImplicitGroup(group string) bool {
	for _, g := range w.ImplicitGroups {
		if g == group {
			return true
		}
	}
	return false
}

// HasExtension reports whether the named built-in extension is enabled
func (w *WikiConfig) HasExtension(name string) bool {
	for _, e := range w.Extensions {
		if e == name {
			return true
		}
	}
	return false
}

func getStringEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(EnvPrefix + key); exists {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) (int, error) {
	valueStr, exists := os.LookupEnv(EnvPrefix + key)
	if !exists {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue, fmt.Errorf("invalid value for %s%s: %w", EnvPrefix, key, err)
	}
	return value, nil
}

func getBoolEnvOrDefault(key string, defaultValue bool) (bool, error) {
	valueStr, exists := os.LookupEnv(EnvPrefix + key)
	if !exists {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue, fmt.Errorf("invalid value for %s%s: %w", EnvPrefix, key, err)
	}
	return value, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
