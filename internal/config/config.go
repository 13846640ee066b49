// Package config loads and validates runtime configuration at startup.
//
// Sources, lowest precedence first: built-in defaults, an optional YAML file,
// a .env file, then the process environment. Fail-fast: an invalid value is
// an error, and each binary checks the settings it cannot run without.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"jobnotify/internal/catalog"
)

const defaultConfigPath = "configs/jobnotify.yaml"

// Config holds all runtime configuration.
type Config struct {
	Port     string `yaml:"port"`
	GRPCPort string `yaml:"grpc_port"`

	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`

	SupabaseURL       string `yaml:"supabase_url"`
	SupabaseAnonKey   string `yaml:"supabase_anon_key"`
	AdminEmail        string `yaml:"admin_email"`
	AdminPasswordHash string `yaml:"admin_password_hash"`

	TagSyncPolicy  catalog.TagPolicy `yaml:"tag_sync_policy"`
	SeedPath       string            `yaml:"seed_path"`
	SecretSequence string            `yaml:"secret_sequence"`
	SavedJobsPath  string            `yaml:"saved_jobs_path"`

	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`
	AlertSchedule    string `yaml:"alert_schedule"`
	RefreshSchedule  string `yaml:"refresh_schedule"`
}

// AuthMode names the configured identity provider.
type AuthMode string

const (
	AuthNone     AuthMode = ""
	AuthSupabase AuthMode = "supabase"
	AuthLocal    AuthMode = "local"
)

// Load reads the configuration and returns it with defaults applied.
func Load() (*Config, error) {
	cfg := &Config{}

	path, explicit := os.LookupEnv("JOBNOTIFY_CONFIG")
	if !explicit {
		path = defaultConfigPath
	}
	if err := cfg.readYAML(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Variables already set in the environment win over .env.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"PORT":                &c.Port,
		"GRPC_PORT":           &c.GRPCPort,
		"DATABASE_URL":        &c.DatabaseURL,
		"REDIS_URL":           &c.RedisURL,
		"SUPABASE_URL":        &c.SupabaseURL,
		"SUPABASE_ANON_KEY":   &c.SupabaseAnonKey,
		"ADMIN_EMAIL":         &c.AdminEmail,
		"ADMIN_PASSWORD_HASH": &c.AdminPasswordHash,
		"SEED_PATH":           &c.SeedPath,
		"SECRET_SEQUENCE":     &c.SecretSequence,
		"SAVED_JOBS_PATH":     &c.SavedJobsPath,
		"TELEGRAM_BOT_TOKEN":  &c.TelegramBotToken,
		"ALERT_SCHEDULE":      &c.AlertSchedule,
		"REFRESH_SCHEDULE":    &c.RefreshSchedule,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("TAG_SYNC_POLICY"); v != "" {
		c.TagSyncPolicy = catalog.TagPolicy(strings.ToLower(v))
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID must be an integer, got %q", v)
		}
		c.TelegramChatID = id
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.GRPCPort == "" {
		c.GRPCPort = "9090"
	}
	if c.TagSyncPolicy == "" {
		c.TagSyncPolicy = catalog.PolicyOptimistic
	}
	if c.SecretSequence == "" {
		c.SecretSequence = ")&("
	}
	if c.AlertSchedule == "" {
		c.AlertSchedule = "@every 6h"
	}
	if c.RefreshSchedule == "" {
		c.RefreshSchedule = "@every 10m"
	}
}

func (c *Config) validate() error {
	if _, err := catalog.ParseTagPolicy(string(c.TagSyncPolicy)); err != nil {
		return fmt.Errorf("TAG_SYNC_POLICY: %w", err)
	}
	for name, port := range map[string]string{"PORT": c.Port, "GRPC_PORT": c.GRPCPort} {
		if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("%s must be a port number, got %q", name, port)
		}
	}
	if c.SupabaseURL != "" && c.SupabaseAnonKey == "" {
		return fmt.Errorf("SUPABASE_ANON_KEY is required when SUPABASE_URL is set")
	}
	if c.AdminEmail != "" && c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH is required when ADMIN_EMAIL is set")
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == 0) {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

// ─── Requirements ────────────────────────────────────────────────────────────

// RequireDatabase fails when DATABASE_URL is missing.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// RequireRedis fails when REDIS_URL is missing.
func (c *Config) RequireRedis() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	return nil
}

// RequireAuth fails when no identity provider is configured.
func (c *Config) RequireAuth() error {
	if c.AuthMode() == AuthNone {
		return fmt.Errorf("SUPABASE_URL or ADMIN_EMAIL is required")
	}
	return nil
}

// AuthMode reports which identity provider is configured. Supabase wins when
// both are.
func (c *Config) AuthMode() AuthMode {
	switch {
	case c.SupabaseURL != "":
		return AuthSupabase
	case c.AdminEmail != "":
		return AuthLocal
	}
	return AuthNone
}

// AlertsEnabled reports whether Telegram alerts are configured.
func (c *Config) AlertsEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// UsesMemoryStore reports whether DATABASE_URL selects the in-process store.
func (c *Config) UsesMemoryStore() bool {
	return c.DatabaseURL == "memory"
}
