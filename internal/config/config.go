// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Database  DatabaseConfig
	Audit     AuditConfig
	Search    SearchConfig
	Server    ServerConfig
	Identity  IdentityConfig
	Invites   InviteConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds the base directory other paths default into.
type DataConfig struct {
	BasePath string
}

// DatabaseConfig holds the SQLite location.
type DatabaseConfig struct {
	Path string // default: {data}/warroom.db
}

// AuditConfig holds the badger audit journal location.
type AuditConfig struct {
	Path string // default: {data}/audit
}

// SearchConfig controls the roster search index.
type SearchConfig struct {
	Enabled bool // default: true
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed origins (default: *)
}

// IdentityConfig describes the tokens minted by the identity provider.
type IdentityConfig struct {
	Issuer   string
	Audience string
	// KeyPath is the hex key file shared with the provider (default: {data}/identity.key).
	KeyPath string
}

// InviteConfig holds invite code defaults.
type InviteConfig struct {
	CodeLength int           // default: 8, minimum 8
	DefaultTTL time.Duration // 0 means invites never expire unless asked to
}

// RateLimitConfig bounds invite redemption attempts per user.
type RateLimitConfig struct {
	RedeemPerMinute int // default: 10
	RedeemBurst     int // default: 5
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("warroom", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base directory for databases and keys")
	dbPath := fs.String("db-path", "", "SQLite database file (default: {data}/warroom.db)")
	auditPath := fs.String("audit-path", "", "Audit journal directory (default: {data}/audit)")
	searchEnabled := fs.String("search-enabled", "", "Enable roster search (default: true)")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed origins (default: *)")

	// Identity flags
	identityIssuer := fs.String("identity-issuer", "", "Expected token issuer")
	identityAudience := fs.String("identity-audience", "", "Expected token audience")
	identityKeyPath := fs.String("identity-key-path", "", "Hex key file shared with the identity provider")

	// Invite and rate limit flags
	inviteCodeLength := fs.String("invite-code-length", "", "Invite code length (default: 8)")
	inviteTTL := fs.String("invite-ttl", "", "Default invite lifetime, 0 for none (default: 0)")
	redeemPerMinute := fs.String("redeem-per-minute", "", "Redeem attempts per user per minute (default: 10)")
	redeemBurst := fs.String("redeem-burst", "", "Redeem attempt burst (default: 5)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Database: DatabaseConfig{
			Path: getConfigValue(*dbPath, "DB_PATH", ""),
		},
		Audit: AuditConfig{
			Path: getConfigValue(*auditPath, "AUDIT_PATH", ""),
		},
		Search: SearchConfig{
			Enabled: getBoolConfigValue(*searchEnabled, "SEARCH_ENABLED", true),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Identity: IdentityConfig{
			Issuer:   getConfigValue(*identityIssuer, "IDENTITY_ISSUER", "warroom-identity"),
			Audience: getConfigValue(*identityAudience, "IDENTITY_AUDIENCE", "warroom-server"),
			KeyPath:  getConfigValue(*identityKeyPath, "IDENTITY_KEY_PATH", ""),
		},
		Invites: InviteConfig{
			CodeLength: getIntConfigValue(*inviteCodeLength, "INVITE_CODE_LENGTH", 8),
		},
		RateLimit: RateLimitConfig{
			RedeemPerMinute: getIntConfigValue(*redeemPerMinute, "REDEEM_PER_MINUTE", 10),
			RedeemBurst:     getIntConfigValue(*redeemBurst, "REDEEM_BURST", 5),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}
	if cfg.Invites.DefaultTTL, err = getDurationConfigValue(*inviteTTL, "INVITE_TTL", "0s"); err != nil {
		return nil, fmt.Errorf("invalid invite ttl: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Database.Path == "" {
		return errors.New("database path cannot be empty after expansion")
	}
	if c.Audit.Path == "" {
		return errors.New("audit path cannot be empty after expansion")
	}
	if c.Identity.KeyPath == "" {
		return errors.New("identity key path cannot be empty after expansion")
	}
	if c.Identity.Issuer == "" || c.Identity.Audience == "" {
		return errors.New("identity issuer and audience are required")
	}

	if c.Invites.CodeLength < 8 || c.Invites.CodeLength > 32 {
		return fmt.Errorf("invalid invite code length: %d (must be between 8 and 32)", c.Invites.CodeLength)
	}
	if c.Invites.DefaultTTL < 0 {
		return fmt.Errorf("invalid invite ttl: %s (must not be negative)", c.Invites.DefaultTTL)
	}

	if c.RateLimit.RedeemPerMinute <= 0 || c.RateLimit.RedeemBurst <= 0 {
		return errors.New("redeem rate limit and burst must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves the data directory and defaults the database, audit
// and key paths into it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.Data.BasePath, err = expandPath(c.Data.BasePath, filepath.Join(homeDir, "WarRoom", "data")); err != nil {
		return err
	}
	if c.Database.Path, err = expandPath(c.Database.Path, filepath.Join(c.Data.BasePath, "warroom.db")); err != nil {
		return err
	}
	if c.Audit.Path, err = expandPath(c.Audit.Path, filepath.Join(c.Data.BasePath, "audit")); err != nil {
		return err
	}
	if c.Identity.KeyPath, err = expandPath(c.Identity.KeyPath, filepath.Join(c.Data.BasePath, "identity.key")); err != nil {
		return err
	}
	return nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", envKey, strValue, err)
	}
	return d, nil
}

// splitList splits a comma-separated value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
