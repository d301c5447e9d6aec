package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	ConfigFileName = ".photomigrate.toml"

	DefaultLogLevel       = "info"
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultRecordsBackend = RecordsBackendREST
	DefaultBlobsBackend   = BlobsBackendSupabase
	DefaultCacheControl   = "3600"
	DefaultPageSize       = 1000
	DefaultS3Region       = "us-east-1"

	RecordsBackendREST     = "rest"
	RecordsBackendPostgres = "postgres"
	RecordsBackendSQLite   = "sqlite"

	BlobsBackendSupabase = "supabase"
	BlobsBackendS3       = "s3"
	BlobsBackendLocal    = "local"

	configDirEnvKey          = "PHOTOMIGRATE_CONFIG_DIR"
	trustProjectConfigEnvKey = "PHOTOMIGRATE_TRUST_PROJECT_CONFIG"
)

// SupabaseConfig identifies the hosted project.
type SupabaseConfig struct {
	URL            string `toml:"url"`
	ServiceRoleKey string `toml:"service_role_key"`
}

// RecordsConfig selects where the users table is read from and written to.
type RecordsConfig struct {
	Backend     string `toml:"backend"`
	PostgresDSN string `toml:"postgres_dsn"`
	SQLitePath  string `toml:"sqlite_path"`
	PageSize    int    `toml:"page_size"`
}

// BlobsConfig selects where decoded images are uploaded.
type BlobsConfig struct {
	Backend           string `toml:"backend"`
	CacheControl      string `toml:"cache_control"`
	LocalRoot         string `toml:"local_root"`
	PublicBaseURL     string `toml:"public_base_url"`
	S3Endpoint        string `toml:"s3_endpoint"`
	S3Region          string `toml:"s3_region"`
	S3AccessKeyID     string `toml:"s3_access_key_id"`
	S3SecretAccessKey string `toml:"s3_secret_access_key"`
}

// Config defines runtime configuration for photomigrate.
type Config struct {
	LogLevel                 string         `toml:"log_level"`
	HTTPTimeout              string         `toml:"http_timeout"`
	Supabase                 SupabaseConfig `toml:"supabase"`
	Records                  RecordsConfig  `toml:"records"`
	Blobs                    BlobsConfig    `toml:"blobs"`
	TrustedProjectConfigPath string         `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		LogLevel:    DefaultLogLevel,
		HTTPTimeout: DefaultHTTPTimeout.String(),
		Records: RecordsConfig{
			Backend:  DefaultRecordsBackend,
			PageSize: DefaultPageSize,
		},
		Blobs: BlobsConfig{
			Backend:      DefaultBlobsBackend,
			CacheControl: DefaultCacheControl,
			S3Region:     DefaultS3Region,
		},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, ConfigFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"log_level",
	"http_timeout",
	"supabase.url",
	"supabase.service_role_key",
	"records.backend",
	"records.postgres_dsn",
	"records.sqlite_path",
	"records.page_size",
	"blobs.backend",
	"blobs.cache_control",
	"blobs.local_root",
	"blobs.public_base_url",
	"blobs.s3_endpoint",
	"blobs.s3_region",
	"blobs.s3_access_key_id",
	"blobs.s3_secret_access_key",
}

var secretKeys = map[string]struct{}{
	"supabase.service_role_key":  {},
	"records.postgres_dsn":       {},
	"blobs.s3_secret_access_key": {},
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// IsSecretKey reports whether a key holds a credential.
func IsSecretKey(key string) bool {
	_, ok := secretKeys[key]
	return ok
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "log_level":
		return c.LogLevel, nil
	case "http_timeout":
		return c.HTTPTimeout, nil
	case "supabase.url":
		return c.Supabase.URL, nil
	case "supabase.service_role_key":
		return c.Supabase.ServiceRoleKey, nil
	case "records.backend":
		return c.Records.Backend, nil
	case "records.postgres_dsn":
		return c.Records.PostgresDSN, nil
	case "records.sqlite_path":
		return c.Records.SQLitePath, nil
	case "records.page_size":
		return strconv.Itoa(c.Records.PageSize), nil
	case "blobs.backend":
		return c.Blobs.Backend, nil
	case "blobs.cache_control":
		return c.Blobs.CacheControl, nil
	case "blobs.local_root":
		return c.Blobs.LocalRoot, nil
	case "blobs.public_base_url":
		return c.Blobs.PublicBaseURL, nil
	case "blobs.s3_endpoint":
		return c.Blobs.S3Endpoint, nil
	case "blobs.s3_region":
		return c.Blobs.S3Region, nil
	case "blobs.s3_access_key_id":
		return c.Blobs.S3AccessKeyID, nil
	case "blobs.s3_secret_access_key":
		return c.Blobs.S3SecretAccessKey, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// Timeout returns the HTTP client timeout. It accepts Go durations or whole seconds.
func (c *Config) Timeout() time.Duration {
	return parseTimeout(c.HTTPTimeout)
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.Records.Backend {
	case RecordsBackendREST:
		if err := c.requireSupabase("records.backend=rest"); err != nil {
			return err
		}
	case RecordsBackendPostgres:
		if strings.TrimSpace(c.Records.PostgresDSN) == "" {
			return fmt.Errorf("records.postgres_dsn is required for records.backend=postgres")
		}
	case RecordsBackendSQLite:
		if strings.TrimSpace(c.Records.SQLitePath) == "" {
			return fmt.Errorf("records.sqlite_path is required for records.backend=sqlite")
		}
	default:
		return fmt.Errorf("invalid records.backend %q (allowed: rest, postgres, sqlite)", c.Records.Backend)
	}

	switch c.Blobs.Backend {
	case BlobsBackendSupabase:
		if err := c.requireSupabase("blobs.backend=supabase"); err != nil {
			return err
		}
	case BlobsBackendS3:
		if strings.TrimSpace(c.Blobs.S3Endpoint) == "" && strings.TrimSpace(c.Supabase.URL) == "" {
			return fmt.Errorf("blobs.s3_endpoint or supabase.url is required for blobs.backend=s3")
		}
	case BlobsBackendLocal:
		if strings.TrimSpace(c.Blobs.LocalRoot) == "" {
			return fmt.Errorf("blobs.local_root is required for blobs.backend=local")
		}
	default:
		return fmt.Errorf("invalid blobs.backend %q (allowed: supabase, s3, local)", c.Blobs.Backend)
	}
	return nil
}

func (c *Config) requireSupabase(reason string) error {
	if strings.TrimSpace(c.Supabase.URL) == "" {
		return fmt.Errorf("supabase.url is required for %s (or set SUPABASE_URL)", reason)
	}
	if strings.TrimSpace(c.Supabase.ServiceRoleKey) == "" {
		return fmt.Errorf("supabase.service_role_key is required for %s (or set SUPABASE_SERVICE_ROLE_KEY)", reason)
	}
	return nil
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, ConfigFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	// Config files can hold service keys.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, ConfigFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, ConfigFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	cfg.applyEnv()
	cfg.normalize()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"SUPABASE_URL", &c.Supabase.URL},
		{"SUPABASE_SERVICE_ROLE_KEY", &c.Supabase.ServiceRoleKey},
		{"PHOTOMIGRATE_HTTP_TIMEOUT", &c.HTTPTimeout},
		{"PHOTOMIGRATE_RECORDS_BACKEND", &c.Records.Backend},
		{"PHOTOMIGRATE_POSTGRES_DSN", &c.Records.PostgresDSN},
		{"PHOTOMIGRATE_SQLITE_PATH", &c.Records.SQLitePath},
		{"PHOTOMIGRATE_BLOBS_BACKEND", &c.Blobs.Backend},
		{"PHOTOMIGRATE_LOCAL_ROOT", &c.Blobs.LocalRoot},
		{"PHOTOMIGRATE_PUBLIC_BASE_URL", &c.Blobs.PublicBaseURL},
		{"PHOTOMIGRATE_S3_ENDPOINT", &c.Blobs.S3Endpoint},
		{"AWS_ACCESS_KEY_ID", &c.Blobs.S3AccessKeyID},
		{"AWS_SECRET_ACCESS_KEY", &c.Blobs.S3SecretAccessKey},
	}
	for _, o := range overrides {
		if value := strings.TrimSpace(os.Getenv(o.env)); value != "" {
			*o.dst = value
		}
	}
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Records.Backend = strings.ToLower(strings.TrimSpace(c.Records.Backend))
	c.Blobs.Backend = strings.ToLower(strings.TrimSpace(c.Blobs.Backend))
	if c.Records.Backend == "" {
		c.Records.Backend = DefaultRecordsBackend
	}
	if c.Blobs.Backend == "" {
		c.Blobs.Backend = DefaultBlobsBackend
	}
	if c.Records.PageSize <= 0 {
		c.Records.PageSize = DefaultPageSize
	}
	if strings.TrimSpace(c.Blobs.CacheControl) == "" {
		c.Blobs.CacheControl = DefaultCacheControl
	}
	if strings.TrimSpace(c.Blobs.S3Region) == "" {
		c.Blobs.S3Region = DefaultS3Region
	}
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "records.page_size":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "http_timeout":
		if parseDuration(value) <= 0 {
			return nil, fmt.Errorf("%s must be a positive duration (e.g. 30s) or whole seconds", key)
		}
		return value, nil
	case "records.backend":
		switch value {
		case RecordsBackendREST, RecordsBackendPostgres, RecordsBackendSQLite:
			return value, nil
		}
		return nil, fmt.Errorf("%s must be one of rest, postgres, sqlite", key)
	case "blobs.backend":
		switch value {
		case BlobsBackendSupabase, BlobsBackendS3, BlobsBackendLocal:
			return value, nil
		}
		return nil, fmt.Errorf("%s must be one of supabase, s3, local", key)
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func parseTimeout(value string) time.Duration {
	if d := parseDuration(value); d > 0 {
		return d
	}
	return DefaultHTTPTimeout
}

func parseDuration(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
