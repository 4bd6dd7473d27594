package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dshills/difflens/internal/logger"
	"github.com/dshills/difflens/internal/review"
)

// EnvPrefix prefixes every environment variable difflens reads.
const EnvPrefix = "DIFFLENS"

// Config represents the difflens configuration.
type Config struct {
	Format       string        `mapstructure:"format" yaml:"format" json:"format"`
	FailOn       string        `mapstructure:"fail_on" yaml:"fail_on" json:"failOn"`
	Locale       string        `mapstructure:"locale" yaml:"locale" json:"locale"`
	RulesFile    string        `mapstructure:"rules_file" yaml:"rules_file,omitempty" json:"rulesFile,omitempty"`
	ContextLines int           `mapstructure:"context_lines" yaml:"context_lines" json:"contextLines"`
	MaxDiffBytes int           `mapstructure:"max_diff_bytes" yaml:"max_diff_bytes" json:"maxDiffBytes"`
	Include      []string      `mapstructure:"include" yaml:"include" json:"include"`
	Exclude      []string      `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	Cache        CacheConfig   `mapstructure:"cache" yaml:"cache" json:"cache"`
	GitHub       GitHubConfig  `mapstructure:"github" yaml:"github" json:"github"`
	Server       ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
	Log          logger.Config `mapstructure:"log" yaml:"log" json:"log"`
}

// CacheConfig controls caching of fetched pull request diffs.
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Dir        string `mapstructure:"dir" yaml:"dir,omitempty" json:"dir,omitempty"`
	TTLSeconds int    `mapstructure:"ttl_seconds" yaml:"ttl_seconds" json:"ttlSeconds"`
}

// GitHubConfig holds credentials for the GitHub integration. Either Token or
// the App triple (AppID, InstallationID, PrivateKeyPath) is used.
type GitHubConfig struct {
	Token          string `mapstructure:"token" yaml:"token,omitempty" json:"-"`
	AppID          int64  `mapstructure:"app_id" yaml:"app_id,omitempty" json:"appId,omitempty"`
	InstallationID int64  `mapstructure:"installation_id" yaml:"installation_id,omitempty" json:"installationId,omitempty"`
	PrivateKeyPath string `mapstructure:"private_key_path" yaml:"private_key_path,omitempty" json:"privateKeyPath,omitempty"`
	BaseURL        string `mapstructure:"base_url" yaml:"base_url,omitempty" json:"baseUrl,omitempty"`
}

// ServerConfig configures `difflens serve`.
type ServerConfig struct {
	Addr           string `mapstructure:"addr" yaml:"addr" json:"addr"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeoutSeconds"`
	CacheSize      int    `mapstructure:"cache_size" yaml:"cache_size" json:"cacheSize"`
	MaxBodyBytes   int64  `mapstructure:"max_body_bytes" yaml:"max_body_bytes" json:"maxBodyBytes"`
	// ContextRoot bounds the paths POST /api/v1/context may inspect. Empty
	// means the server's working directory.
	ContextRoot string `mapstructure:"context_root" yaml:"context_root,omitempty" json:"contextRoot,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Format:       "text",
		FailOn:       "none",
		Locale:       review.DefaultLocale,
		ContextLines: 3,
		Include:      []string{"**/*"},
		Exclude:      []string{"vendor/**", "**/*.gen.go", "**/dist/**", "**/node_modules/**"},
		MaxDiffBytes: 500000,
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 3600,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			TimeoutSeconds: 30,
			CacheSize:      128,
			MaxBodyBytes:   5 << 20,
		},
		Log: logger.Config{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
	}
}

// defaults maps every settable key, in dotted form, to its default value.
func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"format":                  d.Format,
		"fail_on":                 d.FailOn,
		"locale":                  d.Locale,
		"rules_file":              d.RulesFile,
		"context_lines":           d.ContextLines,
		"max_diff_bytes":          d.MaxDiffBytes,
		"include":                 d.Include,
		"exclude":                 d.Exclude,
		"cache.enabled":           d.Cache.Enabled,
		"cache.dir":               d.Cache.Dir,
		"cache.ttl_seconds":       d.Cache.TTLSeconds,
		"github.token":            d.GitHub.Token,
		"github.app_id":           d.GitHub.AppID,
		"github.installation_id":  d.GitHub.InstallationID,
		"github.private_key_path": d.GitHub.PrivateKeyPath,
		"github.base_url":         d.GitHub.BaseURL,
		"server.addr":             d.Server.Addr,
		"server.timeout_seconds":  d.Server.TimeoutSeconds,
		"server.cache_size":       d.Server.CacheSize,
		"server.max_body_bytes":   d.Server.MaxBodyBytes,
		"server.context_root":     d.Server.ContextRoot,
		"log.level":               d.Log.Level,
		"log.format":              d.Log.Format,
		"log.output":              d.Log.Output,
		"log.file":                d.Log.File,
	}
}

// Keys returns the settable configuration keys, sorted.
func Keys() []string {
	var keys []string
	for k := range defaults() {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ConfigDir returns the platform-appropriate config directory for difflens.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "difflens"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "difflens"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "difflens"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "difflens"), nil
	default:
		return filepath.Join(home, ".config", "difflens"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// newViper returns a viper instance with defaults and environment binding.
func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// The conventional token variable works without the prefix.
	_ = v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN")
	return v
}

// Load builds the effective config from the default config file location.
// See LoadFrom.
func Load(overrides map[string]any) (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(path, overrides)
}

// LoadFrom builds the effective config by merging:
// defaults <- file <- env <- overrides.
// A missing file is not an error. Override keys use the dotted form from
// Keys; nil and empty-string values are skipped.
func LoadFrom(path string, overrides map[string]any) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	for k, val := range overrides {
		if val == nil {
			continue
		}
		if s, ok := val.(string); ok && s == "" {
			continue
		}
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads only the config file at path, without defaults or env.
// Returns a zero Config and nil error if the file doesn't exist.
func LoadFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to path as YAML.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Init writes a default config file at path. It returns false without
// touching the file when one already exists.
func Init(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := Save(path, Default()); err != nil {
		return false, err
	}
	return true, nil
}

// Set updates a single key in the config file at path, starting from
// defaults when the file does not exist yet.
func Set(path, key, value string) error {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return err
		}
		cfg = fileCfg
	}
	if err := SetField(&cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return Save(path, cfg)
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	atoi := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}
	atoi64 := func(dst *int64) error {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}

	switch key {
	case "format":
		cfg.Format = value
	case "fail_on":
		cfg.FailOn = value
	case "locale":
		cfg.Locale = value
	case "rules_file":
		cfg.RulesFile = value
	case "context_lines":
		return atoi(&cfg.ContextLines)
	case "max_diff_bytes":
		return atoi(&cfg.MaxDiffBytes)
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "cache.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache.enabled must be true or false: %w", err)
		}
		cfg.Cache.Enabled = b
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttl_seconds":
		return atoi(&cfg.Cache.TTLSeconds)
	case "github.token":
		return errors.New("github.token is not stored in the config file; set GITHUB_TOKEN instead")
	case "github.app_id":
		return atoi64(&cfg.GitHub.AppID)
	case "github.installation_id":
		return atoi64(&cfg.GitHub.InstallationID)
	case "github.private_key_path":
		cfg.GitHub.PrivateKeyPath = value
	case "github.base_url":
		cfg.GitHub.BaseURL = value
	case "server.addr":
		cfg.Server.Addr = value
	case "server.timeout_seconds":
		return atoi(&cfg.Server.TimeoutSeconds)
	case "server.cache_size":
		return atoi(&cfg.Server.CacheSize)
	case "server.max_body_bytes":
		return atoi64(&cfg.Server.MaxBodyBytes)
	case "server.context_root":
		cfg.Server.ContextRoot = value
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	case "log.output":
		cfg.Log.Output = value
	case "log.file":
		cfg.Log.File = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

var formats = []string{"text", "json", "markdown", "md", "sarif", "pretty"}

// Validate checks enumerated fields and numeric ranges.
func (c Config) Validate() error {
	if !slices.Contains(formats, c.Format) {
		return fmt.Errorf("invalid format %q (valid: %s)", c.Format, strings.Join(formats, ", "))
	}
	if c.FailOn != "none" {
		if _, err := review.ParseSeverity(c.FailOn); err != nil {
			return fmt.Errorf("invalid fail_on %q (valid: none, info, warning, error)", c.FailOn)
		}
	}
	if !review.SupportedLocale(c.Locale) {
		return fmt.Errorf("unsupported locale %q (valid: %s)", c.Locale, strings.Join(review.Locales(), ", "))
	}
	if c.ContextLines < 0 {
		return fmt.Errorf("context_lines must be >= 0, got %d", c.ContextLines)
	}
	if c.MaxDiffBytes < 0 {
		return fmt.Errorf("max_diff_bytes must be >= 0, got %d", c.MaxDiffBytes)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds must be >= 0, got %d", c.Cache.TTLSeconds)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
