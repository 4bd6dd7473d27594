package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules represents a rules pack loaded from --rules.
type Rules struct {
	Disabled             []string          `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	SeverityOverrides    map[string]string `json:"severityOverrides,omitempty" yaml:"severityOverrides,omitempty"`
	LargeChangeThreshold int               `json:"largeChangeThreshold,omitempty" yaml:"largeChangeThreshold,omitempty"`
	DetectSecrets        bool              `json:"detectSecrets,omitempty" yaml:"detectSecrets,omitempty"`
	SecretIgnore         []string          `json:"secretIgnore,omitempty" yaml:"secretIgnore,omitempty"`
	Locale               string            `json:"locale,omitempty" yaml:"locale,omitempty"`
}

// LoadRules loads a rules file from disk. Returns nil Rules and nil error if path is empty.
// Files ending in .yaml or .yml are read as YAML, anything else as JSON.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rules Rules
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("parsing rules file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("parsing rules file: %w", err)
		}
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return &rules, nil
}

// Validate checks severities and the threshold.
func (r *Rules) Validate() error {
	for key, sev := range r.SeverityOverrides {
		if _, err := ParseSeverity(sev); err != nil {
			return fmt.Errorf("severityOverrides[%s]: %w", key, err)
		}
	}
	if r.LargeChangeThreshold < 0 {
		return fmt.Errorf("largeChangeThreshold must be >= 0, got %d", r.LargeChangeThreshold)
	}
	return nil
}

// Options converts the pack into engine options. A nil pack yields none.
func (r *Rules) Options() []Option {
	if r == nil {
		return nil
	}
	var opts []Option
	if len(r.Disabled) > 0 {
		opts = append(opts, WithDisabled(r.Disabled...))
	}
	if len(r.SeverityOverrides) > 0 {
		overrides := make(map[string]Severity, len(r.SeverityOverrides))
		for key, name := range r.SeverityOverrides {
			if sev, err := ParseSeverity(name); err == nil {
				overrides[key] = sev
			}
		}
		opts = append(opts, WithSeverityOverrides(overrides))
	}
	if r.LargeChangeThreshold > 0 {
		opts = append(opts, WithLargeChangeThreshold(r.LargeChangeThreshold))
	}
	if r.DetectSecrets {
		opts = append(opts, WithSecretDetection(r.SecretIgnore...))
	}
	if r.Locale != "" {
		opts = append(opts, WithLocale(r.Locale))
	}
	return opts
}
