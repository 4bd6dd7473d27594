// Package config loads and merges difflens configuration from multiple
// sources with spf13/viper.
//
// Precedence (highest to lowest):
//  1. CLI flags (passed to [Load] as overrides)
//  2. Environment variables (DIFFLENS_FORMAT, DIFFLENS_FAIL_ON,
//     DIFFLENS_CACHE_ENABLED, GITHUB_TOKEN, etc.)
//  3. Config file ($XDG_CONFIG_HOME/difflens/config.yaml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Init] to write a default config
// file, and [Set] to update a single key in the config file.
package config
