// Package cli wires together the Cobra command tree for the difflens binary.
//
// It defines the root command and its subcommands (review, parse, analyze,
// context, rules, github, serve, config, cache, hook, version), binds flags,
// reads configuration, runs the rule engine and returns deterministic exit
// codes for CI gating.
package cli
