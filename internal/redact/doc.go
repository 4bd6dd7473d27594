// Package redact recognizes credentials in source text.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens, database connection strings, and provider-specific tokens
// (Anthropic, OpenAI, GitHub, Slack).
//
// [Detect] names the kind of secret on a line without echoing it, which is
// what the hardcoded-secret review rule reports. [Secrets] masks matches in
// place and is applied to raw diff blocks before they are shown in errors.
package redact
