// Package review runs heuristic review rules over parsed diffs.
//
// An [Engine] maps file languages to ordered rule lists and also applies a
// set of language-agnostic rules to every file. Rules report through a
// [Collector] that lives for a single [Engine.Evaluate] call, so the engine
// itself is stateless and can be shared between goroutines. Findings keep
// the order in which they were raised (file, then changed line); writers
// that want severity ordering call [SortIssues].
//
// [Analyze] and [Run] wrap parsing and evaluation, the latter into a
// [Report] with repository metadata, severity counts and timing. [RunBatch]
// reviews several diffs in parallel with bounded concurrency.
//
// Rules packs (rules.go) disable rules, override severities by rule ID or
// issue type, tune the large-change threshold and enable secret detection.
// Messages and suggestions are rendered from a locale catalog (messages.go).
package review
