// Package audit records security-relevant events: every authorization
// denial, every configuration fault, and every privileged role mutation.
//
// Recording is best-effort by contract. A sink failure is logged locally
// and never surfaces as an authorization error; the decision outcome is
// always computed before any sink is invoked.
//
// Sinks can be fanned out with MultiSink and persisted to a structured
// log stream, an append-only NDJSON file, or a SQL table. Retention runs
// a scheduled purge over the SQL sink.
package audit
