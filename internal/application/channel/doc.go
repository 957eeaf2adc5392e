// Package channel contains the application services that move learner and
// content data from the host platform to integrated channels.
//
// The pipeline has two halves: exporters assemble normalized records from the
// platform APIs and the enterprise store, and transmitters deliver them
// through the channel clients, recording an audit row per payload. Audits make
// transmissions idempotent: a completion whose grade has not changed since the
// last successful send is skipped, and content metadata is diffed against the
// previously transmitted items to produce create, update and delete sets.
//
// Per-record failures are logged and the run continues; a summary with counts
// and failure details is returned to the caller.
package channel
