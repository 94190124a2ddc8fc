// Package debounce coalesces concurrent calls that share a key into a single
// execution.
//
// This is correctness-motivated deduplication: while a call for a key is
// scheduled or running, later callers with that key wait for its outcome
// instead of executing again. A new call first waits a short delay to absorb
// rapid-fire duplicates, then executes. The registry entry is removed when
// the call settles, success or failure, so the next call executes afresh.
//
// Cleanup cancels calls that have not started; their waiters receive
// ErrCancelled. Calls already executing are allowed to finish.
package debounce
