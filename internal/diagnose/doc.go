// Package diagnose decides why a user's opinion loses. It owns the
// winner contract, the user-layer lookup policy, and the top-down
// classification rules; all remediation text comes from a reason
// registry passed in by the caller. Everything here is pure: no I/O,
// no shared state, identical inputs give identical results.
package diagnose
