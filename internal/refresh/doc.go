// Package refresh implements the single-flight coordinator that serializes
// session refresh attempts.
//
// # Guarantees
//
//   - At most one refresh attempt runs at any time.
//   - Callers arriving while an attempt runs wait for that attempt instead of
//     starting another, and are released in arrival order once the outcome
//     is known.
//   - A panicking refresh function still releases every waiter.
//
// # What this package must NOT do
//
//   - Perform HTTP calls or touch session state itself.
//   - Import the root goAuthClient package.
package refresh
