// Package rate throttles failed logins on the development server with
// Redis-backed fixed-window counters.
//
// # Window semantics
//
// INCR + conditional EXPIRE on the first failure. Keys are <prefix>:<identifier>,
// with the identifier lower-cased.
//
// # What this package must NOT do
//
//   - Be imported by the client; throttling is the backend's job.
package rate
