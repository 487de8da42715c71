// Package goAuthClient is a session-aware client for the social-network API:
// login, logout, startup session checks, a single-flight credential refresh
// with one automatic replay of requests that failed authentication, and a
// user-facing warning shortly before the session expires.
//
// Client methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goAuthClient is the public surface. It exposes [Client], [Builder], [Config],
// the error taxonomy ([ErrorKind], [APIError]) and value types (Session,
// Profile, Post, MetricsSnapshot, etc.). Flow orchestration, the refresh
// coordinator, the expiry timer, audit dispatch and message catalogs live
// under internal/ and are never exported.
//
// # Credentials
//
// The backend sets HTTP-only cookies. The client keeps them in a private jar
// and attaches them only to requests for the configured API origin, so the
// http.Client returned by [Client.HTTPClient] is safe to use for third-party
// hosts as well.
//
// # What this package must NOT do
//
//   - Expose the cookie jar, the coordinator or raw tokens.
//   - Start more than one refresh at a time, or replay a request more than once.
//   - Surface raw error text to the user; use [Client.Present].
package goAuthClient
