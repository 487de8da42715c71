// Package internal holds the client's private machinery. Nothing here is
// part of the public goAuthClient API.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - devserver: in-process backend used by tests, examples and the loadtest
//   - expiry: generation-guarded expiry warning timer
//   - flows: login, logout, refresh, startup and expiry-prompt orchestration
//   - i18n: localized message catalogs
//   - rate: Redis-backed login attempt limiter
//   - refresh: single-flight refresh coordinator
//
// # What this package must NOT do
//
//   - Export types that appear in the public goAuthClient API.
//   - Be imported by any package outside the goAuthClient module.
package internal
