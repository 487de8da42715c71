// Package session persists client session snapshots between runs.
//
// # Encoding
//
// Records are stored as deterministic CBOR with integer keys. The Version
// field is checked on read; unknown versions are rejected as corrupt.
//
// # Architecture boundaries
//
// This package owns the [Store] interface and its Redis and in-memory
// implementations. It does NOT interpret tokens, talk to the API, or decide
// when a session is valid; the Client does that.
//
// # What this package must NOT do
//
//   - Import goAuthClient, jwt, or any HTTP code.
//   - Log cookie values.
package session
