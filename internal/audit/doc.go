// Package audit implements async event dispatching for session lifecycle
// transitions (login, refresh, logout, expiry prompts).
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: structured record with timestamp, type, user, request ID, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; the Client does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goAuthClient or any sibling internal package.
//   - Carry cookie or token values in events.
package audit
