// Package flows contains pure-function orchestrators for every Client session
// transition: login, logout, refresh, startup check and the expiry prompt.
//
// Each flow function (RunLogin, RunRefresh, RunLogout, etc.) accepts a typed
// dependency struct of funcs and returns results without side-effects beyond
// those dependencies. This keeps the ordering of a transition (network call,
// session mutation, timer, persistence, metrics, audit) in one readable place
// and testable without a backend.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the API, session state, expiry
// scheduler, snapshot store, navigator, audit dispatcher and metrics. They do
// NOT own any of these resources; ownership stays with the Client.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAuthClient (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency funcs.
package flows
