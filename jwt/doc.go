// Package jwt reads and issues access tokens.
//
// The client side only needs [Inspect]: it decodes the claims of the access
// token cookie without verifying the signature, to learn when the session
// expires. Verification is the backend's job. [Manager] issues and verifies
// tokens and backs the in-process development API.
package jwt
