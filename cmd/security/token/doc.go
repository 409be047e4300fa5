// Package token issues and verifies tasktrack's signed, time-limited identity tokens.
//
// A token carries only the user id, issuer, issued-at and expiry. It is signed with a
// single process-wide secret supplied through configuration; there is no revocation
// state, so a token is trusted until it expires. Rotating the secret invalidates every
// token issued under the previous one.
//
// Formats:
// - jwt (default): HS256 JWT, algorithm pinned during verification.
// - paseto: PASETO v4.local with a 32-byte key derived from the secret via HKDF-SHA256.
package token
