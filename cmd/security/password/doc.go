// Package password provides password hashing and verification for tasktrack.
//
// Two algorithms are supported:
// - bcrypt (default, fixed cost 10) via golang.org/x/crypto/bcrypt
// - Argon2id with a PHC-like encoded string via golang.org/x/crypto/argon2
//
// Verify dispatches on the encoded hash prefix, so stored hashes keep verifying
// after the configured algorithm changes.
//
// Security notes:
// - Hash strings are treated as untrusted input during Verify and are validated accordingly.
// - Verification refuses hashes whose cost parameters exceed reasonable bounds.
package password
