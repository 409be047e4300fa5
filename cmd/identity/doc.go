// Package identity holds tasktrack's credential store: user records keyed by a
// system-assigned UserID and a unique, case-sensitive username.
//
// Stores persist password digests produced by cmd/security/password; they never see
// plaintext passwords.
package identity
