// Package password hashes and verifies sharebase login passwords.
//
// Hashes use Argon2id in the PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$key), so cost parameters travel
// with the stored hash and can be raised without invalidating existing
// accounts.
//
// Encoded hashes are untrusted input during Verify: parameters far above
// the configured cost are rejected rather than computed.
package password
