// Package password provides Argon2id password hashing and the account
// password strength policy.
//
// Hashes use the PHC string format so the salt and cost parameters travel
// with the stored hash. Verification parses strictly and refuses hashes
// whose cost parameters exceed configured bounds.
package password
