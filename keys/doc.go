// Package keys manages the ed25519 keys that collection creators use to sign
// gateway transactions.
//
// API stability:
//
// Stable:
//   - Pure, deterministic primitives: seed parsing, sub-key derivation and
//     public-key formatting.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore). It is a local-first utility for
//     the CLI and tests, not a custody solution.
package keys
