// Package pda derives the program-derived addresses used by the gateway and
// produces the signing capability that goes with them.
//
// A program-derived address has no private key. Whoever can present the exact
// seed tuple that hashes to the address (together with the owning program id)
// holds its signing capability; there is no other way to obtain a Signer.
package pda
