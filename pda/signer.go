package pda

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var ErrSignerMissing = errors.New("pda: derived signer is not a signer of the instruction")

// Signer is the signing capability of a program-derived address.
//
// The zero value holds no capability. A usable Signer only comes out of
// NewSigner, which requires the exact seeds.
type Signer struct {
	program solana.PublicKey
	address solana.PublicKey
	seeds   [][]byte
}

// NewSigner derives the address for seeds under program and returns its
// capability. It fails when the seeds do not yield a valid off-curve address.
func NewSigner(program solana.PublicKey, seeds ...[]byte) (Signer, error) {
	addr, err := solana.CreateProgramAddress(seeds, program)
	if err != nil {
		return Signer{}, fmt.Errorf("%w: %v", ErrSeedsMismatch, err)
	}
	return Signer{program: program, address: addr, seeds: cloneSeeds(seeds)}, nil
}

// CollectionAuthoritySigner is NewSigner over CollectionAuthoritySeeds.
func CollectionAuthoritySigner(program, collection solana.PublicKey, bump uint8) (Signer, error) {
	return NewSigner(program, CollectionAuthoritySeeds(collection, bump)...)
}

func (s Signer) Valid() bool { return !s.address.IsZero() }

func (s Signer) Address() solana.PublicKey { return s.address }

func (s Signer) Program() solana.PublicKey { return s.program }

// Seeds returns a copy of the seeds that prove the capability.
func (s Signer) Seeds() [][]byte { return cloneSeeds(s.seeds) }

// Authorizes reports whether ix lists the derived address as a signer account.
// A Signer never stands in for an account it does not derive.
func (s Signer) Authorizes(ix solana.Instruction) error {
	if !s.Valid() {
		return ErrSignerMissing
	}
	for _, m := range ix.Accounts() {
		if m != nil && m.IsSigner && m.PublicKey.Equals(s.address) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrSignerMissing, s.address)
}

func (s Signer) String() string {
	return fmt.Sprintf("pda(%s via %s)", s.address, s.program)
}

func cloneSeeds(seeds [][]byte) [][]byte {
	out := make([][]byte, len(seeds))
	for i, s := range seeds {
		out[i] = append([]byte(nil), s...)
	}
	return out
}
