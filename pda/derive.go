package pda

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// seedCollectionAuthority is the fixed prefix of every CollectionAuthority address.
const seedCollectionAuthority = "collection_authority"

var ErrSeedsMismatch = errors.New("pda: seeds do not derive the expected address")

// DeriveCollectionAuthority returns the canonical CollectionAuthority address
// for collection under programID, and the bump that produced it.
func DeriveCollectionAuthority(programID, collection solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedCollectionAuthority), collection.Bytes()},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("pda: derive collection authority for %s: %w", collection, err)
	}
	return addr, bump, nil
}

// CollectionAuthoritySeeds returns the signer seeds for the CollectionAuthority
// of collection: ("collection_authority", collection, [bump]).
func CollectionAuthoritySeeds(collection solana.PublicKey, bump uint8) [][]byte {
	return [][]byte{
		[]byte(seedCollectionAuthority),
		collection.Bytes(),
		{bump},
	}
}

// VerifyCollectionAuthority checks that (collection, bump) re-derives address.
func VerifyCollectionAuthority(programID, collection solana.PublicKey, bump uint8, address solana.PublicKey) error {
	got, err := solana.CreateProgramAddress(CollectionAuthoritySeeds(collection, bump), programID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSeedsMismatch, err)
	}
	if !got.Equals(address) {
		return fmt.Errorf("%w: bump %d yields %s, want %s", ErrSeedsMismatch, bump, got, address)
	}
	return nil
}
