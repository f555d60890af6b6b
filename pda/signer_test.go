package pda

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestCollectionAuthoritySignerMatchesDerivedAddress(t *testing.T) {
	collection := testKey(4)
	addr, bump, err := DeriveCollectionAuthority(testProgram, collection)
	require.NoError(t, err)

	s, err := CollectionAuthoritySigner(testProgram, collection, bump)
	require.NoError(t, err)
	require.True(t, s.Valid())
	require.Equal(t, addr, s.Address())
	require.Equal(t, testProgram, s.Program())
	require.Equal(t, CollectionAuthoritySeeds(collection, bump), s.Seeds())
}

func TestSignerWithWrongBumpNeverYieldsRecordAddress(t *testing.T) {
	collection := testKey(5)
	addr, bump, err := DeriveCollectionAuthority(testProgram, collection)
	require.NoError(t, err)

	for delta := 1; delta < 8; delta++ {
		s, err := CollectionAuthoritySigner(testProgram, collection, bump-uint8(delta))
		if err != nil {
			require.ErrorIs(t, err, ErrSeedsMismatch)
			require.False(t, s.Valid())
			continue
		}
		require.NotEqual(t, addr, s.Address())
	}
}

func TestSignerSeedsAreCopied(t *testing.T) {
	collection := testKey(6)
	_, bump, err := DeriveCollectionAuthority(testProgram, collection)
	require.NoError(t, err)

	seeds := CollectionAuthoritySeeds(collection, bump)
	s, err := NewSigner(testProgram, seeds...)
	require.NoError(t, err)

	seeds[1][0] ^= 0xff
	require.Equal(t, collection.Bytes(), s.Seeds()[1])

	out := s.Seeds()
	out[2][0]++
	require.Equal(t, []byte{bump}, s.Seeds()[2])
}

func TestSignerAuthorizesOnlyListedSigner(t *testing.T) {
	collection := testKey(7)
	addr, bump, err := DeriveCollectionAuthority(testProgram, collection)
	require.NoError(t, err)
	s, err := CollectionAuthoritySigner(testProgram, collection, bump)
	require.NoError(t, err)

	signed := solana.NewInstruction(coreProgram, solana.AccountMetaSlice{
		solana.NewAccountMeta(testKey(1), true, false),
		solana.NewAccountMeta(addr, false, true),
	}, nil)
	require.NoError(t, s.Authorizes(signed))

	readonly := solana.NewInstruction(coreProgram, solana.AccountMetaSlice{
		solana.NewAccountMeta(addr, false, false),
	}, nil)
	require.ErrorIs(t, s.Authorizes(readonly), ErrSignerMissing)

	require.ErrorIs(t, Signer{}.Authorizes(signed), ErrSignerMissing)
}
