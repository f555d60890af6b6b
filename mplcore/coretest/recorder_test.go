package coretest

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"xdao.co/collauth/mplcore"
	"xdao.co/collauth/pda"
)

var program = solana.MustPublicKeyFromBase58("CAuthGateway1111111111111111111111111111111")

func key(b byte) solana.PublicKey {
	var pk solana.PublicKey
	for i := range pk {
		pk[i] = b ^ byte(i*7)
	}
	return pk
}

func freezeFor(t *testing.T, authority solana.PublicKey) *mplcore.UpdatePluginV1 {
	t.Helper()
	ix, err := mplcore.NewUpdatePluginV1Builder().
		Asset(key(1)).
		Authority(authority).
		Plugin(mplcore.FreezeDelegatePlugin(true)).
		Build()
	require.NoError(t, err)
	return ix
}

func TestRecorderRecordsAndVerifiesSigner(t *testing.T) {
	collection := key(9)
	addr, bump, err := pda.DeriveCollectionAuthority(program, collection)
	require.NoError(t, err)

	r := &Recorder{Program: program}
	require.NoError(t, r.InvokeSigned(context.Background(), freezeFor(t, addr), pda.CollectionAuthoritySeeds(collection, bump)))
	require.Equal(t, 1, r.Len())

	call := r.Calls()[0]
	require.Equal(t, mplcore.ProgramID, call.ProgramID)
	require.Equal(t, addr, call.Signer)
	ix, err := call.UpdatePluginV1()
	require.NoError(t, err)
	require.True(t, ix.Plugin.FreezeDelegate.Frozen)

	r.Reset()
	require.Zero(t, r.Len())
}

func TestRecorderRejectsForeignSeeds(t *testing.T) {
	collection := key(9)
	addr, _, err := pda.DeriveCollectionAuthority(program, collection)
	require.NoError(t, err)
	_, otherBump, err := pda.DeriveCollectionAuthority(program, key(10))
	require.NoError(t, err)

	r := &Recorder{Program: program}
	err = r.InvokeSigned(context.Background(), freezeFor(t, addr), pda.CollectionAuthoritySeeds(key(10), otherBump))
	require.ErrorIs(t, err, pda.ErrSignerMissing)
	require.Zero(t, r.Len())
}

func TestRecorderInjectsFailure(t *testing.T) {
	boom := errors.New("boom")
	r := &Recorder{Err: boom}
	err := r.InvokeSigned(context.Background(), freezeFor(t, key(3)), nil)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, r.Len())
}
