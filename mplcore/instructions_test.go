package mplcore

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) solana.PublicKey {
	var pk solana.PublicKey
	for i := range pk {
		pk[i] = b + byte(i)
	}
	return pk
}

func TestUpdatePluginV1FreezeShape(t *testing.T) {
	asset, authority := testKey(1), testKey(2)
	ix, err := NewUpdatePluginV1Builder().
		Asset(asset).
		Authority(authority).
		Plugin(FreezeDelegatePlugin(true)).
		Build()
	require.NoError(t, err)
	require.Equal(t, ProgramID, ix.ProgramID())

	metas := ix.Accounts()
	require.Len(t, metas, 5)
	require.Equal(t, asset, metas[0].PublicKey)
	require.True(t, metas[0].IsWritable)
	require.Equal(t, ProgramID, metas[1].PublicKey, "absent collection")
	require.Equal(t, ProgramID, metas[2].PublicKey, "absent payer")
	require.Equal(t, authority, metas[3].PublicKey)
	require.True(t, metas[3].IsSigner)
	require.Equal(t, ProgramID, metas[4].PublicKey, "absent system program")

	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, []byte{InstructionUpdatePluginV1, byte(PluginFreezeDelegate), 1}, data)

	parsed, err := ParseUpdatePluginV1(metas, data)
	require.NoError(t, err)
	require.Equal(t, ix, parsed)
}

func TestUpdatePluginV1ThawShape(t *testing.T) {
	asset, collection, authority := testKey(1), testKey(3), testKey(2)
	ix, err := NewUpdatePluginV1Builder().
		Asset(asset).
		Collection(collection).
		Payer(authority).
		Authority(authority).
		SystemProgram(solana.SystemProgramID).
		Plugin(FreezeDelegatePlugin(false)).
		Build()
	require.NoError(t, err)

	metas := ix.Accounts()
	require.Equal(t, collection, metas[1].PublicKey)
	require.Equal(t, authority, metas[2].PublicKey)
	require.True(t, metas[2].IsSigner)
	require.Equal(t, solana.SystemProgramID, metas[4].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	parsed, err := ParseUpdatePluginV1(metas, data)
	require.NoError(t, err)
	require.False(t, parsed.Plugin.FreezeDelegate.Frozen)
	require.NotNil(t, parsed.SystemProgram)
	require.Equal(t, solana.SystemProgramID, *parsed.SystemProgram)
}

func TestUpdatePluginV1BuilderRequiresAssetAndPlugin(t *testing.T) {
	_, err := NewUpdatePluginV1Builder().Plugin(FreezeDelegatePlugin(true)).Build()
	require.ErrorIs(t, err, ErrMalformedInstruction)

	_, err = NewUpdatePluginV1Builder().Asset(testKey(1)).Build()
	require.ErrorIs(t, err, ErrMalformedInstruction)

	_, err = NewUpdatePluginV1Builder().Asset(testKey(1)).Plugin(Plugin{}).Build()
	require.ErrorIs(t, err, ErrMalformedInstruction)
}

func TestUpdateV2PassesStringsVerbatim(t *testing.T) {
	for _, tc := range []struct{ name, uri string }{
		{"Name A", "uri://a"},
		{"  padded  ", ""},
		{"ünïcødé ✓", "ipfs://bafy?x=1&y=2"},
	} {
		ix, err := NewUpdateV2Builder().
			Asset(testKey(1)).
			Collection(testKey(3)).
			Payer(testKey(2)).
			Authority(testKey(9)).
			SystemProgram(solana.SystemProgramID).
			NewName(tc.name).
			NewURI(tc.uri).
			Build()
		require.NoError(t, err)

		data, err := ix.Data()
		require.NoError(t, err)
		require.Equal(t, InstructionUpdateV2, data[0])

		parsed, err := ParseUpdateV2(ix.Accounts(), data)
		require.NoError(t, err)
		require.Equal(t, tc.name, *parsed.NewName)
		require.Equal(t, tc.uri, *parsed.NewURI)
		require.Equal(t, testKey(9), *parsed.Authority)
	}
}

func TestUpdateV2BuilderRequiresPayerAndSystem(t *testing.T) {
	_, err := NewUpdateV2Builder().Asset(testKey(1)).SystemProgram(solana.SystemProgramID).Build()
	require.ErrorIs(t, err, ErrMalformedInstruction)

	_, err = NewUpdateV2Builder().Asset(testKey(1)).Payer(testKey(2)).Build()
	require.ErrorIs(t, err, ErrMalformedInstruction)
}

func TestParseRejectsMalformed(t *testing.T) {
	ix, err := NewUpdatePluginV1Builder().Asset(testKey(1)).Plugin(FreezeDelegatePlugin(true)).Build()
	require.NoError(t, err)
	metas := ix.Accounts()
	data, err := ix.Data()
	require.NoError(t, err)

	cases := map[string]func() error{
		"short accounts": func() error { _, err := ParseUpdatePluginV1(metas[:4], data); return err },
		"trailing data":  func() error { _, err := ParseUpdatePluginV1(metas, append(append([]byte{}, data...), 0)); return err },
		"wrong disc":     func() error { _, err := ParseUpdateV2(metas, data); return err },
		"bad plugin":     func() error { _, err := ParseUpdatePluginV1(metas, []byte{InstructionUpdatePluginV1, 9, 0}); return err },
		"empty":          func() error { _, err := ParseUpdatePluginV1(metas, nil); return err },
	}
	for name, fn := range cases {
		err := fn()
		require.Error(t, err, name)
		require.True(t, errors.Is(err, ErrMalformedInstruction), name)
	}
}
