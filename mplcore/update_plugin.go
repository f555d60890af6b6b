package mplcore

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// UpdatePluginV1 replaces a plugin payload on an asset.
type UpdatePluginV1 struct {
	Asset         solana.PublicKey
	Collection    *solana.PublicKey
	Payer         *solana.PublicKey
	Authority     *solana.PublicKey
	SystemProgram *solana.PublicKey
	Plugin        Plugin
}

var _ solana.Instruction = (*UpdatePluginV1)(nil)

func (ix *UpdatePluginV1) ProgramID() solana.PublicKey { return ProgramID }

func (ix *UpdatePluginV1) Accounts() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		requiredMeta(ix.Asset, true, false),
		optionalMeta(ix.Collection, true, false),
		optionalMeta(ix.Payer, true, true),
		optionalMeta(ix.Authority, false, true),
		optionalMeta(ix.SystemProgram, false, false),
	}
}

func (ix *UpdatePluginV1) Data() ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteUint8(InstructionUpdatePluginV1); err != nil {
		return nil, err
	}
	if err := ix.Plugin.encode(enc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseUpdatePluginV1 reverses Accounts and Data.
func ParseUpdatePluginV1(metas []*solana.AccountMeta, data []byte) (*UpdatePluginV1, error) {
	if err := checkAccounts(metas); err != nil {
		return nil, err
	}
	dec := bin.NewBorshDecoder(data)
	disc, err := dec.ReadUint8()
	if err != nil || disc != InstructionUpdatePluginV1 {
		return nil, fmt.Errorf("%w: not UpdatePluginV1", ErrMalformedInstruction)
	}
	plugin, err := decodePlugin(dec)
	if err != nil {
		return nil, err
	}
	if dec.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedInstruction, dec.Remaining())
	}
	return &UpdatePluginV1{
		Asset:         metas[accountAsset].PublicKey,
		Collection:    optionalKey(metas[accountCollection]),
		Payer:         optionalKey(metas[accountPayer]),
		Authority:     optionalKey(metas[accountAuthority]),
		SystemProgram: optionalKey(metas[accountSystemProgram]),
		Plugin:        plugin,
	}, nil
}

// UpdatePluginV1Builder assembles an UpdatePluginV1 the way a CPI builder does:
// set what the call needs, leave the rest absent.
type UpdatePluginV1Builder struct {
	ix     UpdatePluginV1
	asset  bool
	plugin bool
}

func NewUpdatePluginV1Builder() *UpdatePluginV1Builder { return &UpdatePluginV1Builder{} }

func (b *UpdatePluginV1Builder) Asset(pk solana.PublicKey) *UpdatePluginV1Builder {
	b.ix.Asset, b.asset = pk, true
	return b
}

func (b *UpdatePluginV1Builder) Collection(pk solana.PublicKey) *UpdatePluginV1Builder {
	b.ix.Collection = keyPtr(pk)
	return b
}

func (b *UpdatePluginV1Builder) Payer(pk solana.PublicKey) *UpdatePluginV1Builder {
	b.ix.Payer = keyPtr(pk)
	return b
}

func (b *UpdatePluginV1Builder) Authority(pk solana.PublicKey) *UpdatePluginV1Builder {
	b.ix.Authority = keyPtr(pk)
	return b
}

func (b *UpdatePluginV1Builder) SystemProgram(pk solana.PublicKey) *UpdatePluginV1Builder {
	b.ix.SystemProgram = keyPtr(pk)
	return b
}

func (b *UpdatePluginV1Builder) Plugin(p Plugin) *UpdatePluginV1Builder {
	b.ix.Plugin, b.plugin = p, true
	return b
}

func (b *UpdatePluginV1Builder) Build() (*UpdatePluginV1, error) {
	if !b.asset || b.ix.Asset.IsZero() {
		return nil, fmt.Errorf("%w: asset is not set", ErrMalformedInstruction)
	}
	if !b.plugin {
		return nil, fmt.Errorf("%w: plugin is not set", ErrMalformedInstruction)
	}
	if _, err := b.ix.Plugin.Type(); err != nil {
		return nil, err
	}
	ix := b.ix
	return &ix, nil
}
