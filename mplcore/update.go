package mplcore

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// UpdateV2 rewrites an asset's name and/or content URI.
type UpdateV2 struct {
	Asset         solana.PublicKey
	Collection    *solana.PublicKey
	Payer         solana.PublicKey
	Authority     *solana.PublicKey
	SystemProgram solana.PublicKey
	NewName       *string
	NewURI        *string
}

var _ solana.Instruction = (*UpdateV2)(nil)

func (ix *UpdateV2) ProgramID() solana.PublicKey { return ProgramID }

func (ix *UpdateV2) Accounts() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		requiredMeta(ix.Asset, true, false),
		optionalMeta(ix.Collection, true, false),
		requiredMeta(ix.Payer, true, true),
		optionalMeta(ix.Authority, false, true),
		requiredMeta(ix.SystemProgram, false, false),
	}
}

func (ix *UpdateV2) Data() ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteUint8(InstructionUpdateV2); err != nil {
		return nil, err
	}
	if err := writeOptionString(enc, ix.NewName); err != nil {
		return nil, err
	}
	if err := writeOptionString(enc, ix.NewURI); err != nil {
		return nil, err
	}
	// new_update_authority: never changed through the gateway.
	if err := enc.WriteBool(false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseUpdateV2 reverses Accounts and Data.
func ParseUpdateV2(metas []*solana.AccountMeta, data []byte) (*UpdateV2, error) {
	if err := checkAccounts(metas); err != nil {
		return nil, err
	}
	dec := bin.NewBorshDecoder(data)
	disc, err := dec.ReadUint8()
	if err != nil || disc != InstructionUpdateV2 {
		return nil, fmt.Errorf("%w: not UpdateV2", ErrMalformedInstruction)
	}
	name, err := readOptionString(dec)
	if err != nil {
		return nil, err
	}
	uri, err := readOptionString(dec)
	if err != nil {
		return nil, err
	}
	hasNewAuthority, err := dec.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("%w: new update authority: %v", ErrMalformedInstruction, err)
	}
	if hasNewAuthority {
		return nil, fmt.Errorf("%w: update authority changes are not supported", ErrMalformedInstruction)
	}
	if dec.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedInstruction, dec.Remaining())
	}
	return &UpdateV2{
		Asset:         metas[accountAsset].PublicKey,
		Collection:    optionalKey(metas[accountCollection]),
		Payer:         metas[accountPayer].PublicKey,
		Authority:     optionalKey(metas[accountAuthority]),
		SystemProgram: metas[accountSystemProgram].PublicKey,
		NewName:       name,
		NewURI:        uri,
	}, nil
}

// UpdateV2Builder assembles an UpdateV2. Payer and system program are required.
type UpdateV2Builder struct {
	ix     UpdateV2
	system bool
}

func NewUpdateV2Builder() *UpdateV2Builder { return &UpdateV2Builder{} }

func (b *UpdateV2Builder) Asset(pk solana.PublicKey) *UpdateV2Builder {
	b.ix.Asset = pk
	return b
}

func (b *UpdateV2Builder) Collection(pk solana.PublicKey) *UpdateV2Builder {
	b.ix.Collection = keyPtr(pk)
	return b
}

func (b *UpdateV2Builder) Payer(pk solana.PublicKey) *UpdateV2Builder {
	b.ix.Payer = pk
	return b
}

func (b *UpdateV2Builder) Authority(pk solana.PublicKey) *UpdateV2Builder {
	b.ix.Authority = keyPtr(pk)
	return b
}

func (b *UpdateV2Builder) SystemProgram(pk solana.PublicKey) *UpdateV2Builder {
	b.ix.SystemProgram, b.system = pk, true
	return b
}

func (b *UpdateV2Builder) NewName(name string) *UpdateV2Builder {
	b.ix.NewName = &name
	return b
}

func (b *UpdateV2Builder) NewURI(uri string) *UpdateV2Builder {
	b.ix.NewURI = &uri
	return b
}

func (b *UpdateV2Builder) Build() (*UpdateV2, error) {
	switch {
	case b.ix.Asset.IsZero():
		return nil, fmt.Errorf("%w: asset is not set", ErrMalformedInstruction)
	case b.ix.Payer.IsZero():
		return nil, fmt.Errorf("%w: payer is not set", ErrMalformedInstruction)
	case !b.system:
		return nil, fmt.Errorf("%w: system program is not set", ErrMalformedInstruction)
	}
	ix := b.ix
	return &ix, nil
}

func writeOptionString(enc *bin.Encoder, s *string) error {
	if s == nil {
		return enc.WriteBool(false)
	}
	if err := enc.WriteBool(true); err != nil {
		return err
	}
	return enc.WriteBytes([]byte(*s), true)
}

func readOptionString(dec *bin.Decoder) (*string, error) {
	some, err := dec.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("%w: option tag: %v", ErrMalformedInstruction, err)
	}
	if !some {
		return nil, nil
	}
	b, err := dec.ReadByteSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: string: %v", ErrMalformedInstruction, err)
	}
	s := string(b)
	return &s, nil
}
