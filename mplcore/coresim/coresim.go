// Package coresim is an in-process stand-in for the MPL Core program that
// implements the two calls the gateway issues over an accounts.Store.
//
// Only collection-managed assets are modelled: an asset's update authority is
// its collection, and the collection's update authority may change the asset.
package coresim

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"xdao.co/collauth/accounts"
	"xdao.co/collauth/mplcore"
)

var (
	ErrInvalidAuthority   = errors.New("coresim: invalid authority")
	ErrMissingSigner      = errors.New("coresim: missing required signer")
	ErrInvalidAsset       = errors.New("coresim: invalid asset account")
	ErrInvalidCollection  = errors.New("coresim: invalid collection account")
	ErrUnknownInstruction = errors.New("coresim: unknown instruction")
)

// Program applies UpdatePluginV1 and UpdateV2 to accounts in Store.
// Signer flags on the account metas are trusted; the host verifies them.
type Program struct {
	Store accounts.Store
}

func New(store accounts.Store) *Program { return &Program{Store: store} }

func (p *Program) ID() solana.PublicKey { return mplcore.ProgramID }

func (p *Program) Process(ctx context.Context, metas []*solana.AccountMeta, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty data", ErrUnknownInstruction)
	}
	switch data[0] {
	case mplcore.InstructionUpdatePluginV1:
		ix, err := mplcore.ParseUpdatePluginV1(metas, data)
		if err != nil {
			return err
		}
		return p.updatePlugin(ctx, ix, signers(metas))
	case mplcore.InstructionUpdateV2:
		ix, err := mplcore.ParseUpdateV2(metas, data)
		if err != nil {
			return err
		}
		return p.update(ctx, ix, signers(metas))
	default:
		return fmt.Errorf("%w: discriminator %d", ErrUnknownInstruction, data[0])
	}
}

func (p *Program) updatePlugin(ctx context.Context, ix *mplcore.UpdatePluginV1, signed map[solana.PublicKey]bool) error {
	if ix.Plugin.FreezeDelegate == nil {
		return fmt.Errorf("%w: plugin", mplcore.ErrMalformedInstruction)
	}
	acting, err := actingAuthority(ix.Authority, ix.Payer, signed)
	if err != nil {
		return err
	}
	asset, err := p.authorize(ctx, ix.Asset, ix.Collection, acting)
	if err != nil {
		return err
	}
	asset.Frozen = ix.Plugin.FreezeDelegate.Frozen
	return p.putAsset(ctx, ix.Asset, asset)
}

func (p *Program) update(ctx context.Context, ix *mplcore.UpdateV2, signed map[solana.PublicKey]bool) error {
	if !signed[ix.Payer] {
		return fmt.Errorf("%w: payer %s", ErrMissingSigner, ix.Payer)
	}
	payer := ix.Payer
	acting, err := actingAuthority(ix.Authority, &payer, signed)
	if err != nil {
		return err
	}
	asset, err := p.authorize(ctx, ix.Asset, ix.Collection, acting)
	if err != nil {
		return err
	}
	if ix.NewName != nil {
		asset.Name = *ix.NewName
	}
	if ix.NewURI != nil {
		asset.URI = *ix.NewURI
	}
	return p.putAsset(ctx, ix.Asset, asset)
}

// actingAuthority is the explicit authority, else the payer; it must have signed.
func actingAuthority(authority, payer *solana.PublicKey, signed map[solana.PublicKey]bool) (solana.PublicKey, error) {
	acting := authority
	if acting == nil {
		acting = payer
	}
	if acting == nil {
		return solana.PublicKey{}, fmt.Errorf("%w: no authority", ErrMissingSigner)
	}
	if !signed[*acting] {
		return solana.PublicKey{}, fmt.Errorf("%w: authority %s", ErrMissingSigner, *acting)
	}
	return *acting, nil
}

// authorize loads the asset and its collection and checks that acting is the
// collection's update authority.
func (p *Program) authorize(ctx context.Context, assetAddr solana.PublicKey, collection *solana.PublicKey, acting solana.PublicKey) (mplcore.AssetV1, error) {
	asset, err := p.Asset(ctx, assetAddr)
	if err != nil {
		return mplcore.AssetV1{}, err
	}
	if collection != nil && !collection.Equals(asset.UpdateAuthority) {
		return mplcore.AssetV1{}, fmt.Errorf("%w: asset belongs to %s, not %s", ErrInvalidCollection, asset.UpdateAuthority, *collection)
	}
	coll, err := p.Collection(ctx, asset.UpdateAuthority)
	if err != nil {
		return mplcore.AssetV1{}, err
	}
	if !coll.UpdateAuthority.Equals(acting) {
		return mplcore.AssetV1{}, fmt.Errorf("%w: %s is not the update authority of %s", ErrInvalidAuthority, acting, asset.UpdateAuthority)
	}
	return asset, nil
}

// Asset reads and decodes an asset account.
func (p *Program) Asset(ctx context.Context, addr solana.PublicKey) (mplcore.AssetV1, error) {
	acct, err := p.Store.Get(ctx, addr)
	if err != nil {
		return mplcore.AssetV1{}, fmt.Errorf("%w: %s: %v", ErrInvalidAsset, addr, err)
	}
	if !acct.OwnedBy(mplcore.ProgramID) {
		return mplcore.AssetV1{}, fmt.Errorf("%w: %s owned by %s", ErrInvalidAsset, addr, acct.Owner)
	}
	asset, err := mplcore.DecodeAssetV1(acct.Data)
	if err != nil {
		return mplcore.AssetV1{}, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	return asset, nil
}

// Collection reads and decodes a collection account.
func (p *Program) Collection(ctx context.Context, addr solana.PublicKey) (mplcore.CollectionV1, error) {
	acct, err := p.Store.Get(ctx, addr)
	if err != nil {
		return mplcore.CollectionV1{}, fmt.Errorf("%w: %s: %v", ErrInvalidCollection, addr, err)
	}
	if !acct.OwnedBy(mplcore.ProgramID) {
		return mplcore.CollectionV1{}, fmt.Errorf("%w: %s owned by %s", ErrInvalidCollection, addr, acct.Owner)
	}
	coll, err := mplcore.DecodeCollectionV1(acct.Data)
	if err != nil {
		return mplcore.CollectionV1{}, fmt.Errorf("%w: %v", ErrInvalidCollection, err)
	}
	return coll, nil
}

func (p *Program) putAsset(ctx context.Context, addr solana.PublicKey, asset mplcore.AssetV1) error {
	data, err := asset.MarshalBinary()
	if err != nil {
		return err
	}
	return p.Store.Put(ctx, accounts.Account{Address: addr, Owner: mplcore.ProgramID, Data: data})
}

// CreateCollection writes an initialized collection account. It stands in for
// the collection-creation path, which is outside the gateway, and fails with
// accounts.ErrExists when the address is taken.
func CreateCollection(ctx context.Context, store accounts.Store, addr solana.PublicKey, coll mplcore.CollectionV1) error {
	data, err := coll.MarshalBinary()
	if err != nil {
		return err
	}
	return store.Create(ctx, accounts.Account{Address: addr, Owner: mplcore.ProgramID, Data: data})
}

// CreateAsset writes an initialized asset account; like CreateCollection it
// never replaces one.
func CreateAsset(ctx context.Context, store accounts.Store, addr solana.PublicKey, asset mplcore.AssetV1) error {
	data, err := asset.MarshalBinary()
	if err != nil {
		return err
	}
	return store.Create(ctx, accounts.Account{Address: addr, Owner: mplcore.ProgramID, Data: data})
}

func signers(metas []*solana.AccountMeta) map[solana.PublicKey]bool {
	out := make(map[solana.PublicKey]bool, len(metas))
	for _, m := range metas {
		if m != nil && m.IsSigner {
			out[m.PublicKey] = true
		}
	}
	return out
}
