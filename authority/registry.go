package authority

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"xdao.co/collauth/accounts"
	"xdao.co/collauth/pda"
)

// Registry reads and binds CollectionAuthority records owned by Program.
//
// Records live in Store at the address derived from their collection, so there
// is at most one per collection.
type Registry struct {
	Program solana.PublicKey
	Store   accounts.Store
}

// Address returns the record address and canonical bump for collection.
func (r Registry) Address(collection solana.PublicKey) (solana.PublicKey, uint8, error) {
	return pda.DeriveCollectionAuthority(r.Program, collection)
}

// Load returns the record for collection and the address it was read from.
//
// Load does not check the stored bump; a wrong bump surfaces when the record's
// seeds are used to sign.
func (r Registry) Load(ctx context.Context, collection solana.PublicKey) (CollectionAuthority, solana.PublicKey, error) {
	addr, _, err := r.Address(collection)
	if err != nil {
		return CollectionAuthority{}, solana.PublicKey{}, err
	}
	acct, err := r.Store.Get(ctx, addr)
	if err != nil {
		if accounts.IsNotFound(err) {
			return CollectionAuthority{}, addr, fmt.Errorf("%w: collection %s", ErrRecordNotFound, collection)
		}
		return CollectionAuthority{}, addr, err
	}
	if !acct.Initialized() {
		return CollectionAuthority{}, addr, fmt.Errorf("%w: collection %s", ErrRecordNotFound, collection)
	}
	if !acct.OwnedBy(r.Program) {
		return CollectionAuthority{}, addr, fmt.Errorf("%w: owned by %s", ErrInvalidRecord, acct.Owner)
	}
	rec, err := Decode(acct.Data)
	if err != nil {
		return CollectionAuthority{}, addr, err
	}
	if !rec.Collection.Equals(collection) {
		return CollectionAuthority{}, addr, fmt.Errorf("%w: record governs %s, not %s", ErrInvalidRecord, rec.Collection, collection)
	}
	return rec, addr, nil
}

// Bind creates the record for collection with creator as its sole authority.
// The write is a store Create, so an existing record is never replaced and of
// two concurrent Binds exactly one succeeds.
func (r Registry) Bind(ctx context.Context, collection, creator solana.PublicKey) (CollectionAuthority, solana.PublicKey, error) {
	if collection.IsZero() || creator.IsZero() {
		return CollectionAuthority{}, solana.PublicKey{}, fmt.Errorf("%w: collection and creator are required", ErrInvalidRecord)
	}
	addr, bump, err := r.Address(collection)
	if err != nil {
		return CollectionAuthority{}, solana.PublicKey{}, err
	}
	rec := CollectionAuthority{Creator: creator, Collection: collection, Bump: bump}
	data, err := rec.MarshalBinary()
	if err != nil {
		return CollectionAuthority{}, addr, err
	}
	err = r.Store.Create(ctx, accounts.Account{Address: addr, Owner: r.Program, Data: data})
	switch {
	case accounts.IsExists(err):
		return CollectionAuthority{}, addr, fmt.Errorf("%w: collection %s", ErrAlreadyBound, collection)
	case err != nil:
		return CollectionAuthority{}, addr, err
	}
	return rec, addr, nil
}
