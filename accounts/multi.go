package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Fallback reads from Stores in slice order and writes only to the first.
//
// Callers MUST supply a fixed order; it is the retrieval strategy.
type Fallback struct {
	Stores []Store
}

var _ Store = Fallback{}

func (f Fallback) Get(ctx context.Context, addr solana.PublicKey) (Account, error) {
	return getInOrder(ctx, addr, f.Stores)
}

func (f Fallback) Put(ctx context.Context, acct Account) error {
	if len(f.Stores) == 0 {
		return errors.New("accounts: Fallback has no stores")
	}
	return f.Stores[0].Put(ctx, acct)
}

// Create claims the address in the first store after checking that no later
// store already holds it. Only the first store's check is atomic.
func (f Fallback) Create(ctx context.Context, acct Account) error {
	if len(f.Stores) == 0 {
		return errors.New("accounts: Fallback has no stores")
	}
	for _, s := range f.Stores[1:] {
		if _, err := s.Get(ctx, acct.Address); err == nil {
			return ErrExists
		} else if !IsNotFound(err) {
			return err
		}
	}
	return f.Stores[0].Create(ctx, acct)
}

func (f Fallback) Has(ctx context.Context, addr solana.PublicKey) bool {
	for _, s := range f.Stores {
		if s.Has(ctx, addr) {
			return true
		}
	}
	return false
}

// NamedStore associates a Store with a stable backend name.
type NamedStore struct {
	Name  string
	Store Store
}

// Replicating writes every account to all backends and reads in order.
//
// A write that fails on any backend fails as a whole; backends written before
// the failure keep the new value.
type Replicating struct {
	Backends []NamedStore
}

var _ Store = Replicating{}

func (r Replicating) Put(ctx context.Context, acct Account) error {
	if len(r.Backends) == 0 {
		return errors.New("accounts: Replicating has no backends")
	}
	for _, b := range r.Backends {
		if b.Store == nil {
			return fmt.Errorf("accounts: nil store for backend %q", b.Name)
		}
		if err := b.Store.Put(ctx, acct); err != nil {
			return fmt.Errorf("accounts: backend %q: %w", b.Name, err)
		}
	}
	return nil
}

// Create claims the address on the first backend, which arbitrates, then
// copies the account to the others.
func (r Replicating) Create(ctx context.Context, acct Account) error {
	if len(r.Backends) == 0 {
		return errors.New("accounts: Replicating has no backends")
	}
	for _, b := range r.Backends {
		if b.Store == nil {
			return fmt.Errorf("accounts: nil store for backend %q", b.Name)
		}
	}
	first := r.Backends[0]
	if err := first.Store.Create(ctx, acct); err != nil {
		if IsExists(err) {
			return err
		}
		return fmt.Errorf("accounts: backend %q: %w", first.Name, err)
	}
	for _, b := range r.Backends[1:] {
		if err := b.Store.Put(ctx, acct); err != nil {
			return fmt.Errorf("accounts: backend %q: %w", b.Name, err)
		}
	}
	return nil
}

func (r Replicating) Get(ctx context.Context, addr solana.PublicKey) (Account, error) {
	stores := make([]Store, 0, len(r.Backends))
	for _, b := range r.Backends {
		if b.Store != nil {
			stores = append(stores, b.Store)
		}
	}
	return getInOrder(ctx, addr, stores)
}

func (r Replicating) Has(ctx context.Context, addr solana.PublicKey) bool {
	for _, b := range r.Backends {
		if b.Store != nil && b.Store.Has(ctx, addr) {
			return true
		}
	}
	return false
}

func getInOrder(ctx context.Context, addr solana.PublicKey, stores []Store) (Account, error) {
	for _, s := range stores {
		acct, err := s.Get(ctx, addr)
		if err == nil {
			return acct, nil
		}
		if IsNotFound(err) {
			continue
		}
		return Account{}, err
	}
	return Account{}, ErrNotFound
}
