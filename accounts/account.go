// Package accounts is the host's view of on-chain state: addressed accounts
// carrying an owning program and an opaque data buffer.
package accounts

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Account is a single addressed account.
//
// Data is owned by the Owner program; an account with empty Data has not been
// initialized by its owner.
type Account struct {
	Address solana.PublicKey
	Owner   solana.PublicKey
	Data    []byte
}

func (a Account) Initialized() bool { return len(a.Data) > 0 }

func (a Account) OwnedBy(program solana.PublicKey) bool { return a.Owner.Equals(program) }

// Clone returns a deep copy of a.
func (a Account) Clone() Account {
	out := a
	if a.Data != nil {
		out.Data = append([]byte(nil), a.Data...)
	}
	return out
}

// Store is a keyed account store.
//
// Contract:
// - Get MUST return ErrNotFound when the address is absent.
// - Put replaces whatever is stored at acct.Address.
// - Create writes acct only when nothing is stored at its address and
//   otherwise returns ErrExists; the check and the write are one step.
// - Has reports false on any lookup error; use Create, not Has then Put, to
//   claim an address.
// - Returned accounts MUST NOT alias the store's internal buffers.
// - The zero address is never valid.
type Store interface {
	Get(ctx context.Context, addr solana.PublicKey) (Account, error)
	Put(ctx context.Context, acct Account) error
	Create(ctx context.Context, acct Account) error
	Has(ctx context.Context, addr solana.PublicKey) bool
}
