package accounts

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Memory is an in-process Store. The zero value is not usable; call NewMemory.
type Memory struct {
	mu       sync.RWMutex
	accounts map[solana.PublicKey]Account
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{accounts: make(map[solana.PublicKey]Account)}
}

func (m *Memory) Get(ctx context.Context, addr solana.PublicKey) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	if addr.IsZero() {
		return Account{}, ErrInvalidAddress
	}
	m.mu.RLock()
	acct, ok := m.accounts[addr]
	m.mu.RUnlock()
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct.Clone(), nil
}

func (m *Memory) Put(ctx context.Context, acct Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if acct.Address.IsZero() {
		return ErrInvalidAddress
	}
	m.mu.Lock()
	m.accounts[acct.Address] = acct.Clone()
	m.mu.Unlock()
	return nil
}

func (m *Memory) Create(ctx context.Context, acct Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if acct.Address.IsZero() {
		return ErrInvalidAddress
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[acct.Address]; ok {
		return ErrExists
	}
	m.accounts[acct.Address] = acct.Clone()
	return nil
}

func (m *Memory) Has(ctx context.Context, addr solana.PublicKey) bool {
	if addr.IsZero() || ctx.Err() != nil {
		return false
	}
	m.mu.RLock()
	_, ok := m.accounts[addr]
	m.mu.RUnlock()
	return ok
}

// Len reports the number of stored accounts.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}
