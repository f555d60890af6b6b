// Package testkit holds the conformance suite every accounts.Store backend
// must pass.
package testkit

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"

	"xdao.co/collauth/accounts"
)

// NewStore constructs a fresh, empty Store for a test.
// The returned Store MUST be isolated from other tests.
type NewStore func(t *testing.T) accounts.Store

// Key returns a deterministic non-zero public key for tests.
func Key(b byte) solana.PublicKey {
	var pk solana.PublicKey
	for i := range pk {
		pk[i] = b ^ byte(i*7+1)
	}
	return pk
}

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := accounts.Account{Address: Key(1), Owner: Key(2), Data: []byte("collection state")}

		if err := s.Put(ctx, want); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := s.Get(ctx, want.Address)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Address != want.Address || got.Owner != want.Owner || string(got.Data) != string(want.Data) {
			t.Fatalf("Get mismatch: got %+v want %+v", got, want)
		}
	})

	t.Run("PutReplaces", func(t *testing.T) {
		s := newStore(t)
		addr := Key(3)
		if err := s.Put(ctx, accounts.Account{Address: addr, Owner: Key(4), Data: []byte("v1")}); err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		if err := s.Put(ctx, accounts.Account{Address: addr, Owner: Key(5), Data: []byte("v2")}); err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		got, err := s.Get(ctx, addr)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Owner != Key(5) || string(got.Data) != "v2" {
			t.Fatalf("expected second write to win, got %+v", got)
		}
	})

	t.Run("EmptyDataIsUninitialized", func(t *testing.T) {
		s := newStore(t)
		addr := Key(6)
		if err := s.Put(ctx, accounts.Account{Address: addr, Owner: Key(7)}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := s.Get(ctx, addr)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Initialized() {
			t.Fatalf("expected uninitialized account, got %d bytes", len(got.Data))
		}
		if !got.OwnedBy(Key(7)) {
			t.Fatalf("owner lost: %s", got.Owner)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		s := newStore(t)
		addr := Key(8)
		if s.Has(ctx, addr) {
			t.Fatalf("Has returned true for missing account")
		}
		if _, err := s.Get(ctx, addr); !accounts.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}
		if err := s.Put(ctx, accounts.Account{Address: addr, Owner: Key(9), Data: []byte{1}}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !s.Has(ctx, addr) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("NoAliasing", func(t *testing.T) {
		s := newStore(t)
		data := []byte("original")
		acct := accounts.Account{Address: Key(10), Owner: Key(11), Data: data}
		if err := s.Put(ctx, acct); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		data[0] = 'X'
		got, err := s.Get(ctx, acct.Address)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got.Data) != "original" {
			t.Fatalf("store aliased caller buffer: %q", got.Data)
		}
		got.Data[0] = 'Y'
		again, err := s.Get(ctx, acct.Address)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(again.Data) != "original" {
			t.Fatalf("store aliased returned buffer: %q", again.Data)
		}
	})

	t.Run("CreateRefusesExisting", func(t *testing.T) {
		s := newStore(t)
		addr := Key(12)
		if err := s.Create(ctx, accounts.Account{Address: addr, Owner: Key(13), Data: []byte("first")}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		err := s.Create(ctx, accounts.Account{Address: addr, Owner: Key(14), Data: []byte("second")})
		if !accounts.IsExists(err) {
			t.Fatalf("second Create: got err=%v want ErrExists", err)
		}
		if err := s.Put(ctx, accounts.Account{Address: Key(15), Owner: Key(13), Data: []byte("put")}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := s.Create(ctx, accounts.Account{Address: Key(15), Owner: Key(14), Data: []byte("x")}); !accounts.IsExists(err) {
			t.Fatalf("Create over Put: got err=%v want ErrExists", err)
		}
		got, err := s.Get(ctx, addr)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Owner != Key(13) || string(got.Data) != "first" {
			t.Fatalf("Create overwrote existing account: %+v", got)
		}
	})

	t.Run("ConcurrentCreateHasOneWinner", func(t *testing.T) {
		s := newStore(t)
		addr := Key(16)
		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = s.Create(ctx, accounts.Account{Address: addr, Owner: Key(17), Data: []byte(fmt.Sprintf("writer-%d", i))})
			}(i)
		}
		wg.Wait()

		winner := -1
		for i, err := range errs {
			switch {
			case err == nil:
				if winner >= 0 {
					t.Fatalf("writers %d and %d both created %s", winner, i, addr)
				}
				winner = i
			case !accounts.IsExists(err):
				t.Fatalf("writer %d: unexpected error %v", i, err)
			}
		}
		if winner < 0 {
			t.Fatalf("no writer created %s", addr)
		}
		got, err := s.Get(ctx, addr)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if want := fmt.Sprintf("writer-%d", winner); string(got.Data) != want {
			t.Fatalf("stored %q, want the winner's %q", got.Data, want)
		}
	})

	t.Run("RejectZeroAddress", func(t *testing.T) {
		s := newStore(t)
		var zero solana.PublicKey
		if s.Has(ctx, zero) {
			t.Fatalf("Has should be false for the zero address")
		}
		if _, err := s.Get(ctx, zero); err == nil {
			t.Fatalf("Get should fail for the zero address")
		}
		if err := s.Put(ctx, accounts.Account{Address: zero, Data: []byte{1}}); err == nil {
			t.Fatalf("Put should fail for the zero address")
		}
		if err := s.Create(ctx, accounts.Account{Address: zero, Data: []byte{1}}); err == nil {
			t.Fatalf("Create should fail for the zero address")
		}
	})
}
