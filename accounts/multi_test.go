package accounts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"xdao.co/collauth/accounts"
	"xdao.co/collauth/accounts/testkit"
)

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, solana.PublicKey) (accounts.Account, error) {
	return accounts.Account{}, f.err
}
func (f failingStore) Put(context.Context, accounts.Account) error    { return f.err }
func (f failingStore) Create(context.Context, accounts.Account) error { return f.err }
func (f failingStore) Has(context.Context, solana.PublicKey) bool     { return false }

func TestFallbackReadsInOrderWritesFirst(t *testing.T) {
	ctx := context.Background()
	primary, secondary := accounts.NewMemory(), accounts.NewMemory()
	acct := accounts.Account{Address: testkit.Key(1), Owner: testkit.Key(2), Data: []byte("x")}
	require.NoError(t, secondary.Put(ctx, acct))

	f := accounts.Fallback{Stores: []accounts.Store{primary, secondary}}
	got, err := f.Get(ctx, acct.Address)
	require.NoError(t, err)
	require.Equal(t, acct.Data, got.Data)

	acct2 := accounts.Account{Address: testkit.Key(3), Owner: testkit.Key(2), Data: []byte("y")}
	require.NoError(t, f.Put(ctx, acct2))
	require.True(t, primary.Has(ctx, acct2.Address))
	require.False(t, secondary.Has(ctx, acct2.Address))
}

func TestFallbackStopsOnHardError(t *testing.T) {
	boom := errors.New("disk on fire")
	f := accounts.Fallback{Stores: []accounts.Store{failingStore{err: boom}, accounts.NewMemory()}}
	_, err := f.Get(context.Background(), testkit.Key(1))
	require.ErrorIs(t, err, boom)
}

func TestReplicatingWritesAll(t *testing.T) {
	ctx := context.Background()
	a, b := accounts.NewMemory(), accounts.NewMemory()
	r := accounts.Replicating{Backends: []accounts.NamedStore{{Name: "a", Store: a}, {Name: "b", Store: b}}}
	acct := accounts.Account{Address: testkit.Key(4), Owner: testkit.Key(5), Data: []byte("z")}
	require.NoError(t, r.Put(ctx, acct))
	require.True(t, a.Has(ctx, acct.Address))
	require.True(t, b.Has(ctx, acct.Address))

	boom := errors.New("replica down")
	r.Backends = append(r.Backends, accounts.NamedStore{Name: "c", Store: failingStore{err: boom}})
	err := r.Put(ctx, acct)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), `"c"`)
}

func TestCodecRoundTrip(t *testing.T) {
	acct := accounts.Account{Address: testkit.Key(6), Owner: testkit.Key(7), Data: []byte{0, 1, 2, 3}}
	b, err := accounts.Marshal(acct)
	require.NoError(t, err)
	got, err := accounts.Unmarshal(b)
	require.NoError(t, err)
	require.Equal(t, acct, got)

	_, err = accounts.Unmarshal(append(b, 0xff))
	require.ErrorIs(t, err, accounts.ErrCorrupt)
	_, err = accounts.Unmarshal(b[:40])
	require.ErrorIs(t, err, accounts.ErrCorrupt)
}

func TestFallbackCreateSeesLaterStores(t *testing.T) {
	ctx := context.Background()
	primary, secondary := accounts.NewMemory(), accounts.NewMemory()
	acct := accounts.Account{Address: testkit.Key(6), Owner: testkit.Key(2), Data: []byte("old")}
	require.NoError(t, secondary.Put(ctx, acct))

	f := accounts.Fallback{Stores: []accounts.Store{primary, secondary}}
	err := f.Create(ctx, accounts.Account{Address: acct.Address, Owner: testkit.Key(2), Data: []byte("new")})
	require.ErrorIs(t, err, accounts.ErrExists)
	require.False(t, primary.Has(ctx, acct.Address))

	boom := errors.New("replica down")
	f = accounts.Fallback{Stores: []accounts.Store{primary, failingStore{err: boom}}}
	require.ErrorIs(t, f.Create(ctx, accounts.Account{Address: testkit.Key(7), Data: []byte{1}}), boom)
}

func TestReplicatingCreateArbitratesOnFirst(t *testing.T) {
	ctx := context.Background()
	a, b := accounts.NewMemory(), accounts.NewMemory()
	r := accounts.Replicating{Backends: []accounts.NamedStore{{Name: "a", Store: a}, {Name: "b", Store: b}}}
	acct := accounts.Account{Address: testkit.Key(8), Owner: testkit.Key(5), Data: []byte("z")}
	require.NoError(t, r.Create(ctx, acct))
	require.True(t, b.Has(ctx, acct.Address))

	err := r.Create(ctx, accounts.Account{Address: acct.Address, Owner: testkit.Key(9), Data: []byte("w")})
	require.ErrorIs(t, err, accounts.ErrExists)
	got, err := b.Get(ctx, acct.Address)
	require.NoError(t, err)
	require.Equal(t, []byte("z"), got.Data)
}
