package main

import (
	"context"
	"crypto/rand"
	"net"
	"testing"
	"time"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"xdao.co/collauth/accounts"
	"xdao.co/collauth/accounts/grpcstore"
	"xdao.co/collauth/authority"
	"xdao.co/collauth/config"
	"xdao.co/collauth/gateway"
	"xdao.co/collauth/gateway/grpcgate"
	"xdao.co/collauth/mplcore"
	"xdao.co/collauth/mplcore/coresim"
	"xdao.co/collauth/runtime"
)

var program = solana.MustPublicKeyFromBase58(config.DefaultProgramID)

func key(b byte) solana.PublicKey {
	var pk solana.PublicKey
	for i := range pk {
		pk[i] = b + byte(i)*3
	}
	return pk
}

func newKey(t *testing.T) (solana.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return solana.PublicKeyFromBytes(pub), priv
}

func serveBufconn(t *testing.T, srv *grpc.Server) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)
	cc, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })
	return cc
}

type daemon struct {
	store      *accounts.Memory
	core       *coresim.Program
	gw         *gateway.Gateway
	host       *runtime.Host
	creator    solana.PublicKey
	creatorKey ed25519.PrivateKey
	record     solana.PublicKey
	asset      solana.PublicKey
	collection solana.PublicKey
}

func newDaemon(t *testing.T) *daemon {
	t.Helper()
	ctx := context.Background()
	d := &daemon{store: accounts.NewMemory(), asset: key(1), collection: key(2)}
	log := zaptest.NewLogger(t)

	var err error
	d.host, err = runtime.NewHost(program, runtime.WithLogger(log))
	require.NoError(t, err)
	d.core = coresim.New(d.store)
	require.NoError(t, d.host.Register(d.core))
	d.gw, err = gateway.New(gateway.Config{Program: program, Accounts: d.store, Invoker: d.host, Logger: log})
	require.NoError(t, err)

	d.record, _, err = d.gw.Derive(d.collection)
	require.NoError(t, err)
	require.NoError(t, coresim.CreateCollection(ctx, d.store, d.collection, mplcore.CollectionV1{UpdateAuthority: d.record, Name: "C"}))
	require.NoError(t, coresim.CreateAsset(ctx, d.store, d.asset, mplcore.AssetV1{Owner: key(3), UpdateAuthority: d.collection, Name: "A"}))
	d.creator, d.creatorKey = newKey(t)
	_, _, err = d.gw.Bind(ctx, d.collection, d.creator)
	require.NoError(t, err)
	return d
}

func (d *daemon) freeze(t *testing.T, cc *grpc.ClientConn, authority solana.PublicKey, priv ed25519.PrivateKey) error {
	t.Helper()
	tx := runtime.Transaction{Op: runtime.OpFreeze, Authority: authority, Asset: d.asset, Collection: d.collection}
	require.NoError(t, tx.Sign(priv))
	client := grpcgate.NewClient(cc)
	client.Timeout = 2 * time.Second
	_, err := client.Submit(context.Background(), tx)
	return err
}

func TestGatewayListenerRefusesAccountWrites(t *testing.T) {
	ctx := context.Background()
	d := newDaemon(t)
	cc := serveBufconn(t, newGatewayServer(d.host, d.gw, d.store, zaptest.NewLogger(t)))

	attacker, attackerKey := newKey(t)
	forged, err := authority.CollectionAuthority{Creator: attacker, Collection: d.collection, Bump: 0}.MarshalBinary()
	require.NoError(t, err)
	remote := grpcstore.NewClient(cc)
	acct := accounts.Account{Address: d.record, Owner: program, Data: forged}
	require.ErrorIs(t, remote.Put(ctx, acct), accounts.ErrReadOnly)
	require.ErrorIs(t, remote.Create(ctx, acct), accounts.ErrReadOnly)

	err = d.freeze(t, cc, attacker, attackerKey)
	require.True(t, gateway.IsKind(err, gateway.KindNotAuthorized), "got %v", err)
	asset, err := d.core.Asset(ctx, d.asset)
	require.NoError(t, err)
	require.False(t, asset.Frozen)

	got, err := remote.Get(ctx, d.record)
	require.NoError(t, err, "reads stay available")
	rec, err := authority.Decode(got.Data)
	require.NoError(t, err)
	require.Equal(t, d.creator, rec.Creator)

	require.NoError(t, d.freeze(t, cc, d.creator, d.creatorKey))
}

func TestAdminListenerCreatesButNeverReplaces(t *testing.T) {
	ctx := context.Background()
	d := newDaemon(t)
	remote := grpcstore.NewClient(serveBufconn(t, newAdminServer(d.store)))

	attacker, _ := newKey(t)
	forged, err := authority.CollectionAuthority{Creator: attacker, Collection: d.collection}.MarshalBinary()
	require.NoError(t, err)
	acct := accounts.Account{Address: d.record, Owner: program, Data: forged}
	require.ErrorIs(t, remote.Put(ctx, acct), accounts.ErrReadOnly)
	require.ErrorIs(t, remote.Create(ctx, acct), accounts.ErrExists)

	other := key(40)
	registry := authority.Registry{Program: program, Store: remote}
	rec, _, err := registry.Bind(ctx, other, d.creator)
	require.NoError(t, err)
	require.Equal(t, d.creator, rec.Creator)
	_, _, err = registry.Bind(ctx, other, attacker)
	require.ErrorIs(t, err, authority.ErrAlreadyBound)
}
