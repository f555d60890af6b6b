package grpcstore

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"xdao.co/collauth/accounts"
	"xdao.co/collauth/accounts/localfs"
	"xdao.co/collauth/accounts/testkit"
)

func newBufconnClient(t *testing.T, backing accounts.Store, writes WriteMode) *Client {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterAccountsServer(srv, &Server{Store: backing, Writes: writes})
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.DialContext(ctx) }
	cc, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c := NewClient(cc)
	c.Timeout = 2 * time.Second
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGRPCStoreConformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) accounts.Store {
		return newBufconnClient(t, accounts.NewMemory(), ReadWrite)
	})
}

func TestGRPCStoreLocalFSRoundTrip(t *testing.T) {
	backing, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	client := newBufconnClient(t, backing, ReadWrite)

	ctx := context.Background()
	acct := accounts.Account{Address: testkit.Key(1), Owner: testkit.Key(2), Data: []byte("hello grpcstore")}
	if err := client.Put(ctx, acct); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !client.Has(ctx, acct.Address) {
		t.Fatalf("Has: expected true")
	}
	got, err := backing.Get(ctx, acct.Address)
	if err != nil {
		t.Fatalf("backing Get: %v", err)
	}
	if string(got.Data) != "hello grpcstore" {
		t.Fatalf("payload mismatch: %q", got.Data)
	}
}

func TestGRPCStoreReadOnlyRejectsWrites(t *testing.T) {
	ctx := context.Background()
	backing := accounts.NewMemory()
	record := accounts.Account{Address: testkit.Key(1), Owner: testkit.Key(2), Data: []byte("creator=alice")}
	if err := backing.Put(ctx, record); err != nil {
		t.Fatalf("seed: %v", err)
	}
	client := newBufconnClient(t, backing, ReadOnly)

	forged := accounts.Account{Address: record.Address, Owner: record.Owner, Data: []byte("creator=mallory")}
	if err := client.Put(ctx, forged); !errors.Is(err, accounts.ErrReadOnly) {
		t.Fatalf("Put: got err=%v want ErrReadOnly", err)
	}
	fresh := accounts.Account{Address: testkit.Key(3), Owner: testkit.Key(2), Data: []byte("x")}
	if err := client.Create(ctx, fresh); !errors.Is(err, accounts.ErrReadOnly) {
		t.Fatalf("Create: got err=%v want ErrReadOnly", err)
	}

	got, err := client.Get(ctx, record.Address)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Data) != "creator=alice" {
		t.Fatalf("record rewritten through a read-only server: %q", got.Data)
	}
	if backing.Has(ctx, fresh.Address) {
		t.Fatalf("read-only server created %s", fresh.Address)
	}
}

func TestGRPCStoreCreateOnlyNeverReplaces(t *testing.T) {
	ctx := context.Background()
	backing := accounts.NewMemory()
	client := newBufconnClient(t, backing, CreateOnly)

	acct := accounts.Account{Address: testkit.Key(4), Owner: testkit.Key(2), Data: []byte("first")}
	if err := client.Create(ctx, acct); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := client.Create(ctx, accounts.Account{Address: acct.Address, Owner: acct.Owner, Data: []byte("second")}); !errors.Is(err, accounts.ErrExists) {
		t.Fatalf("second Create: got err=%v want ErrExists", err)
	}
	if err := client.Put(ctx, accounts.Account{Address: acct.Address, Owner: acct.Owner, Data: []byte("third")}); !errors.Is(err, accounts.ErrReadOnly) {
		t.Fatalf("Put: got err=%v want ErrReadOnly", err)
	}
	got, err := backing.Get(ctx, acct.Address)
	if err != nil {
		t.Fatalf("backing Get: %v", err)
	}
	if string(got.Data) != "first" {
		t.Fatalf("stored %q, want first", got.Data)
	}
}
