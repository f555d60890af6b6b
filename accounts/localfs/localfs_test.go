package localfs

import (
	"context"
	"os"
	"testing"

	"xdao.co/collauth/accounts"
	"xdao.co/collauth/accounts/testkit"
)

func TestLocalFSConformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) accounts.Store {
		s, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return s
	})
}

func TestLocalFSDetectsMisplacedAccount(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a := accounts.Account{Address: testkit.Key(1), Owner: testkit.Key(2), Data: []byte("a")}
	b := accounts.Account{Address: testkit.Key(3), Owner: testkit.Key(2), Data: []byte("b")}
	if err := s.Put(ctx, a); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, b); err != nil {
		t.Fatalf("Put: %v", err)
	}

	raw, err := os.ReadFile(s.pathFor(b.Address))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if err := os.WriteFile(s.pathFor(a.Address), raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := s.Get(ctx, a.Address); err != accounts.ErrCorrupt {
		t.Fatalf("Get: got err=%v want ErrCorrupt", err)
	}
}

func TestNewRequiresRoot(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty root")
	}
}
