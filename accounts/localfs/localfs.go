package localfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"

	"xdao.co/collauth/accounts"
)

// Store is a local filesystem-backed account store.
//
// Each account lives in its own file named by its base58 address. Writes go
// through a temporary file and a rename so readers never see a torn account.
type Store struct {
	root string
}

var _ accounts.Store = (*Store)(nil)

// New constructs a filesystem store rooted at root. The directory will be created if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) Put(ctx context.Context, acct accounts.Account) error {
	path, tmp, err := s.stage(ctx, acct)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Create links the staged file into place; the link fails if the address
// already has a file, so a concurrent Create or Put is never overwritten.
func (s *Store) Create(ctx context.Context, acct accounts.Account) error {
	path, tmp, err := s.stage(ctx, acct)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp) }()
	if err := os.Link(tmp, path); err != nil {
		if os.IsExist(err) {
			return accounts.ErrExists
		}
		return err
	}
	return nil
}

// stage writes acct to a synced temporary file next to its final path.
func (s *Store) stage(ctx context.Context, acct accounts.Account) (path, tmp string, err error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	if acct.Address.IsZero() {
		return "", "", accounts.ErrInvalidAddress
	}
	b, err := accounts.Marshal(acct)
	if err != nil {
		return "", "", err
	}

	path = s.pathFor(acct.Address)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", "", err
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return "", "", err
	}
	tmp = f.Name()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", "", err
	}
	return path, tmp, nil
}

func (s *Store) Get(ctx context.Context, addr solana.PublicKey) (accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return accounts.Account{}, err
	}
	if addr.IsZero() {
		return accounts.Account{}, accounts.ErrInvalidAddress
	}
	b, err := os.ReadFile(s.pathFor(addr))
	if err != nil {
		if os.IsNotExist(err) {
			return accounts.Account{}, accounts.ErrNotFound
		}
		return accounts.Account{}, err
	}
	acct, err := accounts.Unmarshal(b)
	if err != nil {
		return accounts.Account{}, err
	}
	if acct.Address != addr {
		return accounts.Account{}, accounts.ErrCorrupt
	}
	return acct, nil
}

func (s *Store) Has(ctx context.Context, addr solana.PublicKey) bool {
	if addr.IsZero() || ctx.Err() != nil {
		return false
	}
	_, err := os.Stat(s.pathFor(addr))
	return err == nil
}

func (s *Store) pathFor(addr solana.PublicKey) string {
	name := addr.String()
	return filepath.Join(s.root, name[:2], name+".acct")
}
