// Package sqlite provides a SQLite-backed account store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gagliardetto/solana-go"
	_ "modernc.org/sqlite"

	"xdao.co/collauth/accounts"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	address TEXT PRIMARY KEY,
	owner   TEXT NOT NULL,
	data    BLOB NOT NULL
)`

// Store persists accounts in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ accounts.Store = (*Store)(nil)

// Open opens a SQLite account store and creates its schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, addr solana.PublicKey) (accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return accounts.Account{}, err
	}
	if addr.IsZero() {
		return accounts.Account{}, accounts.ErrInvalidAddress
	}
	var owner string
	var data []byte
	row := s.sqlDB.QueryRowContext(ctx, `SELECT owner, data FROM accounts WHERE address = ?`, addr.String())
	if err := row.Scan(&owner, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.Account{}, accounts.ErrNotFound
		}
		return accounts.Account{}, fmt.Errorf("get account: %w", err)
	}
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return accounts.Account{}, fmt.Errorf("%w: owner: %v", accounts.ErrCorrupt, err)
	}
	acct := accounts.Account{Address: addr, Owner: ownerKey}
	if len(data) > 0 {
		acct.Data = append([]byte(nil), data...)
	}
	return acct, nil
}

func (s *Store) Put(ctx context.Context, acct accounts.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if acct.Address.IsZero() {
		return accounts.ErrInvalidAddress
	}
	data := acct.Data
	if data == nil {
		data = []byte{}
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO accounts (address, owner, data) VALUES (?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET owner = excluded.owner, data = excluded.data`,
		acct.Address.String(), acct.Owner.String(), data,
	)
	if err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

// Create inserts acct unless its address is taken. The conflict check is the
// primary key, so racing creators cannot both succeed.
func (s *Store) Create(ctx context.Context, acct accounts.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if acct.Address.IsZero() {
		return accounts.ErrInvalidAddress
	}
	data := acct.Data
	if data == nil {
		data = []byte{}
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO accounts (address, owner, data) VALUES (?, ?, ?)
		 ON CONFLICT(address) DO NOTHING`,
		acct.Address.String(), acct.Owner.String(), data,
	)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if n == 0 {
		return accounts.ErrExists
	}
	return nil
}

func (s *Store) Has(ctx context.Context, addr solana.PublicKey) bool {
	if addr.IsZero() || ctx.Err() != nil {
		return false
	}
	var one int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE address = ?`, addr.String()).Scan(&one)
	return err == nil
}
