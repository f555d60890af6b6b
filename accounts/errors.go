package accounts

import "errors"

var (
	ErrNotFound       = errors.New("accounts: not found")
	ErrInvalidAddress = errors.New("accounts: invalid address")
	ErrCorrupt        = errors.New("accounts: stored account does not match its address")
	ErrExists         = errors.New("accounts: already exists")
	ErrReadOnly       = errors.New("accounts: store is read-only")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsExists(err error) bool { return errors.Is(err, ErrExists) }
