package accounts

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Marshal encodes acct as borsh: address, owner, length-prefixed data.
// Backends that persist bytes (files, sqlite rows, RPC payloads) share it.
func Marshal(acct Account) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteBytes(acct.Address.Bytes(), false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(acct.Owner.Bytes(), false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(acct.Data, true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes bytes produced by Marshal.
func Unmarshal(b []byte) (Account, error) {
	dec := bin.NewBorshDecoder(b)
	addr, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return Account{}, fmt.Errorf("%w: address: %v", ErrCorrupt, err)
	}
	owner, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return Account{}, fmt.Errorf("%w: owner: %v", ErrCorrupt, err)
	}
	data, err := dec.ReadByteSlice()
	if err != nil {
		return Account{}, fmt.Errorf("%w: data: %v", ErrCorrupt, err)
	}
	if dec.Remaining() != 0 {
		return Account{}, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, dec.Remaining())
	}
	acct := Account{
		Address: solana.PublicKeyFromBytes(addr),
		Owner:   solana.PublicKeyFromBytes(owner),
	}
	if len(data) > 0 {
		acct.Data = append([]byte(nil), data...)
	}
	return acct, nil
}
