package mplcore

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Key is the leading account-kind byte of every Core account.
type Key uint8

const (
	KeyAssetV1      Key = 1
	KeyCollectionV1 Key = 5
)

var ErrWrongAccountKind = errors.New("mplcore: wrong account kind")

// AssetV1 is the subset of the asset account the reference program keeps.
// UpdateAuthority holds the collection address for collection-managed assets.
type AssetV1 struct {
	Owner           solana.PublicKey
	UpdateAuthority solana.PublicKey
	Name            string
	URI             string
	Frozen          bool
}

func (a AssetV1) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteUint8(uint8(KeyAssetV1)); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(a.Owner.Bytes(), false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(a.UpdateAuthority.Bytes(), false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes([]byte(a.Name), true); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes([]byte(a.URI), true); err != nil {
		return nil, err
	}
	if err := enc.WriteBool(a.Frozen); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeAssetV1(data []byte) (AssetV1, error) {
	dec := bin.NewBorshDecoder(data)
	if err := expectKey(dec, KeyAssetV1); err != nil {
		return AssetV1{}, err
	}
	var a AssetV1
	var err error
	if a.Owner, err = readKey(dec); err != nil {
		return AssetV1{}, err
	}
	if a.UpdateAuthority, err = readKey(dec); err != nil {
		return AssetV1{}, err
	}
	if a.Name, err = readString(dec); err != nil {
		return AssetV1{}, err
	}
	if a.URI, err = readString(dec); err != nil {
		return AssetV1{}, err
	}
	if a.Frozen, err = dec.ReadBool(); err != nil {
		return AssetV1{}, fmt.Errorf("mplcore: asset frozen flag: %w", err)
	}
	return a, nil
}

// CollectionV1 is the subset of the collection account the reference program keeps.
type CollectionV1 struct {
	UpdateAuthority solana.PublicKey
	Name            string
	URI             string
}

func (c CollectionV1) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteUint8(uint8(KeyCollectionV1)); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(c.UpdateAuthority.Bytes(), false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes([]byte(c.Name), true); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes([]byte(c.URI), true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeCollectionV1(data []byte) (CollectionV1, error) {
	dec := bin.NewBorshDecoder(data)
	if err := expectKey(dec, KeyCollectionV1); err != nil {
		return CollectionV1{}, err
	}
	var c CollectionV1
	var err error
	if c.UpdateAuthority, err = readKey(dec); err != nil {
		return CollectionV1{}, err
	}
	if c.Name, err = readString(dec); err != nil {
		return CollectionV1{}, err
	}
	if c.URI, err = readString(dec); err != nil {
		return CollectionV1{}, err
	}
	return c, nil
}

func expectKey(dec *bin.Decoder, want Key) error {
	k, err := dec.ReadUint8()
	if err != nil {
		return fmt.Errorf("mplcore: account key: %w", err)
	}
	if Key(k) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrWrongAccountKind, k, want)
	}
	return nil
}

func readKey(dec *bin.Decoder) (solana.PublicKey, error) {
	b, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("mplcore: public key: %w", err)
	}
	return solana.PublicKeyFromBytes(b), nil
}

func readString(dec *bin.Decoder) (string, error) {
	b, err := dec.ReadByteSlice()
	if err != nil {
		return "", fmt.Errorf("mplcore: string: %w", err)
	}
	return string(b), nil
}
