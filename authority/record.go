// Package authority holds the CollectionAuthority record that binds a
// collection to its creator and to the bump of its program-derived address.
package authority

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"xdao.co/collauth/pda"
)

var (
	ErrNotAuthorized  = errors.New("authority: caller is not the collection creator")
	ErrRecordNotFound = errors.New("authority: collection authority record not found")
	ErrInvalidRecord  = errors.New("authority: invalid collection authority record")
	ErrAlreadyBound   = errors.New("authority: collection already has an authority record")
)

// Discriminator prefixes every encoded record: sha256("account:CollectionAuthority")[:8].
var Discriminator = func() [8]byte {
	sum := sha256.Sum256([]byte("account:CollectionAuthority"))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}()

// RecordSize is the encoded length of a CollectionAuthority.
const RecordSize = 8 + solana.PublicKeyLength*2 + 1

// CollectionAuthority is the persisted record for one collection.
// None of its fields change after Bind.
type CollectionAuthority struct {
	Creator    solana.PublicKey
	Collection solana.PublicKey
	Bump       uint8
}

func (r CollectionAuthority) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(RecordSize)
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteBytes(Discriminator[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(r.Creator.Bytes(), false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(r.Collection.Bytes(), false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(r.Bump); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses an encoded record.
func Decode(data []byte) (CollectionAuthority, error) {
	if len(data) != RecordSize {
		return CollectionAuthority{}, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidRecord, len(data), RecordSize)
	}
	dec := bin.NewBorshDecoder(data)
	disc, err := dec.ReadNBytes(len(Discriminator))
	if err != nil {
		return CollectionAuthority{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if !bytes.Equal(disc, Discriminator[:]) {
		return CollectionAuthority{}, fmt.Errorf("%w: discriminator mismatch", ErrInvalidRecord)
	}
	creator, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return CollectionAuthority{}, fmt.Errorf("%w: creator: %v", ErrInvalidRecord, err)
	}
	collection, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return CollectionAuthority{}, fmt.Errorf("%w: collection: %v", ErrInvalidRecord, err)
	}
	bump, err := dec.ReadUint8()
	if err != nil {
		return CollectionAuthority{}, fmt.Errorf("%w: bump: %v", ErrInvalidRecord, err)
	}
	return CollectionAuthority{
		Creator:    solana.PublicKeyFromBytes(creator),
		Collection: solana.PublicKeyFromBytes(collection),
		Bump:       bump,
	}, nil
}

// Seeds returns the signer seeds that prove the record's derived authority.
func (r CollectionAuthority) Seeds() [][]byte {
	return pda.CollectionAuthoritySeeds(r.Collection, r.Bump)
}

// Verify checks that the stored bump re-derives address under program.
func (r CollectionAuthority) Verify(program, address solana.PublicKey) error {
	return pda.VerifyCollectionAuthority(program, r.Collection, r.Bump, address)
}
