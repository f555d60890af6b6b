package runtime

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/ed25519"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Op selects the gateway operation a Transaction requests.
type Op uint8

const (
	OpFreeze Op = iota
	OpThaw
	OpUpdate
)

func (o Op) String() string {
	switch o {
	case OpFreeze:
		return "freeze"
	case OpThaw:
		return "thaw"
	case OpUpdate:
		return "update"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "freeze":
		return OpFreeze, nil
	case "thaw":
		return OpThaw, nil
	case "update":
		return OpUpdate, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOp, s)
	}
}

var messageDomain = []byte("collauth/tx/v1")

// Transaction is one signed operation request. Authority is both the caller
// identity and the ed25519 public key that signs Message.
type Transaction struct {
	Op         Op
	Authority  solana.PublicKey
	Asset      solana.PublicKey
	Collection solana.PublicKey
	Name       string
	URI        string
	Signature  []byte
}

// Message is the signed payload: every field except Signature, borsh encoded
// after a fixed domain tag.
func (tx Transaction) Message() ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteBytes(messageDomain, false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(uint8(tx.Op)); err != nil {
		return nil, err
	}
	for _, pk := range []solana.PublicKey{tx.Authority, tx.Asset, tx.Collection} {
		if err := enc.WriteBytes(pk.Bytes(), false); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteBytes([]byte(tx.Name), true); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes([]byte(tx.URI), true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Sign sets Signature. priv must be the key of Authority.
func (tx *Transaction) Sign(priv ed25519.PrivateKey) error {
	if len(priv) != ed25519.PrivateKeySize {
		return fmt.Errorf("runtime: private key must be %d bytes", ed25519.PrivateKeySize)
	}
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok || !bytes.Equal(pub, tx.Authority.Bytes()) {
		return fmt.Errorf("runtime: key does not belong to authority %s", tx.Authority)
	}
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	tx.Signature = ed25519.Sign(priv, msg)
	return nil
}

// Verify checks Signature against Authority.
func (tx Transaction) Verify() error {
	if len(tx.Signature) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature is %d bytes", ErrBadSignature, len(tx.Signature))
	}
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	if !ed25519.Verify(ed25519.PublicKey(tx.Authority.Bytes()), msg, tx.Signature) {
		return ErrBadSignature
	}
	return nil
}
