package keys

import (
	"fmt"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/gagliardetto/solana-go"

	"xdao.co/collauth/runtime"
)

// Signer holds one ed25519 private key.
type Signer struct {
	priv ed25519.PrivateKey
}

func NewSigner(seed []byte) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes", ed25519.SeedSize)
	}
	return &Signer{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

func (s *Signer) PublicKey() solana.PublicKey {
	return solana.PublicKeyFromBytes(s.priv.Public().(ed25519.PublicKey))
}

// SignTransaction sets tx.Authority to the signer's key and signs tx.
func (s *Signer) SignTransaction(tx *runtime.Transaction) error {
	tx.Authority = s.PublicKey()
	return tx.Sign(s.priv)
}

// Sign returns a raw ed25519 signature over message.
func (s *Signer) Sign(message []byte) []byte {
	return ed25519.Sign(s.priv, message)
}

// Solana returns the key in the 64-byte form solana-go and wallet files use.
func (s *Signer) Solana() solana.PrivateKey {
	return solana.PrivateKey(append([]byte(nil), s.priv...))
}
