package keys

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/gagliardetto/solana-go"
)

// PublicKeyFromSeed returns the account address of an ed25519 seed.
func PublicKeyFromSeed(seed []byte) (solana.PublicKey, error) {
	if len(seed) != ed25519.SeedSize {
		return solana.PublicKey{}, fmt.Errorf("seed must be %d bytes", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return solana.PublicKeyFromBytes(pub), nil
}

// DeriveSubkeySeed deterministically derives a labelled ed25519 seed from a
// root seed, so one root can hold a separate creator key per collection.
func DeriveSubkeySeed(rootSeed []byte, label string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", ed25519.SeedSize)
	}
	if err := CheckLabel(label); err != nil {
		return nil, err
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("collauth-keys-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("label:"))
	_, _ = h.Write([]byte(label))
	sum := h.Sum(nil)
	if len(sum) < ed25519.SeedSize {
		return nil, errors.New("kdf output too short")
	}
	out := make([]byte, ed25519.SeedSize)
	copy(out, sum[:ed25519.SeedSize])
	return out, nil
}
