package keys

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/gagliardetto/solana-go"
)

// KeyStore keeps ed25519 seeds as hex files under Directory.
//
// EXPERIMENTAL: the on-disk layout may change.
//
// Layout:
//
//	<Directory>/<name>/root.key
//	<Directory>/<name>/sub/<label>.key
type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Name      string
	PublicKey solana.PublicKey
	Subkeys   []string
}

func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".collauth", "keys"), nil
}

func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootPath(name string) string {
	return filepath.Join(ks.Directory, name, "root.key")
}

func (ks *KeyStore) subkeyPath(name, label string) string {
	return filepath.Join(ks.Directory, name, "sub", label+".key")
}

func checkIdent(what, s string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	for _, char := range s {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", char, what)
	}
	return nil
}

func CheckKeyName(name string) error { return checkIdent("key name", name) }

func CheckLabel(label string) error { return checkIdent("label", label) }

func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func saveSeed(filePath string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func loadSeed(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(string(data))
}

// Generate creates a root key from a random seed.
func (ks *KeyStore) Generate(name string, overwrite bool) (solana.PublicKey, string, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return solana.PublicKey{}, "", err
	}
	return ks.Import(name, seed, overwrite)
}

// Import stores seed as the root key of name.
func (ks *KeyStore) Import(name string, seed []byte, overwrite bool) (solana.PublicKey, string, error) {
	if err := CheckKeyName(name); err != nil {
		return solana.PublicKey{}, "", err
	}
	pub, err := PublicKeyFromSeed(seed)
	if err != nil {
		return solana.PublicKey{}, "", err
	}
	filePath := ks.rootPath(name)
	if err := saveSeed(filePath, seed, overwrite); err != nil {
		return solana.PublicKey{}, "", err
	}
	return pub, filePath, nil
}

// DeriveSubkey writes the label subkey of name's root key.
func (ks *KeyStore) DeriveSubkey(name, label string, overwrite bool) (solana.PublicKey, string, error) {
	if err := CheckKeyName(name); err != nil {
		return solana.PublicKey{}, "", err
	}
	if err := CheckLabel(label); err != nil {
		return solana.PublicKey{}, "", err
	}
	root, err := loadSeed(ks.rootPath(name))
	if err != nil {
		return solana.PublicKey{}, "", err
	}
	seed, err := DeriveSubkeySeed(root, label)
	if err != nil {
		return solana.PublicKey{}, "", err
	}
	filePath := ks.subkeyPath(name, label)
	if err := saveSeed(filePath, seed, overwrite); err != nil {
		return solana.PublicKey{}, "", err
	}
	pub, err := PublicKeyFromSeed(seed)
	return pub, filePath, err
}

// LoadSigner resolves a signer from, in order: a hex seed, a key file, or a
// stored name (with optional subkey label).
func (ks *KeyStore) LoadSigner(seedHex, keyFile, name, label string) (*Signer, error) {
	var seed []byte
	var err error
	switch {
	case seedHex != "":
		seed, err = ParseSeedHex(seedHex)
	case keyFile != "":
		seed, err = loadSeed(keyFile)
	case name != "":
		if err := CheckKeyName(name); err != nil {
			return nil, err
		}
		if label == "" {
			seed, err = loadSeed(ks.rootPath(name))
			break
		}
		if err := CheckLabel(label); err != nil {
			return nil, err
		}
		seed, err = loadSeed(ks.subkeyPath(name, label))
	default:
		return nil, errors.New("no signer provided")
	}
	if err != nil {
		return nil, err
	}
	return NewSigner(seed)
}

func (ks *KeyStore) List() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var result []KeyEntry
	for _, name := range names {
		seed, err := loadSeed(ks.rootPath(name))
		if err != nil {
			continue
		}
		pub, err := PublicKeyFromSeed(seed)
		if err != nil {
			continue
		}
		var subkeys []string
		if subEntries, err := os.ReadDir(filepath.Join(ks.Directory, name, "sub")); err == nil {
			for _, e := range subEntries {
				if !e.IsDir() && strings.HasSuffix(e.Name(), ".key") {
					subkeys = append(subkeys, strings.TrimSuffix(e.Name(), ".key"))
				}
			}
			sort.Strings(subkeys)
		}
		result = append(result, KeyEntry{Name: name, PublicKey: pub, Subkeys: subkeys})
	}
	return result, nil
}
