package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/pflag"

	"xdao.co/collauth/accounts"
	"xdao.co/collauth/accounts/registry"
	"xdao.co/collauth/accounts/storeconfig"
	"xdao.co/collauth/authority"
	"xdao.co/collauth/config"
	"xdao.co/collauth/gateway"
	"xdao.co/collauth/gateway/grpcgate"
	"xdao.co/collauth/keys"
	"xdao.co/collauth/mplcore"
	"xdao.co/collauth/mplcore/coresim"
	"xdao.co/collauth/pda"
	"xdao.co/collauth/runtime"

	_ "xdao.co/collauth/accounts/grpcstore"
	_ "xdao.co/collauth/accounts/localfs"
	_ "xdao.co/collauth/accounts/sqlite"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "derive":
		return cmdDerive(args[1:], out, errOut)
	case "init-collection":
		return cmdInitCollection(args[1:], out, errOut)
	case "inspect":
		return cmdInspect(args[1:], out, errOut)
	case "freeze":
		return cmdSubmit(runtime.OpFreeze, args[1:], out, errOut)
	case "thaw":
		return cmdSubmit(runtime.OpThaw, args[1:], out, errOut)
	case "update":
		return cmdSubmit(runtime.OpUpdate, args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "collauth: collection authority gateway CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  collauth key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  collauth key derive --from <name> --label <label> [--force]")
	fmt.Fprintln(w, "  collauth key list")
	fmt.Fprintln(w, "  collauth key export --name <name> [--label <label>] [--solana]")
	fmt.Fprintln(w, "  collauth derive --collection <pubkey> [--program-id <pubkey>]")
	fmt.Fprintln(w, "  collauth init-collection [--collection <pubkey>] --signer <name> [--name <n>] [--uri <u>] (--backend <b> | --store-config <file>)")
	fmt.Fprintln(w, "  collauth inspect --address <pubkey> (--backend <b> | --store-config <file>)")
	fmt.Fprintln(w, "  collauth freeze|thaw --asset <pubkey> --collection <pubkey> <signer> [--target host:port]")
	fmt.Fprintln(w, "  collauth update --asset <pubkey> --collection <pubkey> --new-name <n> --new-uri <u> <signer> [--target host:port]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Signer flags: --seed-hex <64hex> | --key-file <path> | --signer <name> [--signer-label <label>]")
	fmt.Fprintln(w, "Keys live under ~/.collauth/keys unless --keys-dir is set.")
}

type signerFlags struct {
	keysDir string
	seedHex string
	keyFile string
	name    string
	label   string
}

func (s *signerFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&s.keysDir, "keys-dir", "", "key store directory (default ~/.collauth/keys)")
	fs.StringVar(&s.seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars")
	fs.StringVar(&s.keyFile, "key-file", "", "path to a seed file")
	fs.StringVar(&s.name, "signer", "", "stored key name")
	fs.StringVar(&s.label, "signer-label", "", "subkey label of --signer")
}

func (s *signerFlags) load() (*keys.Signer, error) {
	ks, err := keys.CreateKeyStore(s.keysDir)
	if err != nil {
		return nil, err
	}
	return ks.LoadSigner(s.seedHex, s.keyFile, s.name, s.label)
}

type storeFlags struct {
	backend     string
	storeConfig string
}

func (s *storeFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&s.backend, "backend", "localfs", "account store backend name")
	fs.StringVar(&s.storeConfig, "store-config", "", "account store config file (YAML or JSON)")
	registry.RegisterFlags(fs, registry.UsageCLI)
}

func (s *storeFlags) open() (accounts.Store, func() error, error) {
	return storeconfig.OpenFileOrBackend(s.storeConfig, s.backend, registry.UsageCLI)
}

func parseKey(flagName, v string) (solana.PublicKey, error) {
	if v == "" {
		return solana.PublicKey{}, fmt.Errorf("missing --%s", flagName)
	}
	pk, err := solana.PublicKeyFromBase58(v)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid --%s: %w", flagName, err)
	}
	return pk, nil
}

func programFlag(fs *pflag.FlagSet) *string {
	return fs.String("program-id", config.DefaultProgramID, "gateway program id")
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}
	fs := pflag.NewFlagSet("key "+args[0], pflag.ContinueOnError)
	fs.SetOutput(errOut)
	keysDir := fs.String("keys-dir", "", "key store directory (default ~/.collauth/keys)")
	var name, from, label, seedHex string
	var force, solanaFmt bool

	switch args[0] {
	case "init":
		fs.StringVar(&name, "name", "", "key name")
		fs.StringVar(&seedHex, "seed-hex", "", "optional ed25519 seed as 64 hex chars (for reproducible demos)")
		fs.BoolVar(&force, "force", false, "overwrite existing key files")
	case "derive":
		fs.StringVar(&from, "from", "", "root key name")
		fs.StringVar(&label, "label", "", "subkey label (e.g. a collection nickname)")
		fs.BoolVar(&force, "force", false, "overwrite existing key files")
	case "export":
		fs.StringVar(&name, "name", "", "key name")
		fs.StringVar(&label, "label", "", "optional subkey label")
		fs.BoolVar(&solanaFmt, "solana", false, "print the base58 64-byte private key instead of the public key")
	case "list":
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	ks, err := keys.CreateKeyStore(*keysDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	switch args[0] {
	case "init":
		if name == "" {
			fmt.Fprintln(errOut, "missing --name")
			return 2
		}
		var pub solana.PublicKey
		var path string
		if seedHex != "" {
			seed, err := keys.ParseSeedHex(seedHex)
			if err != nil {
				fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", err)
				return 2
			}
			pub, path, err = ks.Import(name, seed, force)
		} else {
			pub, path, err = ks.Generate(name, force)
		}
		if err != nil {
			fmt.Fprintf(errOut, "write key: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "Created key: %s\n", pub)
		fmt.Fprintf(out, "Stored at: %s\n", path)
	case "derive":
		if from == "" || label == "" {
			fmt.Fprintln(errOut, "missing --from or --label")
			return 2
		}
		pub, path, err := ks.DeriveSubkey(from, label, force)
		if err != nil {
			fmt.Fprintf(errOut, "derive subkey: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "Created subkey: %s\n", pub)
		fmt.Fprintf(out, "Stored at: %s\n", path)
	case "export":
		if name == "" {
			fmt.Fprintln(errOut, "missing --name")
			return 2
		}
		s, err := ks.LoadSigner("", "", name, label)
		if err != nil {
			fmt.Fprintf(errOut, "export key: %v\n", err)
			return 1
		}
		if solanaFmt {
			fmt.Fprintln(out, s.Solana().String())
			return 0
		}
		fmt.Fprintln(out, s.PublicKey())
	case "list":
		entries, err := ks.List()
		if err != nil {
			fmt.Fprintf(errOut, "list keys: %v\n", err)
			return 1
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s\t%s\n", e.Name, e.PublicKey)
			for _, l := range e.Subkeys {
				fmt.Fprintf(out, "  - %s\n", l)
			}
		}
	}
	return 0
}

func cmdDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := pflag.NewFlagSet("derive", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	collectionStr := fs.String("collection", "", "collection address")
	programStr := programFlag(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	collection, err := parseKey("collection", *collectionStr)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	program, err := parseKey("program-id", *programStr)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	addr, bump, err := pda.DeriveCollectionAuthority(program, collection)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "address: %s\nbump: %d\n", addr, bump)
	return 0
}

// cmdInitCollection writes a Core collection whose update authority is the
// collection's authority PDA, then binds the signer as its creator. An existing
// collection account is left untouched.
func cmdInitCollection(args []string, out io.Writer, errOut io.Writer) int {
	fs := pflag.NewFlagSet("init-collection", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	collectionStr := fs.String("collection", "", "collection address (random if empty)")
	name := fs.String("name", "", "collection name")
	uri := fs.String("uri", "", "collection URI")
	programStr := programFlag(fs)
	var signer signerFlags
	signer.register(fs)
	var sf storeFlags
	sf.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	program, err := parseKey("program-id", *programStr)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	var collection solana.PublicKey
	if *collectionStr == "" {
		if _, err := rand.Read(collection[:]); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	} else if collection, err = parseKey("collection", *collectionStr); err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	creator, err := signer.load()
	if err != nil {
		fmt.Fprintf(errOut, "signer: %v\n", err)
		return 2
	}

	store, closeStore, err := sf.open()
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 1
	}
	if closeStore != nil {
		defer func() { _ = closeStore() }()
	}

	host, err := runtime.NewHost(program)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	gw, err := gateway.New(gateway.Config{Program: program, Accounts: store, Invoker: host})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	ctx := context.Background()
	recordAddr, _, err := gw.Derive(collection)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	coll := mplcore.CollectionV1{UpdateAuthority: recordAddr, Name: *name, URI: *uri}
	switch err := coresim.CreateCollection(ctx, store, collection, coll); {
	case accounts.IsExists(err):
		fmt.Fprintf(out, "collection %s exists; keeping it\n", collection)
	case err != nil:
		fmt.Fprintf(errOut, "create collection: %v\n", err)
		return 1
	}
	rec, addr, err := gw.Bind(ctx, collection, creator.PublicKey())
	if err != nil {
		fmt.Fprintf(errOut, "bind: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "collection: %s\n", rec.Collection)
	fmt.Fprintf(out, "creator: %s\n", rec.Creator)
	fmt.Fprintf(out, "authority: %s (bump %d)\n", addr, rec.Bump)
	return 0
}

func cmdInspect(args []string, out io.Writer, errOut io.Writer) int {
	fs := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	addrStr := fs.String("address", "", "account address")
	var sf storeFlags
	sf.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	addr, err := parseKey("address", *addrStr)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	store, closeStore, err := sf.open()
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 1
	}
	if closeStore != nil {
		defer func() { _ = closeStore() }()
	}

	acct, err := store.Get(context.Background(), addr)
	if err != nil {
		fmt.Fprintf(errOut, "get %s: %v\n", addr, err)
		return 1
	}
	fmt.Fprintf(out, "address: %s\nowner: %s\nbytes: %d\n", acct.Address, acct.Owner, len(acct.Data))
	if !acct.Initialized() {
		return 0
	}
	if acct.OwnedBy(mplcore.ProgramID) {
		switch mplcore.Key(acct.Data[0]) {
		case mplcore.KeyAssetV1:
			if a, err := mplcore.DecodeAssetV1(acct.Data); err == nil {
				fmt.Fprintf(out, "asset: name=%q uri=%q frozen=%t collection=%s\n", a.Name, a.URI, a.Frozen, a.UpdateAuthority)
			}
		case mplcore.KeyCollectionV1:
			if c, err := mplcore.DecodeCollectionV1(acct.Data); err == nil {
				fmt.Fprintf(out, "collection: name=%q uri=%q update_authority=%s\n", c.Name, c.URI, c.UpdateAuthority)
			}
		}
		return 0
	}
	if rec, err := authority.Decode(acct.Data); err == nil {
		fmt.Fprintf(out, "collection_authority: collection=%s creator=%s bump=%d\n", rec.Collection, rec.Creator, rec.Bump)
	}
	return 0
}

func cmdSubmit(op runtime.Op, args []string, out io.Writer, errOut io.Writer) int {
	fs := pflag.NewFlagSet(op.String(), pflag.ContinueOnError)
	fs.SetOutput(errOut)
	target := fs.String("target", "127.0.0.1:7450", "collauthd gRPC address")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	assetStr := fs.String("asset", "", "asset address")
	collectionStr := fs.String("collection", "", "collection address")
	var newName, newURI *string
	if op == runtime.OpUpdate {
		newName = fs.String("new-name", "", "new asset name (sent verbatim)")
		newURI = fs.String("new-uri", "", "new asset URI (sent verbatim)")
	}
	var signer signerFlags
	signer.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	asset, err := parseKey("asset", *assetStr)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	collection, err := parseKey("collection", *collectionStr)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	s, err := signer.load()
	if err != nil {
		fmt.Fprintf(errOut, "signer: %v\n", err)
		return 2
	}

	tx := runtime.Transaction{Op: op, Asset: asset, Collection: collection}
	if op == runtime.OpUpdate {
		if !fs.Changed("new-name") || !fs.Changed("new-uri") {
			fmt.Fprintln(errOut, "update requires --new-name and --new-uri")
			return 2
		}
		tx.Name, tx.URI = *newName, *newURI
	}
	if err := s.SignTransaction(&tx); err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}

	client, err := grpcgate.Dial(*target)
	if err != nil {
		fmt.Fprintf(errOut, "dial %s: %v\n", *target, err)
		return 1
	}
	defer client.Close()
	client.Timeout = *timeout

	requestID, err := client.Submit(context.Background(), tx)
	if err != nil {
		if kind := gateway.KindOf(err); kind != "" {
			fmt.Fprintf(errOut, "%s failed: %s (code %d): %v\n", op, kind, gateway.CodeOf(err), err)
		} else {
			fmt.Fprintf(errOut, "%s failed: %v\n", op, err)
		}
		return 1
	}
	fmt.Fprintf(out, "%s ok (request %s)\n", op, requestID)
	return 0
}
