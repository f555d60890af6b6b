// Package gateway routes freeze, thaw and update requests for collection
// assets into MPL Core, signed by the collection's CollectionAuthority
// program-derived address.
//
// Every operation runs the same chain: collection checks, record load,
// creator check, then exactly one delegated call. The authority record is
// never written by these operations.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"xdao.co/collauth/accounts"
	"xdao.co/collauth/authority"
	"xdao.co/collauth/cidutil"
	"xdao.co/collauth/mplcore"
	"xdao.co/collauth/runtime"
)

// Config wires a Gateway. Logger may be nil.
type Config struct {
	Program  solana.PublicKey
	Accounts accounts.Store
	Invoker  mplcore.Invoker
	Logger   *zap.Logger
}

type Gateway struct {
	program  solana.PublicKey
	accounts accounts.Store
	records  authority.Registry
	invoker  mplcore.Invoker
	log      *zap.Logger
}

var _ runtime.Handler = (*Gateway)(nil)

func New(cfg Config) (*Gateway, error) {
	switch {
	case cfg.Program.IsZero():
		return nil, errors.New("gateway: program id is required")
	case cfg.Accounts == nil:
		return nil, errors.New("gateway: account store is required")
	case cfg.Invoker == nil:
		return nil, errors.New("gateway: invoker is required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		program:  cfg.Program,
		accounts: cfg.Accounts,
		records:  authority.Registry{Program: cfg.Program, Store: cfg.Accounts},
		invoker:  cfg.Invoker,
		log:      log,
	}, nil
}

func (g *Gateway) Program() solana.PublicKey { return g.program }

// Derive returns the CollectionAuthority address and bump for collection.
func (g *Gateway) Derive(collection solana.PublicKey) (solana.PublicKey, uint8, error) {
	if collection.IsZero() {
		return solana.PublicKey{}, 0, newError(KindInvalidRequest, "collection is required")
	}
	addr, bump, err := g.records.Address(collection)
	if err != nil {
		return solana.PublicKey{}, 0, wrapError(KindInternal, "derive collection authority", err)
	}
	return addr, bump, nil
}

// Handle dispatches a transaction the host has verified and locked.
func (g *Gateway) Handle(ctx context.Context, tx runtime.Transaction) error {
	switch tx.Op {
	case runtime.OpFreeze:
		return g.Freeze(ctx, tx.Authority, tx.Asset, tx.Collection)
	case runtime.OpThaw:
		return g.Thaw(ctx, tx.Authority, tx.Asset, tx.Collection)
	case runtime.OpUpdate:
		return g.Update(ctx, tx.Authority, tx.Asset, tx.Collection, tx.Name, tx.URI)
	default:
		return wrapError(KindInvalidRequest, "unsupported operation", fmt.Errorf("%w: %s", runtime.ErrUnknownOp, tx.Op))
	}
}

// Freeze sets the asset's FreezeDelegate plugin to frozen. The call carries no
// collection, payer or system program.
func (g *Gateway) Freeze(ctx context.Context, caller, asset, collection solana.PublicKey) error {
	rec, addr, err := g.load(ctx, "freeze", caller, asset, collection)
	if err != nil {
		return err
	}
	if err := authority.Authorize(caller, rec); err != nil {
		return wrapError(KindNotAuthorized, "freeze: caller is not the collection creator", err)
	}
	ix, err := mplcore.NewUpdatePluginV1Builder().
		Asset(asset).
		Authority(addr).
		Plugin(mplcore.FreezeDelegatePlugin(true)).
		Build()
	if err != nil {
		return wrapError(KindInternal, "freeze: build call", err)
	}
	return g.invoke(ctx, "freeze", ix, rec, caller, asset)
}

// Thaw clears the asset's frozen flag. Unfreezing may need the protocol to
// resize the asset, so the call carries collection, payer and system program.
func (g *Gateway) Thaw(ctx context.Context, caller, asset, collection solana.PublicKey) error {
	rec, addr, err := g.load(ctx, "thaw", caller, asset, collection)
	if err != nil {
		return err
	}
	if err := authority.Authorize(caller, rec); err != nil {
		return wrapError(KindNotAuthorized, "thaw: caller is not the collection creator", err)
	}
	ix, err := mplcore.NewUpdatePluginV1Builder().
		Asset(asset).
		Collection(collection).
		Payer(caller).
		Authority(addr).
		SystemProgram(solana.SystemProgramID).
		Plugin(mplcore.FreezeDelegatePlugin(false)).
		Build()
	if err != nil {
		return wrapError(KindInternal, "thaw: build call", err)
	}
	return g.invoke(ctx, "thaw", ix, rec, caller, asset)
}

// Update relays newName and newURI to the asset unchanged.
func (g *Gateway) Update(ctx context.Context, caller, asset, collection solana.PublicKey, newName, newURI string) error {
	rec, addr, err := g.load(ctx, "update", caller, asset, collection)
	if err != nil {
		return err
	}
	if err := authority.Authorize(caller, rec); err != nil {
		return wrapError(KindNotAuthorized, "update: caller is not the collection creator", err)
	}
	ix, err := mplcore.NewUpdateV2Builder().
		Asset(asset).
		Collection(collection).
		Payer(caller).
		Authority(addr).
		SystemProgram(solana.SystemProgramID).
		NewName(newName).
		NewURI(newURI).
		Build()
	if err != nil {
		return wrapError(KindInternal, "update: build call", err)
	}
	return g.invoke(ctx, "update", ix, rec, caller, asset)
}

// Bind creates the CollectionAuthority record for an initialized collection.
func (g *Gateway) Bind(ctx context.Context, collection, creator solana.PublicKey) (authority.CollectionAuthority, solana.PublicKey, error) {
	if collection.IsZero() || creator.IsZero() {
		return authority.CollectionAuthority{}, solana.PublicKey{}, newError(KindInvalidRequest, "bind: collection and creator are required")
	}
	if err := g.checkCollection(ctx, "bind", collection); err != nil {
		return authority.CollectionAuthority{}, solana.PublicKey{}, err
	}
	rec, addr, err := g.records.Bind(ctx, collection, creator)
	switch {
	case errors.Is(err, authority.ErrAlreadyBound):
		return authority.CollectionAuthority{}, addr, wrapError(KindCollectionAlreadyInitialized, "bind: collection already has an authority", err)
	case err != nil:
		return authority.CollectionAuthority{}, addr, wrapError(KindInternal, "bind: write record", err)
	}
	g.log.Info("collection authority bound",
		zap.Stringer("collection", collection),
		zap.Stringer("authority", creator),
		zap.Stringer("record", addr),
	)
	return rec, addr, nil
}

// load runs the collection checks and reads the record. It never authorizes;
// each operation does that itself right after load.
func (g *Gateway) load(ctx context.Context, op string, caller, asset, collection solana.PublicKey) (authority.CollectionAuthority, solana.PublicKey, error) {
	g.log.Debug("operation requested",
		zap.String("op", op),
		zap.Stringer("collection", collection),
		zap.Stringer("asset", asset),
		zap.Stringer("authority", caller),
	)
	if asset.IsZero() || collection.IsZero() {
		return authority.CollectionAuthority{}, solana.PublicKey{}, newError(KindInvalidRequest, op+": asset and collection are required")
	}
	if err := g.checkCollection(ctx, op, collection); err != nil {
		return authority.CollectionAuthority{}, solana.PublicKey{}, err
	}
	rec, addr, err := g.records.Load(ctx, collection)
	switch {
	case errors.Is(err, authority.ErrRecordNotFound):
		return authority.CollectionAuthority{}, addr, wrapError(KindAuthorityNotFound, op+": no collection authority", err)
	case errors.Is(err, authority.ErrInvalidRecord):
		return authority.CollectionAuthority{}, addr, wrapError(KindInvalidAuthorityRecord, op+": collection authority record", err)
	case err != nil:
		return authority.CollectionAuthority{}, addr, wrapError(KindInternal, op+": load collection authority", err)
	}
	return rec, addr, nil
}

// checkCollection requires collection to be owned by MPL Core and initialized.
// A missing account has no owner and fails the ownership check.
func (g *Gateway) checkCollection(ctx context.Context, op string, collection solana.PublicKey) error {
	acct, err := g.accounts.Get(ctx, collection)
	if err != nil {
		if accounts.IsNotFound(err) {
			return wrapError(KindInvalidCollection, op+": collection is not an MPL Core account", err)
		}
		return wrapError(KindInternal, op+": read collection", err)
	}
	if !acct.OwnedBy(mplcore.ProgramID) {
		return newError(KindInvalidCollection, fmt.Sprintf("%s: collection is owned by %s", op, acct.Owner))
	}
	if !acct.Initialized() {
		return newError(KindCollectionNotInitialized, op+": collection is not initialized")
	}
	return nil
}

// invoke issues the single delegated call, signed with the record's seeds.
func (g *Gateway) invoke(ctx context.Context, op string, ix solana.Instruction, rec authority.CollectionAuthority, caller, asset solana.PublicKey) error {
	if err := g.invoker.InvokeSigned(ctx, ix, rec.Seeds()); err != nil {
		return wrapError(KindExternalCallFailed, op+": delegated call failed", err)
	}
	fields := []zap.Field{
		zap.String("op", op),
		zap.Stringer("collection", rec.Collection),
		zap.Stringer("asset", asset),
		zap.Stringer("authority", caller),
	}
	if data, err := ix.Data(); err == nil {
		if id, err := cidutil.Sum(data); err == nil {
			fields = append(fields, zap.Stringer("invocation", id))
		}
	}
	g.log.Info("delegated call succeeded", fields...)
	return nil
}
