package runtime

import (
	"context"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"xdao.co/collauth/cidutil"
	"xdao.co/collauth/pda"
)

var (
	gatewayID = solana.MustPublicKeyFromBase58("CAuthGateway1111111111111111111111111111111")
	targetID  = solana.MustPublicKeyFromBase58("CoREENxT6tW1HoK8ypY1SxRMZTcVPm7R94rH4PZNhX7d")
)

func key(b byte) solana.PublicKey {
	var pk solana.PublicKey
	for i := range pk {
		pk[i] = b*5 + byte(i)
	}
	return pk
}

type recordingProgram struct {
	id    solana.PublicKey
	err   error
	calls int
	metas []*solana.AccountMeta
	data  []byte
}

func (p *recordingProgram) ID() solana.PublicKey { return p.id }

func (p *recordingProgram) Process(_ context.Context, metas []*solana.AccountMeta, data []byte) error {
	p.calls++
	p.metas, p.data = metas, data
	return p.err
}

func newAuthority(t *testing.T) (solana.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return solana.PublicKeyFromBytes(pub), priv
}

func signedTx(t *testing.T, op Op, collection solana.PublicKey) Transaction {
	t.Helper()
	authority, priv := newAuthority(t)
	tx := Transaction{Op: op, Authority: authority, Asset: key(1), Collection: collection, Name: "n", URI: "u"}
	require.NoError(t, tx.Sign(priv))
	return tx
}

// delegatedCall builds an instruction signed by collection's authority PDA.
func delegatedCall(t *testing.T, collection solana.PublicKey, extra ...*solana.AccountMeta) (solana.Instruction, [][]byte) {
	t.Helper()
	addr, bump, err := pda.DeriveCollectionAuthority(gatewayID, collection)
	require.NoError(t, err)
	metas := append(solana.AccountMetaSlice{
		solana.NewAccountMeta(key(1), true, false),
		solana.NewAccountMeta(addr, false, true),
	}, extra...)
	return solana.NewInstruction(targetID, metas, []byte{1, 2, 3}), pda.CollectionAuthoritySeeds(collection, bump)
}

func TestTransactionSignature(t *testing.T) {
	tx := signedTx(t, OpUpdate, key(2))
	require.NoError(t, tx.Verify())

	tampered := tx
	tampered.URI = "other"
	require.ErrorIs(t, tampered.Verify(), ErrBadSignature)

	tampered = tx
	tampered.Signature = tx.Signature[:10]
	require.ErrorIs(t, tampered.Verify(), ErrBadSignature)

	_, other := newAuthority(t)
	require.Error(t, tx.Sign(other))
}

func TestParseOp(t *testing.T) {
	for _, op := range []Op{OpFreeze, OpThaw, OpUpdate} {
		got, err := ParseOp(op.String())
		require.NoError(t, err)
		require.Equal(t, op, got)
	}
	_, err := ParseOp("mint")
	require.ErrorIs(t, err, ErrUnknownOp)
}

func TestExecuteRejectsBadSignature(t *testing.T) {
	h, err := NewHost(gatewayID)
	require.NoError(t, err)

	tx := signedTx(t, OpFreeze, key(2))
	tx.Signature[0] ^= 1
	called := false
	err = h.Execute(context.Background(), tx, HandlerFunc(func(context.Context, Transaction) error {
		called = true
		return nil
	}))
	require.ErrorIs(t, err, ErrBadSignature)
	require.False(t, called)
}

func TestExecuteTrustedCallersSkipVerification(t *testing.T) {
	h, err := NewHost(gatewayID, WithTrustedCallers())
	require.NoError(t, err)
	tx := Transaction{Op: OpFreeze, Authority: key(9), Asset: key(1), Collection: key(2)}
	require.NoError(t, h.Execute(context.Background(), tx, HandlerFunc(func(context.Context, Transaction) error { return nil })))
}

func TestExecuteLockConflictIsHardFailure(t *testing.T) {
	h, err := NewHost(gatewayID, WithTrustedCallers())
	require.NoError(t, err)
	ctx := context.Background()
	collection := key(2)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		tx := Transaction{Op: OpFreeze, Authority: key(9), Asset: key(1), Collection: collection}
		done <- h.Execute(ctx, tx, HandlerFunc(func(context.Context, Transaction) error {
			close(entered)
			<-release
			return nil
		}))
	}()
	<-entered

	// Same collection, different asset: the collection and record locks conflict.
	tx := Transaction{Op: OpThaw, Authority: key(9), Asset: key(3), Collection: collection}
	err = h.Execute(ctx, tx, HandlerFunc(func(context.Context, Transaction) error {
		t.Fatal("handler must not run while the collection is locked")
		return nil
	}))
	require.ErrorIs(t, err, ErrAccountInUse)

	// Unrelated collection and asset proceed.
	tx = Transaction{Op: OpThaw, Authority: key(9), Asset: key(4), Collection: key(5)}
	require.NoError(t, h.Execute(ctx, tx, HandlerFunc(func(context.Context, Transaction) error { return nil })))

	close(release)
	require.NoError(t, <-done)

	tx = Transaction{Op: OpThaw, Authority: key(9), Asset: key(3), Collection: collection}
	require.NoError(t, h.Execute(ctx, tx, HandlerFunc(func(context.Context, Transaction) error { return nil })), "locks are released")
}

func TestInvokeSignedOutsideTransaction(t *testing.T) {
	h, err := NewHost(gatewayID)
	require.NoError(t, err)
	ix, seeds := delegatedCall(t, key(2))
	require.ErrorIs(t, h.InvokeSigned(context.Background(), ix, seeds), ErrNoInvocation)
}

func runInvoke(t *testing.T, h *Host, tx Transaction, ix solana.Instruction, seeds [][]byte) error {
	t.Helper()
	var invokeErr error
	err := h.Execute(context.Background(), tx, HandlerFunc(func(ctx context.Context, _ Transaction) error {
		invokeErr = h.InvokeSigned(ctx, ix, seeds)
		return invokeErr
	}))
	require.Equal(t, invokeErr, err)
	return err
}

func TestInvokeSignedDeliversAndJournals(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := NewHost(gatewayID, WithTrustedCallers(), WithRegisterer("test", reg))
	require.NoError(t, err)
	prog := &recordingProgram{id: targetID}
	require.NoError(t, h.Register(prog))

	collection := key(2)
	tx := Transaction{Op: OpFreeze, Authority: key(9), Asset: key(1), Collection: collection}
	ix, seeds := delegatedCall(t, collection, solana.NewAccountMeta(tx.Authority, true, true))
	require.NoError(t, runInvoke(t, h, tx, ix, seeds))
	require.Equal(t, 1, prog.calls)
	require.Equal(t, []byte{1, 2, 3}, prog.data)

	entries := h.Journal().Entries()
	require.Len(t, entries, 1)
	require.Equal(t, targetID, entries[0].Program)
	got, ok := h.Journal().Lookup(entries[0].ID)
	require.True(t, ok)
	require.Equal(t, entries[0].Signer, got.Signer)
	require.True(t, entries[0].ID.Defined())
	require.False(t, cidutil.Verify(entries[0].ID, []byte{1, 2, 3}), "id covers more than data")

	require.Equal(t, 1.0, testutil.ToFloat64(h.metrics.invocations.WithLabelValues(targetID.String(), outcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(h.metrics.operations.WithLabelValues("freeze", outcomeOK)))
}

func TestInvokeSignedRejectsWrongSeeds(t *testing.T) {
	h, err := NewHost(gatewayID, WithTrustedCallers())
	require.NoError(t, err)
	prog := &recordingProgram{id: targetID}
	require.NoError(t, h.Register(prog))

	collection := key(2)
	ix, _ := delegatedCall(t, collection)
	_, otherBump, err := pda.DeriveCollectionAuthority(gatewayID, key(6))
	require.NoError(t, err)

	tx := Transaction{Op: OpFreeze, Authority: key(9), Asset: key(1), Collection: collection}
	err = runInvoke(t, h, tx, ix, pda.CollectionAuthoritySeeds(key(6), otherBump))
	require.ErrorIs(t, err, ErrSignerMismatch)
	require.Zero(t, prog.calls)
	require.Zero(t, h.Journal().Len())
}

func TestInvokeSignedRejectsForeignSigner(t *testing.T) {
	h, err := NewHost(gatewayID, WithTrustedCallers())
	require.NoError(t, err)
	prog := &recordingProgram{id: targetID}
	require.NoError(t, h.Register(prog))

	collection := key(2)
	ix, seeds := delegatedCall(t, collection, solana.NewAccountMeta(key(7), true, true))
	tx := Transaction{Op: OpThaw, Authority: key(9), Asset: key(1), Collection: collection}
	require.ErrorIs(t, runInvoke(t, h, tx, ix, seeds), ErrMissingSignature)
	require.Zero(t, prog.calls)
}

func TestInvokeSignedUnknownProgram(t *testing.T) {
	h, err := NewHost(gatewayID, WithTrustedCallers())
	require.NoError(t, err)
	collection := key(2)
	ix, seeds := delegatedCall(t, collection)
	tx := Transaction{Op: OpFreeze, Authority: key(9), Asset: key(1), Collection: collection}
	require.ErrorIs(t, runInvoke(t, h, tx, ix, seeds), ErrProgramNotFound)
}

func TestInvokeSignedPropagatesProgramFailure(t *testing.T) {
	h, err := NewHost(gatewayID, WithTrustedCallers())
	require.NoError(t, err)
	boom := errors.New("constraint violated")
	require.NoError(t, h.Register(&recordingProgram{id: targetID, err: boom}))

	collection := key(2)
	ix, seeds := delegatedCall(t, collection)
	tx := Transaction{Op: OpFreeze, Authority: key(9), Asset: key(1), Collection: collection}
	require.ErrorIs(t, runInvoke(t, h, tx, ix, seeds), boom)
	require.Zero(t, h.Journal().Len())
}

func TestInvokeSignedCallLimit(t *testing.T) {
	h, err := NewHost(gatewayID, WithTrustedCallers())
	require.NoError(t, err)
	prog := &recordingProgram{id: targetID}
	require.NoError(t, h.Register(prog))

	collection := key(2)
	ix, seeds := delegatedCall(t, collection)
	tx := Transaction{Op: OpFreeze, Authority: key(9), Asset: key(1), Collection: collection}
	err = h.Execute(context.Background(), tx, HandlerFunc(func(ctx context.Context, _ Transaction) error {
		if err := h.InvokeSigned(ctx, ix, seeds); err != nil {
			return err
		}
		return h.InvokeSigned(ctx, ix, seeds)
	}))
	require.ErrorIs(t, err, ErrCallLimit)
	require.Equal(t, 1, prog.calls)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	h, err := NewHost(gatewayID)
	require.NoError(t, err)
	require.NoError(t, h.Register(&recordingProgram{id: targetID}))
	require.Error(t, h.Register(&recordingProgram{id: targetID}))
	require.Error(t, h.Register(&recordingProgram{}))
}
