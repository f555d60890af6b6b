package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"xdao.co/collauth/mplcore"
	"xdao.co/collauth/pda"
)

// DefaultCallLimit is the number of cross-program calls one transaction may make.
const DefaultCallLimit = 1

// Handler executes a verified transaction while its accounts are locked.
type Handler interface {
	Handle(ctx context.Context, tx Transaction) error
}

type HandlerFunc func(ctx context.Context, tx Transaction) error

func (f HandlerFunc) Handle(ctx context.Context, tx Transaction) error { return f(ctx, tx) }

// Program is a call target reachable through InvokeSigned. Signer flags on
// metas have already been checked by the host.
type Program interface {
	ID() solana.PublicKey
	Process(ctx context.Context, metas []*solana.AccountMeta, data []byte) error
}

// Host runs transactions on behalf of one calling program.
type Host struct {
	program   solana.PublicKey
	trusted   bool
	callLimit int
	log       *zap.Logger
	journal   *Journal
	metrics   *metrics
	locks     *lockTable
	now       func() time.Time

	mu       sync.RWMutex
	programs map[solana.PublicKey]Program
}

var _ mplcore.Invoker = (*Host)(nil)

type Option func(*hostOptions)

type hostOptions struct {
	trusted    bool
	callLimit  int
	log        *zap.Logger
	journal    *Journal
	registerer prometheus.Registerer
	namespace  string
}

// WithTrustedCallers skips signature verification. For in-process callers
// that have already authenticated Authority.
func WithTrustedCallers() Option { return func(o *hostOptions) { o.trusted = true } }

func WithLogger(log *zap.Logger) Option { return func(o *hostOptions) { o.log = log } }

func WithJournal(j *Journal) Option { return func(o *hostOptions) { o.journal = j } }

func WithCallLimit(n int) Option { return func(o *hostOptions) { o.callLimit = n } }

// WithRegisterer registers the host metrics under namespace.
func WithRegisterer(namespace string, r prometheus.Registerer) Option {
	return func(o *hostOptions) {
		o.namespace = namespace
		o.registerer = r
	}
}

// NewHost returns a Host for program. Without WithRegisterer metrics go to a
// private registry.
func NewHost(program solana.PublicKey, opts ...Option) (*Host, error) {
	if program.IsZero() {
		return nil, fmt.Errorf("runtime: program id is required")
	}
	o := hostOptions{callLimit: DefaultCallLimit, namespace: "collauth"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.journal == nil {
		o.journal = NewJournal(DefaultJournalLimit)
	}
	if o.registerer == nil {
		o.registerer = prometheus.NewRegistry()
	}
	m, err := newMetrics(o.namespace, o.registerer)
	if err != nil {
		return nil, fmt.Errorf("runtime: register metrics: %w", err)
	}
	return &Host{
		program:   program,
		trusted:   o.trusted,
		callLimit: o.callLimit,
		log:       o.log,
		journal:   o.journal,
		metrics:   m,
		locks:     newLockTable(),
		now:       time.Now,
		programs:  make(map[solana.PublicKey]Program),
	}, nil
}

func (h *Host) ProgramID() solana.PublicKey { return h.program }

func (h *Host) Journal() *Journal { return h.journal }

// Register makes p reachable through InvokeSigned.
func (h *Host) Register(p Program) error {
	id := p.ID()
	if id.IsZero() {
		return fmt.Errorf("runtime: program id is required")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.programs[id]; dup {
		return fmt.Errorf("runtime: program %s already registered", id)
	}
	h.programs[id] = p
	return nil
}

type invocationKey struct{}

type invocation struct {
	signers map[solana.PublicKey]bool
	mu      sync.Mutex
	calls   int
}

// Execute verifies tx, locks the collection, the asset and the collection's
// authority record, and runs handler. Locks are released when handler returns.
func (h *Host) Execute(ctx context.Context, tx Transaction, handler Handler) (err error) {
	defer func() {
		h.metrics.operations.WithLabelValues(tx.Op.String(), outcome(err)).Inc()
	}()
	if !h.trusted {
		if err := tx.Verify(); err != nil {
			return err
		}
	}
	record, _, err := pda.DeriveCollectionAuthority(h.program, tx.Collection)
	if err != nil {
		return err
	}
	unlock, err := h.locks.tryLock(tx.Collection, tx.Asset, record)
	if err != nil {
		return err
	}
	defer unlock()

	inv := &invocation{signers: map[solana.PublicKey]bool{tx.Authority: true}}
	return handler.Handle(context.WithValue(ctx, invocationKey{}, inv), tx)
}

// InvokeSigned runs ix on its target program with the address derived from
// signerSeeds under the host program as an extra signer. Every other signer
// account of ix must have signed the enclosing transaction.
func (h *Host) InvokeSigned(ctx context.Context, ix solana.Instruction, signerSeeds [][]byte) (err error) {
	target := ix.ProgramID()
	defer func() {
		h.metrics.invocations.WithLabelValues(target.String(), outcome(err)).Inc()
	}()

	inv, ok := ctx.Value(invocationKey{}).(*invocation)
	if !ok {
		return ErrNoInvocation
	}
	inv.mu.Lock()
	if inv.calls >= h.callLimit {
		inv.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrCallLimit, h.callLimit)
	}
	inv.calls++
	inv.mu.Unlock()

	signer, err := pda.NewSigner(h.program, signerSeeds...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignerMismatch, err)
	}
	if err := signer.Authorizes(ix); err != nil {
		return fmt.Errorf("%w: %v", ErrSignerMismatch, err)
	}
	metas := ix.Accounts()
	addrs := make([]solana.PublicKey, 0, len(metas))
	for _, m := range metas {
		addrs = append(addrs, m.PublicKey)
		if m.IsSigner && !m.PublicKey.Equals(signer.Address()) && !inv.signers[m.PublicKey] {
			return fmt.Errorf("%w: %s", ErrMissingSignature, m.PublicKey)
		}
	}

	h.mu.RLock()
	prog, ok := h.programs[target]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, target)
	}
	data, err := ix.Data()
	if err != nil {
		return err
	}
	if err := prog.Process(ctx, metas, data); err != nil {
		return err
	}

	id, err := entryID(target, signer.Address(), addrs, data)
	if err != nil {
		return err
	}
	h.journal.append(Entry{
		ID:       id,
		Program:  target,
		Signer:   signer.Address(),
		Accounts: addrs,
		Data:     append([]byte(nil), data...),
		At:       h.now(),
	})
	h.log.Debug("cross-program call",
		zap.Stringer("program", target),
		zap.Stringer("signer", signer.Address()),
		zap.Stringer("invocation", id),
	)
	return nil
}
