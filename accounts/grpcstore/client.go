package grpcstore

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/collauth/accounts"
)

// Client implements accounts.Store over an Accounts gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client AccountsClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

var _ accounts.Store = (*Client)(nil)

type DialOptions struct {
	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc), nil
}

// NewClient wraps an existing connection. Close closes cc.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewAccountsClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Get(ctx context.Context, addr solana.PublicKey) (accounts.Account, error) {
	if addr.IsZero() {
		return accounts.Account{}, accounts.ErrInvalidAddress
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.String(addr.String()))
	if err != nil {
		return accounts.Account{}, mapRPC(err)
	}
	acct, err := accounts.Unmarshal(reply.GetValue())
	if err != nil {
		return accounts.Account{}, err
	}
	if acct.Address != addr {
		return accounts.Account{}, accounts.ErrCorrupt
	}
	return acct, nil
}

func (c *Client) Put(ctx context.Context, acct accounts.Account) error {
	if acct.Address.IsZero() {
		return accounts.ErrInvalidAddress
	}
	b, err := accounts.Marshal(acct)
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	_, err = c.client.Put(ctx, wrapperspb.Bytes(b))
	return mapRPC(err)
}

func (c *Client) Create(ctx context.Context, acct accounts.Account) error {
	if acct.Address.IsZero() {
		return accounts.ErrInvalidAddress
	}
	b, err := accounts.Marshal(acct)
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	_, err = c.client.Create(ctx, wrapperspb.Bytes(b))
	return mapRPC(err)
}

// Has reports false when the RPC fails.
func (c *Client) Has(ctx context.Context, addr solana.PublicKey) bool {
	if addr.IsZero() {
		return false
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Has(ctx, wrapperspb.String(addr.String()))
	if err != nil {
		return false
	}
	return reply.GetValue()
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}
