package grpcgate

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/collauth/runtime"
)

// Client submits signed transactions to a Gateway service.
type Client struct {
	cc     *grpc.ClientConn
	client GatewayClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

func Dial(target string) (*Client, error) {
	cc, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return NewClient(cc), nil
}

// NewClient wraps an existing connection. Close closes cc.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewGatewayClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Submit sends a signed transaction and returns the server's request id.
func (c *Client) Submit(ctx context.Context, tx runtime.Transaction) (string, error) {
	in, err := EncodeTransaction(tx)
	if err != nil {
		return "", err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	var trailer metadata.MD
	var out *structpb.Struct
	switch tx.Op {
	case runtime.OpFreeze:
		out, err = c.client.Freeze(ctx, in, grpc.Trailer(&trailer))
	case runtime.OpThaw:
		out, err = c.client.Thaw(ctx, in, grpc.Trailer(&trailer))
	case runtime.OpUpdate:
		out, err = c.client.Update(ctx, in, grpc.Trailer(&trailer))
	default:
		return "", fmt.Errorf("%w: %s", runtime.ErrUnknownOp, tx.Op)
	}
	if err != nil {
		return "", fromStatus(err, trailer)
	}
	return out.GetFields()[fieldRequestID].GetStringValue(), nil
}

// Derive asks the server for the CollectionAuthority address of collection.
func (c *Client) Derive(ctx context.Context, collection solana.PublicKey) (solana.PublicKey, uint8, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	var trailer metadata.MD
	out, err := c.client.Derive(ctx, wrapperspb.String(collection.String()), grpc.Trailer(&trailer))
	if err != nil {
		return solana.PublicKey{}, 0, fromStatus(err, trailer)
	}
	fields := out.GetFields()
	addr, err := solana.PublicKeyFromBase58(fields[fieldAddress].GetStringValue())
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive: bad address in response: %w", err)
	}
	bump := fields[fieldBump].GetNumberValue()
	if bump < 0 || bump > 255 {
		return solana.PublicKey{}, 0, fmt.Errorf("derive: bump %v out of range", bump)
	}
	return addr, uint8(bump), nil
}

func (c *Client) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.Timeout)
}
