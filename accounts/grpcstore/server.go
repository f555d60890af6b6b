package grpcstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/collauth/accounts"
)

// WriteMode selects which writes a Server accepts. The zero value is ReadOnly.
type WriteMode int

const (
	// ReadOnly serves Get and Has only.
	ReadOnly WriteMode = iota
	// CreateOnly also accepts Create, which never replaces an account.
	CreateOnly
	// ReadWrite also accepts Put. Any client can then rewrite any account,
	// so it must not share a listener with the gateway.
	ReadWrite
)

func (m WriteMode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case CreateOnly:
		return "create-only"
	case ReadWrite:
		return "read-write"
	default:
		return "unknown"
	}
}

// Server exposes an accounts.Store over the Accounts gRPC service.
type Server struct {
	UnimplementedAccountsServer
	Store  accounts.Store
	Writes WriteMode
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	addr, err := solana.PublicKeyFromBase58(in.GetValue())
	if err != nil || addr.IsZero() {
		return nil, status.Error(codes.InvalidArgument, accounts.ErrInvalidAddress.Error())
	}
	acct, err := s.Store.Get(ctx, addr)
	if err != nil {
		return nil, mapErr(err)
	}
	b, err := accounts.Marshal(acct)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode account failed")
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	return s.write(ctx, in, ReadWrite, accounts.Store.Put)
}

func (s *Server) Create(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	return s.write(ctx, in, CreateOnly, accounts.Store.Create)
}

func (s *Server) write(ctx context.Context, in *wrapperspb.BytesValue, need WriteMode, fn func(accounts.Store, context.Context, accounts.Account) error) (*emptypb.Empty, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	if s.Writes < need {
		return nil, mapErr(fmt.Errorf("%w: server is %s", accounts.ErrReadOnly, s.Writes))
	}
	acct, err := accounts.Unmarshal(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := fn(s.Store, ctx, acct); err != nil {
		return nil, mapErr(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	addr, err := solana.PublicKeyFromBase58(in.GetValue())
	if err != nil || addr.IsZero() {
		return nil, status.Error(codes.InvalidArgument, accounts.ErrInvalidAddress.Error())
	}
	return wrapperspb.Bool(s.Store.Has(ctx, addr)), nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, accounts.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, accounts.ErrInvalidAddress):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, accounts.ErrCorrupt):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, accounts.ErrExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, accounts.ErrReadOnly):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
