package grpcgate

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/collauth/gateway"
	"xdao.co/collauth/runtime"
)

// Server exposes a Gateway running inside a Host over gRPC.
type Server struct {
	UnimplementedGatewayServer
	Host    *runtime.Host
	Gateway *gateway.Gateway
	Logger  *zap.Logger
}

func (s *Server) Freeze(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.execute(ctx, runtime.OpFreeze, in)
}

func (s *Server) Thaw(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.execute(ctx, runtime.OpThaw, in)
}

func (s *Server) Update(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.execute(ctx, runtime.OpUpdate, in)
}

func (s *Server) Derive(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if s == nil || s.Gateway == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing gateway")
	}
	collection, err := solana.PublicKeyFromBase58(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "collection must be a base58 public key")
	}
	addr, bump, err := s.Gateway.Derive(collection)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]any{
		fieldAddress: addr.String(),
		fieldBump:    float64(bump),
	})
}

func (s *Server) execute(ctx context.Context, op runtime.Op, in *structpb.Struct) (*structpb.Struct, error) {
	if s == nil || s.Host == nil || s.Gateway == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing host or gateway")
	}
	requestID := uuid.NewString()
	log := s.logger().With(zap.String("request_id", requestID), zap.Stringer("op", op))

	tx, err := DecodeTransaction(op, in)
	if err != nil {
		log.Info("rejected request", zap.Error(err))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.Host.Execute(ctx, tx, s.Gateway); err != nil {
		log.Warn("operation failed",
			zap.Stringer("collection", tx.Collection),
			zap.Stringer("asset", tx.Asset),
			zap.Stringer("authority", tx.Authority),
			zap.String("kind", string(gateway.KindOf(err))),
			zap.Error(err),
		)
		return nil, toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]any{fieldRequestID: requestID})
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
