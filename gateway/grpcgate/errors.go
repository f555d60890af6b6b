package grpcgate

import (
	"context"
	"errors"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"xdao.co/collauth/gateway"
	"xdao.co/collauth/runtime"
)

// errorCodeKey is the trailer carrying the gateway program error code.
const errorCodeKey = "collauth-error-code"

func statusCode(err error) codes.Code {
	switch gateway.KindOf(err) {
	case gateway.KindNotAuthorized:
		return codes.PermissionDenied
	case gateway.KindInvalidCollection, gateway.KindInvalidRequest:
		return codes.InvalidArgument
	case gateway.KindCollectionNotInitialized, gateway.KindInvalidAuthorityRecord:
		return codes.FailedPrecondition
	case gateway.KindCollectionAlreadyInitialized:
		return codes.AlreadyExists
	case gateway.KindAuthorityNotFound:
		return codes.NotFound
	case gateway.KindExternalCallFailed:
		return codes.Aborted
	case gateway.KindInternal:
		return codes.Internal
	}
	switch {
	case errors.Is(err, runtime.ErrBadSignature):
		return codes.Unauthenticated
	case errors.Is(err, runtime.ErrAccountInUse):
		return codes.Aborted
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// toStatus converts err and attaches its program error code as a trailer.
func toStatus(ctx context.Context, err error) error {
	if code := gateway.CodeOf(err); code != 0 {
		_ = grpc.SetTrailer(ctx, metadata.Pairs(errorCodeKey, strconv.FormatUint(uint64(code), 10)))
	}
	return status.Error(statusCode(err), err.Error())
}

// fromStatus rebuilds a *gateway.Error when the trailer names a known code.
// Signature and lock failures come back as their runtime sentinels.
func fromStatus(err error, trailer metadata.MD) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if vals := trailer.Get(errorCodeKey); len(vals) > 0 {
		if n, perr := strconv.ParseUint(vals[0], 10, 32); perr == nil {
			if kind, ok := gateway.KindForCode(uint32(n)); ok {
				return &gateway.Error{Kind: kind, Code: uint32(n), Message: st.Message(), Cause: err}
			}
		}
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return errors.Join(runtime.ErrBadSignature, err)
	case codes.Aborted:
		return errors.Join(runtime.ErrAccountInUse, err)
	default:
		return err
	}
}
