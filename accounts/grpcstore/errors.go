package grpcstore

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/collauth/accounts"
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return accounts.ErrNotFound
	case codes.InvalidArgument:
		// Server uses InvalidArgument for malformed or zero addresses.
		return accounts.ErrInvalidAddress
	case codes.DataLoss:
		return accounts.ErrCorrupt
	case codes.AlreadyExists:
		return accounts.ErrExists
	case codes.PermissionDenied:
		return accounts.ErrReadOnly
	default:
		return err
	}
}
