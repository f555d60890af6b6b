package runtime

import "errors"

var (
	ErrBadSignature     = errors.New("runtime: transaction signature does not verify")
	ErrAccountInUse     = errors.New("runtime: account is locked by another transaction")
	ErrSignerMismatch   = errors.New("runtime: signer seeds do not derive an instruction signer")
	ErrMissingSignature = errors.New("runtime: instruction requires a signature the transaction lacks")
	ErrProgramNotFound  = errors.New("runtime: program not found")
	ErrNoInvocation     = errors.New("runtime: cross-program call outside a transaction")
	ErrCallLimit        = errors.New("runtime: cross-program call limit reached")
	ErrUnknownOp        = errors.New("runtime: unknown operation")
)
