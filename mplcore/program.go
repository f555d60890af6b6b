package mplcore

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ProgramID is the MPL Core program.
var ProgramID = solana.MustPublicKeyFromBase58("CoREENxT6tW1HoK8ypY1SxRMZTcVPm7R94rH4PZNhX7d")

// Instruction discriminators (first data byte).
const (
	InstructionUpdatePluginV1 uint8 = 6
	InstructionUpdateV2       uint8 = 30
)

var ErrMalformedInstruction = errors.New("mplcore: malformed instruction")

//go:generate mockgen -source=program.go -destination=mocks/invoker.go -package=mocks

// Invoker issues a cross-program call signed by a program-derived address.
//
// signerSeeds is the exact seed tuple of the derived signer; the executing
// environment derives the address from it and treats that address as having
// signed ix. There is no private key.
type Invoker interface {
	InvokeSigned(ctx context.Context, ix solana.Instruction, signerSeeds [][]byte) error
}
