// Package coretest provides a recording Invoker for tests of code that calls
// into MPL Core.
package coretest

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"

	"xdao.co/collauth/mplcore"
	"xdao.co/collauth/pda"
)

// Call is one recorded InvokeSigned.
type Call struct {
	ProgramID solana.PublicKey
	Accounts  []*solana.AccountMeta
	Data      []byte
	Seeds     [][]byte
	// Signer is the address derived from Seeds; zero when the Recorder has no Program.
	Signer solana.PublicKey
}

func (c Call) UpdatePluginV1() (*mplcore.UpdatePluginV1, error) {
	return mplcore.ParseUpdatePluginV1(c.Accounts, c.Data)
}

func (c Call) UpdateV2() (*mplcore.UpdateV2, error) {
	return mplcore.ParseUpdateV2(c.Accounts, c.Data)
}

// Recorder is an mplcore.Invoker that records every call.
//
// When Program is set the seeds are checked the way the host would: they must
// derive a valid address under Program, and that address must sign ix. A
// failing check is returned and the call is not recorded. Err, when set, is
// returned after a call is recorded.
type Recorder struct {
	Program solana.PublicKey
	Err     error

	mu    sync.Mutex
	calls []Call
}

var _ mplcore.Invoker = (*Recorder)(nil)

func (r *Recorder) InvokeSigned(ctx context.Context, ix solana.Instruction, signerSeeds [][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := ix.Data()
	if err != nil {
		return err
	}
	call := Call{
		ProgramID: ix.ProgramID(),
		Data:      data,
	}
	for _, m := range ix.Accounts() {
		cp := *m
		call.Accounts = append(call.Accounts, &cp)
	}
	for _, s := range signerSeeds {
		call.Seeds = append(call.Seeds, append([]byte(nil), s...))
	}
	if !r.Program.IsZero() {
		signer, err := pda.NewSigner(r.Program, signerSeeds...)
		if err != nil {
			return err
		}
		if err := signer.Authorizes(ix); err != nil {
			return err
		}
		call.Signer = signer.Address()
	}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
	return r.Err
}

// Calls returns the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
