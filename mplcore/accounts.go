package mplcore

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Both instructions share one fixed account layout. An absent optional account
// is encoded as ProgramID.
const (
	accountAsset = iota
	accountCollection
	accountPayer
	accountAuthority
	accountSystemProgram
	numAccounts
)

func requiredMeta(pk solana.PublicKey, writable, signer bool) *solana.AccountMeta {
	return solana.NewAccountMeta(pk, writable, signer)
}

func optionalMeta(pk *solana.PublicKey, writable, signer bool) *solana.AccountMeta {
	if pk == nil {
		return solana.NewAccountMeta(ProgramID, false, false)
	}
	return solana.NewAccountMeta(*pk, writable, signer)
}

func optionalKey(meta *solana.AccountMeta) *solana.PublicKey {
	if meta == nil || meta.PublicKey.Equals(ProgramID) {
		return nil
	}
	pk := meta.PublicKey
	return &pk
}

func checkAccounts(metas []*solana.AccountMeta) error {
	if len(metas) != numAccounts {
		return fmt.Errorf("%w: %d accounts, want %d", ErrMalformedInstruction, len(metas), numAccounts)
	}
	for i, m := range metas {
		if m == nil {
			return fmt.Errorf("%w: account %d missing", ErrMalformedInstruction, i)
		}
	}
	if metas[accountAsset].PublicKey.Equals(ProgramID) {
		return fmt.Errorf("%w: asset is required", ErrMalformedInstruction)
	}
	return nil
}

func keyPtr(pk solana.PublicKey) *solana.PublicKey { return &pk }
