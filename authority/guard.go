package authority

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Authorize succeeds iff caller is the recorded creator of rec.
func Authorize(caller solana.PublicKey, rec CollectionAuthority) error {
	if caller.IsZero() || !caller.Equals(rec.Creator) {
		return fmt.Errorf("%w: %s on collection %s", ErrNotAuthorized, caller, rec.Collection)
	}
	return nil
}
