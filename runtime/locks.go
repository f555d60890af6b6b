package runtime

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// lockTable grants exclusive write locks on account addresses.
type lockTable struct {
	mu   sync.Mutex
	held map[solana.PublicKey]struct{}
}

func newLockTable() *lockTable {
	return &lockTable{held: make(map[solana.PublicKey]struct{})}
}

// tryLock takes every address or none. The returned func releases them.
func (l *lockTable) tryLock(addrs ...solana.PublicKey) (func(), error) {
	keys := dedupe(addrs)
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		if _, busy := l.held[k]; busy {
			return nil, fmt.Errorf("%w: %s", ErrAccountInUse, k)
		}
	}
	for _, k := range keys {
		l.held[k] = struct{}{}
	}
	return func() {
		l.mu.Lock()
		for _, k := range keys {
			delete(l.held, k)
		}
		l.mu.Unlock()
	}, nil
}

func dedupe(addrs []solana.PublicKey) []solana.PublicKey {
	out := append([]solana.PublicKey(nil), addrs...)
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	n := 0
	for i, k := range out {
		if i > 0 && k == out[n-1] {
			continue
		}
		out[n] = k
		n++
	}
	return out[:n]
}
