package runtime

import (
	"bytes"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/ipfs/go-cid"

	"xdao.co/collauth/cidutil"
)

// Entry records one successful cross-program call.
type Entry struct {
	ID       cid.Cid
	Program  solana.PublicKey
	Signer   solana.PublicKey
	Accounts []solana.PublicKey
	Data     []byte
	At       time.Time
}

// DefaultJournalLimit is the journal size used when none is configured.
const DefaultJournalLimit = 1024

// Journal keeps the most recent successful calls in order, addressed by
// content id. Once full, each append drops the oldest entry.
// The id covers program, signer, accounts and data, so two identical calls
// share an id while both stay in the journal.
type Journal struct {
	mu    sync.RWMutex
	ring  []Entry
	start int
	n     int
}

// NewJournal returns a journal holding at most limit entries; limit <= 0
// means DefaultJournalLimit.
func NewJournal(limit int) *Journal {
	if limit <= 0 {
		limit = DefaultJournalLimit
	}
	return &Journal{ring: make([]Entry, limit)}
}

func (j *Journal) append(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.n < len(j.ring) {
		j.ring[(j.start+j.n)%len(j.ring)] = e
		j.n++
		return
	}
	j.ring[j.start] = e
	j.start = (j.start + 1) % len(j.ring)
}

// at returns the i-th oldest retained entry. Callers hold j.mu.
func (j *Journal) at(i int) Entry { return j.ring[(j.start+i)%len(j.ring)] }

// Entries returns a copy of the retained entries, oldest first.
func (j *Journal) Entries() []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Entry, j.n)
	for i := range out {
		out[i] = j.at(i)
	}
	return out
}

// Lookup returns the most recent retained entry with id.
func (j *Journal) Lookup(id cid.Cid) (Entry, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	for i := j.n - 1; i >= 0; i-- {
		if e := j.at(i); e.ID.Equals(id) {
			return e, true
		}
	}
	return Entry{}, false
}

func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.n
}

// Cap is the number of entries the journal retains.
func (j *Journal) Cap() int { return len(j.ring) }

func entryID(program, signer solana.PublicKey, accts []solana.PublicKey, data []byte) (cid.Cid, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	for _, pk := range append([]solana.PublicKey{program, signer}, accts...) {
		if err := enc.WriteBytes(pk.Bytes(), false); err != nil {
			return cid.Undef, err
		}
	}
	if err := enc.WriteBytes(data, true); err != nil {
		return cid.Undef, err
	}
	return cidutil.Sum(buf.Bytes())
}
