package ledger

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateID is returned when an append would silently change an
	// event's type. Type transitions go through Promote.
	ErrDuplicateID = errors.New("ledger: duplicate event id")

	// ErrUTXOAlreadyMinted is returned when a promote would reference a UTXO
	// that an existing mint already references.
	ErrUTXOAlreadyMinted = errors.New("ledger: utxo already referenced by a mint")

	ErrNotFound = errors.New("ledger: event not found")
)

// Ledger is the per-address ordered log of Deposit/Mint/Burn events. It is
// mutated by a single writer (the coordinator); readers always get deep
// copies so they never observe a partially-updated event.
type Ledger struct {
	mu     sync.RWMutex
	order  []string
	events map[string]Event
	subs   []func([]Event)
}

func New() *Ledger {
	return &Ledger{
		events: map[string]Event{},
	}
}

// Subscribe registers fn to run after every mutation with a snapshot of the
// full timeline. Used by the persistence layer; the ledger never depends on
// storage itself.
func (l *Ledger) Subscribe(fn func([]Event)) {
	l.mu.Lock()
	l.subs = append(l.subs, fn)
	l.mu.Unlock()
}

// notify runs outside the ledger lock so a subscriber may read the ledger
// back (the persistence layer serializes it on every change).
func (l *Ledger) notify(snapshot []Event, subs []func([]Event)) {
	for _, fn := range subs {
		fn(snapshot)
	}
}

// Append inserts event, or replaces an existing event of the same type and
// id. Replacing an event of a different type fails with ErrDuplicateID.
func (l *Ledger) Append(event Event) error {
	l.mu.Lock()
	existing, ok := l.events[event.EventID()]
	if ok && existing.Type() != event.Type() {
		l.mu.Unlock()
		return fmt.Errorf("%w: %v already holds a %v event", ErrDuplicateID, event.EventID(), existing.Type())
	}
	if !ok {
		l.order = append(l.order, event.EventID())
	}
	l.events[event.EventID()] = event.clone()
	snapshot, subs := l.snapshotLocked(), l.subs
	l.mu.Unlock()

	l.notify(snapshot, subs)
	return nil
}

// Promote replaces the Deposit at depositID with mint, the only way a
// deposit transitions. The deposit's UTXO set becomes unavailable for a
// second submission: promoting fails if any UTXO of the mint is already
// referenced by another mint. If the mint reuses the deposit's id it keeps
// the deposit's position in the timeline; otherwise the deposit entry is
// dropped and the mint appended.
func (l *Ledger) Promote(depositID string, mint *Mint) error {
	l.mu.Lock()

	existing, ok := l.events[depositID]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrNotFound, depositID)
	}
	if existing.Type() != EventTypeDeposit {
		l.mu.Unlock()
		return fmt.Errorf("%w: %v is a %v event, not a deposit", ErrDuplicateID, depositID, existing.Type())
	}
	for _, utxo := range mint.UTXOs {
		if m, ok := l.mintForUTXOLocked(utxo.TxHash); ok {
			l.mu.Unlock()
			return fmt.Errorf("%w: %v by mint %v", ErrUTXOAlreadyMinted, utxo.TxHash, m.ID)
		}
	}

	if mint.ID == depositID {
		l.events[depositID] = mint.clone()
	} else {
		delete(l.events, depositID)
		for i, id := range l.order {
			if id == depositID {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
		if _, ok := l.events[mint.ID]; !ok {
			l.order = append(l.order, mint.ID)
		}
		l.events[mint.ID] = mint.clone()
	}
	snapshot, subs := l.snapshotLocked(), l.subs
	l.mu.Unlock()

	l.notify(snapshot, subs)
	return nil
}

// ConfirmMint sets the mint's transaction once a signature is obtained.
// Monotonic: a confirmed mint is never cleared or overwritten.
func (l *Ledger) ConfirmMint(mintID string, mintTransaction string) error {
	l.mu.Lock()

	existing, ok := l.events[mintID]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrNotFound, mintID)
	}
	mint, ok := existing.(*Mint)
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %v is a %v event, not a mint", ErrDuplicateID, mintID, existing.Type())
	}
	if mint.Confirmed() {
		l.mu.Unlock()
		return nil
	}
	next := mint.clone().(*Mint)
	next.MintTransaction = mintTransaction
	l.events[mintID] = next
	snapshot, subs := l.snapshotLocked(), l.subs
	l.mu.Unlock()

	l.notify(snapshot, subs)
	return nil
}

func (l *Ledger) Get(id string) (Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	event, ok := l.events[id]
	if !ok {
		return nil, false
	}
	return event.clone(), true
}

func (l *Ledger) Has(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.events[id]
	return ok
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

func (l *Ledger) snapshotLocked() []Event {
	snapshot := make([]Event, 0, len(l.order))
	for _, id := range l.order {
		snapshot = append(snapshot, l.events[id].clone())
	}
	return snapshot
}

// Snapshot returns the timeline in insertion order.
func (l *Ledger) Snapshot() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// SnapshotNewestFirst returns the timeline in reverse insertion order.
func (l *Ledger) SnapshotNewestFirst() []Event {
	snapshot := l.Snapshot()
	for i, j := 0, len(snapshot)-1; i < j; i, j = i+1, j-1 {
		snapshot[i], snapshot[j] = snapshot[j], snapshot[i]
	}
	return snapshot
}

func (l *Ledger) mintForUTXOLocked(txHash string) (*Mint, bool) {
	for _, id := range l.order {
		mint, ok := l.events[id].(*Mint)
		if !ok {
			continue
		}
		for _, utxo := range mint.UTXOs {
			if utxo.TxHash == txHash {
				return mint.clone().(*Mint), true
			}
		}
	}
	return nil, false
}

// MintForUTXO returns the mint referencing txHash, if any. The read side
// uses this to suppress deposits that are already being redeemed.
func (l *Ledger) MintForUTXO(txHash string) (*Mint, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mintForUTXOLocked(txHash)
}

// MintedUTXOs returns the set of txHashes referenced by any mint event.
func (l *Ledger) MintedUTXOs() map[string]bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	minted := map[string]bool{}
	for _, event := range l.events {
		mint, ok := event.(*Mint)
		if !ok {
			continue
		}
		for _, utxo := range mint.UTXOs {
			minted[utxo.TxHash] = true
		}
	}
	return minted
}

// PendingMints returns unconfirmed mints in insertion order. Pending work is
// re-derived from here after a restart, since in-flight flags are not
// persisted.
func (l *Ledger) PendingMints() []*Mint {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pending := []*Mint{}
	for _, id := range l.order {
		mint, ok := l.events[id].(*Mint)
		if ok && !mint.Confirmed() {
			pending = append(pending, mint.clone().(*Mint))
		}
	}
	return pending
}
