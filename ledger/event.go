package ledger

type EventType string

const (
	EventTypeDeposit EventType = "deposit"
	EventTypeMint    EventType = "mint"
	EventTypeBurn    EventType = "burn"
)

// Event is one entry in the per-address timeline. The ID is stable for the
// event's lifetime and unique within one ledger.
type Event interface {
	EventID() string
	Type() EventType
	clone() Event
}

// Deposit records a previously-unseen UTXO at a gateway address. Its ID is
// the UTXO's txHash.
type Deposit struct {
	ID       string
	UTXOs    []UTXO
	Currency Currency
}

func (d *Deposit) EventID() string { return d.ID }
func (d *Deposit) Type() EventType { return EventTypeDeposit }

func (d *Deposit) clone() Event {
	cp := *d
	cp.UTXOs = append([]UTXO(nil), d.UTXOs...)
	return &cp
}

// Mint records a redemption submitted to the node group. MessageIDs holds
// every responding node's correlation id for the same logical request; any
// of them can be polled. MintTransaction stays empty until a signature is
// obtained.
type Mint struct {
	ID              string
	UTXOs           []UTXO
	MessageID       string
	MessageIDs      []string
	MintTransaction string
}

func (m *Mint) EventID() string { return m.ID }
func (m *Mint) Type() EventType { return EventTypeMint }

// Confirmed reports whether a quorum signature has been obtained.
func (m *Mint) Confirmed() bool { return m.MintTransaction != "" }

func (m *Mint) clone() Event {
	cp := *m
	cp.UTXOs = append([]UTXO(nil), m.UTXOs...)
	cp.MessageIDs = append([]string(nil), m.MessageIDs...)
	return &cp
}

// Burn records a user-initiated burn of a wrapped balance back to its native
// chain. Terminal.
type Burn struct {
	ID              string
	Currency        Currency
	Amount          string // decimal string
	To              string
	MessageID       string
	BurnTransaction string
}

func (b *Burn) EventID() string { return b.ID }
func (b *Burn) Type() EventType { return EventTypeBurn }

func (b *Burn) clone() Event {
	cp := *b
	return &cp
}
