package ledger

import (
	"encoding/json"
	"fmt"
)

// eventRecord is the wire form of an event. The type discriminant picks the
// variant on decode; list fields round-trip losslessly, order preserved.
type eventRecord struct {
	Type            EventType `json:"type"`
	ID              string    `json:"id"`
	UTXO            []UTXO    `json:"utxo,omitempty"`
	UTXOs           []UTXO    `json:"utxos,omitempty"`
	Currency        Currency  `json:"currency,omitempty"`
	Amount          string    `json:"amount,omitempty"`
	To              string    `json:"to,omitempty"`
	MessageID       string    `json:"messageID,omitempty"`
	MessageIDs      []string  `json:"messageIDs,omitempty"`
	MintTransaction string    `json:"mintTransaction,omitempty"`
	BurnTransaction string    `json:"burnTransaction,omitempty"`
}

func toRecord(event Event) eventRecord {
	switch e := event.(type) {
	case *Deposit:
		return eventRecord{
			Type:     EventTypeDeposit,
			ID:       e.ID,
			UTXO:     e.UTXOs,
			Currency: e.Currency,
		}
	case *Mint:
		return eventRecord{
			Type:            EventTypeMint,
			ID:              e.ID,
			UTXOs:           e.UTXOs,
			MessageID:       e.MessageID,
			MessageIDs:      e.MessageIDs,
			MintTransaction: e.MintTransaction,
		}
	case *Burn:
		return eventRecord{
			Type:            EventTypeBurn,
			ID:              e.ID,
			Currency:        e.Currency,
			Amount:          e.Amount,
			To:              e.To,
			MessageID:       e.MessageID,
			BurnTransaction: e.BurnTransaction,
		}
	}
	return eventRecord{}
}

func fromRecord(record eventRecord) (Event, error) {
	switch record.Type {
	case EventTypeDeposit:
		return &Deposit{
			ID:       record.ID,
			UTXOs:    record.UTXO,
			Currency: record.Currency,
		}, nil
	case EventTypeMint:
		return &Mint{
			ID:              record.ID,
			UTXOs:           record.UTXOs,
			MessageID:       record.MessageID,
			MessageIDs:      record.MessageIDs,
			MintTransaction: record.MintTransaction,
		}, nil
	case EventTypeBurn:
		return &Burn{
			ID:              record.ID,
			Currency:        record.Currency,
			Amount:          record.Amount,
			To:              record.To,
			MessageID:       record.MessageID,
			BurnTransaction: record.BurnTransaction,
		}, nil
	}
	return nil, fmt.Errorf("ledger: unknown event type %q", record.Type)
}

// MarshalJSON encodes the timeline as an array of tagged records in
// insertion order.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	records := []eventRecord{}
	for _, event := range l.Snapshot() {
		records = append(records, toRecord(event))
	}
	return json.Marshal(records)
}

func (l *Ledger) UnmarshalJSON(data []byte) error {
	var records []eventRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = nil
	l.events = map[string]Event{}
	for _, record := range records {
		event, err := fromRecord(record)
		if err != nil {
			return err
		}
		if _, ok := l.events[event.EventID()]; !ok {
			l.order = append(l.order, event.EventID())
		}
		l.events[event.EventID()] = event
	}
	return nil
}

// SessionState is the persisted record layout: the receiving address, the
// display currency and the per-address event timeline.
type SessionState struct {
	EthereumAddress string  `json:"ethereumAddress"`
	QuoteCurrency   string  `json:"quoteCurrency"`
	Events          *Ledger `json:"events"`
}
