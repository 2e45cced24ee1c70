package ledger

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func testUTXO(txHash string) UTXO {
	return UTXO{
		Currency:     BTC,
		TxHash:       txHash,
		Amount:       20000,
		ScriptPubKey: "a914",
		Vout:         0,
	}
}

func testDeposit(txHash string) *Deposit {
	return &Deposit{
		ID:       txHash,
		UTXOs:    []UTXO{testUTXO(txHash)},
		Currency: BTC,
	}
}

func TestAppendAndSnapshotOrder(t *testing.T) {
	l := New()
	require.NoError(t, l.Append(testDeposit("aaa")))
	require.NoError(t, l.Append(testDeposit("bbb")))
	require.NoError(t, l.Append(testDeposit("ccc")))

	snapshot := l.Snapshot()
	require.Len(t, snapshot, 3)
	require.Equal(t, "aaa", snapshot[0].EventID())
	require.Equal(t, "ccc", snapshot[2].EventID())

	newest := l.SnapshotNewestFirst()
	require.Equal(t, "ccc", newest[0].EventID())
	require.Equal(t, "aaa", newest[2].EventID())
}

func TestAppendSameTypeReplaces(t *testing.T) {
	l := New()
	require.NoError(t, l.Append(testDeposit("aaa")))

	replacement := testDeposit("aaa")
	replacement.UTXOs[0].Amount = 99999
	require.NoError(t, l.Append(replacement))

	require.Equal(t, 1, l.Len())
	event, ok := l.Get("aaa")
	require.True(t, ok)
	require.Equal(t, int64(99999), event.(*Deposit).UTXOs[0].Amount)
}

func TestAppendCrossTypeFails(t *testing.T) {
	l := New()
	require.NoError(t, l.Append(testDeposit("aaa")))

	err := l.Append(&Mint{ID: "aaa", UTXOs: []UTXO{testUTXO("aaa")}})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDuplicateID))

	// the deposit is untouched
	event, ok := l.Get("aaa")
	require.True(t, ok)
	require.Equal(t, EventTypeDeposit, event.Type())
}

func TestPromoteReplacesDepositInPlace(t *testing.T) {
	l := New()
	require.NoError(t, l.Append(testDeposit("aaa")))
	require.NoError(t, l.Append(testDeposit("bbb")))

	mint := &Mint{
		ID:         "aaa",
		UTXOs:      []UTXO{testUTXO("aaa")},
		MessageID:  "m1",
		MessageIDs: []string{"m1", "m2"},
	}
	require.NoError(t, l.Promote("aaa", mint))

	snapshot := l.Snapshot()
	require.Len(t, snapshot, 2)
	require.Equal(t, "aaa", snapshot[0].EventID())
	require.Equal(t, EventTypeMint, snapshot[0].Type())
	require.Equal(t, []string{"m1", "m2"}, snapshot[0].(*Mint).MessageIDs)
}

func TestPromoteFreshIDAppends(t *testing.T) {
	l := New()
	require.NoError(t, l.Append(testDeposit("aaa")))
	require.NoError(t, l.Append(testDeposit("bbb")))

	mint := &Mint{
		ID:    "batch-1",
		UTXOs: []UTXO{testUTXO("aaa")},
	}
	require.NoError(t, l.Promote("aaa", mint))

	snapshot := l.Snapshot()
	require.Len(t, snapshot, 2)
	require.Equal(t, "bbb", snapshot[0].EventID())
	require.Equal(t, "batch-1", snapshot[1].EventID())
}

func TestPromoteRejectsAlreadyMintedUTXO(t *testing.T) {
	l := New()
	require.NoError(t, l.Append(testDeposit("aaa")))
	require.NoError(t, l.Append(testDeposit("bbb")))
	require.NoError(t, l.Promote("aaa", &Mint{ID: "aaa", UTXOs: []UTXO{testUTXO("aaa")}}))

	// a second mint referencing the same UTXO is rejected
	err := l.Promote("bbb", &Mint{ID: "bbb", UTXOs: []UTXO{testUTXO("aaa")}})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUTXOAlreadyMinted))
}

func TestPromoteRequiresDeposit(t *testing.T) {
	l := New()
	require.NoError(t, l.Append(&Burn{ID: "burn-1", Currency: BTC, Amount: "1", To: "t2addr"}))

	err := l.Promote("burn-1", &Mint{ID: "burn-1"})
	require.Error(t, err)

	err = l.Promote("missing", &Mint{ID: "missing"})
	require.True(t, errors.Is(err, ErrNotFound))
}

// Once a mint is confirmed its transaction never changes.
func TestConfirmMintIsMonotonic(t *testing.T) {
	l := New()
	require.NoError(t, l.Append(testDeposit("aaa")))
	require.NoError(t, l.Promote("aaa", &Mint{ID: "aaa", UTXOs: []UTXO{testUTXO("aaa")}, MessageIDs: []string{"m1"}}))

	require.NoError(t, l.ConfirmMint("aaa", "0xsig"))
	event, _ := l.Get("aaa")
	require.Equal(t, "0xsig", event.(*Mint).MintTransaction)

	require.NoError(t, l.ConfirmMint("aaa", "0xother"))
	event, _ = l.Get("aaa")
	require.Equal(t, "0xsig", event.(*Mint).MintTransaction)
}

func TestMintForUTXOAndPendingMints(t *testing.T) {
	l := New()
	require.NoError(t, l.Append(testDeposit("aaa")))
	require.NoError(t, l.Promote("aaa", &Mint{ID: "aaa", UTXOs: []UTXO{testUTXO("aaa")}}))

	mint, ok := l.MintForUTXO("aaa")
	require.True(t, ok)
	require.Equal(t, "aaa", mint.ID)

	_, ok = l.MintForUTXO("zzz")
	require.False(t, ok)

	require.Len(t, l.PendingMints(), 1)
	require.NoError(t, l.ConfirmMint("aaa", "0xsig"))
	require.Len(t, l.PendingMints(), 0)

	require.True(t, l.MintedUTXOs()["aaa"])
}

func TestSubscribeNotifiesOnMutation(t *testing.T) {
	l := New()
	var notified [][]Event
	l.Subscribe(func(snapshot []Event) {
		notified = append(notified, snapshot)
	})

	require.NoError(t, l.Append(testDeposit("aaa")))
	require.NoError(t, l.Promote("aaa", &Mint{ID: "aaa", UTXOs: []UTXO{testUTXO("aaa")}}))
	require.NoError(t, l.ConfirmMint("aaa", "0xsig"))

	require.Len(t, notified, 3)
	require.Equal(t, EventTypeDeposit, notified[0][0].Type())
	require.Equal(t, EventTypeMint, notified[1][0].Type())
	require.Equal(t, "0xsig", notified[2][0].(*Mint).MintTransaction)
}

// A subscriber may serialize the ledger it observes without deadlocking.
func TestSubscriberCanReadLedgerBack(t *testing.T) {
	l := New()
	var persisted []byte
	l.Subscribe(func([]Event) {
		data, err := json.Marshal(l)
		require.NoError(t, err)
		persisted = data
	})
	require.NoError(t, l.Append(testDeposit("aaa")))
	require.NotEmpty(t, persisted)
}

// Round-trip: one deposit, one unconfirmed mint, one burn; content and
// iteration order both survive.
func TestSessionStateRoundTrip(t *testing.T) {
	l := New()
	require.NoError(t, l.Append(testDeposit("aaa")))
	require.NoError(t, l.Append(testDeposit("bbb")))
	require.NoError(t, l.Promote("bbb", &Mint{
		ID:         "bbb",
		UTXOs:      []UTXO{testUTXO("bbb")},
		MessageID:  "m1",
		MessageIDs: []string{"m1", "m2"},
	}))
	require.NoError(t, l.Append(&Burn{
		ID:        "burn-1",
		Currency:  ZEC,
		Amount:    "0.5",
		To:        "t2UNzUUx8mWBCRYPRezvA363EYXyEpHokyi",
		MessageID: "m9",
	}))

	state := &SessionState{
		EthereumAddress: "0x5Ea5F67cC958023F2da2ea92231d358F2a3BbA47",
		QuoteCurrency:   "usd",
		Events:          l,
	}
	data, err := json.Marshal(state)
	require.NoError(t, err)

	restored := &SessionState{Events: New()}
	require.NoError(t, json.Unmarshal(data, restored))
	require.Equal(t, state.EthereumAddress, restored.EthereumAddress)
	require.Equal(t, state.QuoteCurrency, restored.QuoteCurrency)

	original := l.Snapshot()
	roundTripped := restored.Events.Snapshot()
	require.Equal(t, len(original), len(roundTripped))
	for i := range original {
		require.Equal(t, original[i], roundTripped[i])
	}

	// unconfirmed mint is still pending after restore
	require.Len(t, restored.Events.PendingMints(), 1)
	require.Equal(t, []string{"m1", "m2"}, restored.Events.PendingMints()[0].MessageIDs)
}
