package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warpgate-labs/xcs-portal/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "xcs"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadEmptyStore(t *testing.T) {
	s := openTestStore(t)

	state, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, state.Events)
	require.Equal(t, 0, state.Events.Len())
}

func TestSaveAndLoadSessionState(t *testing.T) {
	s := openTestStore(t)

	l := ledger.New()
	require.NoError(t, l.Append(&ledger.Deposit{
		ID:       "abc123",
		UTXOs:    []ledger.UTXO{{Currency: ledger.BTC, TxHash: "abc123", Amount: 20000}},
		Currency: ledger.BTC,
	}))
	require.NoError(t, l.Promote("abc123", &ledger.Mint{
		ID:         "abc123",
		UTXOs:      []ledger.UTXO{{Currency: ledger.BTC, TxHash: "abc123", Amount: 20000}},
		MessageID:  "m1",
		MessageIDs: []string{"m1", "m2"},
	}))

	require.NoError(t, s.Save(&ledger.SessionState{
		EthereumAddress: "0x5Ea5F67cC958023F2da2ea92231d358F2a3BbA47",
		QuoteCurrency:   "usd",
		Events:          l,
	}))

	state, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, "0x5Ea5F67cC958023F2da2ea92231d358F2a3BbA47", state.EthereumAddress)
	require.Equal(t, "usd", state.QuoteCurrency)
	require.Equal(t, 1, state.Events.Len())

	// the pending mint is resumable after restart
	pending := state.Events.PendingMints()
	require.Len(t, pending, 1)
	require.Equal(t, []string{"m1", "m2"}, pending[0].MessageIDs)
}

func TestSaveOverwrites(t *testing.T) {
	s := openTestStore(t)

	first := ledger.New()
	require.NoError(t, first.Append(&ledger.Deposit{ID: "aaa", Currency: ledger.BTC}))
	require.NoError(t, s.Save(&ledger.SessionState{EthereumAddress: "0xaaa", Events: first}))

	second := ledger.New()
	require.NoError(t, second.Append(&ledger.Deposit{ID: "bbb", Currency: ledger.ZEC}))
	require.NoError(t, s.Save(&ledger.SessionState{EthereumAddress: "0xbbb", Events: second}))

	state, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, "0xbbb", state.EthereumAddress)
	require.True(t, state.Events.Has("bbb"))
	require.False(t, state.Events.Has("aaa"))
}
