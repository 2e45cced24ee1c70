package store

import (
	"encoding/json"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/warpgate-labs/xcs-portal/ledger"
)

var sessionKey = []byte("xcs-session")

// Store persists session state snapshots to leveldb. It is wired to the
// ledger's change notifications at server setup; the core never imports it.
type Store struct {
	db *leveldb.DB
}

func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(state *ledger.SessionState) error {
	stateBytes, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.Put(sessionKey, stateBytes, nil)
}

// Load restores the last saved session state. A missing record returns an
// empty state with a fresh ledger.
func (s *Store) Load() (*ledger.SessionState, error) {
	state := &ledger.SessionState{Events: ledger.New()}
	stateBytes, err := s.db.Get(sessionKey, nil)
	if err == leveldb.ErrNotFound {
		return state, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stateBytes, state); err != nil {
		return nil, err
	}
	if state.Events == nil {
		state.Events = ledger.New()
	}
	return state, nil
}
