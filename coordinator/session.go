package coordinator

import "sync"

// Session is the coordinator's ephemeral working state: in-flight flags for
// checking/resubmitting/redeeming plus obtained signatures. One instance per
// user session, never persisted; pending work is re-derived from the ledger
// after a restart.
type Session struct {
	mu           sync.Mutex
	checking     map[string]bool
	resubmitting map[string]bool
	redeeming    map[string]bool
	signatures   map[string]string
}

// SessionSnapshot is an atomically-taken copy for readers.
type SessionSnapshot struct {
	Checking     map[string]bool
	Resubmitting map[string]bool
	Redeeming    map[string]bool
	Signatures   map[string]string
}

func NewSession() *Session {
	return &Session{
		checking:     map[string]bool{},
		resubmitting: map[string]bool{},
		redeeming:    map[string]bool{},
		signatures:   map[string]string{},
	}
}

// BeginChecking marks id as having a poll in flight. Returns false if one is
// already running.
func (s *Session) BeginChecking(id string) bool {
	return s.begin(s.checkingLocked, id)
}

func (s *Session) EndChecking(id string) {
	s.mu.Lock()
	delete(s.checking, id)
	s.mu.Unlock()
}

// BeginResubmitting marks id as having a mint submission in flight.
func (s *Session) BeginResubmitting(id string) bool {
	return s.begin(s.resubmittingLocked, id)
}

func (s *Session) EndResubmitting(id string) {
	s.mu.Lock()
	delete(s.resubmitting, id)
	s.mu.Unlock()
}

// BeginRedeeming marks id as having an on-chain redemption in flight.
func (s *Session) BeginRedeeming(id string) bool {
	return s.begin(s.redeemingLocked, id)
}

func (s *Session) EndRedeeming(id string) {
	s.mu.Lock()
	delete(s.redeeming, id)
	s.mu.Unlock()
}

func (s *Session) checkingLocked() map[string]bool     { return s.checking }
func (s *Session) resubmittingLocked() map[string]bool { return s.resubmitting }
func (s *Session) redeemingLocked() map[string]bool    { return s.redeeming }

func (s *Session) begin(set func() map[string]bool, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	flags := set()
	if flags[id] {
		return false
	}
	flags[id] = true
	return true
}

func (s *Session) SetSignature(id string, signature string) {
	s.mu.Lock()
	s.signatures[id] = signature
	s.mu.Unlock()
}

func (s *Session) Signature(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	signature, ok := s.signatures[id]
	return signature, ok
}

// Snapshot returns a consistent copy of all flag sets and signatures.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		Checking:     copyFlags(s.checking),
		Resubmitting: copyFlags(s.resubmitting),
		Redeeming:    copyFlags(s.redeeming),
		Signatures:   copyStrings(s.signatures),
	}
}

func copyFlags(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
