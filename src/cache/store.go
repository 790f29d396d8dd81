// Package cache is the single source of truth for "is this data fresh enough
// to skip a network round-trip". The store is an explicit, injected object:
// constructed at startup, passed to every component that reads or writes
// balances, and wiped on logout.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"loopy-client/src/logger"
)

type persistedState struct {
	Tokens             *Entry[[]WalletToken]               `json:"tokens"`
	ShieldedBalance    *Entry[ShieldedBalance]             `json:"shieldedBalance"`
	ShadowWireBalances *Entry[ShadowWireBalances]          `json:"shadowWireBalances"`
	SupportedTokens    *Entry[[]SupportedToken]            `json:"supportedTokens"`
	TokenPrices        *Entry[map[string]decimal.Decimal]  `json:"tokenPrices"`

	HasLoadedTokens          bool `json:"hasLoadedTokens"`
	HasLoadedShielded        bool `json:"hasLoadedShielded"`
	HasLoadedSupportedTokens bool `json:"hasLoadedSupportedTokens"`
}

type Store struct {
	mu    sync.RWMutex
	path  string
	log   *logger.Logger
	now   func() time.Time
	subs  []func()
	state persistedState
}

// NewStore loads any persisted snapshot from path. A missing or unreadable
// file yields an empty store; stale persisted entries are kept but reported
// as not fresh, so readers refetch.
func NewStore(path string, log *logger.Logger) *Store {
	s := &Store{path: path, log: log, now: time.Now}

	raw, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if err := json.Unmarshal(raw, &s.state); err != nil {
		log.Warnf("discarding unreadable cache state at %s: %v", path, err)
		s.state = persistedState{}
	}
	return s
}

// Subscribe registers fn to run after every write or invalidation. Callbacks
// run synchronously under no lock; they must not call back into the store's
// write methods.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// persist writes the current state to disk best-effort. A failed write only
// costs a refetch after restart, so it is logged and swallowed.
func (s *Store) persist() {
	s.mu.RLock()
	raw, err := json.Marshal(s.state)
	path := s.path
	s.mu.RUnlock()
	if err != nil {
		s.log.Errorf(err, "marshalling cache state")
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		s.log.Errorf(err, "creating cache directory")
		return
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		s.log.Errorf(err, "persisting cache state")
	}
}

func (s *Store) afterWrite() {
	s.persist()
	s.notify()
}

func (s *Store) SetWalletTokens(tokens []WalletToken) {
	s.mu.Lock()
	s.state.Tokens = &Entry[[]WalletToken]{Data: tokens, Timestamp: s.now()}
	s.state.HasLoadedTokens = true
	s.mu.Unlock()
	s.afterWrite()
}

func (s *Store) WalletTokens() *Entry[[]WalletToken] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Tokens
}

func (s *Store) SetShieldedBalance(balance ShieldedBalance) {
	s.mu.Lock()
	s.state.ShieldedBalance = &Entry[ShieldedBalance]{Data: balance, Timestamp: s.now()}
	s.state.HasLoadedShielded = true
	s.mu.Unlock()
	s.afterWrite()
}

func (s *Store) ShieldedBalance() *Entry[ShieldedBalance] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ShieldedBalance
}

func (s *Store) SetShadowWireBalances(balances ShadowWireBalances) {
	s.mu.Lock()
	s.state.ShadowWireBalances = &Entry[ShadowWireBalances]{Data: balances, Timestamp: s.now()}
	s.mu.Unlock()
	s.afterWrite()
}

func (s *Store) ShadowWireBalances() *Entry[ShadowWireBalances] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ShadowWireBalances
}

func (s *Store) SetSupportedTokens(tokens []SupportedToken) {
	s.mu.Lock()
	s.state.SupportedTokens = &Entry[[]SupportedToken]{Data: tokens, Timestamp: s.now()}
	s.state.HasLoadedSupportedTokens = true
	s.mu.Unlock()
	s.afterWrite()
}

func (s *Store) SupportedTokens() *Entry[[]SupportedToken] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SupportedTokens
}

func (s *Store) SetTokenPrices(prices map[string]decimal.Decimal) {
	s.mu.Lock()
	s.state.TokenPrices = &Entry[map[string]decimal.Decimal]{Data: prices, Timestamp: s.now()}
	s.mu.Unlock()
	s.afterWrite()
}

func (s *Store) TokenPrices() *Entry[map[string]decimal.Decimal] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.TokenPrices
}

// IsFresh reports whether the category was written within ttl.
func (s *Store) IsFresh(cat Category, ttl time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	switch cat {
	case CategoryWalletTokens:
		return s.state.Tokens.Fresh(now, ttl)
	case CategoryShieldedBalance:
		return s.state.ShieldedBalance.Fresh(now, ttl)
	case CategoryShadowWire:
		return s.state.ShadowWireBalances.Fresh(now, ttl)
	case CategorySupportedTokens:
		return s.state.SupportedTokens.Fresh(now, ttl)
	case CategoryTokenPrices:
		return s.state.TokenPrices.Fresh(now, ttl)
	}
	return false
}

func (s *Store) InvalidateWalletTokens() {
	s.mu.Lock()
	s.state.Tokens = nil
	s.state.HasLoadedTokens = false
	s.mu.Unlock()
	s.afterWrite()
}

func (s *Store) InvalidateShielded() {
	s.mu.Lock()
	s.state.ShieldedBalance = nil
	s.state.HasLoadedShielded = false
	s.mu.Unlock()
	s.afterWrite()
}

func (s *Store) InvalidateShadowWireBalances() {
	s.mu.Lock()
	s.state.ShadowWireBalances = nil
	s.mu.Unlock()
	s.afterWrite()
}

func (s *Store) InvalidateSupportedTokens() {
	s.mu.Lock()
	s.state.SupportedTokens = nil
	s.state.HasLoadedSupportedTokens = false
	s.mu.Unlock()
	s.afterWrite()
}

func (s *Store) InvalidateAll() {
	s.mu.Lock()
	s.state = persistedState{}
	s.mu.Unlock()
	s.afterWrite()
}

// Wipe clears all state and deletes the persisted file. Used on logout so a
// new session cannot inherit a stale identity's balances.
func (s *Store) Wipe() error {
	s.mu.Lock()
	s.state = persistedState{}
	path := s.path
	s.mu.Unlock()
	s.notify()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
