package shadowwire

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"loopy-client/src/amount"
	"loopy-client/src/apperr"
	"loopy-client/src/cache"
	"loopy-client/src/logger"
	"loopy-client/src/token"
)

type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Client owns all communication with the privacy SDK for one wallet address.
// Balance state is replaced wholesale on refresh, never merged, and never
// mutated optimistically: after a state-changing operation callers re-fetch
// from the source of truth instead of decrementing locally.
type Client struct {
	sdk     SDK
	store   *cache.Store
	log     *logger.Logger
	address string

	state      atomic.Int32
	initErr    error
	prover     ProverCapability
	refreshing atomic.Bool
	transferMu sync.Mutex
	nonceSeq   atomic.Int64
	now        func() time.Time

	mu       sync.RWMutex
	balances cache.ShadowWireBalances
}

func NewClient(sdk SDK, store *cache.Store, address string, log *logger.Logger) *Client {
	c := &Client{
		sdk:      sdk,
		store:    store,
		log:      log,
		address:  address,
		now:      time.Now,
		balances: emptyBalances(),
	}

	// A fresh persisted snapshot is usable immediately; anything stale is
	// left for the first refresh to replace.
	if entry := store.ShadowWireBalances(); entry.Fresh(time.Now(), cache.TTLShadowWireBalance) {
		c.balances = entry.Data
	}
	return c
}

func emptyBalances() cache.ShadowWireBalances {
	b := make(cache.ShadowWireBalances, len(token.Supported()))
	for _, t := range token.Supported() {
		b[t] = nil
	}
	return b
}

// Init drives Uninitialized → Initializing → Ready or Failed. Failed is
// terminal; there is no automatic retry. A missing accelerated prover is a
// logged degradation, not a failure.
func (c *Client) Init(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing)) {
		if c.State() == StateFailed {
			return c.initErr
		}
		return nil
	}

	if err := c.sdk.Initialize(ctx); err != nil {
		c.initErr = err
		c.state.Store(int32(StateFailed))
		return err
	}

	c.prover = c.sdk.NegotiateProver(ctx)
	if handle, ok := c.prover.Handle(); ok {
		c.log.Infof("accelerated prover available at %s", handle.Path)
	} else {
		c.log.Warn("accelerated prover unavailable, proofs will be computed by the backend")
	}

	c.state.Store(int32(StateReady))
	c.log.Info("shadowwire client ready")
	return nil
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) Ready() bool {
	return c.State() == StateReady
}

func (c *Client) Prover() ProverCapability {
	return c.prover
}

func (c *Client) Address() string {
	return c.address
}

// Balances returns a copy of the current snapshot.
func (c *Client) Balances() cache.ShadowWireBalances {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(cache.ShadowWireBalances, len(c.balances))
	for t, b := range c.balances {
		out[t] = b
	}
	return out
}

// Available returns the spendable smallest-unit balance for t, with false
// when no snapshot for t exists.
func (c *Client) Available(t token.Symbol) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b := c.balances[t]
	if b == nil {
		return 0, false
	}
	return b.Available, true
}

// RefreshBalance fetches balances for tok, or all supported tokens when tok
// is empty. Unless force is set, a fresh cache entry short-circuits the call
// with no network traffic. At most one refresh runs at a time: a call made
// while one is in flight is dropped, not queued.
func (c *Client) RefreshBalance(ctx context.Context, tok token.Symbol, force bool) error {
	if !c.Ready() {
		return apperr.New(apperr.KindValidation, "client not ready (state %s)", c.State())
	}

	if !force && c.store.IsFresh(cache.CategoryShadowWire, cache.TTLShadowWireBalance) {
		c.log.Debug("shadowwire balance cache is fresh, skipping refresh")
		return nil
	}

	if !c.refreshing.CompareAndSwap(false, true) {
		c.log.Debug("balance refresh already in flight, dropping call")
		return nil
	}
	defer c.refreshing.Store(false)

	tokensToFetch := token.Supported()
	if tok != "" {
		if !token.IsSupported(tok) {
			return apperr.New(apperr.KindValidation, "unsupported token %s", tok)
		}
		tokensToFetch = []token.Symbol{tok}
	}

	// Start from nil for every token so a partial fetch can never present a
	// mix of pre- and post-operation balances.
	newBalances := emptyBalances()
	for _, t := range tokensToFetch {
		bal, err := c.sdk.GetBalance(ctx, c.address, t)
		if err != nil {
			c.log.Warnf("failed to fetch %s balance: %v", t, err)
			continue
		}
		b := bal
		newBalances[t] = &b
	}

	c.mu.Lock()
	c.balances = newBalances
	c.mu.Unlock()
	c.store.SetShadowWireBalances(newBalances)

	return nil
}

// Deposit asks the SDK for an unsigned shield transaction. The caller signs
// and submits it.
func (c *Client) Deposit(ctx context.Context, amountSmallest int64, tok token.Symbol) (TxDescriptor, error) {
	return c.prepare(ctx, amountSmallest, tok, true)
}

// Withdraw asks the SDK for an unsigned unshield transaction.
func (c *Client) Withdraw(ctx context.Context, amountSmallest int64, tok token.Symbol) (TxDescriptor, error) {
	return c.prepare(ctx, amountSmallest, tok, false)
}

func (c *Client) prepare(ctx context.Context, amountSmallest int64, tok token.Symbol, isDeposit bool) (TxDescriptor, error) {
	if !c.Ready() {
		return TxDescriptor{}, apperr.New(apperr.KindValidation, "client not ready (state %s)", c.State())
	}

	desc, ok := token.Lookup(tok)
	if !ok {
		return TxDescriptor{}, apperr.New(apperr.KindValidation, "unsupported token %s", tok)
	}

	min, action := desc.MinWithdraw, "withdraw"
	if isDeposit {
		min, action = desc.MinDeposit, "deposit"
	}
	if amountSmallest < amount.ToSmallestUnit(min, desc.Decimals) {
		return TxDescriptor{}, apperr.New(apperr.KindValidation,
			"Minimum %s is %s %s (anti-spam protection)", action, min.String(), tok)
	}

	params := DepositParams{Wallet: c.address, Amount: amountSmallest, Token: tok}
	if isDeposit {
		return c.sdk.Deposit(ctx, params)
	}
	return c.sdk.Withdraw(ctx, params)
}

// minTransferViolated reports whether amt is below the token's transfer
// floor, which sits above the withdraw floor by the relayer fee buffer.
func minTransferViolated(amt decimal.Decimal, desc token.Descriptor) bool {
	return amt.LessThan(desc.MinTransfer)
}
