package shadowwire

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"loopy-client/src/cache"
	"loopy-client/src/logger"
	"loopy-client/src/token"
	"loopy-client/src/wallet"
)

// fakeSDK scripts SDK behavior per test. Zero value succeeds everywhere with
// empty results.
type fakeSDK struct {
	mu sync.Mutex

	initErr    error
	prover     ProverCapability
	balances   map[token.Symbol]cache.ShadowWireBalance
	balanceErr map[token.Symbol]error

	balanceCalls  int
	balanceGate   chan struct{} // when set, GetBalance blocks until closed
	uploadCalls   []ProofUploadParams
	uploadErr     error
	uploadNonce   int64
	transferCalls []TransferParams
	transferMode  []VisibilityMode
	outcome       TransferOutcome
	transferErr   error
}

func (f *fakeSDK) Initialize(ctx context.Context) error { return f.initErr }

func (f *fakeSDK) NegotiateProver(ctx context.Context) ProverCapability { return f.prover }

func (f *fakeSDK) GetBalance(ctx context.Context, address string, t token.Symbol) (cache.ShadowWireBalance, error) {
	f.mu.Lock()
	f.balanceCalls++
	gate := f.balanceGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err := f.balanceErr[t]; err != nil {
		return cache.ShadowWireBalance{}, err
	}
	return f.balances[t], nil
}

func (f *fakeSDK) Deposit(ctx context.Context, params DepositParams) (TxDescriptor, error) {
	return TxDescriptor{Transaction: "deposit-tx", LastValidBlockHeight: 100}, nil
}

func (f *fakeSDK) Withdraw(ctx context.Context, params DepositParams) (TxDescriptor, error) {
	return TxDescriptor{Transaction: "withdraw-tx", LastValidBlockHeight: 100}, nil
}

func (f *fakeSDK) UploadProof(ctx context.Context, params ProofUploadParams, signer wallet.MessageSigner) (ProofUploadResult, error) {
	f.mu.Lock()
	f.uploadCalls = append(f.uploadCalls, params)
	f.mu.Unlock()
	if f.uploadErr != nil {
		return ProofUploadResult{}, f.uploadErr
	}
	if _, err := signer.SignMessage([]byte("proof")); err != nil {
		return ProofUploadResult{}, err
	}
	return ProofUploadResult{Nonce: f.uploadNonce}, nil
}

func (f *fakeSDK) InternalTransfer(ctx context.Context, params TransferParams, signer wallet.MessageSigner) (TransferOutcome, error) {
	return f.execute(params, Internal, signer)
}

func (f *fakeSDK) ExternalTransfer(ctx context.Context, params TransferParams, signer wallet.MessageSigner) (TransferOutcome, error) {
	return f.execute(params, External, signer)
}

func (f *fakeSDK) execute(params TransferParams, mode VisibilityMode, signer wallet.MessageSigner) (TransferOutcome, error) {
	f.mu.Lock()
	f.transferCalls = append(f.transferCalls, params)
	f.transferMode = append(f.transferMode, mode)
	f.mu.Unlock()
	if f.transferErr != nil {
		return TransferOutcome{}, f.transferErr
	}
	if _, err := signer.SignMessage([]byte("transfer")); err != nil {
		return TransferOutcome{}, err
	}
	return f.outcome, nil
}

// fakeSigner signs by returning the message unchanged.
type fakeSigner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *fakeSigner) SignMessage(message []byte) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return message, nil
}

func newTestClient(t *testing.T, sdk SDK, address string) (*Client, *cache.Store) {
	t.Helper()
	store := cache.NewStore(filepath.Join(t.TempDir(), "cache.json"), logger.New())
	return NewClient(sdk, store, address, logger.New()), store
}

func readyClient(t *testing.T, sdk SDK, address string) (*Client, *cache.Store) {
	t.Helper()
	c, store := newTestClient(t, sdk, address)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return c, store
}
