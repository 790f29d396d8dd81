package flows

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"loopy-client/src/api"
	"loopy-client/src/cache"
	"loopy-client/src/logger"
	"loopy-client/src/portfolio"
	"loopy-client/src/shadowwire"
	"loopy-client/src/token"
	"loopy-client/src/wallet"
)

const (
	testSender    = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	testRecipient = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
)

// fakeSDK backs the shadowwire client in flow tests.
type fakeSDK struct {
	mu sync.Mutex

	balance      int64
	balanceCalls int

	uploadNonce int64
	uploadErr   error
	outcome     shadowwire.TransferOutcome

	depositTx  shadowwire.TxDescriptor
	withdrawTx shadowwire.TxDescriptor
}

func (f *fakeSDK) Initialize(ctx context.Context) error { return nil }

func (f *fakeSDK) NegotiateProver(ctx context.Context) shadowwire.ProverCapability {
	return shadowwire.ProverUnavailable()
}

func (f *fakeSDK) GetBalance(ctx context.Context, address string, t token.Symbol) (cache.ShadowWireBalance, error) {
	f.mu.Lock()
	f.balanceCalls++
	f.mu.Unlock()
	return cache.ShadowWireBalance{Available: f.balance, Deposited: f.balance}, nil
}

func (f *fakeSDK) Deposit(ctx context.Context, params shadowwire.DepositParams) (shadowwire.TxDescriptor, error) {
	return f.depositTx, nil
}

func (f *fakeSDK) Withdraw(ctx context.Context, params shadowwire.DepositParams) (shadowwire.TxDescriptor, error) {
	return f.withdrawTx, nil
}

func (f *fakeSDK) UploadProof(ctx context.Context, params shadowwire.ProofUploadParams, signer wallet.MessageSigner) (shadowwire.ProofUploadResult, error) {
	if f.uploadErr != nil {
		return shadowwire.ProofUploadResult{}, f.uploadErr
	}
	if _, err := signer.SignMessage([]byte("proof")); err != nil {
		return shadowwire.ProofUploadResult{}, err
	}
	return shadowwire.ProofUploadResult{Nonce: f.uploadNonce}, nil
}

func (f *fakeSDK) InternalTransfer(ctx context.Context, params shadowwire.TransferParams, signer wallet.MessageSigner) (shadowwire.TransferOutcome, error) {
	if _, err := signer.SignMessage([]byte("transfer")); err != nil {
		return shadowwire.TransferOutcome{}, err
	}
	return f.outcome, nil
}

func (f *fakeSDK) ExternalTransfer(ctx context.Context, params shadowwire.TransferParams, signer wallet.MessageSigner) (shadowwire.TransferOutcome, error) {
	return f.InternalTransfer(ctx, params, signer)
}

func (f *fakeSDK) balanceCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balanceCalls
}

// fakeWallet implements wallet.Signer.
type fakeWallet struct {
	address  string
	sendSig  string
	sendErr  error
	sigCalls int
}

func (w *fakeWallet) Address() string { return w.address }

func (w *fakeWallet) SignMessage(message []byte) ([]byte, error) {
	w.sigCalls++
	return message, nil
}

func (w *fakeWallet) SignAndSendTransaction(txBase64 string) (string, error) {
	if w.sendErr != nil {
		return "", w.sendErr
	}
	return w.sendSig, nil
}

// fakeConfirmer scripts the confirmation outcome.
type fakeConfirmer struct {
	confirmErr   error
	status       string
	statusErr    error
	confirmCalls int
	statusCalls  int
}

func (c *fakeConfirmer) Confirm(ctx context.Context, signature string, lastValidBlockHeight uint64) error {
	c.confirmCalls++
	return c.confirmErr
}

func (c *fakeConfirmer) Status(ctx context.Context, signature string) (string, error) {
	c.statusCalls++
	return c.status, c.statusErr
}

type testEnv struct {
	client    *shadowwire.Client
	portfolio *portfolio.Portfolio
	store     *cache.Store
	signer    *fakeWallet
	sdk       *fakeSDK
	steps     []string
}

// newTestEnv stands up a ready shadowwire client, a portfolio against a stub
// backend, and a cache seeded with a 2 SOL public balance.
func newTestEnv(t *testing.T, sdk *fakeSDK) *testEnv {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/prices/wallet/" + testSender:
			json.NewEncoder(w).Encode(map[string]any{
				"tokens": []map[string]any{
					{
						"address": "mint-sol",
						"token":   map[string]any{"symbol": "SOL", "name": "Solana", "decimals": 9},
						"balance": "2",
						"value":   "300",
					},
				},
			})
		case "/balance/" + testSender + "/all":
			json.NewEncoder(w).Encode(map[string]any{"balances": map[string]any{}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	log := logger.New()
	store := cache.NewStore(filepath.Join(t.TempDir(), "cache.json"), log)
	apiClient := api.NewClient(server.URL, 5*time.Second, log)

	client := shadowwire.NewClient(sdk, store, testSender, log)
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := client.RefreshBalance(context.Background(), "", true); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	pf := portfolio.New(apiClient, store, testSender, log)
	if err := pf.RefreshWalletTokens(context.Background()); err != nil {
		t.Fatalf("wallet token refresh failed: %v", err)
	}

	return &testEnv{
		client:    client,
		portfolio: pf,
		store:     store,
		signer:    &fakeWallet{address: testSender, sendSig: "sent-sig"},
		sdk:       sdk,
	}
}

func (e *testEnv) recordStep(index int, step Step) {
	e.steps = append(e.steps, step.ID)
}

func testLog() *logger.Logger {
	return logger.New()
}
