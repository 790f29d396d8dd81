package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"loopy-client/src/apperr"
	"loopy-client/src/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, logger.New())
}

func TestGetAllBalancesDecodesResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/balance/wallet1/all", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		json.NewEncoder(w).Encode(map[string]any{
			"balances": map[string]any{
				"sol": map[string]any{
					"mint":              "Native",
					"balance":           500000000,
					"balance_formatted": "0.5",
				},
			},
		})
	})

	resp, err := client.GetAllBalances(context.Background(), "wallet1")
	assert.NoError(t, err)
	assert.Equal(t, int64(500000000), resp.Balances.Sol.Balance)
	assert.Equal(t, "0.5", resp.Balances.Sol.BalanceFormatted.String())
}

func TestBackendErrorCarriesServerMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "insufficient balance"})
	})

	_, err := client.GetAllBalances(context.Background(), "wallet1")
	assert.Error(t, err)
	assert.Equal(t, apperr.KindBackend, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "insufficient balance")
}

func TestBackendErrorWithoutBodyReportsStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetSupportedTokens(context.Background())
	assert.Error(t, err)
	assert.Equal(t, apperr.KindBackend, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "502")
}

func TestTimeoutIsClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, 5*time.Second, logger.New())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.GetSupportedTokens(ctx)
	assert.Error(t, err)
	assert.Equal(t, apperr.KindTimeout, apperr.KindOf(err))
}

func TestNetworkErrorIsClassified(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second, logger.New())

	_, err := client.GetSupportedTokens(context.Background())
	assert.Error(t, err)
	assert.Equal(t, apperr.KindNetwork, apperr.KindOf(err))
}

func TestUploadProofSendsBodyAndReadsNonce(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transfer/proof", r.URL.Path)

		var req UploadProofRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sender1", req.SenderWallet)
		assert.Equal(t, int64(500000000), req.Amount)

		json.NewEncoder(w).Encode(map[string]any{"nonce": 9912345})
	})

	resp, err := client.UploadTransferProof(context.Background(), UploadProofRequest{
		SenderWallet: "sender1",
		Token:        "SOL",
		Amount:       500000000,
		Nonce:        111,
		Signature:    "sig",
		Message:      "msg",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(9912345), resp.Nonce)
}

func TestEmptyResponseBodyIsAccepted(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	err := client.ConfirmEscrow(context.Background(), ConfirmEscrowRequest{
		TransactionID: "tx1",
		TxSignature:   "sig",
		Status:        "confirmed",
	})
	assert.NoError(t, err)
}
