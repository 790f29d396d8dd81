package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"loopy-client/src/cache"
)

// User is the backend's registered-account record.
type User struct {
	WalletAddress    string  `json:"wallet_address"`
	ReferralCode     string  `json:"referral_code"`
	Points           int64   `json:"points"`
	ShadowCommitment *string `json:"shadow_commitment"`
	ReferredBy       *string `json:"referred_by"`
}

type RegisterRequest struct {
	WalletAddress string `json:"wallet_address"`
	Signature     string `json:"signature"`
	Message       string `json:"message"`
	ReferralCode  string `json:"referral_code,omitempty"`
}

type RegisterResponse struct {
	Success bool  `json:"success"`
	User    *User `json:"user"`
}

type CheckUserResponse struct {
	Exists bool `json:"exists"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	return request[RegisterResponse](ctx, c, http.MethodPost, "/auth/register", req)
}

func (c *Client) CheckUser(ctx context.Context, wallet string) (CheckUserResponse, error) {
	return request[CheckUserResponse](ctx, c, http.MethodGet, "/auth/check/"+wallet, nil)
}

func (c *Client) GetUser(ctx context.Context, wallet string) (User, error) {
	return request[User](ctx, c, http.MethodGet, "/auth/user/"+wallet, nil)
}

// BalanceEntry is one token's shielded balance as reported by the backend:
// smallest units plus the human-readable form the relayer computed.
type BalanceEntry struct {
	Mint             string          `json:"mint"`
	Balance          int64           `json:"balance"`
	BalanceFormatted decimal.Decimal `json:"balance_formatted"`
}

type AllBalancesResponse struct {
	Balances struct {
		Sol  BalanceEntry `json:"sol"`
		Usdc BalanceEntry `json:"usdc"`
		Usdt BalanceEntry `json:"usdt"`
	} `json:"balances"`
}

func (c *Client) GetAllBalances(ctx context.Context, wallet string) (AllBalancesResponse, error) {
	return request[AllBalancesResponse](ctx, c, http.MethodGet, "/balance/"+wallet+"/all", nil)
}

type WalletTokenEntry struct {
	Address string `json:"address"`
	Token   struct {
		Symbol   string `json:"symbol"`
		Name     string `json:"name"`
		Decimals int32  `json:"decimals"`
		Image    string `json:"image"`
	} `json:"token"`
	Balance decimal.Decimal `json:"balance"`
	Value   decimal.Decimal `json:"value"`
	Price   struct {
		USD decimal.Decimal `json:"usd"`
	} `json:"price"`
	PriceChange24h decimal.Decimal `json:"priceChange24h"`
}

type WalletTokensResponse struct {
	Tokens []WalletTokenEntry `json:"tokens"`
}

func (c *Client) GetWalletTokens(ctx context.Context, wallet string) (WalletTokensResponse, error) {
	return request[WalletTokensResponse](ctx, c, http.MethodGet, "/prices/wallet/"+wallet, nil)
}

// PriceResponse carries the price under either key depending on backend
// version; Value() folds them.
type PriceResponse struct {
	Price    decimal.Decimal `json:"price"`
	USDPrice decimal.Decimal `json:"usdPrice"`
}

func (p PriceResponse) Value() decimal.Decimal {
	if !p.Price.IsZero() {
		return p.Price
	}
	return p.USDPrice
}

func (c *Client) GetPrice(ctx context.Context, mint string) (PriceResponse, error) {
	return request[PriceResponse](ctx, c, http.MethodGet, "/prices/"+mint, nil)
}

func (c *Client) GetSupportedTokens(ctx context.Context) ([]cache.SupportedToken, error) {
	return request[[]cache.SupportedToken](ctx, c, http.MethodGet, "/tokens/supported", nil)
}

// UnsignedTransaction is the backend's prepared transaction descriptor: a
// base64 payload the wallet signs and submits, with the blockhash window it
// is valid in.
type UnsignedTransaction struct {
	Transaction          string `json:"transaction"`
	RecentBlockhash      string `json:"recent_blockhash"`
	LastValidBlockHeight uint64 `json:"last_valid_block_height"`
}

type PrepareEscrowRequest struct {
	WalletAddress string `json:"wallet_address"`
	Amount        int64  `json:"amount"`
	TokenMint     string `json:"token_mint,omitempty"`
}

func (c *Client) PrepareDeposit(ctx context.Context, req PrepareEscrowRequest) (UnsignedTransaction, error) {
	return request[UnsignedTransaction](ctx, c, http.MethodPost, "/escrow/deposit", req)
}

func (c *Client) PrepareWithdraw(ctx context.Context, req PrepareEscrowRequest) (UnsignedTransaction, error) {
	return request[UnsignedTransaction](ctx, c, http.MethodPost, "/escrow/withdraw", req)
}

type ConfirmEscrowRequest struct {
	TransactionID string `json:"transaction_id"`
	TxSignature   string `json:"tx_signature"`
	Status        string `json:"status"` // "confirmed" or "failed"
}

func (c *Client) ConfirmEscrow(ctx context.Context, req ConfirmEscrowRequest) error {
	_, err := request[struct{}](ctx, c, http.MethodPost, "/escrow/confirm", req)
	return err
}

// UploadProofRequest authorizes a proof upload; Signature signs Message with
// the sender's wallet key (first signature of the two-phase transfer).
type UploadProofRequest struct {
	SenderWallet string `json:"sender_wallet"`
	Token        string `json:"token"`
	Amount       int64  `json:"amount"`
	Nonce        int64  `json:"nonce"`
	Signature    string `json:"signature"`
	Message      string `json:"message"`
}

type UploadProofResponse struct {
	Nonce int64 `json:"nonce"`
}

func (c *Client) UploadTransferProof(ctx context.Context, req UploadProofRequest) (UploadProofResponse, error) {
	return request[UploadProofResponse](ctx, c, http.MethodPost, "/transfer/proof", req)
}

// ExecuteTransferRequest authorizes the fund movement bound to an uploaded
// proof by nonce (second signature of the two-phase transfer).
type ExecuteTransferRequest struct {
	SenderWallet    string `json:"sender_wallet"`
	RecipientWallet string `json:"recipient_wallet"`
	Token           string `json:"token"`
	Nonce           int64  `json:"nonce"`
	RelayerFee      int64  `json:"relayer_fee"`
	Signature       string `json:"signature"`
	Message         string `json:"message"`
}

type ExecuteTransferResponse struct {
	Success      bool   `json:"success"`
	TxSignature  string `json:"tx_signature"`
	AmountHidden bool   `json:"amount_hidden"`
	Error        string `json:"error"`
	Message      string `json:"message"`
	Reason       string `json:"reason"`
}

func (c *Client) ExecuteInternalTransfer(ctx context.Context, req ExecuteTransferRequest) (ExecuteTransferResponse, error) {
	return request[ExecuteTransferResponse](ctx, c, http.MethodPost, "/transfer/internal", req)
}

func (c *Client) ExecuteExternalTransfer(ctx context.Context, req ExecuteTransferRequest) (ExecuteTransferResponse, error) {
	return request[ExecuteTransferResponse](ctx, c, http.MethodPost, "/transfer/external", req)
}

type TransactionRecord struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Token       string          `json:"token"`
	Amount      decimal.Decimal `json:"amount"`
	TxSignature string          `json:"tx_signature"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at"`
}

type TransactionHistoryResponse struct {
	Transactions []TransactionRecord `json:"transactions"`
}

func (c *Client) GetTransactionHistory(ctx context.Context, wallet string, limit int) (TransactionHistoryResponse, error) {
	path := fmt.Sprintf("/transactions/%s?limit=%d", wallet, limit)
	return request[TransactionHistoryResponse](ctx, c, http.MethodGet, path, nil)
}

type ReferralValidation struct {
	Valid bool `json:"valid"`
}

func (c *Client) ValidateReferral(ctx context.Context, code string) (ReferralValidation, error) {
	return request[ReferralValidation](ctx, c, http.MethodGet, "/referral/validate/"+code, nil)
}
