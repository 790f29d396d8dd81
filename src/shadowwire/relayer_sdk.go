package shadowwire

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mr-tron/base58"

	"loopy-client/src/api"
	"loopy-client/src/cache"
	"loopy-client/src/logger"
	"loopy-client/src/retry"
	"loopy-client/src/token"
	"loopy-client/src/wallet"
)

// RelayerSDK implements the SDK surface against the Loopy relayer's HTTP
// API. Proof computation happens server-side; each authorization message is
// signed locally and sent base58-encoded alongside the request.
type RelayerSDK struct {
	api        *api.Client
	log        *logger.Logger
	proverPath string
}

func NewRelayerSDK(apiClient *api.Client, proverPath string, log *logger.Logger) *RelayerSDK {
	return &RelayerSDK{api: apiClient, log: log, proverPath: proverPath}
}

func (s *RelayerSDK) Initialize(ctx context.Context) error {
	// Reaching the supported-token listing proves the relayer is up and the
	// base URL is sane.
	if _, err := s.api.GetSupportedTokens(ctx); err != nil {
		return fmt.Errorf("relayer unreachable: %w", err)
	}
	return nil
}

// NegotiateProver probes for a locally installed accelerated prover. The
// probe retries briefly because the prover artifact may still be unpacking
// on first run.
func (s *RelayerSDK) NegotiateProver(ctx context.Context) ProverCapability {
	if s.proverPath == "" {
		return ProverUnavailable()
	}

	err := retry.Do(ctx, 3, 100*time.Millisecond, func(context.Context) error {
		_, statErr := os.Stat(s.proverPath)
		return statErr
	})
	if err != nil {
		s.log.Warnf("accelerated prover not found at %s: %v", s.proverPath, err)
		return ProverUnavailable()
	}
	return ProverAvailable(ProverHandle{Path: s.proverPath})
}

func (s *RelayerSDK) GetBalance(ctx context.Context, address string, t token.Symbol) (cache.ShadowWireBalance, error) {
	resp, err := s.api.GetAllBalances(ctx, address)
	if err != nil {
		return cache.ShadowWireBalance{}, err
	}

	var entry api.BalanceEntry
	switch t {
	case token.SOL:
		entry = resp.Balances.Sol
	case token.USDC:
		entry = resp.Balances.Usdc
	default:
		entry = resp.Balances.Usdt
	}

	return cache.ShadowWireBalance{
		Available:   entry.Balance,
		Deposited:   entry.Balance,
		PoolAddress: entry.Mint,
	}, nil
}

func (s *RelayerSDK) Deposit(ctx context.Context, params DepositParams) (TxDescriptor, error) {
	resp, err := s.api.PrepareDeposit(ctx, api.PrepareEscrowRequest{
		WalletAddress: params.Wallet,
		Amount:        params.Amount,
		TokenMint:     token.MintOf(params.Token),
	})
	if err != nil {
		return TxDescriptor{}, err
	}
	return descriptorFrom(resp), nil
}

func (s *RelayerSDK) Withdraw(ctx context.Context, params DepositParams) (TxDescriptor, error) {
	resp, err := s.api.PrepareWithdraw(ctx, api.PrepareEscrowRequest{
		WalletAddress: params.Wallet,
		Amount:        params.Amount,
		TokenMint:     token.MintOf(params.Token),
	})
	if err != nil {
		return TxDescriptor{}, err
	}
	return descriptorFrom(resp), nil
}

func descriptorFrom(tx api.UnsignedTransaction) TxDescriptor {
	return TxDescriptor{
		Transaction:          tx.Transaction,
		RecentBlockhash:      tx.RecentBlockhash,
		LastValidBlockHeight: tx.LastValidBlockHeight,
	}
}

func (s *RelayerSDK) UploadProof(ctx context.Context, params ProofUploadParams, signer wallet.MessageSigner) (ProofUploadResult, error) {
	message := fmt.Sprintf("shadowwire:proof:%s:%s:%d:%d",
		params.SenderWallet, params.Token, params.Amount, params.Nonce)
	signature, err := signMessage(signer, message)
	if err != nil {
		return ProofUploadResult{}, err
	}

	resp, err := s.api.UploadTransferProof(ctx, api.UploadProofRequest{
		SenderWallet: params.SenderWallet,
		Token:        string(params.Token),
		Amount:       params.Amount,
		Nonce:        params.Nonce,
		Signature:    signature,
		Message:      message,
	})
	if err != nil {
		return ProofUploadResult{}, err
	}
	return ProofUploadResult{Nonce: resp.Nonce}, nil
}

func (s *RelayerSDK) InternalTransfer(ctx context.Context, params TransferParams, signer wallet.MessageSigner) (TransferOutcome, error) {
	return s.executeTransfer(ctx, params, signer, s.api.ExecuteInternalTransfer)
}

func (s *RelayerSDK) ExternalTransfer(ctx context.Context, params TransferParams, signer wallet.MessageSigner) (TransferOutcome, error) {
	return s.executeTransfer(ctx, params, signer, s.api.ExecuteExternalTransfer)
}

func (s *RelayerSDK) executeTransfer(
	ctx context.Context,
	params TransferParams,
	signer wallet.MessageSigner,
	execute func(context.Context, api.ExecuteTransferRequest) (api.ExecuteTransferResponse, error),
) (TransferOutcome, error) {
	message := fmt.Sprintf("shadowwire:transfer:%s:%s:%s:%d:%d",
		params.SenderWallet, params.RecipientWallet, params.Token, params.Nonce, params.RelayerFee)
	signature, err := signMessage(signer, message)
	if err != nil {
		return TransferOutcome{}, err
	}

	resp, err := execute(ctx, api.ExecuteTransferRequest{
		SenderWallet:    params.SenderWallet,
		RecipientWallet: params.RecipientWallet,
		Token:           string(params.Token),
		Nonce:           params.Nonce,
		RelayerFee:      params.RelayerFee,
		Signature:       signature,
		Message:         message,
	})
	if err != nil {
		return TransferOutcome{}, err
	}

	return TransferOutcome{
		Success:      resp.Success,
		TxSignature:  resp.TxSignature,
		AmountHidden: resp.AmountHidden,
		Error:        resp.Error,
		Message:      resp.Message,
		Reason:       resp.Reason,
	}, nil
}

func signMessage(signer wallet.MessageSigner, message string) (string, error) {
	sig, err := signer.SignMessage([]byte(message))
	if err != nil {
		return "", fmt.Errorf("wallet signing failed: %w", err)
	}
	return base58.Encode(sig), nil
}
