// Package shadowwire wraps the external ShadowWire privacy SDK. The Client
// here is the sole owner of shielded-balance state and the single point of
// concurrency control for balance refresh and transfers.
package shadowwire

import (
	"context"

	"loopy-client/src/cache"
	"loopy-client/src/token"
	"loopy-client/src/wallet"
)

type VisibilityMode string

const (
	// Internal hides the amount with a zero-knowledge proof; both parties
	// must be registered pool users.
	Internal VisibilityMode = "internal"
	// External hides the sender's identity; the amount is visible to the
	// recipient, who can be any wallet.
	External VisibilityMode = "external"
)

// TxDescriptor is an unsigned transaction prepared by the SDK. Signing and
// submission are the caller's responsibility.
type TxDescriptor struct {
	Transaction          string
	RecentBlockhash      string
	LastValidBlockHeight uint64
}

type DepositParams struct {
	Wallet string
	Amount int64 // smallest units
	Token  token.Symbol
}

type ProofUploadParams struct {
	SenderWallet string
	Token        token.Symbol
	Amount       int64 // smallest units
	Nonce        int64
}

// ProofUploadResult carries the nonce the backend accepted. Phase 2 must use
// this nonce, not the locally computed one.
type ProofUploadResult struct {
	Nonce int64
}

type TransferParams struct {
	SenderWallet    string
	RecipientWallet string
	Token           token.Symbol
	Nonce           int64
	RelayerFee      int64 // smallest units
}

// TransferOutcome is the backend's verdict on a transfer execution. Success
// can be false even on a transport-level success.
type TransferOutcome struct {
	Success      bool
	TxSignature  string
	AmountHidden bool
	Error        string
	Message      string
	Reason       string
}

// TransferResult is what the client hands back to callers.
type TransferResult struct {
	TxSignature  string
	AmountHidden bool
}

// SDK is the external capability surface the privacy pool exposes. Proof
// generation, commitments and nullifiers live entirely behind it.
type SDK interface {
	Initialize(ctx context.Context) error
	// NegotiateProver probes for the accelerated local prover. Unavailable
	// is not an error; the SDK falls back to backend proof computation.
	NegotiateProver(ctx context.Context) ProverCapability
	GetBalance(ctx context.Context, address string, t token.Symbol) (cache.ShadowWireBalance, error)
	Deposit(ctx context.Context, params DepositParams) (TxDescriptor, error)
	Withdraw(ctx context.Context, params DepositParams) (TxDescriptor, error)
	UploadProof(ctx context.Context, params ProofUploadParams, signer wallet.MessageSigner) (ProofUploadResult, error)
	InternalTransfer(ctx context.Context, params TransferParams, signer wallet.MessageSigner) (TransferOutcome, error)
	ExternalTransfer(ctx context.Context, params TransferParams, signer wallet.MessageSigner) (TransferOutcome, error)
}

// ProverHandle identifies a loaded accelerated prover.
type ProverHandle struct {
	Path string
}

// ProverCapability is the tagged outcome of prover negotiation: either
// Available with a handle, or Unavailable.
type ProverCapability struct {
	handle *ProverHandle
}

func ProverAvailable(h ProverHandle) ProverCapability {
	return ProverCapability{handle: &h}
}

func ProverUnavailable() ProverCapability {
	return ProverCapability{}
}

func (p ProverCapability) Available() bool {
	return p.handle != nil
}

// Handle returns the prover handle; the boolean mirrors Available.
func (p ProverCapability) Handle() (ProverHandle, bool) {
	if p.handle == nil {
		return ProverHandle{}, false
	}
	return *p.handle, true
}
