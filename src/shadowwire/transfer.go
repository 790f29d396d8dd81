package shadowwire

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"loopy-client/src/amount"
	"loopy-client/src/apperr"
	"loopy-client/src/token"
	"loopy-client/src/wallet"
)

// relayerFeeDivisor implements the flat 1% relayer fee, truncated.
const relayerFeeDivisor = 100

// Transfer runs the two-phase signed transfer protocol. A transfer cannot be
// authorized by a single signature: proof upload and fund movement are
// distinct backend operations, each independently authenticated, bound
// together by a nonce. Phase 2 always uses the nonce Phase 1 returned, and is
// never attempted when Phase 1 failed.
//
// Transfers on one client are serialized: the second of two overlapping calls
// waits for the first to finish, so two transfers can never race on the same
// spendable balance or interleave their signature prompts.
//
// A failure after a successful Phase 1 leaves an uploaded, unconsumed proof
// behind. The client does not compensate; expiring orphaned proofs is the
// backend's responsibility.
func (c *Client) Transfer(
	ctx context.Context,
	recipient string,
	amountHuman decimal.Decimal,
	mode VisibilityMode,
	signer wallet.MessageSigner,
	tok token.Symbol,
) (TransferResult, error) {
	c.transferMu.Lock()
	defer c.transferMu.Unlock()

	if !c.Ready() {
		return TransferResult{}, apperr.New(apperr.KindValidation, "client not ready (state %s)", c.State())
	}

	if recipient == c.address {
		return TransferResult{}, apperr.New(apperr.KindValidation, "Cannot transfer to yourself")
	}

	desc, ok := token.Lookup(tok)
	if !ok {
		return TransferResult{}, apperr.New(apperr.KindValidation, "unsupported token %s", tok)
	}

	if minTransferViolated(amountHuman, desc) {
		return TransferResult{}, apperr.New(apperr.KindValidation,
			"Minimum transfer is %s %s (anti-spam protection)", desc.MinTransfer.String(), tok)
	}

	amountSmallest := amount.ToSmallestUnit(amountHuman, desc.Decimals)
	if available, known := c.Available(tok); known && amountSmallest > available {
		return TransferResult{}, apperr.New(apperr.KindValidation, "Insufficient shielded balance")
	}

	nonce := c.nextNonce()
	relayerFee := amountSmallest / relayerFeeDivisor

	c.log.Infof("transferring %s %s to %s (%s), nonce=%d fee=%d",
		amountHuman.String(), tok, recipient, mode, nonce, relayerFee)

	proofResult, err := c.sdk.UploadProof(ctx, ProofUploadParams{
		SenderWallet: c.address,
		Token:        tok,
		Amount:       amountSmallest,
		Nonce:        nonce,
	}, signer)
	if err != nil {
		return TransferResult{}, fmt.Errorf("uploading transfer proof: %w", err)
	}

	params := TransferParams{
		SenderWallet:    c.address,
		RecipientWallet: recipient,
		Token:           tok,
		Nonce:           proofResult.Nonce,
		RelayerFee:      relayerFee,
	}

	var outcome TransferOutcome
	if mode == Internal {
		outcome, err = c.sdk.InternalTransfer(ctx, params, signer)
	} else {
		outcome, err = c.sdk.ExternalTransfer(ctx, params, signer)
	}
	if err != nil {
		return TransferResult{}, fmt.Errorf("executing %s transfer: %w", mode, err)
	}

	// The backend can report a logical failure inside a successful HTTP
	// response; treat both that and a missing signature as hard failures.
	if !outcome.Success {
		msg := outcome.Error
		if msg == "" {
			msg = outcome.Message
		}
		if msg == "" {
			msg = outcome.Reason
		}
		if msg == "" {
			msg = "Transfer failed (no error message from relayer)"
		}
		return TransferResult{}, apperr.New(apperr.KindBackend, "%s", msg)
	}
	if outcome.TxSignature == "" {
		return TransferResult{}, apperr.New(apperr.KindBackend,
			"Transfer completed but no transaction signature returned")
	}

	return TransferResult{
		TxSignature:  outcome.TxSignature,
		AmountHidden: outcome.AmountHidden || mode == Internal,
	}, nil
}

// nextNonce derives a nonce from wall-clock seconds widened with a
// monotonic counter, so rapid repeated transfers within the same second
// cannot collide while the value stays ordered enough for the backend.
func (c *Client) nextNonce() int64 {
	return c.now().Unix()<<10 | (c.nonceSeq.Add(1) & 0x3ff)
}
