package flows

import (
	"context"

	"github.com/shopspring/decimal"

	"loopy-client/src/amount"
	"loopy-client/src/apperr"
	"loopy-client/src/cache"
	"loopy-client/src/logger"
	"loopy-client/src/portfolio"
	"loopy-client/src/shadowwire"
	"loopy-client/src/token"
	"loopy-client/src/wallet"
)

// solFeeReserve is kept unshielded when computing the spendable maximum for
// a SOL shield, so the wallet can still pay network fees.
var solFeeReserve = decimal.RequireFromString("0.01")

type ShieldMode string

const (
	ModeShield   ShieldMode = "shield"
	ModeUnshield ShieldMode = "unshield"
)

type ShieldRequest struct {
	Mode        ShieldMode
	Token       token.Symbol
	AmountInput string
}

type ShieldResult struct {
	TxSignature string
	Amount      decimal.Decimal
	Token       token.Symbol
}

// ShieldFlow drives a shield or unshield end to end: prepare, sign and
// submit, confirm, then refresh balances from the source of truth.
type ShieldFlow struct {
	client    *shadowwire.Client
	portfolio *portfolio.Portfolio
	store     *cache.Store
	signer    wallet.Signer
	confirmer Confirmer
	log       *logger.Logger

	progress *progress
}

func NewShieldFlow(
	client *shadowwire.Client,
	pf *portfolio.Portfolio,
	store *cache.Store,
	signer wallet.Signer,
	confirmer Confirmer,
	onProgress ProgressFn,
	log *logger.Logger,
) *ShieldFlow {
	return &ShieldFlow{
		client:    client,
		portfolio: pf,
		store:     store,
		signer:    signer,
		confirmer: confirmer,
		log:       log,
		progress:  newProgress(ShieldSteps, onProgress),
	}
}

func (f *ShieldFlow) CurrentStep() int {
	return f.progress.current
}

func (f *ShieldFlow) Run(ctx context.Context, req ShieldRequest) (result *ShieldResult, err error) {
	steps := ShieldSteps
	if req.Mode == ModeUnshield {
		steps = UnshieldSteps
	}
	f.progress = newProgress(steps, f.progress.notify)

	defer func() {
		if err != nil {
			f.progress.reset()
		}
	}()

	desc, ok := token.Lookup(req.Token)
	if !ok {
		return nil, apperr.New(apperr.KindValidation, "unsupported token %s", req.Token)
	}

	parsed := amount.Parse(req.AmountInput, desc.Decimals)
	if !parsed.Valid {
		return nil, apperr.New(apperr.KindValidation, "%s", parsed.Err)
	}
	if parsed.Value.IsZero() {
		return nil, apperr.New(apperr.KindValidation, "Amount is required")
	}
	if err := f.validateBounds(parsed.Value, desc, req.Mode); err != nil {
		return nil, err
	}

	amountSmallest := amount.ToSmallestUnit(parsed.Value, desc.Decimals)

	f.progress.advance(0)
	var tx shadowwire.TxDescriptor
	if req.Mode == ModeShield {
		tx, err = f.client.Deposit(ctx, amountSmallest, req.Token)
	} else {
		tx, err = f.client.Withdraw(ctx, amountSmallest, req.Token)
	}
	if err != nil {
		return nil, err
	}

	f.progress.advance(1)
	signature, err := f.signer.SignAndSendTransaction(tx.Transaction)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, err, "Wallet signing failed")
	}
	f.log.Infof("%s transaction sent: %s", req.Mode, signature)

	f.progress.advance(2)
	if err := awaitConfirmation(ctx, f.confirmer, signature, tx.LastValidBlockHeight); err != nil {
		return nil, err
	}

	f.progress.advance(3)
	f.finalize(ctx)

	f.progress.reset()
	return &ShieldResult{TxSignature: signature, Amount: parsed.Value, Token: req.Token}, nil
}

func (f *ShieldFlow) validateBounds(amt decimal.Decimal, desc token.Descriptor, mode ShieldMode) error {
	min, action := desc.MinDeposit, "deposit"
	if mode == ModeUnshield {
		min, action = desc.MinWithdraw, "withdraw"
	}
	if amt.LessThan(min) {
		return apperr.New(apperr.KindValidation,
			"Minimum %s is %s %s (anti-spam protection)", action, min.String(), desc.Symbol)
	}

	max := f.maxAmount(desc, mode)
	if amt.GreaterThan(max) {
		return apperr.New(apperr.KindValidation, "Insufficient balance")
	}
	return nil
}

// maxAmount is the spendable ceiling: for shield the public wallet balance
// (less the SOL fee reserve), for unshield the available shielded balance.
func (f *ShieldFlow) maxAmount(desc token.Descriptor, mode ShieldMode) decimal.Decimal {
	if mode == ModeShield {
		max := f.portfolio.WalletBalanceOf(desc.Symbol)
		if desc.Symbol == token.SOL {
			max = max.Sub(solFeeReserve)
		}
		if max.IsNegative() {
			return decimal.Zero
		}
		return max
	}

	available, known := f.client.Available(desc.Symbol)
	if !known {
		return decimal.Zero
	}
	return amount.FromSmallestUnit(available, desc.Decimals)
}

// finalize invalidates every balance category and re-fetches from the
// backend. Balances are never decremented locally; the relayer's numbers are
// the only authoritative ones.
func (f *ShieldFlow) finalize(ctx context.Context) {
	f.store.InvalidateShielded()
	f.store.InvalidateShadowWireBalances()

	if err := f.client.RefreshBalance(ctx, "", true); err != nil {
		f.log.Errorf(err, "forced shielded balance refresh failed")
	}
	if err := f.portfolio.RefreshWalletTokens(ctx); err != nil {
		f.log.Errorf(err, "wallet token refresh failed")
	}
}
