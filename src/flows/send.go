package flows

import (
	"context"
	"sync/atomic"

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

type SendRequest struct {
	Recipient   string
	Token       token.Symbol
	AmountInput string
	Mode        shadowwire.VisibilityMode
}

type SendResult struct {
	TxSignature  string
	AmountHidden bool
	Amount       decimal.Decimal
	Token        token.Symbol
}

// SendFlow drives a private transfer. The two signatures the protocol
// requires happen inside the orchestrator, so the flow advances its signing
// steps by observing the signer rather than by calling it.
type SendFlow struct {
	client    *shadowwire.Client
	portfolio *portfolio.Portfolio
	store     *cache.Store
	signer    wallet.Signer
	log       *logger.Logger

	progress *progress
}

func NewSendFlow(
	client *shadowwire.Client,
	pf *portfolio.Portfolio,
	store *cache.Store,
	signer wallet.Signer,
	onProgress ProgressFn,
	log *logger.Logger,
) *SendFlow {
	return &SendFlow{
		client:    client,
		portfolio: pf,
		store:     store,
		signer:    signer,
		log:       log,
		progress:  newProgress(SendSteps, onProgress),
	}
}

func (f *SendFlow) CurrentStep() int {
	return f.progress.current
}

func (f *SendFlow) Run(ctx context.Context, req SendRequest) (result *SendResult, err error) {
	defer func() {
		if err != nil {
			f.progress.reset()
		}
	}()

	if req.Recipient == "" {
		return nil, apperr.New(apperr.KindValidation, "Recipient address is required")
	}
	if err := wallet.ValidateAddress(req.Recipient); err != nil {
		return nil, apperr.New(apperr.KindValidation, "Invalid Solana address")
	}
	if req.Recipient == f.signer.Address() {
		return nil, apperr.New(apperr.KindValidation, "Cannot transfer to yourself")
	}

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

	f.progress.advance(0)

	// Steps 1 and 2 are driven by the orchestrator's signature requests: the
	// first signature authorizes the proof upload, the second the transfer.
	counting := &stepSigner{inner: f.signer, progress: f.progress}

	transfer, err := f.client.Transfer(ctx, req.Recipient, parsed.Value, req.Mode, counting, req.Token)
	if err != nil {
		return nil, err
	}

	f.progress.advance(3)
	f.progress.advance(4)
	f.finalize(ctx)

	f.progress.reset()
	return &SendResult{
		TxSignature:  transfer.TxSignature,
		AmountHidden: transfer.AmountHidden,
		Amount:       parsed.Value,
		Token:        req.Token,
	}, nil
}

func (f *SendFlow) finalize(ctx context.Context) {
	f.store.InvalidateShielded()
	f.store.InvalidateShadowWireBalances()

	if err := f.client.RefreshBalance(ctx, "", true); err != nil {
		f.log.Errorf(err, "forced shielded balance refresh failed")
	}
	if err := f.portfolio.RefreshShielded(ctx); err != nil {
		f.log.Errorf(err, "shielded balance refresh failed")
	}
}

// stepSigner counts signature requests and moves the flow to the matching
// signing step before forwarding to the real signer.
type stepSigner struct {
	inner    wallet.MessageSigner
	progress *progress
	count    atomic.Int32
}

func (s *stepSigner) SignMessage(message []byte) ([]byte, error) {
	n := s.count.Add(1)
	switch n {
	case 1:
		s.progress.advance(1)
	case 2:
		s.progress.advance(2)
	}
	return s.inner.SignMessage(message)
}
