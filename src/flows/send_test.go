package flows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"loopy-client/src/shadowwire"
	"loopy-client/src/token"
)

func newSendFlow(env *testEnv) *SendFlow {
	return NewSendFlow(env.client, env.portfolio, env.store,
		env.signer, env.recordStep, testLog())
}

func TestSendFlowHappyPath(t *testing.T) {
	sdk := &fakeSDK{
		balance:     1_000_000_000,
		uploadNonce: 555,
		outcome:     shadowwire.TransferOutcome{Success: true, TxSignature: "transfer-sig"},
	}
	env := newTestEnv(t, sdk)
	flow := newSendFlow(env)

	refreshesBefore := sdk.balanceCallCount()

	result, err := flow.Run(context.Background(), SendRequest{
		Recipient:   testRecipient,
		Token:       token.SOL,
		AmountInput: "0.5",
		Mode:        shadowwire.Internal,
	})
	assert.NoError(t, err)
	assert.Equal(t, "transfer-sig", result.TxSignature)
	assert.True(t, result.AmountHidden)

	// The two signing steps are driven by the two signature requests.
	assert.Equal(t, []string{"proving", "sign-proof", "sign-transfer", "processing", "confirming"}, env.steps)
	assert.Equal(t, 2, env.signer.sigCalls)
	assert.Equal(t, StepNotStarted, flow.CurrentStep())

	// Balances are re-fetched after the transfer, never decremented locally.
	assert.Greater(t, sdk.balanceCallCount(), refreshesBefore)
}

func TestSendFlowRejectsMissingRecipient(t *testing.T) {
	env := newTestEnv(t, &fakeSDK{balance: 1_000_000_000})
	flow := newSendFlow(env)

	_, err := flow.Run(context.Background(), SendRequest{
		Recipient:   "",
		Token:       token.SOL,
		AmountInput: "0.5",
		Mode:        shadowwire.Internal,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Recipient address is required")
}

func TestSendFlowRejectsMalformedRecipient(t *testing.T) {
	env := newTestEnv(t, &fakeSDK{balance: 1_000_000_000})
	flow := newSendFlow(env)

	_, err := flow.Run(context.Background(), SendRequest{
		Recipient:   "not-a-solana-address",
		Token:       token.SOL,
		AmountInput: "0.5",
		Mode:        shadowwire.Internal,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Solana address")
	assert.Empty(t, env.steps)
}

func TestSendFlowRejectsSelfTransfer(t *testing.T) {
	env := newTestEnv(t, &fakeSDK{balance: 1_000_000_000})
	flow := newSendFlow(env)

	_, err := flow.Run(context.Background(), SendRequest{
		Recipient:   testSender,
		Token:       token.SOL,
		AmountInput: "0.5",
		Mode:        shadowwire.Internal,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot transfer to yourself")
}

func TestSendFlowSurfacesTransferFailureAndResets(t *testing.T) {
	sdk := &fakeSDK{
		balance:     1_000_000_000,
		uploadNonce: 1,
		outcome:     shadowwire.TransferOutcome{Success: false, Error: "nullifier already spent"},
	}
	env := newTestEnv(t, sdk)
	flow := newSendFlow(env)

	_, err := flow.Run(context.Background(), SendRequest{
		Recipient:   testRecipient,
		Token:       token.SOL,
		AmountInput: "0.5",
		Mode:        shadowwire.Internal,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nullifier already spent")
	assert.Equal(t, StepNotStarted, flow.CurrentStep())
	// The failure happened after both signatures.
	assert.Equal(t, []string{"proving", "sign-proof", "sign-transfer"}, env.steps)
}

func TestSendFlowRejectsInvalidAmount(t *testing.T) {
	env := newTestEnv(t, &fakeSDK{balance: 1_000_000_000})
	flow := newSendFlow(env)

	for _, input := range []string{"", "abc", "0"} {
		_, err := flow.Run(context.Background(), SendRequest{
			Recipient:   testRecipient,
			Token:       token.SOL,
			AmountInput: input,
			Mode:        shadowwire.Internal,
		})
		assert.Error(t, err, "input %q", input)
	}
}
