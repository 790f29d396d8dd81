package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"loopy-client/src/retry"
)

// Confirmer waits for a submitted transaction to land. Confirm is the
// primary mechanism; Status is the fallback probe used when Confirm errors
// but the transaction may have landed anyway.
type Confirmer interface {
	Confirm(ctx context.Context, signature string, lastValidBlockHeight uint64) error
	Status(ctx context.Context, signature string) (string, error)
}

// fallbackDelay is how long the flows wait before the status probe when the
// primary confirmation path errored.
const fallbackDelay = 2 * time.Second

// RPCConfirmer confirms against a Solana RPC endpoint by polling signature
// statuses.
type RPCConfirmer struct {
	client *rpc.Client
}

func NewRPCConfirmer(client *rpc.Client) *RPCConfirmer {
	return &RPCConfirmer{client: client}
}

func (c *RPCConfirmer) Confirm(ctx context.Context, signature string, lastValidBlockHeight uint64) error {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("parsing signature: %w", err)
	}

	return retry.Do(ctx, 15, time.Second, func(ctx context.Context) error {
		out, err := c.client.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return err
		}
		if len(out.Value) == 0 || out.Value[0] == nil {
			return fmt.Errorf("transaction %s not yet observed", signature)
		}
		status := out.Value[0]
		if status.Err != nil {
			return fmt.Errorf("transaction failed on-chain: %v", status.Err)
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return nil
		}
		return fmt.Errorf("transaction %s not yet confirmed", signature)
	})
}

func (c *RPCConfirmer) Status(ctx context.Context, signature string) (string, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return "", fmt.Errorf("parsing signature: %w", err)
	}

	out, err := c.client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return "", err
	}
	if len(out.Value) == 0 || out.Value[0] == nil {
		return "", nil
	}
	return string(out.Value[0].ConfirmationStatus), nil
}

// awaitConfirmation runs the primary confirmation and, when it errors, falls
// back to a single status probe after a fixed delay. This avoids declaring
// failure for a transaction that actually landed, which would push the user
// into double-submitting.
func awaitConfirmation(ctx context.Context, confirmer Confirmer, signature string, lastValidBlockHeight uint64) error {
	confirmErr := confirmer.Confirm(ctx, signature, lastValidBlockHeight)
	if confirmErr == nil {
		return nil
	}

	select {
	case <-time.After(fallbackDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	status, err := confirmer.Status(ctx, signature)
	if err == nil && (status == "confirmed" || status == "finalized") {
		return nil
	}
	return fmt.Errorf("confirmation failed for %s: %w", signature, confirmErr)
}
