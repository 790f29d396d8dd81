// Package wallet is the signing collaborator: everything the client needs
// from whatever holds the user's key, reduced to two operations.
package wallet

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MessageSigner signs an arbitrary message with the wallet key. Transfer
// authorization uses this twice per transfer, in strict order.
type MessageSigner interface {
	SignMessage(message []byte) ([]byte, error)
}

// TransactionSender signs a prepared base64 transaction and submits it,
// returning the transaction signature.
type TransactionSender interface {
	SignAndSendTransaction(txBase64 string) (string, error)
}

type Signer interface {
	MessageSigner
	TransactionSender
	Address() string
}

// ValidateAddress rejects anything that is not a well-formed Solana public
// key.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("empty address")
	}
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return fmt.Errorf("invalid Solana address %q: %w", address, err)
	}
	return nil
}
