package wallet

import (
	"context"
	"encoding/base64"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// KeypairSigner signs with a local Solana keygen file and submits through an
// RPC endpoint. It is the CLI's stand-in for a browser wallet.
type KeypairSigner struct {
	priv      solana.PrivateKey
	rpcClient *rpc.Client
}

func NewKeypairSigner(keypairPath string, rpcClient *rpc.Client) (*KeypairSigner, error) {
	priv, err := solana.PrivateKeyFromSolanaKeygenFile(keypairPath)
	if err != nil {
		return nil, fmt.Errorf("reading keypair from %s: %w", keypairPath, err)
	}
	return &KeypairSigner{priv: priv, rpcClient: rpcClient}, nil
}

func (s *KeypairSigner) Address() string {
	return s.priv.PublicKey().String()
}

func (s *KeypairSigner) SignMessage(message []byte) ([]byte, error) {
	sig, err := s.priv.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("signing message: %w", err)
	}
	return sig[:], nil
}

// SignAndSendTransaction decodes a prepared transaction, signs it with the
// wallet key and submits it without modifying the embedded blockhash.
func (s *KeypairSigner) SignAndSendTransaction(txBase64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return "", fmt.Errorf("decoding transaction: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return "", fmt.Errorf("deserializing transaction: %w", err)
	}

	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(s.priv.PublicKey()) {
			return &s.priv
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("signing transaction: %w", err)
	}

	sig, err := s.rpcClient.SendTransactionWithOpts(
		context.Background(),
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentConfirmed,
		},
	)
	if err != nil {
		return "", fmt.Errorf("sending transaction: %w", err)
	}

	return sig.String(), nil
}
