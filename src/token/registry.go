// Package token is the static registry of assets the privacy pool supports.
// The table never mutates at runtime.
package token

import "github.com/shopspring/decimal"

type Symbol string

const (
	SOL  Symbol = "SOL"
	USDC Symbol = "USDC"
	USD1 Symbol = "USD1"
)

// Well-known mints referenced outside the pool registry.
const (
	MintWrappedSOL = "So11111111111111111111111111111111111111112"
	MintUSDT       = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// Descriptor holds the static parameters of one supported token. Minimums
// are in human units; MinTransfer sits above MinWithdraw because a transfer
// carries a relayer fee buffer on top of the withdrawable amount.
type Descriptor struct {
	Symbol      Symbol
	Decimals    int32
	Mint        string
	MinDeposit  decimal.Decimal
	MinWithdraw decimal.Decimal
	MinTransfer decimal.Decimal
}

var registry = map[Symbol]Descriptor{
	SOL: {
		Symbol:      SOL,
		Decimals:    9,
		Mint:        "Native",
		MinDeposit:  decimal.RequireFromString("0.11"),
		MinWithdraw: decimal.RequireFromString("0.1"),
		MinTransfer: decimal.RequireFromString("0.105"), // 0.1 + 1% fee buffer
	},
	USDC: {
		Symbol:      USDC,
		Decimals:    6,
		Mint:        "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		MinDeposit:  decimal.RequireFromString("1"),
		MinWithdraw: decimal.RequireFromString("1"),
		MinTransfer: decimal.RequireFromString("1.01"),
	},
	USD1: {
		Symbol:      USD1,
		Decimals:    6,
		Mint:        "USD1ttGY1N17NEEHLmELoaybftRBUSErhqYiQzvEmuB",
		MinDeposit:  decimal.RequireFromString("1"),
		MinWithdraw: decimal.RequireFromString("1"),
		MinTransfer: decimal.RequireFromString("1.01"),
	},
}

// Supported returns the pool tokens in a stable order.
func Supported() []Symbol {
	return []Symbol{SOL, USDC, USD1}
}

func Lookup(s Symbol) (Descriptor, bool) {
	d, ok := registry[s]
	return d, ok
}

func IsSupported(s Symbol) bool {
	_, ok := registry[s]
	return ok
}

func DecimalsOf(s Symbol) int32 {
	return registry[s].Decimals
}

func MintOf(s Symbol) string {
	return registry[s].Mint
}

func MinDepositOf(s Symbol) decimal.Decimal {
	return registry[s].MinDeposit
}

func MinWithdrawOf(s Symbol) decimal.Decimal {
	return registry[s].MinWithdraw
}

func MinTransferOf(s Symbol) decimal.Decimal {
	return registry[s].MinTransfer
}
