// Package amount converts between human-entered decimal amounts and integer
// smallest-unit values. All arithmetic runs on arbitrary-precision decimals;
// conversions truncate toward zero so a displayed balance can never round up
// into an overspend.
package amount

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MaxDecimalsSOL   = 9
	MaxDecimalsUSD   = 2
	MaxDecimalsToken = 6
	DisplayDecimals  = 4
)

const LamportsPerSol = 1_000_000_000

// ToSmallestUnit multiplies by 10^decimals and truncates.
func ToSmallestUnit(amt decimal.Decimal, decimals int32) int64 {
	return amt.Shift(decimals).Truncate(0).IntPart()
}

// FromSmallestUnit divides by 10^decimals.
func FromSmallestUnit(units int64, decimals int32) decimal.Decimal {
	return decimal.NewFromInt(units).Shift(-decimals)
}

func LamportsToSol(lamports int64) decimal.Decimal {
	return FromSmallestUnit(lamports, MaxDecimalsSOL)
}

func SolToLamports(sol decimal.Decimal) int64 {
	return ToSmallestUnit(sol, MaxDecimalsSOL)
}

type Parsed struct {
	Value decimal.Decimal
	Valid bool
	Err   string
}

func invalid(msg string) Parsed {
	return Parsed{Value: decimal.Zero, Valid: false, Err: msg}
}

// Parse validates a user-entered amount string. It returns a validity flag
// rather than an error; callers must check Valid before using Value.
// Rejected inputs: anything other than digits and a single decimal point,
// more fractional digits than maxDecimals, and negative values.
func Parse(raw string, maxDecimals int32) Parsed {
	trimmed := strings.TrimSpace(raw)

	for _, r := range trimmed {
		if (r < '0' || r > '9') && r != '.' {
			return invalid("Invalid number")
		}
	}

	if strings.Count(trimmed, ".") > 1 {
		return invalid("Invalid number")
	}

	if _, frac, found := strings.Cut(trimmed, "."); found && int32(len(frac)) > maxDecimals {
		return invalid("Maximum " + decimal.NewFromInt32(maxDecimals).String() + " decimal places")
	}

	if trimmed == "" || trimmed == "." {
		return Parsed{Value: decimal.Zero, Valid: true}
	}

	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return invalid("Invalid number")
	}
	if value.IsNegative() {
		return invalid("Must be positive")
	}

	return Parsed{Value: value, Valid: true}
}
