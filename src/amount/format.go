package amount

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatNumber renders a decimal rounded down to the given places with
// trailing zeros trimmed.
func FormatNumber(value decimal.Decimal, decimals int32) string {
	s := value.RoundDown(decimals).StringFixed(decimals)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "" || s == "-0" {
		return "0"
	}
	return s
}

// FormatTokenBalance converts a smallest-unit balance to display form,
// optionally suffixed with the token symbol.
func FormatTokenBalance(units int64, decimals int32, symbol string) string {
	formatted := FormatNumber(FromSmallestUnit(units, decimals), DisplayDecimals)
	if symbol == "" {
		return formatted
	}
	return formatted + " " + symbol
}

func FormatUSD(value decimal.Decimal) string {
	fixed := value.RoundDown(MaxDecimalsUSD).StringFixed(MaxDecimalsUSD)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	whole, frac, _ := strings.Cut(fixed, ".")
	var groups []string
	for len(whole) > 3 {
		groups = append([]string{whole[len(whole)-3:]}, groups...)
		whole = whole[:len(whole)-3]
	}
	groups = append([]string{whole}, groups...)

	out := "$" + strings.Join(groups, ",") + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// FormatUSDCompact shortens large USD values to K/M suffixes.
func FormatUSDCompact(value decimal.Decimal) string {
	million := decimal.NewFromInt(1_000_000)
	thousand := decimal.NewFromInt(1_000)

	switch {
	case value.GreaterThanOrEqual(million):
		return "$" + FormatNumber(value.Div(million), DisplayDecimals) + "M"
	case value.GreaterThanOrEqual(thousand):
		return "$" + FormatNumber(value.Div(thousand), DisplayDecimals) + "K"
	default:
		return FormatUSD(value)
	}
}

func FormatPercentage(value decimal.Decimal, includeSign bool) string {
	formatted := value.Abs().StringFixed(2) + "%"
	if !includeSign {
		return formatted
	}
	switch value.Sign() {
	case 1:
		return "+" + formatted
	case -1:
		return "-" + formatted
	default:
		return formatted
	}
}

// TruncateAddress shortens a wallet address for display, keeping chars
// characters on each side.
func TruncateAddress(address string, chars int) string {
	if address == "" || len(address) < chars*2+3 {
		return address
	}
	return fmt.Sprintf("%s...%s", address[:chars], address[len(address)-chars:])
}
