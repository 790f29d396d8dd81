package cache

import (
	"time"

	"github.com/shopspring/decimal"

	"loopy-client/src/token"
)

// Entry wraps cached data with its creation time. An entry is fresh iff
// now - Timestamp < the TTL of its category.
type Entry[T any] struct {
	Data      T         `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *Entry[T]) Fresh(now time.Time, ttl time.Duration) bool {
	if e == nil {
		return false
	}
	return now.Sub(e.Timestamp) < ttl
}

// Per-category TTLs. Balances change fastest and must never be stale during
// a transfer decision, so they expire well before price and token lists.
const (
	TTLShieldedBalance   = 5 * time.Second
	TTLShadowWireBalance = 5 * time.Second
	TTLPrices            = 30 * time.Second
	TTLWalletTokens      = time.Minute
	TTLSupportedTokens   = 5 * time.Minute
	TTLUser              = 5 * time.Minute
)

type Category string

const (
	CategoryWalletTokens    Category = "tokens"
	CategoryShieldedBalance Category = "shieldedBalance"
	CategoryShadowWire      Category = "shadowWireBalances"
	CategorySupportedTokens Category = "supportedTokens"
	CategoryTokenPrices     Category = "tokenPrices"
)

// WalletToken is one public (unshielded) holding of the connected wallet.
type WalletToken struct {
	Address        string          `json:"address"`
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	Decimals       int32           `json:"decimals"`
	USDValue       decimal.Decimal `json:"usdValue"`
	Logo           string          `json:"logo,omitempty"`
	PriceUSD       decimal.Decimal `json:"priceUsd"`
	PriceChange24h decimal.Decimal `json:"priceChange24h"`
}

// ShieldedTokenBalance is one non-SOL entry of the shielded snapshot.
type ShieldedTokenBalance struct {
	Mint             string          `json:"mint"`
	Balance          int64           `json:"balance"`
	BalanceFormatted decimal.Decimal `json:"balanceFormatted"`
	Symbol           string          `json:"symbol"`
	Decimals         int32           `json:"decimals"`
}

// ShieldedBalance is the backend's view of the user's privacy-pool holdings.
type ShieldedBalance struct {
	Sol         decimal.Decimal        `json:"sol"`
	SolLamports int64                  `json:"solLamports"`
	Tokens      []ShieldedTokenBalance `json:"tokens"`
	TotalUSD    decimal.Decimal        `json:"totalUsd"`
}

// ShadowWireBalance is the SDK's per-token balance in smallest units.
// Available is the spendable portion.
type ShadowWireBalance struct {
	Available   int64  `json:"available"`
	Deposited   int64  `json:"deposited"`
	PoolAddress string `json:"pool_address"`
}

// ShadowWireBalances maps every supported token to its balance, nil when the
// fetch for that token failed or has not happened yet.
type ShadowWireBalances map[token.Symbol]*ShadowWireBalance

// SupportedToken is the backend's listing of a depositable/withdrawable asset.
type SupportedToken struct {
	Mint                 string `json:"mint"`
	Symbol               string `json:"symbol"`
	Name                 string `json:"name"`
	Decimals             int32  `json:"decimals"`
	Logo                 string `json:"logo"`
	SupportedForDeposit  bool   `json:"supported_for_deposit"`
	SupportedForWithdraw bool   `json:"supported_for_withdraw"`
}
