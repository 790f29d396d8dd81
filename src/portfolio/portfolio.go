// Package portfolio fetches the wallet's public holdings, shielded snapshot,
// prices and the supported-token list into the cache. It is the only writer
// of those categories besides the shadowwire client; UI consumers read the
// cache and subscribe for changes.
package portfolio

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"loopy-client/src/api"
	"loopy-client/src/cache"
	"loopy-client/src/logger"
	"loopy-client/src/token"
)

type Portfolio struct {
	api     *api.Client
	store   *cache.Store
	log     *logger.Logger
	address string

	fetchingTokens   atomic.Bool
	fetchingShielded atomic.Bool
}

func New(apiClient *api.Client, store *cache.Store, address string, log *logger.Logger) *Portfolio {
	return &Portfolio{api: apiClient, store: store, log: log, address: address}
}

// RefreshShielded fetches the backend's shielded snapshot. Concurrent calls
// are dropped while one is in flight.
func (p *Portfolio) RefreshShielded(ctx context.Context) error {
	if !p.fetchingShielded.CompareAndSwap(false, true) {
		return nil
	}
	defer p.fetchingShielded.Store(false)

	resp, err := p.api.GetAllBalances(ctx, p.address)
	if err != nil {
		return err
	}

	balance := cache.ShieldedBalance{
		Sol:         resp.Balances.Sol.BalanceFormatted,
		SolLamports: resp.Balances.Sol.Balance,
	}
	for _, entry := range []struct {
		data   api.BalanceEntry
		symbol string
	}{
		{resp.Balances.Usdc, "USDC"},
		{resp.Balances.Usdt, "USDT"},
	} {
		if entry.data.Balance <= 0 {
			continue
		}
		balance.Tokens = append(balance.Tokens, cache.ShieldedTokenBalance{
			Mint:             entry.data.Mint,
			Balance:          entry.data.Balance,
			BalanceFormatted: entry.data.BalanceFormatted,
			Symbol:           entry.symbol,
			Decimals:         6,
		})
	}

	p.store.SetShieldedBalance(balance)
	return nil
}

// RefreshWalletTokens fetches the wallet's public holdings with prices,
// sorted by USD value descending. Concurrent calls are dropped.
func (p *Portfolio) RefreshWalletTokens(ctx context.Context) error {
	if !p.fetchingTokens.CompareAndSwap(false, true) {
		return nil
	}
	defer p.fetchingTokens.Store(false)

	resp, err := p.api.GetWalletTokens(ctx, p.address)
	if err != nil {
		return err
	}

	tokens := make([]cache.WalletToken, 0, len(resp.Tokens))
	for _, t := range resp.Tokens {
		symbol, name, decimals := t.Token.Symbol, t.Token.Name, t.Token.Decimals
		if symbol == "" {
			symbol = "UNKNOWN"
		}
		if name == "" {
			name = "Unknown Token"
		}
		if decimals == 0 {
			decimals = 9
		}
		tokens = append(tokens, cache.WalletToken{
			Address:        t.Address,
			Symbol:         symbol,
			Name:           name,
			Balance:        t.Balance,
			Decimals:       decimals,
			USDValue:       t.Value,
			Logo:           t.Token.Image,
			PriceUSD:       t.Price.USD,
			PriceChange24h: t.PriceChange24h,
		})
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].USDValue.GreaterThan(tokens[j].USDValue)
	})

	p.store.SetWalletTokens(tokens)
	return nil
}

// SupportedTokens serves from cache while the 5-minute TTL holds and
// refetches once when it has lapsed.
func (p *Portfolio) SupportedTokens(ctx context.Context) ([]cache.SupportedToken, error) {
	if p.store.IsFresh(cache.CategorySupportedTokens, cache.TTLSupportedTokens) {
		return p.store.SupportedTokens().Data, nil
	}

	tokens, err := p.api.GetSupportedTokens(ctx)
	if err != nil {
		return nil, err
	}
	p.store.SetSupportedTokens(tokens)
	return tokens, nil
}

// Price returns the USD price for a mint, cached for 30 seconds.
func (p *Portfolio) Price(ctx context.Context, mint string) (decimal.Decimal, error) {
	if p.store.IsFresh(cache.CategoryTokenPrices, cache.TTLPrices) {
		if price, ok := p.store.TokenPrices().Data[mint]; ok {
			return price, nil
		}
	}

	resp, err := p.api.GetPrice(ctx, mint)
	if err != nil {
		return decimal.Zero, err
	}
	price := resp.Value()

	prices := map[string]decimal.Decimal{mint: price}
	if entry := p.store.TokenPrices(); entry != nil {
		for m, v := range entry.Data {
			if m != mint {
				prices[m] = v
			}
		}
	}
	p.store.SetTokenPrices(prices)
	return price, nil
}

// TotalUSDValue sums the cached public holdings.
func (p *Portfolio) TotalUSDValue() decimal.Decimal {
	entry := p.store.WalletTokens()
	if entry == nil {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, t := range entry.Data {
		total = total.Add(t.USDValue)
	}
	return total
}

// WalletBalanceOf returns the public balance of a pool token, zero when the
// wallet does not hold it.
func (p *Portfolio) WalletBalanceOf(sym token.Symbol) decimal.Decimal {
	entry := p.store.WalletTokens()
	if entry == nil {
		return decimal.Zero
	}
	for _, t := range entry.Data {
		if t.Symbol == string(sym) {
			return t.Balance
		}
	}
	return decimal.Zero
}
