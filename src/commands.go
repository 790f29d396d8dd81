package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"loopy-client/src/amount"
	"loopy-client/src/api"
	"loopy-client/src/auth"
	"loopy-client/src/cache"
	"loopy-client/src/config"
	"loopy-client/src/flows"
	"loopy-client/src/logger"
	"loopy-client/src/portfolio"
	"loopy-client/src/shadowwire"
	"loopy-client/src/token"
	"loopy-client/src/wallet"
)

// app wires the shared dependency graph once per invocation; commands pull
// what they need from it.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	api       *api.Client
	store     *cache.Store
	authStore *auth.Store
	signer    *wallet.KeypairSigner
	client    *shadowwire.Client
	portfolio *portfolio.Portfolio
	auth      *auth.Service
	confirmer *flows.RPCConfirmer
}

func newApp(cfg *config.Config) (*app, error) {
	log := logger.Default()

	apiClient := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, log)
	store := cache.NewStore(filepath.Join(cfg.SessionDir, config.CacheStateFile), log)
	authStore := auth.NewStore(filepath.Join(cfg.SessionDir, config.AuthStateFile), log)

	rpcClient := rpc.New(cfg.RPCURL)
	signer, err := wallet.NewKeypairSigner(cfg.KeypairPath, rpcClient)
	if err != nil {
		return nil, err
	}

	sdk := shadowwire.NewRelayerSDK(apiClient, cfg.ProverPath, log)
	client := shadowwire.NewClient(sdk, store, signer.Address(), log)
	pf := portfolio.New(apiClient, store, signer.Address(), log)

	return &app{
		cfg:       cfg,
		log:       log,
		api:       apiClient,
		store:     store,
		authStore: authStore,
		signer:    signer,
		client:    client,
		portfolio: pf,
		auth:      auth.NewService(authStore, store, apiClient, signer, cfg.SessionDir, log),
		confirmer: flows.NewRPCConfirmer(rpcClient),
	}, nil
}

// initClient brings the privacy client to Ready before a command that needs
// it runs.
func (a *app) initClient(ctx context.Context) error {
	return a.client.Init(ctx)
}

func printStep(index int, step flows.Step) {
	fmt.Printf("[%d] %s: %s\n", index+1, step.Label, step.Description)
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var a *app

	root := &cobra.Command{
		Use:           "loopy",
		Short:         "Shielded balance client for the Loopy privacy pool on Solana",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(cfg)
			return err
		},
	}

	root.AddCommand(
		newRegisterCmd(&a),
		newBalanceCmd(&a),
		newShieldCmd(&a, flows.ModeShield),
		newShieldCmd(&a, flows.ModeUnshield),
		newSendCmd(&a),
		newHistoryCmd(&a),
		newLogoutCmd(&a),
	)
	return root
}

func newRegisterCmd(a **app) *cobra.Command {
	var referral string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register this wallet with the relayer, or adopt an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			user, err := (*a).auth.CheckExisting(ctx)
			if err != nil {
				return err
			}
			if user == nil {
				if referral != "" {
					valid, err := (*a).api.ValidateReferral(ctx, referral)
					if err != nil {
						return err
					}
					if !valid.Valid {
						return fmt.Errorf("referral code %q is not valid", referral)
					}
				}
				user, err = (*a).auth.Register(ctx, referral)
				if err != nil {
					return err
				}
			}

			fmt.Printf("Registered as %s\n", amount.TruncateAddress(user.WalletAddress, 4))
			fmt.Printf("Referral code: %s  Points: %d\n", user.ReferralCode, user.Points)
			return nil
		},
	}
	cmd.Flags().StringVar(&referral, "referral", "", "referral code to register with")
	return cmd
}

func newBalanceCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show public and shielded balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := (*a).initClient(ctx); err != nil {
				return err
			}

			if err := (*a).client.RefreshBalance(ctx, "", false); err != nil {
				(*a).log.Errorf(err, "refreshing shielded balances")
			}
			if err := (*a).portfolio.RefreshWalletTokens(ctx); err != nil {
				(*a).log.Errorf(err, "refreshing wallet tokens")
			}

			fmt.Printf("Wallet %s\n\n", amount.TruncateAddress((*a).signer.Address(), 4))

			fmt.Println("Shielded:")
			balances := (*a).client.Balances()
			for _, t := range token.Supported() {
				b := balances[t]
				if b == nil {
					fmt.Printf("  %-5s unavailable\n", t)
					continue
				}
				fmt.Printf("  %s\n", amount.FormatTokenBalance(b.Available, token.DecimalsOf(t), string(t)))
			}

			fmt.Println("\nPublic:")
			if entry := (*a).store.WalletTokens(); entry != nil {
				for _, t := range entry.Data {
					fmt.Printf("  %-6s %s (%s)\n",
						t.Symbol,
						amount.FormatNumber(t.Balance, amount.DisplayDecimals),
						amount.FormatUSD(t.USDValue))
				}
			}
			fmt.Printf("\nTotal public value: %s\n", amount.FormatUSD((*a).portfolio.TotalUSDValue()))
			return nil
		},
	}
}

func newShieldCmd(a **app, mode flows.ShieldMode) *cobra.Command {
	short := "Move funds from the public wallet into the shielded pool"
	if mode == flows.ModeUnshield {
		short = "Move funds from the shielded pool back to the public wallet"
	}

	return &cobra.Command{
		Use:   string(mode) + " <token> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := (*a).initClient(ctx); err != nil {
				return err
			}

			// The flow validates against cached balances; make sure they exist.
			if err := (*a).portfolio.RefreshWalletTokens(ctx); err != nil {
				return err
			}
			if err := (*a).client.RefreshBalance(ctx, "", false); err != nil {
				return err
			}

			flow := flows.NewShieldFlow(
				(*a).client, (*a).portfolio, (*a).store,
				(*a).signer, (*a).confirmer, printStep, (*a).log,
			)
			result, err := flow.Run(ctx, flows.ShieldRequest{
				Mode:        mode,
				Token:       token.Symbol(args[0]),
				AmountInput: args[1],
			})
			if err != nil {
				return err
			}

			fmt.Printf("Done: %s %s %s\n", string(mode), result.Amount.String(), result.Token)
			fmt.Printf("Transaction: %s\n", result.TxSignature)
			return nil
		},
	}
}

func newSendCmd(a **app) *cobra.Command {
	var (
		tok      string
		external bool
	)

	cmd := &cobra.Command{
		Use:   "send <recipient> <amount>",
		Short: "Privately transfer shielded funds to another wallet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := (*a).initClient(ctx); err != nil {
				return err
			}
			if err := (*a).client.RefreshBalance(ctx, "", false); err != nil {
				return err
			}

			mode := shadowwire.Internal
			if external {
				mode = shadowwire.External
			}

			flow := flows.NewSendFlow(
				(*a).client, (*a).portfolio, (*a).store,
				(*a).signer, printStep, (*a).log,
			)
			result, err := flow.Run(ctx, flows.SendRequest{
				Recipient:   args[0],
				Token:       token.Symbol(tok),
				AmountInput: args[1],
				Mode:        mode,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Sent %s %s to %s\n",
				result.Amount.String(), result.Token, amount.TruncateAddress(args[0], 4))
			fmt.Printf("Transaction: %s\n", result.TxSignature)
			if result.AmountHidden {
				fmt.Println("The transferred amount is hidden on-chain.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tok, "token", string(token.SOL), "token to transfer (SOL, USDC, USD1)")
	cmd.Flags().BoolVar(&external, "external", false, "deliver to the recipient's public wallet instead of their shielded balance")
	return cmd
}

func newHistoryCmd(a **app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent shield, unshield and transfer activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := (*a).api.GetTransactionHistory(cmd.Context(), (*a).signer.Address(), limit)
			if err != nil {
				return err
			}
			if len(resp.Transactions) == 0 {
				fmt.Println("No transactions yet.")
				return nil
			}
			for _, tx := range resp.Transactions {
				fmt.Printf("%-10s %-5s %-14s %-9s %s\n",
					tx.Type, tx.Token, tx.Amount.String(), tx.Status,
					amount.TruncateAddress(tx.TxSignature, 6))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of transactions to show")
	return cmd
}

func newLogoutCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the local session, caches and wallet-connection artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).auth.Logout(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}
