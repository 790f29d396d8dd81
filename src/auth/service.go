package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mr-tron/base58"

	"loopy-client/src/api"
	"loopy-client/src/cache"
	"loopy-client/src/config"
	"loopy-client/src/logger"
	"loopy-client/src/wallet"
)

// Vendor prefixes of wallet-connection session keys that must not survive a
// logout, or a new session would inherit the previous identity.
var vendorSessionPrefixes = []string{"appkit", "reown", "walletconnect", "wc@"}

type Service struct {
	store      *Store
	cacheStore *cache.Store
	api        *api.Client
	signer     wallet.Signer
	sessionDir string
	log        *logger.Logger
}

func NewService(store *Store, cacheStore *cache.Store, apiClient *api.Client, signer wallet.Signer, sessionDir string, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		cacheStore: cacheStore,
		api:        apiClient,
		signer:     signer,
		sessionDir: sessionDir,
		log:        log,
	}
}

// Register proves wallet ownership by signing the welcome message with a
// timestamp appended, then registers the wallet with the backend.
func (s *Service) Register(ctx context.Context, referralCode string) (*api.User, error) {
	message := fmt.Sprintf("%s%d", config.SignMessagePreamble, time.Now().UnixMilli())

	signature, err := s.signer.SignMessage([]byte(message))
	if err != nil {
		return nil, fmt.Errorf("signing registration message: %w", err)
	}

	resp, err := s.api.Register(ctx, api.RegisterRequest{
		WalletAddress: s.signer.Address(),
		Signature:     base58.Encode(signature),
		Message:       message,
		ReferralCode:  referralCode,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.User == nil {
		return nil, fmt.Errorf("registration failed")
	}

	s.store.SetUser(resp.User)
	return resp.User, nil
}

// CheckExisting looks the connected wallet up on the backend and adopts the
// account when it exists.
func (s *Service) CheckExisting(ctx context.Context) (*api.User, error) {
	check, err := s.api.CheckUser(ctx, s.signer.Address())
	if err != nil {
		return nil, err
	}
	if !check.Exists {
		return nil, nil
	}

	user, err := s.api.GetUser(ctx, s.signer.Address())
	if err != nil {
		return nil, err
	}
	s.store.SetUser(&user)
	return &user, nil
}

// Logout erases the full session: auth state, cache state, and any
// vendor-prefixed wallet-connection keys left in the session directory.
func (s *Service) Logout() error {
	s.cacheStore.InvalidateAll()

	if err := s.store.Wipe(); err != nil {
		return fmt.Errorf("wiping auth state: %w", err)
	}
	if err := s.cacheStore.Wipe(); err != nil {
		return fmt.Errorf("wiping cache state: %w", err)
	}

	entries, err := os.ReadDir(s.sessionDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scanning session directory: %w", err)
	}
	for _, entry := range entries {
		name := strings.ToLower(entry.Name())
		for _, prefix := range vendorSessionPrefixes {
			if strings.Contains(name, prefix) {
				path := filepath.Join(s.sessionDir, entry.Name())
				if err := os.RemoveAll(path); err != nil {
					s.log.Warnf("failed to remove session artifact %s: %v", path, err)
				}
				break
			}
		}
	}

	s.log.Info("session cleared")
	return nil
}
