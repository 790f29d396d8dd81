package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"loopy-client/src/api"
	"loopy-client/src/cache"
	"loopy-client/src/config"
	"loopy-client/src/logger"
)

type fakeSigner struct {
	address string
}

func (s *fakeSigner) Address() string { return s.address }

func (s *fakeSigner) SignMessage(message []byte) ([]byte, error) {
	return message, nil
}

func (s *fakeSigner) SignAndSendTransaction(txBase64 string) (string, error) {
	return "sig", nil
}

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *Store, *cache.Store, string) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.New()
	sessionDir := t.TempDir()
	authStore := NewStore(filepath.Join(sessionDir, "auth.json"), log)
	cacheStore := cache.NewStore(filepath.Join(sessionDir, "cache.json"), log)
	apiClient := api.NewClient(server.URL, 5*time.Second, log)
	signer := &fakeSigner{address: "wallet1"}

	return NewService(authStore, cacheStore, apiClient, signer, sessionDir, log), authStore, cacheStore, sessionDir
}

func TestRegisterSignsTimestampedWelcomeMessage(t *testing.T) {
	var got api.RegisterRequest
	svc, store, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"user":    map[string]any{"wallet_address": "wallet1", "referral_code": "REF1"},
		})
	})

	user, err := svc.Register(context.Background(), "")
	assert.NoError(t, err)
	assert.Equal(t, "wallet1", user.WalletAddress)

	assert.True(t, strings.HasPrefix(got.Message, config.SignMessagePreamble))
	assert.NotEmpty(t, got.Signature)
	assert.Equal(t, "wallet1", got.WalletAddress)

	assert.True(t, store.IsRegistered())
	assert.Equal(t, "REF1", store.User().ReferralCode)
}

func TestRegisterLogicalFailure(t *testing.T) {
	svc, store, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false})
	})

	_, err := svc.Register(context.Background(), "")
	assert.Error(t, err)
	assert.False(t, store.IsRegistered())
}

func TestCheckExistingAdoptsAccount(t *testing.T) {
	svc, store, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/check/wallet1":
			json.NewEncoder(w).Encode(map[string]any{"exists": true})
		case "/auth/user/wallet1":
			json.NewEncoder(w).Encode(map[string]any{"wallet_address": "wallet1", "points": 50})
		default:
			http.NotFound(w, r)
		}
	})

	user, err := svc.CheckExisting(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, int64(50), user.Points)
	assert.True(t, store.IsRegistered())
}

func TestCheckExistingUnknownWallet(t *testing.T) {
	svc, store, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"exists": false})
	})

	user, err := svc.CheckExisting(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.False(t, store.IsRegistered())
}

func TestLogoutWipesSessionAndVendorArtifacts(t *testing.T) {
	svc, authStore, cacheStore, sessionDir := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})

	authStore.SetUser(&api.User{WalletAddress: "wallet1"})
	cacheStore.SetShieldedBalance(cache.ShieldedBalance{})

	// Vendor wallet-connection artifacts that must not survive logout.
	vendorFiles := []string{
		"appkit-session.json",
		"reown-state",
		"walletconnect-pairing.json",
		"wc@2:client:0.3:session",
	}
	for _, name := range vendorFiles {
		assert.NoError(t, os.WriteFile(filepath.Join(sessionDir, name), []byte("{}"), 0o600))
	}
	keep := filepath.Join(sessionDir, "unrelated.txt")
	assert.NoError(t, os.WriteFile(keep, []byte("keep me"), 0o600))

	assert.NoError(t, svc.Logout())

	assert.False(t, authStore.IsRegistered())
	assert.Nil(t, authStore.User())
	assert.Nil(t, cacheStore.ShieldedBalance())

	for _, name := range vendorFiles {
		assert.NoFileExists(t, filepath.Join(sessionDir, name), "vendor artifact %s survived logout", name)
	}
	assert.FileExists(t, keep)
}

func TestLogoutWithMissingSessionDir(t *testing.T) {
	svc, _, _, sessionDir := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.NoError(t, os.RemoveAll(sessionDir))
	assert.NoError(t, svc.Logout())
}

func TestAuthStateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	log := logger.New()
	path := filepath.Join(dir, "auth.json")

	store := NewStore(path, log)
	store.SetUser(&api.User{WalletAddress: "wallet1", ReferralCode: "REF1"})

	reloaded := NewStore(path, log)
	assert.True(t, reloaded.IsRegistered())
	assert.Equal(t, "REF1", reloaded.User().ReferralCode)
}
