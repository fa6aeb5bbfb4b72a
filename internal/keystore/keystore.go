package keystore

import (
	"errors"
	"fmt"
	"log"
	"time"

	"bma/internal/config"

	"github.com/zalando/go-keyring"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyProvider     = "auth_provider"
	keyExpiresAt    = "token_expires_at"
)

// ErrNoSession indica que não há sessão persistida no keychain
var ErrNoSession = errors.New("no stored session")

// TokenPair é o bundle persistido entre execuções do app
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Provider     string
	ExpiresAt    time.Time
}

// Store persiste o par de tokens no keychain do sistema
type Store struct {
	service string
}

// NewStore cria um Store usando o bundle id do app como service name
func NewStore() *Store {
	return &Store{service: config.AppBundleID}
}

// Save grava o par de tokens no keychain
func (s *Store) Save(pair TokenPair) error {
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return fmt.Errorf("refusing to persist partial token pair")
	}

	if err := keyring.Set(s.service, keyAccessToken, pair.AccessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if err := keyring.Set(s.service, keyRefreshToken, pair.RefreshToken); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	if err := keyring.Set(s.service, keyProvider, pair.Provider); err != nil {
		return fmt.Errorf("failed to store provider: %w", err)
	}
	if err := keyring.Set(s.service, keyExpiresAt, pair.ExpiresAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to store expiration: %w", err)
	}
	return nil
}

// Load recupera o par de tokens. Retorna ErrNoSession quando qualquer um
// dos tokens obrigatórios está ausente — par parcial nunca é aceito.
func (s *Store) Load() (*TokenPair, error) {
	access, err := keyring.Get(s.service, keyAccessToken)
	if err != nil || access == "" {
		return nil, ErrNoSession
	}

	refresh, err := keyring.Get(s.service, keyRefreshToken)
	if err != nil || refresh == "" {
		return nil, ErrNoSession
	}

	pair := &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}

	if provider, err := keyring.Get(s.service, keyProvider); err == nil {
		pair.Provider = provider
	}
	if raw, err := keyring.Get(s.service, keyExpiresAt); err == nil {
		if expiresAt, parseErr := time.Parse(time.RFC3339, raw); parseErr == nil {
			pair.ExpiresAt = expiresAt
		}
	}

	return pair, nil
}

// Clear remove todos os itens de auth do keychain
func (s *Store) Clear() error {
	keys := []string{keyAccessToken, keyRefreshToken, keyProvider, keyExpiresAt}
	for _, key := range keys {
		if err := keyring.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			log.Printf("[KEYSTORE] Warning: failed to delete keychain key %s: %v", key, err)
		}
	}
	return nil
}
