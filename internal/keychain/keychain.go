// Package keychain stores provider API keys in the OS credential store.
package keychain

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies our namespace in the credential store.
const ServiceName = "llmpipe"

// ErrNotFound is returned when no key is stored for a provider.
var ErrNotFound = errors.New("no API key stored")

// Store reads and writes API keys. It is safe for concurrent use.
type Store struct {
	ring keyring.Keyring
	mu   sync.RWMutex
}

// Open opens the native credential store of the current platform.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: ServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		},
		KeychainTrustApplication: true,
		LibSecretCollectionName:  ServiceName,
		KWalletAppID:             ServiceName,
		KWalletFolder:            ServiceName,
		PassPrefix:               ServiceName,
		WinCredPrefix:            ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return NewStore(ring), nil
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Key returns the item key used for provider.
func Key(provider string) string {
	return "api_key_" + strings.ToLower(provider)
}

// SetAPIKey stores key for provider, replacing any previous value.
func (s *Store) SetAPIKey(provider, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("API key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ring.Set(keyring.Item{
		Key:         Key(provider),
		Data:        []byte(key),
		Label:       fmt.Sprintf("%s API key (%s)", provider, ServiceName),
		Description: "LLM provider API key",
	}); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	return nil
}

// APIKey returns the stored key for provider.
func (s *Store) APIKey(provider string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, err := s.ring.Get(Key(provider))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w for %s", ErrNotFound, provider)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	if len(item.Data) == 0 {
		return "", fmt.Errorf("%w for %s", ErrNotFound, provider)
	}
	return string(item.Data), nil
}

// RemoveAPIKey deletes the stored key for provider. Removing a key that
// does not exist is not an error.
func (s *Store) RemoveAPIKey(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ring.Remove(Key(provider)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove API key: %w", err)
	}
	return nil
}
