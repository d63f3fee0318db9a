package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "gemini-terminal"

// KeyringStore keeps settings in the operating system keychain, one secret
// per key under the gemini-terminal service.
type KeyringStore struct {
	service string
}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService}
}

func (s *KeyringStore) Get(ctx context.Context, key string) (string, error) {
	v, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read %q from keyring: %w", key, err)
	}
	return v, nil
}

// Put is not atomic: the keychain has no transactions, entries are written one by one
func (s *KeyringStore) Put(ctx context.Context, entries map[string]string) error {
	for k, v := range entries {
		if err := keyring.Set(s.service, k, v); err != nil {
			return fmt.Errorf("failed to write %q to keyring: %w", k, err)
		}
	}
	return nil
}

func (s *KeyringStore) Close() error {
	return nil
}
