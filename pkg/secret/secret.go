// Package secret generates webhook secrets and keeps credentials in the
// system keychain.
package secret

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/zalando/go-keyring"

	"zalonotify/pkg/config"
)

// DefaultLength is the length of generated webhook secrets.
const DefaultLength = 32

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generate returns n random alphanumeric characters.
func Generate(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("secret length must be positive, got %d", n)
	}

	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate secret: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

// Keychain stores secrets under one keychain service name.
type Keychain struct {
	service string
}

var _ config.SecretSource = Keychain{}

func NewKeychain(service string) Keychain {
	return Keychain{service: service}
}

// Get returns config.ErrSecretNotFound when the keychain has no entry.
func (k Keychain) Get(key string) (string, error) {
	value, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", config.ErrSecretNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s from keychain: %w", key, err)
	}
	return value, nil
}

func (k Keychain) Set(key, value string) error {
	if err := keyring.Set(k.service, key, value); err != nil {
		return fmt.Errorf("store %s in keychain: %w", key, err)
	}
	return nil
}

// Delete removes key; a missing entry is not an error.
func (k Keychain) Delete(key string) error {
	err := keyring.Delete(k.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete %s from keychain: %w", key, err)
	}
	return nil
}
