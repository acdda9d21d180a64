package secret

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"zalonotify/pkg/config"
)

func TestGenerate(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Za-z0-9]{32}$`)
	seen := map[string]bool{}

	for i := 0; i < 20; i++ {
		value, err := Generate(DefaultLength)
		require.NoError(t, err)
		assert.Regexp(t, pattern, value)
		assert.False(t, seen[value], "duplicate secret %q", value)
		seen[value] = true
	}
}

func TestGenerateRejectsNonPositiveLength(t *testing.T) {
	_, err := Generate(0)
	assert.Error(t, err)
}

func TestKeychainRoundTrip(t *testing.T) {
	keyring.MockInit()
	kc := NewKeychain("zalonotify-test")

	_, err := kc.Get(config.SecretBotToken)
	assert.ErrorIs(t, err, config.ErrSecretNotFound)

	require.NoError(t, kc.Set(config.SecretBotToken, "tok-1"))
	value, err := kc.Get(config.SecretBotToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", value)

	require.NoError(t, kc.Delete(config.SecretBotToken))
	require.NoError(t, kc.Delete(config.SecretBotToken))
	_, err = kc.Get(config.SecretBotToken)
	assert.ErrorIs(t, err, config.ErrSecretNotFound)
}

func TestKeychainFeedsSettingsStore(t *testing.T) {
	keyring.MockInit()
	kc := NewKeychain("zalonotify-test")
	require.NoError(t, kc.Set(config.SecretSecretToken, "from-keychain"))

	store := config.NewStore(&config.Config{}, kc)
	assert.Equal(t, "from-keychain", store.Settings().SecretToken)
}
