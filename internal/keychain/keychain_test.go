package keychain

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(keyring.NewArrayKeyring(nil))

	_, err := store.APIKey("openai")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SetAPIKey("OpenAI", "sk-test"))

	key, err := store.APIKey("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)

	require.NoError(t, store.RemoveAPIKey("openai"))
	_, err = store.APIKey("openai")
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing again is fine.
	assert.NoError(t, store.RemoveAPIKey("openai"))
}

func TestSetAPIKeyRejectsEmpty(t *testing.T) {
	store := NewStore(keyring.NewArrayKeyring(nil))
	assert.Error(t, store.SetAPIKey("anthropic", "  "))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "api_key_yandex", Key("Yandex"))
}
