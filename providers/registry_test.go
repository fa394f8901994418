package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetAnthropic(t *testing.T) {
	registry := NewProviderRegistry()

	provider, err := registry.Get("anthropic", "key", "claude-3-5-sonnet-20240620", nil)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", provider.Name())
}

func TestRegistryUnknownProvider(t *testing.T) {
	registry := NewProviderRegistry()

	_, err := registry.Get("nonexistent", "key", "model", nil)
	assert.ErrorContains(t, err, "unknown provider")
}

func TestRegistryFiltered(t *testing.T) {
	registry := NewProviderRegistry("anthropic")

	_, err := registry.Get("anthropic", "key", "model", nil)
	assert.NoError(t, err)
}

func TestRegistryRegisterCustom(t *testing.T) {
	registry := NewProviderRegistry()
	registry.Register("mock", NewMockProvider)

	provider, err := registry.Get("mock", "key", "model", nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", provider.Name())
}
