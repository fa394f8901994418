// Package providers defines the completion-API provider interface and its
// Anthropic implementation, including prompt-caching annotations on request
// content.
package providers

import (
	"github.com/cachelab/promptcache/config"
	"github.com/cachelab/promptcache/utils"
)

// Provider abstracts a completion API backend.
type Provider interface {
	Name() string
	Endpoint() string
	Headers() map[string]string
	SetExtraHeaders(extraHeaders map[string]string)
	SetDefaultOptions(cfg *config.Config)
	SetOption(key string, value any)
	SetLogger(logger utils.Logger)

	// PrepareRequest serializes a Request into the provider's wire format.
	// Messages carrying a CacheType are emitted with a cache_control block.
	PrepareRequest(req *Request, options map[string]any) ([]byte, error)

	// ParseResponse decodes a provider response body, including token usage
	// and cache statistics.
	ParseResponse(body []byte) (*Response, error)
}

// ProviderConstructor builds a Provider from an API key, model name, and
// extra headers.
type ProviderConstructor func(apiKey, model string, extraHeaders map[string]string) Provider
